package agent

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func initRedisFlags(root *cobra.Command) {
	f := root.PersistentFlags()

	f.String("redis.addr", defaultCfg.Redis.Addr, "-> Redis address of the cluster registry (host:port)")
	f.Int("redis.db", defaultCfg.Redis.DB, "-> Redis database number")
	f.String("redis.password", defaultCfg.Redis.Password, "-> Redis password")
	f.Bool("redis.enable_tls", defaultCfg.Redis.EnableTLS, "-> Connect to Redis over TLS")
	f.Bool("redis.insecure_skip_verify", defaultCfg.Redis.InsecureSkipVerify, "-> Skip TLS certificate verification")
	f.String("redis.namespace", defaultCfg.Redis.Namespace, "-> Key namespace prefix used by the workers")

	err := viper.BindPFlags(f)
	if err != nil {
		return
	}
}
