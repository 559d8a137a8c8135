package agent

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func initPublisherFlags(root *cobra.Command) {
	f := root.PersistentFlags()

	f.Duration("publisher.interval", defaultCfg.Publisher.Interval, "-> Publishing interval")
	f.String("publisher.namespace", defaultCfg.Publisher.Namespace, "-> CloudWatch metric namespace")
	f.StringSlice("publisher.dimensions", defaultCfg.Publisher.Dimensions, "-> Base dimensions as Name=Value pairs")
	f.Bool("publisher.leader_election", defaultCfg.Publisher.LeaderElection, "-> Publish only from the elected leader process")
	f.String("publisher.leader_lock_key", defaultCfg.Publisher.LeaderLockKey, "-> Redis key of the leader lock")
	f.Duration("publisher.leader_lock_ttl", defaultCfg.Publisher.LeaderLockTTL, "-> TTL of the leader lock")

	err := viper.BindPFlags(f)
	if err != nil {
		return
	}
}
