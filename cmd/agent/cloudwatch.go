package agent

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func initCloudWatchFlags(root *cobra.Command) {
	f := root.PersistentFlags()

	f.String("cloudwatch.region", defaultCfg.CloudWatch.Region, "-> AWS region (empty: default chain)")
	f.String("cloudwatch.endpoint", defaultCfg.CloudWatch.Endpoint, "-> CloudWatch endpoint override")
	f.String("cloudwatch.access_key", defaultCfg.CloudWatch.AccessKey, "-> AWS access key (empty: default chain)")
	f.String("cloudwatch.secret_key", defaultCfg.CloudWatch.SecretKey, "-> AWS secret key (empty: default chain)")

	err := viper.BindPFlags(f)
	if err != nil {
		return
	}
}
