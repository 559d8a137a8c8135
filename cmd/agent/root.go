package agent

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	internalagent "github.com/sidekiq-metrics-agent/internal/agent"
	"github.com/sidekiq-metrics-agent/pkg/config"
	"github.com/sidekiq-metrics-agent/pkg/logger"
	"github.com/sidekiq-metrics-agent/pkg/util"
)

var (
	cfgFile    string
	defaultCfg = config.NewDefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "metrics-agent",
	Short: "Publishes job cluster metrics (queue depth, utilization, latency) to CloudWatch",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigWithCli(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := runAgent(cmd.Context(), cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return nil
	},
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file (yaml)")
	initPublisherFlags(rootCmd)
	initRedisFlags(rootCmd)
	initCloudWatchFlags(rootCmd)
	initServerFlags(rootCmd)
	initLogFlags(rootCmd)
}

func runAgent(ctx context.Context, cfg *config.Config) error {
	util.PrintBanner("metrics-agent", "ColorBlue")

	if err := logger.Init(&cfg.Log); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("configuration loaded")
	if ctx == nil {
		ctx = context.Background()
	}
	return internalagent.Run(ctx, cfg)
}
