package agent

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func initLogFlags(root *cobra.Command) {
	f := root.PersistentFlags()

	f.String("log.level", defaultCfg.Log.Level, "-> Log level [debug,info,warn,error]")
	f.String("log.format", defaultCfg.Log.Format, "-> Log format [console,json]")
	f.String("log.path", defaultCfg.Log.Path, "-> Log file storage path")
	f.Int("log.max_size", defaultCfg.Log.MaxSizeMB, "-> Max size of single log file (MB)")
	f.Int("log.max_age", defaultCfg.Log.MaxAge, "-> Maximum retention days of log files")

	err := viper.BindPFlags(f)
	if err != nil {
		return
	}
}
