package cmd

import (
	"strings"

	"github.com/SatelliteQE/rendezvous/internal/config"
	"github.com/SatelliteQE/rendezvous/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = newRootCmd()

// newRootCmd builds the command tree. Tests build a fresh tree per case.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rendezvous",
		Short: "Cross-process shared test resource coordinator",
		Long: `Rendezvous lets independent test processes share one expensive
resource. Every process joins a named resource; the first one becomes the
leader and runs the action once everybody is ready, the others wait for
the result. Coordination happens through a locked state file, so the
participants need nothing but a common directory.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initConfig()
			return nil
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/rendezvous/config.yaml)")
	root.PersistentFlags().StringP("dir", "d", "", "directory holding the state files (default is the system temp dir)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("resource.dir", root.PersistentFlags().Lookup("dir"))
	_ = viper.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(
		newJoinCmd(),
		newInspectCmd(),
		newListCmd(),
		newCleanCmd(),
		newWatchCmd(),
		newLogsCmd(),
		newConfigCmd(),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("RENDEZVOUS")
	// e.g., RENDEZVOUS_RESOURCE_POLL_INTERVAL for resource.poll_interval
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// newLogger builds the process logger from the logging section.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLoggerWithRotation(cfg.Logging.ResolveDir(), cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	})
}
