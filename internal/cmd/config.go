package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/SatelliteQE/rendezvous/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "View rendezvous configuration",
		Long: `View the effective rendezvous configuration.

Without arguments, prints the configuration after merging defaults, the
config file, RENDEZVOUS_* environment variables and flags.`,
		RunE: runConfigShow,
	}
	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show current configuration",
			RunE:  runConfigShow,
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show the config file path",
			RunE:  runConfigPath,
		},
	)
	return configCmd
}

// configView mirrors config.Config with yaml keys and readable durations.
type configView struct {
	Resource struct {
		Dir               string `yaml:"dir"`
		PollInterval      string `yaml:"poll_interval"`
		ReadyPollInterval string `yaml:"ready_poll_interval"`
		FileEvents        bool   `yaml:"file_events"`
		Recoverable       bool   `yaml:"recoverable"`
	} `yaml:"resource"`
	Logging struct {
		Enabled    bool   `yaml:"enabled"`
		Level      string `yaml:"level"`
		Dir        string `yaml:"dir"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logging"`
	Watch struct {
		RefreshInterval string `yaml:"refresh_interval"`
	} `yaml:"watch"`
}

func newConfigView(cfg *config.Config) configView {
	var v configView
	v.Resource.Dir = cfg.Resource.ResolveDir()
	v.Resource.PollInterval = cfg.Resource.PollInterval.String()
	v.Resource.ReadyPollInterval = cfg.Resource.ReadyPollInterval.String()
	v.Resource.FileEvents = cfg.Resource.FileEvents
	v.Resource.Recoverable = cfg.Resource.Recoverable
	v.Logging.Enabled = cfg.Logging.Enabled
	v.Logging.Level = cfg.Logging.Level
	v.Logging.Dir = cfg.Logging.Dir
	v.Logging.MaxSizeMB = cfg.Logging.MaxSizeMB
	v.Logging.MaxBackups = cfg.Logging.MaxBackups
	v.Logging.Compress = cfg.Logging.Compress
	v.Watch.RefreshInterval = cfg.Watch.RefreshInterval.String()
	return v
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "# Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintln(out, "# Config file: (none - using defaults)")
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(newConfigView(cfg)); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}

	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintln(out, "  2. ./config.yaml (current directory)")
	fmt.Fprintln(out, "\nEnvironment variables: RENDEZVOUS_* (e.g., RENDEZVOUS_RESOURCE_DIR)")
	return nil
}
