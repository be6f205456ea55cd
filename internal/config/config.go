package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete rendezvous configuration
type Config struct {
	Resource ResourceConfig `mapstructure:"resource"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Watch    WatchConfig    `mapstructure:"watch"`
}

// ResourceConfig controls how participants coordinate on a shared resource
type ResourceConfig struct {
	// Dir is the directory holding the <name>.shared state files (default: os.TempDir())
	Dir string `mapstructure:"dir"`
	// PollInterval is how often a follower re-reads the state file (default: 60s)
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// ReadyPollInterval is how often the leader re-checks readiness (default: 1s)
	ReadyPollInterval time.Duration `mapstructure:"ready_poll_interval"`
	// FileEvents wakes pollers early on state file changes via fsnotify
	FileEvents bool `mapstructure:"file_events"`
	// Recoverable lets a follower take over after a recoverable leader failure
	Recoverable bool `mapstructure:"recoverable"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the minimum log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is where rendezvous.log is written. Empty means stderr.
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the maximum size of a log file before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated log files (default: false)
	Compress bool `mapstructure:"compress"`
}

// WatchConfig controls the live `watch` view
type WatchConfig struct {
	// RefreshInterval is how often the view re-reads the state file (default: 500ms)
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Resource: ResourceConfig{
			Dir:               os.TempDir(),
			PollInterval:      60 * time.Second,
			ReadyPollInterval: time.Second,
			FileEvents:        true,
			Recoverable:       false,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Dir:        "", // stderr
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
		Watch: WatchConfig{
			RefreshInterval: 500 * time.Millisecond,
		},
	}
}

// ResolveDir returns the state directory with ~ expanded.
// An empty Dir resolves to os.TempDir().
func (r *ResourceConfig) ResolveDir() string {
	if r.Dir == "" {
		return os.TempDir()
	}
	return expandHome(r.Dir)
}

// ResolveDir returns the log directory with ~ expanded. Empty stays empty.
func (l *LoggingConfig) ResolveDir() string {
	if l.Dir == "" {
		return ""
	}
	return expandHome(l.Dir)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Resource defaults
	viper.SetDefault("resource.dir", defaults.Resource.Dir)
	viper.SetDefault("resource.poll_interval", defaults.Resource.PollInterval)
	viper.SetDefault("resource.ready_poll_interval", defaults.Resource.ReadyPollInterval)
	viper.SetDefault("resource.file_events", defaults.Resource.FileEvents)
	viper.SetDefault("resource.recoverable", defaults.Resource.Recoverable)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)

	// Watch defaults
	viper.SetDefault("watch.refresh_interval", defaults.Watch.RefreshInterval)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "rendezvous")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rendezvous"
	}
	return filepath.Join(home, ".config", "rendezvous")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
