package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/akyairhashvil/okrcap/internal/util"
)

// Config is the complete okrcap configuration.
type Config struct {
	Database     DatabaseConfig `mapstructure:"database"`
	Logging      LoggingConfig  `mapstructure:"logging"`
	Capacity     CapacityConfig `mapstructure:"capacity"`
	Nodes        NodesConfig    `mapstructure:"nodes"`
	Planner      PlannerConfig  `mapstructure:"planner"`
	Metrics      MetricsConfig  `mapstructure:"metrics"`
	Organization string         `mapstructure:"organization"`
	User         string         `mapstructure:"user"`
}

// DatabaseConfig controls the SQLite store.
type DatabaseConfig struct {
	// Path is the database file. Empty means {data dir}/okrcap.db.
	Path string `mapstructure:"path"`
	// TimeoutMs bounds every query (default: 5000)
	TimeoutMs int `mapstructure:"timeout_ms"`
}

// LoggingConfig controls debug logging.
type LoggingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Level is one of debug, info, warn, error (default: info)
	Level string `mapstructure:"level"`
	// Dir holds debug.log. Empty means the data dir.
	Dir string `mapstructure:"dir"`
}

// CapacityConfig seeds settings for users without stored capacity.
type CapacityConfig struct {
	WeeklyCapacity float64 `mapstructure:"weekly_capacity"`
	DailyLimit     float64 `mapstructure:"daily_limit"`
	OKRAllocation  float64 `mapstructure:"okr_allocation"`
}

// NodesConfig controls the node store.
type NodesConfig struct {
	// DeletePolicy is cascade or restrict (default: cascade)
	DeletePolicy string `mapstructure:"delete_policy"`
}

// PlannerConfig controls feasibility planning.
type PlannerConfig struct {
	// HorizonDays is the plan length when no end date is given (default: 28)
	HorizonDays int `mapstructure:"horizon_days"`
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      "",
			TimeoutMs: int(DefaultQueryTimeout / time.Millisecond),
		},
		Logging: LoggingConfig{
			Enabled: false,
			Level:   "info",
		},
		Capacity: CapacityConfig{
			WeeklyCapacity: DefaultWeeklyCapacity,
			DailyLimit:     DefaultDailyLimit,
			OKRAllocation:  DefaultOKRAllocation,
		},
		Nodes: NodesConfig{
			DeletePolicy: DeletePolicyCascade,
		},
		Planner: PlannerConfig{
			HorizonDays: DefaultHorizonDays,
		},
		Metrics: MetricsConfig{
			Addr: DefaultMetricsAddr,
		},
		Organization: DefaultOrganization,
		User:         DefaultUser,
	}
}

// QueryTimeout returns the per-query timeout as a time.Duration.
func (c *DatabaseConfig) QueryTimeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// ResolvePath returns the database file, defaulting into the data dir.
func (c *DatabaseConfig) ResolvePath() string {
	if c.Path != "" {
		return c.Path
	}
	return filepath.Join(util.DataDir(AppName), DBFileName)
}

// ResolveDir returns the log directory, defaulting to the data dir.
func (c *LoggingConfig) ResolveDir() string {
	if c.Dir != "" {
		return c.Dir
	}
	return util.DataDir(AppName)
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("database.path", defaults.Database.Path)
	viper.SetDefault("database.timeout_ms", defaults.Database.TimeoutMs)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)

	viper.SetDefault("capacity.weekly_capacity", defaults.Capacity.WeeklyCapacity)
	viper.SetDefault("capacity.daily_limit", defaults.Capacity.DailyLimit)
	viper.SetDefault("capacity.okr_allocation", defaults.Capacity.OKRAllocation)

	viper.SetDefault("nodes.delete_policy", defaults.Nodes.DeletePolicy)
	viper.SetDefault("planner.horizon_days", defaults.Planner.HorizonDays)
	viper.SetDefault("metrics.addr", defaults.Metrics.Addr)

	viper.SetDefault("organization", defaults.Organization)
	viper.SetDefault("user", defaults.User)
}

// Load reads the configuration from viper into a Config and validates it.
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

// ConfigDir returns the user's okrcap config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// ConfigFile returns the path to the config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), ConfigFileName)
}
