package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Planner PlannerConfig `mapstructure:"planner"`
}

// APIConfig holds upstream FPL API configuration
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	LiveTTL   time.Duration `mapstructure:"live_ttl"`
	RateLimit float64       `mapstructure:"rate_limit"` // requests per second
	RateBurst int           `mapstructure:"rate_burst"`
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// StorageConfig holds persistence configuration. Empty DSNs disable
// the corresponding store; the toolkit runs fully in memory without
// them.
type StorageConfig struct {
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"`
}

// MetricsConfig holds advanced-metrics data file paths. Missing files
// leave enhancement disabled.
type MetricsConfig struct {
	ExpectedRatesPath string `mapstructure:"expected_rates_path"`
	ZoneWeaknessPath  string `mapstructure:"zone_weakness_path"`
}

// PlannerConfig holds default planning parameters
type PlannerConfig struct {
	Horizon       int `mapstructure:"horizon"`
	ScenarioCount int `mapstructure:"scenario_count"`
	WeeksAhead    int `mapstructure:"weeks_ahead"`
}

// Load reads configuration from an optional file and environment
// variables. An empty path skips the file and uses defaults plus env.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("FPL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.base_url", "https://fantasy.premierleague.com/api")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.cache_ttl", "1h")
	v.SetDefault("api.live_ttl", "1m")
	v.SetDefault("api.rate_limit", 2.0)
	v.SetDefault("api.rate_burst", 5)

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")

	// Metrics defaults
	v.SetDefault("metrics.expected_rates_path", "")
	v.SetDefault("metrics.zone_weakness_path", "")

	// Planner defaults
	v.SetDefault("planner.horizon", 5)
	v.SetDefault("planner.scenario_count", 5)
	v.SetDefault("planner.weeks_ahead", 4)
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate API config
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.Timeout < 1*time.Second {
		return fmt.Errorf("api.timeout must be at least 1 second")
	}
	if c.API.CacheTTL < 1*time.Second {
		return fmt.Errorf("api.cache_ttl must be at least 1 second")
	}
	if c.API.LiveTTL < 1*time.Second {
		return fmt.Errorf("api.live_ttl must be at least 1 second")
	}
	if c.API.RateLimit <= 0 {
		return fmt.Errorf("api.rate_limit must be positive")
	}
	if c.API.RateBurst < 1 {
		return fmt.Errorf("api.rate_burst must be at least 1")
	}

	// Validate Server config
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	// Validate Planner config
	if c.Planner.Horizon < 1 || c.Planner.Horizon > 38 {
		return fmt.Errorf("planner.horizon must be between 1 and 38")
	}
	if c.Planner.ScenarioCount < 1 {
		return fmt.Errorf("planner.scenario_count must be at least 1")
	}
	if c.Planner.WeeksAhead < 1 || c.Planner.WeeksAhead > 38 {
		return fmt.Errorf("planner.weeks_ahead must be between 1 and 38")
	}

	return nil
}
