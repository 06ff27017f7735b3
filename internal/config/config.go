package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rewired-gh/aetherscore/internal/backtest"
	"github.com/rewired-gh/aetherscore/internal/pipeline"
	"github.com/rewired-gh/aetherscore/internal/tuning"
)

// Config represents the complete application configuration
type Config struct {
	Analysis tuning.Table    `mapstructure:"analysis"`
	Backtest backtest.Config `mapstructure:"backtest"`
	Pipeline pipeline.Config `mapstructure:"pipeline"`
	Source   SourceConfig    `mapstructure:"source"`
	Storage  StorageConfig   `mapstructure:"storage"`
	Telegram TelegramConfig  `mapstructure:"telegram"`
	Metrics  MetricsConfig   `mapstructure:"metrics"`
	Logging  LoggingConfig   `mapstructure:"logging"`
}

// SourceConfig says where draw history is loaded from
type SourceConfig struct {
	Path           string        `mapstructure:"path"`
	URL            string        `mapstructure:"url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds storage and persistence configuration
type StorageConfig struct {
	DBPath  string `mapstructure:"db_path"`
	MaxRuns int    `mapstructure:"max_runs"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// MetricsConfig holds the Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var envKeyReplacer = strings.NewReplacer(".", "_")

// Load reads configuration from file and environment variables.
// An empty path uses defaults and environment variables only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Enable environment variable override, e.g. AETHER_STORAGE_DB_PATH
	v.SetEnvPrefix("AETHER")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Tuning keys absent from the file keep their defaults.
	cfg := Config{Analysis: tuning.Default()}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	bt := backtest.DefaultConfig()
	v.SetDefault("backtest.initial_window_size", bt.InitialWindowSize)
	v.SetDefault("backtest.calibration_interval", bt.CalibrationInterval)
	v.SetDefault("backtest.min_profiles_for_calibration", bt.MinProfilesForCalibration)
	v.SetDefault("backtest.profile_window", bt.ProfileWindow)
	v.SetDefault("backtest.min_profile_sample", bt.MinProfileSample)
	v.SetDefault("backtest.yield_interval", bt.YieldInterval)
	v.SetDefault("backtest.forecast_main", bt.ForecastMain)
	v.SetDefault("backtest.forecast_star", bt.ForecastStar)
	v.SetDefault("backtest.timeline_buckets", bt.TimelineBuckets)

	pl := pipeline.DefaultConfig()
	v.SetDefault("pipeline.aggregate_weight", pl.AggregateWeight)
	v.SetDefault("pipeline.tuesday_weight", pl.TuesdayWeight)
	v.SetDefault("pipeline.friday_weight", pl.FridayWeight)
	v.SetDefault("pipeline.progress_per_second", pl.ProgressPerSecond)
	v.SetDefault("pipeline.coupon_seed", pl.CouponSeed)

	// Source defaults
	v.SetDefault("source.timeout", "30s")
	v.SetDefault("source.max_retries", 3)
	v.SetDefault("source.retry_delay_base", "1s")

	// Storage defaults
	v.SetDefault("storage.db_path", "./data/aetherscore.db")
	v.SetDefault("storage.max_runs", 50)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen_addr", ":9090")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}

	// Validate Backtest config
	if c.Backtest.InitialWindowSize < 1 {
		return fmt.Errorf("backtest.initial_window_size must be at least 1")
	}
	if c.Backtest.CalibrationInterval < 1 {
		return fmt.Errorf("backtest.calibration_interval must be at least 1")
	}
	if c.Backtest.MinProfilesForCalibration < 1 {
		return fmt.Errorf("backtest.min_profiles_for_calibration must be at least 1")
	}
	if c.Backtest.ProfileWindow < c.Backtest.MinProfileSample {
		return fmt.Errorf("backtest.profile_window must not be below backtest.min_profile_sample")
	}
	if c.Backtest.YieldInterval < 1 {
		return fmt.Errorf("backtest.yield_interval must be at least 1")
	}
	if c.Backtest.ForecastMain < 1 || c.Backtest.ForecastMain > 50 {
		return fmt.Errorf("backtest.forecast_main must be between 1 and 50")
	}
	if c.Backtest.ForecastStar < 1 || c.Backtest.ForecastStar > 12 {
		return fmt.Errorf("backtest.forecast_star must be between 1 and 12")
	}
	if c.Backtest.TimelineBuckets < 1 {
		return fmt.Errorf("backtest.timeline_buckets must be at least 1")
	}

	// Validate Pipeline config
	p := c.Pipeline
	if p.AggregateWeight < 0 || p.TuesdayWeight < 0 || p.FridayWeight < 0 {
		return fmt.Errorf("pipeline weights must not be negative")
	}
	if p.AggregateWeight+p.TuesdayWeight+p.FridayWeight <= 0 {
		return fmt.Errorf("pipeline weights must not all be zero")
	}
	if p.ProgressPerSecond < 0 {
		return fmt.Errorf("pipeline.progress_per_second must not be negative")
	}

	// Validate Source config
	if c.Source.Timeout < time.Second {
		return fmt.Errorf("source.timeout must be at least 1 second")
	}
	if c.Source.MaxRetries < 1 {
		return fmt.Errorf("source.max_retries must be at least 1")
	}

	// Validate Storage config
	if c.Storage.MaxRuns < 1 {
		return fmt.Errorf("storage.max_runs must be at least 1")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Metrics config
	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return fmt.Errorf("metrics.listen_addr is required when metrics are enabled")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
