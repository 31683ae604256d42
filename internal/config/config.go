// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aristath/eventscope/internal/modules/eventwindow"
	"github.com/aristath/eventscope/internal/modules/holding"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. EVENTSCOPE_PORT or
// EVENTSCOPE_ATTENTION_BASE_URL.
const EnvPrefix = "EVENTSCOPE"

// Config holds application configuration
type Config struct {
	DataDir      string          `mapstructure:"data_dir"` // Base directory for the market database (always absolute after Load)
	DatabaseFile string          `mapstructure:"database_file"`
	ReadOnly     bool            `mapstructure:"read_only"` // Open the market database query-only
	LogLevel     string          `mapstructure:"log_level"`
	Port         int             `mapstructure:"port"`
	DevMode      bool            `mapstructure:"dev_mode"`
	Attention    AttentionConfig `mapstructure:"attention"`
	Analysis     AnalysisConfig  `mapstructure:"analysis"`
}

// AttentionConfig holds the attention index provider configuration
type AttentionConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit int           `mapstructure:"rate_limit"` // requests per second, 0 disables limiting
}

// AnalysisConfig holds the event study parameters
type AnalysisConfig struct {
	Benchmark  string  `mapstructure:"benchmark"` // index subtracted from industry returns
	Coverage   string  `mapstructure:"coverage"`  // "full" or "partial"
	LeadDays   int     `mapstructure:"lead_days"`
	SpanDays   int     `mapstructure:"span_days"`
	Multiplier float64 `mapstructure:"multiplier"`
	MaxBefore  int     `mapstructure:"max_before"`
	MaxAfter   int     `mapstructure:"max_after"`
	MaxOffset  int     `mapstructure:"max_offset"` // upper bound for requested max_before/max_after
}

// Load reads configuration from .env, an optional config file (path may be
// empty) and EVENTSCOPE_* environment variables, in increasing precedence.
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	cfg.DataDir = absDataDir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !cfg.ReadOnly {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "./data")
	v.SetDefault("database_file", "market.db")
	v.SetDefault("read_only", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("port", 8080)
	v.SetDefault("dev_mode", false)

	v.SetDefault("attention.base_url", "http://localhost:9100")
	v.SetDefault("attention.timeout", "30s")
	v.SetDefault("attention.rate_limit", 2)

	v.SetDefault("analysis.benchmark", "上证综指")
	v.SetDefault("analysis.coverage", "full")
	v.SetDefault("analysis.lead_days", eventwindow.DefaultLeadDays)
	v.SetDefault("analysis.span_days", eventwindow.DefaultSpanDays)
	v.SetDefault("analysis.multiplier", eventwindow.DefaultMultiplier)
	v.SetDefault("analysis.max_before", holding.DefaultMaxBefore)
	v.SetDefault("analysis.max_after", holding.DefaultMaxAfter)
	v.SetDefault("analysis.max_offset", holding.DefaultMaxOffset)
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.DatabaseFile == "" {
		return fmt.Errorf("database_file is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	validLogLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("log_level must be one of: trace, debug, info, warn, error")
	}

	u, err := url.Parse(c.Attention.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("attention.base_url must be an absolute URL, got %q", c.Attention.BaseURL)
	}
	if c.Attention.Timeout <= 0 {
		return fmt.Errorf("attention.timeout must be positive")
	}
	if c.Attention.RateLimit < 0 {
		return fmt.Errorf("attention.rate_limit must not be negative")
	}

	if c.Analysis.Benchmark == "" {
		return fmt.Errorf("analysis.benchmark is required")
	}
	if _, err := holding.ParseCoverage(c.Analysis.Coverage); err != nil {
		return fmt.Errorf("analysis.coverage: %w", err)
	}
	if err := c.DetectorConfig().Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if c.Analysis.MaxBefore < 0 || c.Analysis.MaxAfter < 0 {
		return fmt.Errorf("analysis.max_before and analysis.max_after must not be negative")
	}
	if c.Analysis.MaxOffset < 1 {
		return fmt.Errorf("analysis.max_offset must be positive, got %d", c.Analysis.MaxOffset)
	}
	if c.Analysis.MaxBefore > c.Analysis.MaxOffset || c.Analysis.MaxAfter > c.Analysis.MaxOffset {
		return fmt.Errorf("analysis.max_before and analysis.max_after must not exceed analysis.max_offset (%d)", c.Analysis.MaxOffset)
	}

	return nil
}

// DatabasePath returns the market database location
func (c *Config) DatabasePath() string {
	if filepath.IsAbs(c.DatabaseFile) {
		return c.DatabaseFile
	}
	return filepath.Join(c.DataDir, c.DatabaseFile)
}

// DetectorConfig returns the event window detector configuration
func (c *Config) DetectorConfig() eventwindow.Config {
	return eventwindow.Config{
		LeadDays:   c.Analysis.LeadDays,
		SpanDays:   c.Analysis.SpanDays,
		Multiplier: c.Analysis.Multiplier,
	}
}

// HoldingCoverage returns the parsed holding-period coverage rule
func (c *Config) HoldingCoverage() holding.Coverage {
	coverage, _ := holding.ParseCoverage(c.Analysis.Coverage)
	return coverage
}
