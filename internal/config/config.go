// Package config loads application configuration from file and
// environment and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Benchmarks BenchmarksConfig `yaml:"benchmarks" mapstructure:"benchmarks"`
	Scorer     ScorerConfig     `yaml:"scorer" mapstructure:"scorer"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the optional report store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "postgres", "sqlite", or "" for none
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"` // sqlite file path
}

// BenchmarksConfig points at an optional override for the embedded stage
// benchmark and scenario tables.
type BenchmarksConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ScorerConfig holds the fund-fit component weights and thresholds.
// Weights are normalized by their sum at scoring time.
type ScorerConfig struct {
	EntryValueWeight   float64 `yaml:"entry_value_weight" mapstructure:"entry_value_weight"`
	GrowthWeight       float64 `yaml:"growth_weight" mapstructure:"growth_weight"`
	FundReturnerWeight float64 `yaml:"fund_returner_weight" mapstructure:"fund_returner_weight"`
	OwnershipWeight    float64 `yaml:"ownership_weight" mapstructure:"ownership_weight"`

	InvestThreshold float64 `yaml:"invest_threshold" mapstructure:"invest_threshold"`
	MaybeThreshold  float64 `yaml:"maybe_threshold" mapstructure:"maybe_threshold"`

	// StageCheckPct is the typical single-position allocation as a
	// fraction of fund size, keyed by stage.
	StageCheckPct map[string]float64 `yaml:"stage_check_pct" mapstructure:"stage_check_pct"`
	// LeadMultiplier scales the allocation when writing the lead check.
	LeadMultiplier float64 `yaml:"lead_multiplier" mapstructure:"lead_multiplier"`
}

// BatchConfig configures batch analysis.
type BatchConfig struct {
	MaxConcurrentCompanies int `yaml:"max_concurrent_companies" mapstructure:"max_concurrent_companies"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int     `yaml:"port" mapstructure:"port"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	Burst          int     `yaml:"burst" mapstructure:"burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DILLA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.requests_per_sec", 10)
	v.SetDefault("server.burst", 20)
	v.SetDefault("batch.max_concurrent_companies", 5)
	v.SetDefault("scorer.entry_value_weight", 0.25)
	v.SetDefault("scorer.growth_weight", 0.25)
	v.SetDefault("scorer.fund_returner_weight", 0.30)
	v.SetDefault("scorer.ownership_weight", 0.20)
	v.SetDefault("scorer.invest_threshold", 75)
	v.SetDefault("scorer.maybe_threshold", 55)
	v.SetDefault("scorer.lead_multiplier", 1.5)
	v.SetDefault("scorer.stage_check_pct", map[string]float64{
		"pre_seed":      0.01,
		"seed":          0.015,
		"series_a":      0.03,
		"series_b":      0.04,
		"series_c":      0.05,
		"series_d":      0.05,
		"series_e_plus": 0.05,
	})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
