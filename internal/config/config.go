// Package config handles configuration loading for insiderwatch.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Edgar   EdgarConfig   `mapstructure:"edgar"   yaml:"edgar"`
	Scan    ScanConfig    `mapstructure:"scan"    yaml:"scan"`
	Output  OutputConfig  `mapstructure:"output"  yaml:"output"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// EdgarConfig holds SEC EDGAR endpoint and fair-use settings.
type EdgarConfig struct {
	BaseURL        string        `mapstructure:"base_url"         yaml:"base_url"`
	UserAgent      string        `mapstructure:"user_agent"       yaml:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"  yaml:"request_timeout"`
	RateLimit      int           `mapstructure:"rate_limit"       yaml:"rate_limit"` // requests per second, process-wide
	RetryAttempts  int           `mapstructure:"retry_attempts"   yaml:"retry_attempts"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" yaml:"retry_base_delay"`
}

// ScanConfig holds filing scan settings.
type ScanConfig struct {
	FormTypes    []string `mapstructure:"form_types"    yaml:"form_types"`    // e.g. ["4", "4/A"]
	MaxFilings   int      `mapstructure:"max_filings"   yaml:"max_filings"`   // cap on filings parsed per window
	BaselineDays int      `mapstructure:"baseline_days" yaml:"baseline_days"` // trailing baseline window, fixed divisor
	Workers      int      `mapstructure:"workers"       yaml:"workers"`       // concurrent filing fetch/parse workers
}

// OutputConfig holds artifact output locations.
type OutputConfig struct {
	DataDir   string `mapstructure:"data_dir"   yaml:"data_dir"`
	ChartsDir string `mapstructure:"charts_dir" yaml:"charts_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.insiderwatch/config.yaml (home directory)
//  3. /etc/insiderwatch/config.yaml (system)
//
// Environment variables override config file values.
// Format: INSIDERWATCH_<SECTION>_<KEY>, e.g., INSIDERWATCH_EDGAR_USER_AGENT
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".insiderwatch"))
	v.AddConfigPath("/etc/insiderwatch")

	v.SetEnvPrefix("INSIDERWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("INSIDERWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the pipeline cannot run with. A failure
// here is fatal before any network activity: no artifacts are written.
func (c *Config) Validate() error {
	if c.Edgar.UserAgent == "" {
		return fmt.Errorf("edgar.user_agent must identify the client per SEC fair-use policy")
	}
	if c.Scan.BaselineDays <= 0 {
		return fmt.Errorf("scan.baseline_days must be positive, got %d", c.Scan.BaselineDays)
	}
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("scan.workers must be positive, got %d", c.Scan.Workers)
	}
	if len(c.Scan.FormTypes) == 0 {
		return fmt.Errorf("scan.form_types must not be empty")
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// EDGAR defaults. The published fair-use ceiling is 10 req/s per
	// user-agent; default below it.
	v.SetDefault("edgar.base_url", "https://www.sec.gov")
	v.SetDefault("edgar.user_agent", "insiderwatch/1.0 (github.com/marketwisdom/insiderwatch)")
	v.SetDefault("edgar.request_timeout", 30*time.Second)
	v.SetDefault("edgar.rate_limit", 8)
	v.SetDefault("edgar.retry_attempts", 3)
	v.SetDefault("edgar.retry_base_delay", 500*time.Millisecond)

	// Scan defaults
	v.SetDefault("scan.form_types", []string{"4", "4/A"})
	v.SetDefault("scan.max_filings", 300)
	v.SetDefault("scan.baseline_days", 7)
	v.SetDefault("scan.workers", 5)

	// Output defaults
	v.SetDefault("output.data_dir", "data")
	v.SetDefault("output.charts_dir", "charts")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
