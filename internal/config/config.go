// Package config provides configuration management for the blockselect CLI.
//
// Values come from, in increasing precedence: defaults, a YAML/JSON/TOML
// config file, BLOCKSELECT_* environment variables and bound command flags.
// Nested keys map to environment variables with dots replaced by
// underscores, e.g. selector.k → BLOCKSELECT_SELECTOR_K.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/hupe1980/blockselect/internal/telemetry"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "BLOCKSELECT"

// Config holds all configuration for the CLI.
type Config struct {
	Selector  SelectorConfig   `mapstructure:"selector"`
	Data      DataConfig       `mapstructure:"data"`
	Output    OutputConfig     `mapstructure:"output"`
	Log       LogConfig        `mapstructure:"log"`
	Metrics   MetricsConfig    `mapstructure:"metrics"`
	Telemetry telemetry.Config `mapstructure:"telemetry"`
}

// SelectorConfig holds the selector shape and limits.
type SelectorConfig struct {
	K                int     `mapstructure:"k"`
	Lanes            int     `mapstructure:"lanes"`
	BlockThreads     int     `mapstructure:"block_threads"`
	NumThreadQ       int     `mapstructure:"num_thread_q"` // 0 = derived from k
	NumWarpQ         int     `mapstructure:"num_warp_q"`   // 0 = derived from k
	Parallelism      int     `mapstructure:"parallelism"`
	MemoryLimitBytes int64   `mapstructure:"memory_limit_bytes"`
	RowsPerSecond    float64 `mapstructure:"rows_per_second"`
	RowBurst         int     `mapstructure:"row_burst"`
}

// DataConfig selects the vectors to search.
type DataConfig struct {
	Base          string `mapstructure:"base"`    // .fvecs path, empty = random
	Queries       string `mapstructure:"queries"` // .fvecs path, empty = random
	Limit         int    `mapstructure:"limit"`   // max base vectors read, 0 = all
	Metric        string `mapstructure:"metric"`
	RandomBase    int    `mapstructure:"random_base"`
	RandomQueries int    `mapstructure:"random_queries"`
	Dimension     int    `mapstructure:"dimension"`
	Seed          uint64 `mapstructure:"seed"`
	Filter        string `mapstructure:"filter"` // id ranges, e.g. "0-99,200"
}

// OutputConfig holds result output configuration.
type OutputConfig struct {
	Format string `mapstructure:"format"` // text or json
	Path   string `mapstructure:"path"`   // empty = stdout
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// MetricsConfig holds the Prometheus endpoint configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// New returns a viper instance with defaults and environment overrides.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file at path (optional) into v and decodes it.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("blockselect")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/blockselect")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}
	return decode(v)
}

// LoadFromReader loads configuration from content (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := New()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("selector.k", 10)
	v.SetDefault("selector.lanes", 32)
	v.SetDefault("selector.block_threads", 128)
	v.SetDefault("selector.num_thread_q", 0)
	v.SetDefault("selector.num_warp_q", 0)
	v.SetDefault("selector.parallelism", 0)
	v.SetDefault("selector.memory_limit_bytes", 0)
	v.SetDefault("selector.rows_per_second", 0)
	v.SetDefault("selector.row_burst", 1)

	v.SetDefault("data.base", "")
	v.SetDefault("data.queries", "")
	v.SetDefault("data.limit", 0)
	v.SetDefault("data.metric", "l2")
	v.SetDefault("data.random_base", 10000)
	v.SetDefault("data.random_queries", 10)
	v.SetDefault("data.dimension", 128)
	v.SetDefault("data.seed", 42)
	v.SetDefault("data.filter", "")

	v.SetDefault("output.format", "text")
	v.SetDefault("output.path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "blockselect")
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.insecure", false)
	v.SetDefault("telemetry.sample_ratio", 1.0)
}

// Validate validates the configuration. Selector capacities are validated
// by the selector itself.
func (c *Config) Validate() error {
	if c.Selector.K <= 0 {
		return fmt.Errorf("selector.k must be positive, got %d", c.Selector.K)
	}
	if c.Selector.Parallelism < 0 {
		return fmt.Errorf("selector.parallelism must not be negative, got %d", c.Selector.Parallelism)
	}
	if c.Data.Base == "" && (c.Data.RandomBase <= 0 || c.Data.Dimension <= 0) {
		return fmt.Errorf("random data needs data.random_base and data.dimension")
	}
	if c.Data.Queries == "" && c.Data.RandomQueries <= 0 {
		return fmt.Errorf("random data needs data.random_queries")
	}
	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported output format: %s", c.Output.Format)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", c.Log.Format)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}
	return nil
}
