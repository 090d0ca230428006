package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/horn/pkg/horn/internalerr"
)

// Store drivers.
const (
	DriverNone   = "none"
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config is the complete runtime configuration.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Output OutputConfig `yaml:"output"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
	Batch  BatchConfig  `yaml:"batch"`
	Verify VerifyConfig `yaml:"verify"`
	Server ServerConfig `yaml:"server"`
}

// EngineConfig tunes the inference engine.
type EngineConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

// OutputConfig controls how answers are written.
type OutputConfig struct {
	Path       string `yaml:"path"`
	LineEnding string `yaml:"line_ending"` // crlf or lf
}

// StoreConfig selects where runs are persisted.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite, memory or none
	Path   string `yaml:"path"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// BatchConfig configures the multi-file runner.
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// VerifyConfig configures the Prolog cross-check.
type VerifyConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{MaxDepth: 10000},
		Output: OutputConfig{Path: "output.txt", LineEnding: "crlf"},
		Store:  StoreConfig{Driver: DriverNone},
		Log:    LogConfig{Level: "info"},
		Batch:  BatchConfig{Workers: 4},
		Verify: VerifyConfig{Timeout: 2 * time.Second},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// LoadFile reads a YAML file over the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	switch c.Output.LineEnding {
	case "crlf", "lf":
	default:
		return fmt.Errorf("output.line_ending %q (want crlf or lf): %w", c.Output.LineEnding, internalerr.ErrInvalidConfig)
	}

	switch c.Store.Driver {
	case DriverNone, DriverMemory:
	case DriverSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path required for sqlite: %w", internalerr.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("store.driver %q (want sqlite, memory or none): %w", c.Store.Driver, internalerr.ErrInvalidConfig)
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %v: %w", err, internalerr.ErrInvalidConfig)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1: %w", internalerr.ErrInvalidConfig)
	}
	if c.Verify.Timeout <= 0 {
		return fmt.Errorf("verify.timeout must be positive: %w", internalerr.ErrInvalidConfig)
	}
	return nil
}

// NewLine returns the line terminator for answer files.
func (c *Config) NewLine() string {
	if c.Output.LineEnding == "lf" {
		return "\n"
	}
	return "\r\n"
}

// LogLevel returns the parsed log level, falling back to info.
func (c *Config) LogLevel() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
