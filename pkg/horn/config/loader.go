package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Loader assembles a Config from a YAML file, an optional .env file and the
// process environment, in increasing order of precedence.
type Loader struct {
	Path    string // YAML file; empty means defaults only
	EnvFile string // .env file; a missing file is ignored

	// Getenv reads the process environment; os.Getenv when nil.
	Getenv func(string) string
}

// Load reads all sources and returns a validated configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()
	if l.Path != "" {
		fileCfg, err := LoadFile(l.Path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = fileCfg
	}

	dotenv := map[string]string{}
	if l.EnvFile != "" {
		vals, err := godotenv.Read(l.EnvFile)
		switch {
		case err == nil:
			dotenv = vals
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	lookup := func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}

	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) string) error {
	if v := lookup("HORN_MAX_DEPTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HORN_MAX_DEPTH: %w", err)
		}
		cfg.Engine.MaxDepth = n
	}
	if v := lookup("HORN_OUTPUT"); v != "" {
		cfg.Output.Path = v
	}
	if v := lookup("HORN_LINE_ENDING"); v != "" {
		cfg.Output.LineEnding = v
	}
	if v := lookup("HORN_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := lookup("HORN_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := lookup("HORN_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := lookup("HORN_BATCH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HORN_BATCH_WORKERS: %w", err)
		}
		cfg.Batch.Workers = n
	}
	if v := lookup("HORN_VERIFY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HORN_VERIFY_TIMEOUT: %w", err)
		}
		cfg.Verify.Timeout = d
	}
	if v := lookup("HORN_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	return nil
}
