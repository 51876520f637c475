package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Loader reads configuration from an optional yaml file layered over the
// defaults, with environment overrides applied last.
type Loader struct {
	path      string
	useDotEnv bool
}

// NewLoader creates a loader for the given config file path. An empty path
// falls back to "config.yaml" in the working directory.
func NewLoader(path string) *Loader {
	if path == "" {
		path = "config.yaml"
	}
	return &Loader{path: path, useDotEnv: true}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load builds the effective configuration. A missing config file is not an
// error; the defaults apply.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		// Absence of a .env file just means plain environment variables.
		_ = godotenv.Load()
	}

	cfg := DefaultConfig()
	path := ""

	data, err := os.ReadFile(l.path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", l.path, err)
		}
		path = l.path
	case os.IsNotExist(err):
		// keep defaults
	default:
		return nil, fmt.Errorf("read config file %s: %w", l.path, err)
	}

	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &Result{Config: cfg, Path: path}, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HASHHIVE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("HASHHIVE_TOKEN"); v != "" {
		cfg.Server.Token = v
	}
	if v := os.Getenv("HASHHIVE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("HASHHIVE_REDIS_ADDR"); v != "" {
		cfg.Auth.Store.Type = "redis"
		cfg.Auth.Store.Redis.Addr = v
	}
	if v := os.Getenv("HASHHIVE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	if cfg.CloudMiner.ThreadLimit < 1 {
		return fmt.Errorf("cloud miner thread limit must be at least 1, got %d", cfg.CloudMiner.ThreadLimit)
	}
	if cfg.Advisor.MaxThreads < 1 {
		return fmt.Errorf("advisor max threads must be at least 1, got %d", cfg.Advisor.MaxThreads)
	}
	return nil
}
