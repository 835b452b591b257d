package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// ErrMissingAPIKey is returned when no layer supplies an API key.
// Constructing a client without credentials is a fatal error.
var ErrMissingAPIKey = errors.New("config: missing API key (set AGENTBAY_API_KEY)")

// LoadFile reads a TOML config file. Used by the CLI for persistent
// settings; the SDK itself only consults env, .env, and explicit values.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFileOrDefault reads a TOML config file if it exists, otherwise
// returns defaults. Supports zero-config first runs.
func LoadFileOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return LoadFile(path)
}

// Resolve applies the precedence chain, highest first:
// explicit struct > environment variables > .env file > config file > defaults.
// explicit and filePath may be nil/empty. A missing API key after all
// layers is a fatal error.
func Resolve(explicit *Config, filePath string) (*Config, error) {
	cfg, err := LoadFileOrDefault(filePath)
	if err != nil {
		return nil, err
	}

	// .env layer: upward search from the working directory.
	if dotenvPath := FindDotEnv("."); dotenvPath != "" {
		values, err := ReadDotEnv(dotenvPath)
		if err != nil {
			return nil, err
		}

		applyDotEnv(cfg, values)
	}

	applyEnv(cfg, ReadEnvOverrides())

	if explicit != nil {
		applyExplicit(cfg, explicit)
	}

	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}

	if cfg.TimeoutMs <= 0 {
		cfg.TimeoutMs = DefaultTimeoutMs
	}

	return cfg, nil
}

func applyDotEnv(cfg *Config, values map[string]string) {
	if v := values[EnvAPIKey]; v != "" {
		cfg.APIKey = v
	}

	if v := values[EnvEndpoint]; v != "" {
		cfg.Endpoint = v
	}

	if v := values[EnvTimeoutMs]; v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.TimeoutMs = ms
		}
	}

	if v := values[EnvLogLevel]; v != "" {
		cfg.LogLevel = v
	}
}

func applyEnv(cfg *Config, env EnvOverrides) {
	if env.APIKey != "" {
		cfg.APIKey = env.APIKey
	}

	if env.Endpoint != "" {
		cfg.Endpoint = env.Endpoint
	}

	if env.TimeoutMs != "" {
		if ms, err := strconv.Atoi(env.TimeoutMs); err == nil && ms > 0 {
			cfg.TimeoutMs = ms
		}
	}

	if env.LogLevel != "" {
		cfg.LogLevel = env.LogLevel
	}
}

func applyExplicit(cfg, explicit *Config) {
	if explicit.APIKey != "" {
		cfg.APIKey = explicit.APIKey
	}

	if explicit.Endpoint != "" {
		cfg.Endpoint = explicit.Endpoint
	}

	if explicit.TimeoutMs > 0 {
		cfg.TimeoutMs = explicit.TimeoutMs
	}

	if explicit.LogLevel != "" {
		cfg.LogLevel = explicit.LogLevel
	}
}
