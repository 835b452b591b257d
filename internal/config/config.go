// Package config resolves SDK configuration from explicit values,
// environment variables, an upward-searched .env file, an optional TOML
// config file for the CLI, and built-in defaults, in that precedence order.
package config

import "time"

// Built-in defaults, the lowest-precedence layer.
const (
	DefaultEndpoint  = "wuyingai.cn-shanghai.aliyuncs.com"
	DefaultTimeoutMs = 60000
)

// Config holds the resolved client configuration.
type Config struct {
	APIKey    string `toml:"api_key"`
	Endpoint  string `toml:"endpoint"`
	TimeoutMs int    `toml:"timeout_ms"`
	LogLevel  string `toml:"log_level"`
}

// DefaultConfig returns a Config populated with built-in defaults and no
// API key. The key must come from a higher-precedence layer.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:  DefaultEndpoint,
		TimeoutMs: DefaultTimeoutMs,
	}
}

// Timeout returns the configured request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}
