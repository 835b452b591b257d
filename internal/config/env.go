package config

import "os"

// Environment variable names.
const (
	EnvAPIKey    = "AGENTBAY_API_KEY"
	EnvEndpoint  = "AGENTBAY_ENDPOINT"
	EnvTimeoutMs = "AGENTBAY_TIMEOUT_MS"
	EnvLogLevel  = "LOG_LEVEL"
)

// EnvOverrides holds raw values read from the process environment.
// Empty fields mean the variable was unset.
type EnvOverrides struct {
	APIKey    string
	Endpoint  string
	TimeoutMs string
	LogLevel  string
}

// ReadEnvOverrides reads the AgentBay environment variables. It does not
// modify any Config; Resolve applies the relevant fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		APIKey:    os.Getenv(EnvAPIKey),
		Endpoint:  os.Getenv(EnvEndpoint),
		TimeoutMs: os.Getenv(EnvTimeoutMs),
		LogLevel:  os.Getenv(EnvLogLevel),
	}
}
