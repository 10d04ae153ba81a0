// Package mcpconfig loads this SDK's own server/client runtime
// configuration from environment variables with the MCP_ prefix,
// following the same getEnv/getEnvInt/getEnvBool idiom the teacher uses
// for MEMENTO_-prefixed settings.
package mcpconfig

import (
	"os"
	"strconv"
	"time"
)

// Config holds every setting a cmd binary needs to stand up a server or
// client without hard-coding transport, timeout, or sampling-provider
// choices.
type Config struct {
	Transport TransportConfig
	Reliability ReliabilityConfig
	Sampling  SamplingConfig
	Security  SecurityConfig
}

// TransportConfig selects and configures the wire binding.
type TransportConfig struct {
	Kind       string // "stdio", "http", "websocket"
	HTTPAddr   string
	HTTPPath   string
	OriginList []string
}

// ReliabilityConfig configures the retry/circuit-breaker defaults applied
// to outbound calls.
type ReliabilityConfig struct {
	RequestTimeout time.Duration
	MaxRetries     int
	BreakerMaxFail uint32
}

// SamplingConfig selects the LLM backend serviced by a client's
// sampling/createMessage handler.
type SamplingConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// SecurityConfig carries the shared secret(s) an Authenticator checks
// inbound credentials against.
type SecurityConfig struct {
	Mode     string // "development", "production"
	APIToken string
}

// Load reads Config from the environment, matching the teacher's
// buildBaseConfig defaults-with-override pattern.
func Load() *Config {
	return &Config{
		Transport: TransportConfig{
			Kind:     getEnv("MCP_TRANSPORT", "stdio"),
			HTTPAddr: getEnv("MCP_HTTP_ADDR", "127.0.0.1:8631"),
			HTTPPath: getEnv("MCP_HTTP_PATH", "/mcp"),
		},
		Reliability: ReliabilityConfig{
			RequestTimeout: time.Duration(getEnvInt("MCP_REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
			MaxRetries:     getEnvInt("MCP_MAX_RETRIES", 3),
			BreakerMaxFail: uint32(getEnvInt("MCP_BREAKER_MAX_FAILURES", 3)),
		},
		Sampling: SamplingConfig{
			Provider: getEnv("MCP_SAMPLING_PROVIDER", "anthropic"),
			APIKey:   getEnv("MCP_SAMPLING_API_KEY", ""),
			Model:    getEnv("MCP_SAMPLING_MODEL", ""),
			BaseURL:  getEnv("MCP_SAMPLING_BASE_URL", ""),
		},
		Security: SecurityConfig{
			Mode:     getEnv("MCP_SECURITY_MODE", "development"),
			APIToken: getEnv("MCP_API_TOKEN", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
