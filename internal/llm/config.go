package llm

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider selects the model backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderAnthropic Provider = "anthropic"
)

// LLMConfig holds all configuration for the tutoring transport.
type LLMConfig struct {
	Provider    Provider
	LogCalls    bool
	Endpoint    string
	Model       string
	APIKey      string
	TimeoutMs   int
	MaxRetries  int
	Temperature float64
	MaxTokens   int
}

// DefaultConfig returns an LLMConfig pointing at a local Ollama instance.
func DefaultConfig() LLMConfig {
	return LLMConfig{
		Provider:    ProviderOllama,
		LogCalls:    false,
		Endpoint:    "http://localhost:11434",
		Model:       "llama3.2",
		TimeoutMs:   60000,
		MaxRetries:  1,
		Temperature: 0.3,
		MaxTokens:   1024,
	}
}

// DefaultAnthropicModel is used when the anthropic provider is selected
// without an explicit model.
const DefaultAnthropicModel = "claude-sonnet-4-5"

// LoadConfig reads LLM configuration from environment variables,
// falling back to defaults for any unset values.
func LoadConfig() LLMConfig {
	return ApplyEnv(DefaultConfig(), os.Getenv)
}

// ApplyEnv overlays JUPYTUTOR_LLM_* variables read through getenv onto cfg.
// Switching provider resets the endpoint and model to that provider's
// defaults before explicit overrides apply.
func ApplyEnv(cfg LLMConfig, getenv func(string) string) LLMConfig {
	if v := getenv("JUPYTUTOR_LLM_PROVIDER"); v != "" && Provider(strings.ToLower(v)) != cfg.Provider {
		cfg.Provider = Provider(strings.ToLower(v))
		def := DefaultConfig()
		cfg.Endpoint, cfg.Model = def.Endpoint, def.Model
		if cfg.Provider == ProviderAnthropic {
			cfg.Endpoint, cfg.Model = "", DefaultAnthropicModel
		}
	}
	if cfg.Provider == ProviderAnthropic && cfg.APIKey == "" {
		cfg.APIKey = getenv("ANTHROPIC_API_KEY")
	}
	if v := getenv("JUPYTUTOR_LLM_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}
	if v := getenv("JUPYTUTOR_LLM_ENDPOINT"); v != "" {
		cfg.Endpoint = strings.TrimRight(v, "/")
	}
	if v := getenv("JUPYTUTOR_LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := getenv("JUPYTUTOR_LLM_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := getenv("JUPYTUTOR_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := getenv("JUPYTUTOR_LLM_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}
	if v := getenv("JUPYTUTOR_LLM_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 2 {
			cfg.Temperature = f
		}
	}
	if v := getenv("JUPYTUTOR_LLM_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxTokens = n
		}
	}

	return cfg
}

// Timeout returns the per-call timeout.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}
