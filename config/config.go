// Package config provides configuration loading and management for specparse.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/specparse/llm"
	_ "github.com/c360studio/specparse/llm/providers" // Register providers
)

// Config represents the complete specparse configuration
type Config struct {
	LLM   LLMConfig   `yaml:"llm"`
	Parse ParseConfig `yaml:"parse"`
	Log   LogConfig   `yaml:"log"`
}

// LLMConfig configures the text generator used by the fallback parser
type LLMConfig struct {
	// Provider is a registered provider name (openai, openrouter, ollama, anthropic)
	Provider string `yaml:"provider"`
	// Endpoint is the API base URL (empty = provider default)
	Endpoint string `yaml:"endpoint,omitempty"`
	// Model is the default model identifier
	Model string `yaml:"model,omitempty"`
	// APIKey overrides the provider's environment variable
	APIKey string `yaml:"api_key,omitempty"`
	// Temperature controls randomness (0.0-2.0, default: 0.2)
	Temperature float64 `yaml:"temperature"`
	// MaxTokens limits the response length (0 = provider default)
	MaxTokens int `yaml:"max_tokens,omitempty"`
	// Timeout is the maximum time to wait for one model response
	Timeout time.Duration `yaml:"timeout"`
	// MaxAttempts is the number of attempts per endpoint for transient failures
	MaxAttempts int `yaml:"max_attempts"`
	// Fallbacks are tried in order when the primary endpoint fails
	Fallbacks []llm.Endpoint `yaml:"fallbacks,omitempty"`
}

// ParseConfig configures routing behavior
type ParseConfig struct {
	// ConfidenceThreshold is the LLM score in [0,1] below which results are flagged
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	// LLMFallback enables the LLM parser when structural parsing fails
	LLMFallback *bool `yaml:"llm_fallback,omitempty"`
	// LenientJSON strips code fences and comments from LLM output before decoding
	LenientJSON *bool `yaml:"lenient_json,omitempty"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "openrouter",
			Temperature: 0.2,
			Timeout:     3 * time.Minute,
			MaxAttempts: 3,
		},
		Parse: ParseConfig{
			ConfidenceThreshold: 0.7,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// FallbackEnabled reports whether the LLM fallback is switched on.
func (c *Config) FallbackEnabled() bool {
	return c.Parse.LLMFallback != nil && *c.Parse.LLMFallback
}

// LenientEnabled reports whether lenient LLM JSON decoding is switched on.
func (c *Config) LenientEnabled() bool {
	return c.Parse.LenientJSON != nil && *c.Parse.LenientJSON
}

// Endpoints returns the primary endpoint followed by the configured fallbacks.
func (c *Config) Endpoints() []llm.Endpoint {
	endpoints := make([]llm.Endpoint, 0, 1+len(c.LLM.Fallbacks))
	endpoints = append(endpoints, llm.Endpoint{
		Provider:  c.LLM.Provider,
		URL:       c.LLM.Endpoint,
		Model:     c.LLM.Model,
		APIKey:    c.LLM.APIKey,
		MaxTokens: c.LLM.MaxTokens,
	})
	return append(endpoints, c.LLM.Fallbacks...)
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.LLM.Provider == "" {
		return fmt.Errorf("llm.provider is required")
	}
	if llm.GetProvider(c.LLM.Provider) == nil {
		return fmt.Errorf("llm.provider %q is not one of %v", c.LLM.Provider, llm.ListProviders())
	}
	for i, fb := range c.LLM.Fallbacks {
		if llm.GetProvider(fb.Provider) == nil {
			return fmt.Errorf("llm.fallbacks[%d].provider %q is not one of %v", i, fb.Provider, llm.ListProviders())
		}
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if c.LLM.MaxAttempts < 1 {
		return fmt.Errorf("llm.max_attempts must be at least 1")
	}
	if c.Parse.ConfidenceThreshold < 0 || c.Parse.ConfidenceThreshold > 1 {
		return fmt.Errorf("parse.confidence_threshold must be between 0 and 1")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Config may carry an API key
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// LLM
	if other.LLM.Provider != "" {
		c.LLM.Provider = other.LLM.Provider
	}
	if other.LLM.Endpoint != "" {
		c.LLM.Endpoint = other.LLM.Endpoint
	}
	if other.LLM.Model != "" {
		c.LLM.Model = other.LLM.Model
	}
	if other.LLM.APIKey != "" {
		c.LLM.APIKey = other.LLM.APIKey
	}
	if other.LLM.Temperature != 0 {
		c.LLM.Temperature = other.LLM.Temperature
	}
	if other.LLM.MaxTokens != 0 {
		c.LLM.MaxTokens = other.LLM.MaxTokens
	}
	if other.LLM.Timeout != 0 {
		c.LLM.Timeout = other.LLM.Timeout
	}
	if other.LLM.MaxAttempts != 0 {
		c.LLM.MaxAttempts = other.LLM.MaxAttempts
	}
	if len(other.LLM.Fallbacks) > 0 {
		c.LLM.Fallbacks = other.LLM.Fallbacks
	}

	// Parse
	if other.Parse.ConfidenceThreshold != 0 {
		c.Parse.ConfidenceThreshold = other.Parse.ConfidenceThreshold
	}
	if other.Parse.LLMFallback != nil {
		c.Parse.LLMFallback = other.Parse.LLMFallback
	}
	if other.Parse.LenientJSON != nil {
		c.Parse.LenientJSON = other.Parse.LenientJSON
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}
