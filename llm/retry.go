package llm

import "time"

// RetryConfig holds per-endpoint retry configuration for LLM requests.
// Only transient failures (network errors, 429, 5xx) are retried.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per endpoint.
	MaxAttempts int `yaml:"max_attempts"`

	// BackoffBase is the initial backoff duration; it doubles on each retry.
	BackoffBase time.Duration `yaml:"backoff_base"`

	// MaxBackoff caps a single backoff interval.
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// DefaultRetryConfig returns sensible retry defaults for LLM requests.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BackoffBase: 2 * time.Second,
		MaxBackoff:  30 * time.Second,
	}
}

// NoRetry performs exactly one attempt per endpoint.
func NoRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 1}
}
