// Package llm provides the text-generation contract used by the fallback spec
// parser and a provider-agnostic HTTP client implementing it, with retry and
// endpoint fallback support.
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// maxResponseSize limits the LLM response body to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Endpoint describes one model endpoint in the client's fallback chain.
type Endpoint struct {
	// Provider is the registered provider name (openai, openrouter, ollama, anthropic).
	Provider string `yaml:"provider"`

	// URL is the API base URL. Empty uses the provider default.
	URL string `yaml:"url,omitempty"`

	// Model is the model identifier sent to the provider.
	Model string `yaml:"model"`

	// APIKey is the credential for this endpoint. Empty falls back to the
	// provider's environment variable.
	APIKey string `yaml:"api_key,omitempty"`

	// MaxTokens limits the response length. 0 uses the provider default.
	MaxTokens int `yaml:"max_tokens,omitempty"`
}

// Client is a provider-agnostic LLM client with retry and fallback support.
type Client struct {
	endpoints   []Endpoint
	httpClient  *http.Client
	retryConfig RetryConfig
	temperature *float64
	logger      *slog.Logger
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`    // "system", "user", or "assistant"
	Content string `json:"content"` // Message content
}

// Request defines an LLM completion request.
type Request struct {
	// Messages is the chat history to send to the LLM.
	Messages []Message

	// Model overrides the primary endpoint's model. Fallback endpoints keep
	// their own models.
	Model string

	// APIKey overrides the primary endpoint's credential.
	APIKey string

	// Temperature controls randomness. nil uses the client default.
	Temperature *float64

	// MaxTokens limits response length. 0 uses the endpoint setting.
	MaxTokens int

	// Extra is merged into the provider request body.
	Extra map[string]any
}

// TokenUsage represents token consumption details for an LLM call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response contains the LLM completion result.
type Response struct {
	// RequestID uniquely identifies this call for log correlation.
	RequestID string

	// Content is the generated text.
	Content string

	// Model is the actual model that was used.
	Model string

	// Usage contains token consumption metrics.
	Usage TokenUsage

	// FinishReason indicates why generation stopped.
	FinishReason string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithRetryConfig sets the retry configuration.
func WithRetryConfig(cfg RetryConfig) ClientOption {
	return func(client *Client) {
		client.retryConfig = cfg
	}
}

// WithTemperature sets the default sampling temperature.
func WithTemperature(t float64) ClientOption {
	return func(client *Client) {
		client.temperature = &t
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// NewClient creates a client that tries endpoints in order until one succeeds.
func NewClient(endpoints []Endpoint, opts ...ClientOption) *Client {
	c := &Client{
		endpoints:   endpoints,
		retryConfig: DefaultRetryConfig(),
		httpClient: &http.Client{
			Timeout: 180 * time.Second, // Allow time for LLM responses
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GenerateText implements Generator with a single-turn prompt.
func (c *Client) GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	messages := make([]Message, 0, 2)
	if opts.SystemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: opts.SystemPrompt})
	}
	messages = append(messages, Message{Role: "user", Content: prompt})

	resp, err := c.Complete(ctx, Request{
		Messages: messages,
		Model:    opts.Model,
		APIKey:   opts.APIKey,
		Extra:    opts.Extra,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Complete sends a completion request, handling retry and fallback logic.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("at least one message is required")
	}
	if len(c.endpoints) == 0 {
		return nil, fmt.Errorf("no LLM endpoints configured")
	}

	requestID := uuid.New().String()
	startedAt := time.Now()

	var lastErr error
	for i, ep := range c.endpoints {
		if i == 0 {
			if req.Model != "" {
				ep.Model = req.Model
			}
			if req.APIKey != "" {
				ep.APIKey = req.APIKey
			}
		}

		resp, attempts, err := c.tryEndpoint(ctx, ep, req)
		if err == nil {
			resp.RequestID = requestID
			c.logger.Debug("LLM call completed",
				"request_id", requestID,
				"provider", ep.Provider,
				"model", resp.Model,
				"attempts", attempts,
				"duration_ms", time.Since(startedAt).Milliseconds(),
				"total_tokens", resp.Usage.TotalTokens)
			return resp, nil
		}

		lastErr = err
		c.logger.Warn("Endpoint failed, trying fallback",
			"request_id", requestID,
			"model", ep.Model,
			"provider", ep.Provider,
			"attempts", attempts,
			"error", err)

		if IsFatal(err) {
			c.logger.Warn("Fatal error, not trying fallbacks", "request_id", requestID, "error", err)
			return nil, err
		}
	}

	return nil, fmt.Errorf("all endpoints failed: %w", lastErr)
}

// tryEndpoint attempts a request with retry logic and returns the attempt count.
func (c *Client) tryEndpoint(ctx context.Context, ep Endpoint, req Request) (*Response, int, error) {
	maxAttempts := c.retryConfig.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	base := c.retryConfig.BackoffBase
	if base <= 0 {
		base = time.Millisecond
	}
	maxBackoff := c.retryConfig.MaxBackoff
	if maxBackoff < base {
		maxBackoff = base
	}

	backoff := retry.NewExponential(base)
	backoff = retry.WithCappedDuration(maxBackoff, backoff)
	// +/- 25% jitter prevents synchronized retries
	backoff = retry.WithJitterPercent(25, backoff)
	backoff = retry.WithMaxRetries(uint64(maxAttempts-1), backoff) // #nosec G115 -- clamped above

	var resp *Response
	attempts := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		r, err := c.doRequest(ctx, ep, req)
		if err != nil {
			if IsTransient(err) {
				c.logger.Debug("Request failed, retrying",
					"attempt", attempts,
					"max_attempts", maxAttempts,
					"error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, attempts, err
	}
	return resp, attempts, nil
}

// doRequest executes a single HTTP request to the LLM endpoint.
func (c *Client) doRequest(ctx context.Context, ep Endpoint, req Request) (*Response, error) {
	provider := GetProvider(ep.Provider)
	if provider == nil {
		return nil, NewFatalError(fmt.Errorf("unknown provider: %s", ep.Provider))
	}
	if ep.Model == "" {
		return nil, NewFatalError(errors.New("a model must be provided either per-call or as endpoint default"))
	}

	url := provider.BuildURL(ep.URL)

	temperature := req.Temperature
	if temperature == nil {
		temperature = c.temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = ep.MaxTokens
	}

	body, err := provider.BuildRequestBody(ep.Model, req.Messages, temperature, maxTokens)
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("build request body: %w", err))
	}
	if body, err = MergeExtra(body, req.Extra); err != nil {
		return nil, NewFatalError(err)
	}

	c.logger.Debug("Sending LLM request",
		"provider", ep.Provider,
		"model", ep.Model,
		"url", url,
		"messages", len(req.Messages))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("create HTTP request: %w", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	provider.SetHeaders(httpReq, ep.APIKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Network errors are transient
		return nil, NewTransientError(fmt.Errorf("HTTP request failed: %w", err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, NewTransientError(fmt.Errorf("read response body: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(httpResp.StatusCode, respBody)
	}

	resp, err := provider.ParseResponse(respBody, ep.Model)
	if err != nil {
		return nil, NewFatalError(err)
	}
	return resp, nil
}
