package router

import (
	"log/slog"

	"github.com/spf13/afero"

	"github.com/c360studio/specparse/source/parser"
)

// DefaultConfidenceThreshold is the minimum LLM confidence accepted without a
// warning.
const DefaultConfidenceThreshold = 0.7

// Option configures a Router.
type Option func(*Router)

// WithModel sets the model passed to the text generator.
func WithModel(model string) Option {
	return func(r *Router) {
		r.model = model
	}
}

// WithAPIKey sets the API key passed to the text generator.
func WithAPIKey(key string) Option {
	return func(r *Router) {
		r.apiKey = key
	}
}

// WithConfidenceThreshold sets the score in [0,1] below which LLM results
// carry a low-confidence warning.
func WithConfidenceThreshold(threshold float64) Option {
	return func(r *Router) {
		r.threshold = threshold
	}
}

// WithLLMFallback enables the LLM parser for unknown extensions and failed
// structural parses.
func WithLLMFallback(enabled bool) Option {
	return func(r *Router) {
		r.fallback = enabled
	}
}

// WithUseLLM makes ParseSpec skip structural routing and go straight to the
// LLM parser.
func WithUseLLM(useLLM bool) Option {
	return func(r *Router) {
		r.useLLM = useLLM
	}
}

// WithLenientJSON tolerates code fences, comments and trailing commas in
// LLM output.
func WithLenientJSON(lenient bool) Option {
	return func(r *Router) {
		r.lenient = lenient
	}
}

// WithExtra passes provider-specific request fields to the text generator.
func WithExtra(extra map[string]any) Option {
	return func(r *Router) {
		r.extra = extra
	}
}

// WithFs sets the filesystem specs are read from.
func WithFs(fs afero.Fs) Option {
	return func(r *Router) {
		r.fs = fs
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *Metrics) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// WithRegistry replaces the structural parser registry.
func WithRegistry(reg *parser.Registry) Option {
	return func(r *Router) {
		r.registry = reg
	}
}
