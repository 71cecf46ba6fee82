// Package router selects a parser for a spec file, degrades to the LLM parser
// when structural parsing is impossible, and folds the result into a
// NormalizedSpec.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"github.com/c360studio/specparse/llm"
	"github.com/c360studio/specparse/source"
	"github.com/c360studio/specparse/source/parser"
)

// Router routes spec files through the structural parsers and the LLM
// fallback. It holds configuration only; every Parse call builds fresh
// results, so a Router is safe for concurrent use.
type Router struct {
	gen       llm.Generator
	fs        afero.Fs
	registry  *parser.Registry
	model     string
	apiKey    string
	threshold float64
	fallback  bool
	useLLM    bool
	lenient   bool
	extra     map[string]any
	logger    *slog.Logger
	metrics   *Metrics
}

// New creates a Router. gen may be nil when the LLM parser is never reached.
func New(gen llm.Generator, opts ...Option) *Router {
	r := &Router{
		gen:       gen,
		fs:        afero.NewOsFs(),
		registry:  parser.DefaultRegistry,
		threshold: DefaultConfidenceThreshold,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ParseSpec parses one spec file with a throwaway Router.
func ParseSpec(ctx context.Context, path string, gen llm.Generator, opts ...Option) (*source.ParseResult, error) {
	r := New(gen, opts...)
	return r.Parse(ctx, path, r.useLLM)
}

// run carries the per-call routing state.
type run struct {
	path     string
	content  []byte
	format   source.Format
	warnings []source.Warning
}

func (c *run) warn(w source.Warning) {
	c.warnings = append(c.warnings, w)
}

// Parse reads path once and returns its normalized spec with the warnings
// collected on the way. A missing file returns an error matching
// fs.ErrNotExist; every other failure is a *source.ParsingError.
func (r *Router) Parse(ctx context.Context, path string, useLLM bool) (*source.ParseResult, error) {
	start := time.Now()
	c := &run{path: path, warnings: []source.Warning{}}

	parsed, err := r.route(ctx, c, useLLM)
	r.metrics.observeParse(c.format, err, time.Since(start))
	r.metrics.observeWarnings(c.warnings)
	if err != nil {
		r.logger.Debug("Spec parse failed", "path", path, "format", c.format, "error", err)
		return nil, source.WrapParsingError(err)
	}

	return &source.ParseResult{
		Spec:     parsed.Normalize(),
		Warnings: c.warnings,
	}, nil
}

func (r *Router) route(ctx context.Context, c *run, useLLM bool) (source.Parsed, error) {
	format := parser.FormatFromExtension(c.path)

	// An unroutable extension fails before the file is touched
	if !useLLM && format == source.FormatUnknown && !r.fallback {
		return nil, source.NewParsingError(source.Warning{Kind: source.WarnUnknownExtensionNoFallback}.String(), nil)
	}

	content, err := parser.ReadSpec(r.fs, c.path)
	if err != nil {
		return nil, err
	}
	c.content = content

	if useLLM {
		r.metrics.observeFallback(reasonRequested)
		return r.viaLLM(ctx, c)
	}

	switch format {
	case source.FormatMarkdown:
		return r.structural(ctx, c, format)
	case source.FormatJSON, source.FormatYAML:
		return r.jsonLike(ctx, c, format)
	default:
		c.warn(source.Warning{Kind: source.WarnUnknownExtension})
		r.logger.Warn("Unrecognized spec extension, using LLM parser", "path", c.path)
		r.metrics.observeFallback(reasonUnknownExtension)
		return r.viaLLM(ctx, c)
	}
}

// jsonLike sniffs JSON/YAML content for an OpenAPI shape before trying the
// plain parser for the extension.
func (r *Router) jsonLike(ctx context.Context, c *run, format source.Format) (source.Parsed, error) {
	isOpenAPI, err := parser.SniffOpenAPI(c.content)
	if err != nil {
		c.warn(source.SniffFailedWarning(err))
	}
	if isOpenAPI {
		format = source.FormatOpenAPI
	}

	parsed, err := r.structural(ctx, c, format)
	if err == nil {
		return parsed, nil
	}
	return r.recoverStructural(ctx, c, format, err)
}

func (r *Router) structural(ctx context.Context, c *run, format source.Format) (source.Parsed, error) {
	c.format = format
	p := r.registry.Get(format)
	if p == nil {
		return nil, fmt.Errorf("no parser registered for %s", format)
	}
	r.logger.Debug("Routing spec", "path", c.path, "format", format)
	return p.Parse(ctx, c.path, c.content)
}

// recoverStructural records a structural failure and either falls back to the
// LLM parser or fails.
func (r *Router) recoverStructural(ctx context.Context, c *run, format source.Format, cause error) (source.Parsed, error) {
	c.warn(source.ParseFailedWarning(format, cause))
	if !r.fallback {
		return nil, source.NewParsingError(fmt.Sprintf("%s parsing failed and LLM fallback disabled.", formatLabel(format)), cause)
	}

	c.warn(source.Warning{Kind: source.WarnFallbackNotice})
	r.logger.Warn("Structural parse failed, falling back to LLM parser",
		"path", c.path, "format", format, "error", cause)
	r.metrics.observeFallback(reasonParseFailed)
	return r.viaLLM(ctx, c)
}

func (r *Router) viaLLM(ctx context.Context, c *run) (source.Parsed, error) {
	c.format = source.FormatLLM
	p := parser.NewLLMParser(r.gen,
		parser.WithLLMModel(r.model),
		parser.WithLLMAPIKey(r.apiKey),
		parser.WithLenientJSON(r.lenient),
		parser.WithLLMExtra(r.extra),
		parser.WithLLMLogger(r.logger),
	)

	parsed, err := p.Parse(ctx, c.path, c.content)
	if err != nil {
		return nil, err
	}

	spec, ok := parsed.(*source.ParsedLLMSpec)
	if !ok {
		return nil, fmt.Errorf("LLM parser returned %T", parsed)
	}
	switch {
	case !spec.ConfidenceReported:
		c.warn(source.Warning{Kind: source.WarnNoConfidence})
	case spec.Confidence < r.threshold:
		c.warn(source.LowConfidenceWarning(spec.Confidence, r.threshold))
	}
	return spec, nil
}

func formatLabel(format source.Format) string {
	switch format {
	case source.FormatOpenAPI:
		return "OpenAPI"
	case source.FormatJSON:
		return "JSON"
	case source.FormatYAML:
		return "YAML"
	default:
		return format.String()
	}
}
