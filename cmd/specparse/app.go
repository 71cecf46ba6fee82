package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/specparse/config"
	"github.com/c360studio/specparse/llm"
	"github.com/c360studio/specparse/source"
	"github.com/c360studio/specparse/source/router"
	"github.com/c360studio/specparse/watch"
)

// App wires configuration, the LLM client and the router for one command.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	output   string
	out      io.Writer
	registry *prometheus.Registry
	router   *router.Router
	forceLLM bool
}

// FileResult is the printed outcome for one spec file.
type FileResult struct {
	Path   string              `json:"path" yaml:"path"`
	Result *source.ParseResult `json:"result,omitempty" yaml:"result,omitempty"`
	Error  string              `json:"error,omitempty" yaml:"error,omitempty"`
}

func newApp(g *globalFlags, p *parseFlags, cmd *cobra.Command) (*App, error) {
	bootstrap := newLogger(g.logLevel, "info", cmd.ErrOrStderr())
	cfg, err := loadConfig(g.configPath, bootstrap)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := applyFlags(cfg, p, cmd); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	switch p.output {
	case "json", "yaml":
	default:
		return nil, fmt.Errorf("unsupported output format %q (json, yaml)", p.output)
	}

	logger := newLogger(g.logLevel, cfg.Log.Level, cmd.ErrOrStderr())
	app := NewApp(cfg, p.output, cmd.OutOrStdout(), logger)
	app.forceLLM = p.useLLM
	return app, nil
}

// NewApp builds the client and router from cfg.
func NewApp(cfg *config.Config, output string, out io.Writer, logger *slog.Logger) *App {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client := llm.NewClient(cfg.Endpoints(),
		llm.WithHTTPClient(&http.Client{Timeout: cfg.LLM.Timeout}),
		llm.WithTemperature(cfg.LLM.Temperature),
		llm.WithRetryConfig(llm.RetryConfig{
			MaxAttempts: cfg.LLM.MaxAttempts,
			BackoffBase: llm.DefaultRetryConfig().BackoffBase,
			MaxBackoff:  llm.DefaultRetryConfig().MaxBackoff,
		}),
		llm.WithLogger(logger),
	)

	r := router.New(client,
		router.WithModel(cfg.LLM.Model),
		router.WithAPIKey(cfg.LLM.APIKey),
		router.WithConfidenceThreshold(cfg.Parse.ConfidenceThreshold),
		router.WithLLMFallback(cfg.FallbackEnabled()),
		router.WithLenientJSON(cfg.LenientEnabled()),
		router.WithLogger(logger),
		router.WithMetrics(router.NewMetrics(registry)),
	)

	return &App{
		cfg:      cfg,
		logger:   logger,
		output:   output,
		out:      out,
		registry: registry,
		router:   r,
	}
}

// parse expands patterns and parses every matched file in order.
func (a *App) parse(ctx context.Context, patterns []string) error {
	paths, err := expandPatterns(patterns)
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range paths {
		fr := FileResult{Path: path}
		res, err := a.router.Parse(ctx, path, a.forceLLM)
		if err != nil {
			failed++
			fr.Error = err.Error()
			a.logger.Warn("Spec parse failed", "path", path, "error", err)
		} else {
			fr.Result = res
			for _, msg := range res.Messages() {
				a.logger.Warn(msg, "path", path)
			}
		}
		if err := writeOutput(a.out, a.output, fr); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d spec files failed to parse", failed, len(paths))
	}
	return nil
}

// watch prints a result for every settled change under dir until ctx ends.
func (a *App) watch(ctx context.Context, dir string, wcfg watch.Config, metricsAddr string) error {
	w, err := watch.New(dir, a.router, wcfg, a.logger)
	if err != nil {
		return err
	}
	defer w.Stop()

	if metricsAddr != "" {
		srv := a.serveMetrics(metricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := w.Start(ctx); err != nil {
		return err
	}

	for ev := range w.Events() {
		fr := FileResult{Path: ev.Path, Result: ev.Result}
		switch {
		case ev.Op == watch.OpDelete:
			a.logger.Info("Spec removed", "path", ev.Path)
			continue
		case ev.Err != nil:
			fr.Error = ev.Err.Error()
		}
		if err := writeOutput(a.out, a.output, fr); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Metrics server failed", "addr", addr, "error", err)
		}
	}()
	a.logger.Info("Serving metrics", "addr", addr)
	return srv
}

// loadConfig reads an explicit config file on top of the defaults, or runs
// the layered loader when no path is given.
func loadConfig(path string, logger *slog.Logger) (*config.Config, error) {
	if path == "" {
		return config.NewLoader(logger).Load()
	}
	fileCfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	cfg := config.DefaultConfig()
	cfg.Merge(fileCfg)
	return cfg, cfg.Validate()
}

// applyFlags overlays explicitly set command-line flags on the config.
func applyFlags(cfg *config.Config, p *parseFlags, cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("fallback") {
		cfg.Parse.LLMFallback = &p.fallback
	}
	if flags.Changed("lenient") {
		cfg.Parse.LenientJSON = &p.lenient
	}
	if flags.Changed("threshold") {
		if p.threshold < 0 || p.threshold > 1 {
			return fmt.Errorf("--threshold must be between 0 and 1")
		}
		cfg.Parse.ConfidenceThreshold = p.threshold
	}
	if p.model != "" {
		cfg.LLM.Model = p.model
	}
	if p.apiKey != "" {
		cfg.LLM.APIKey = p.apiKey
	}
	return nil
}

// expandPatterns resolves doublestar globs. Arguments without glob
// metacharacters pass through untouched so a missing file still reports
// not-found from the router.
func expandPatterns(patterns []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[{") {
			if !seen[pattern] {
				seen[pattern] = true
				paths = append(paths, pattern)
			}
			continue
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", pattern)
		}
		for _, m := range matches {
			m = filepath.Clean(m)
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	return paths, nil
}

func writeOutput(w io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	// Spec text routinely holds <, > and &; keep them literal
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err := w.Write(pretty.Pretty(buf.Bytes()))
	return err
}

// redact hides credentials before the config is printed.
func redact(cfg *config.Config) *config.Config {
	out := *cfg
	if out.LLM.APIKey != "" {
		out.LLM.APIKey = "***"
	}
	out.LLM.Fallbacks = make([]llm.Endpoint, len(cfg.LLM.Fallbacks))
	for i, fb := range cfg.LLM.Fallbacks {
		if fb.APIKey != "" {
			fb.APIKey = "***"
		}
		out.LLM.Fallbacks[i] = fb
	}
	return &out
}

// newLogger builds a text logger on w. flagLevel wins over cfgLevel.
func newLogger(flagLevel, cfgLevel string, w io.Writer) *slog.Logger {
	levelName := flagLevel
	if levelName == "" {
		levelName = cfgLevel
	}
	level := slog.LevelInfo
	switch strings.ToLower(levelName) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
