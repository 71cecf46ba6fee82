// Package main provides the specparse binary entry point.
// Specparse reads specification documents in Markdown, JSON, YAML or OpenAPI
// form, falls back to an LLM for anything else, and prints one normalized
// spec per file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/specparse/config"
	"github.com/c360studio/specparse/watch"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "specparse"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

// parseFlags hold the per-run routing overrides.
type parseFlags struct {
	useLLM    bool
	fallback  bool
	lenient   bool
	threshold float64
	model     string
	apiKey    string
	output    string
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Normalize specification documents",
		Long: `Specparse turns specification documents into one normalized shape.

Markdown, JSON, YAML and OpenAPI files are parsed structurally. Anything
else, or a structured file that fails to parse, can be handed to an LLM
when the fallback is enabled.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML); default searches user and project config")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(parseCmd(g), watchCmd(g), configCmd(g))

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func addParseFlags(cmd *cobra.Command, p *parseFlags) {
	f := cmd.Flags()
	f.BoolVar(&p.useLLM, "llm", false, "Force the LLM parser regardless of extension")
	f.BoolVar(&p.fallback, "fallback", false, "Fall back to the LLM parser when structural parsing fails")
	f.BoolVar(&p.lenient, "lenient", false, "Strip code fences and comments from LLM output before decoding")
	f.Float64Var(&p.threshold, "threshold", 0, "LLM confidence threshold in [0,1]")
	f.StringVar(&p.model, "model", "", "LLM model identifier")
	f.StringVar(&p.apiKey, "api-key", "", "LLM API key")
	f.StringVarP(&p.output, "output", "o", "json", "Output format (json, yaml)")
}

func parseCmd(g *globalFlags) *cobra.Command {
	p := &parseFlags{}

	cmd := &cobra.Command{
		Use:   "parse <path|glob>...",
		Short: "Parse spec files and print normalized results",
		Long: `Parse one or more spec files. Arguments may be doublestar globs such
as "specs/**/*.md". One result is printed per file; the command fails if any
file failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(g, p, cmd)
			if err != nil {
				return err
			}
			return app.parse(commandContext(cmd), args)
		},
	}
	addParseFlags(cmd, p)
	return cmd
}

func watchCmd(g *globalFlags) *cobra.Command {
	p := &parseFlags{}
	var (
		debounce    time.Duration
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Re-parse spec files under a directory whenever they change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(g, p, cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			wcfg := watch.DefaultConfig()
			wcfg.DebounceDelay = debounce
			wcfg.UseLLM = p.useLLM
			return app.watch(ctx, args[0], wcfg, metricsAddr)
		},
	}
	addParseFlags(cmd, p)
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Delay for changes to settle before re-parsing")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

func configCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage specparse configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default user config if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(g.logLevel, "info", cmd.ErrOrStderr())
			path, err := config.NewLoader(logger).EnsureUserConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(g.logLevel, "info", cmd.ErrOrStderr())
			cfg, err := loadConfig(g.configPath, logger)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), "yaml", redact(cfg))
		},
	})

	return cmd
}

// commandContext returns the command's context, which is nil when a command
// runs outside Execute (as in tests calling RunE directly).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
