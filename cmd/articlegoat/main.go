package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/IshaanNene/ArticleGoat/internal/config"
)

var (
	cfgFile string
	verbose bool

	concurrency     int
	renderEnabled   bool
	renderWhitelist string
	maxRenderCalls  int
	outputDir       string
	storageType     string
	delay           string
	timeout         string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "articlegoat",
		Short: "ArticleGoat extracts full article text from news URLs",
		Long: `ArticleGoat turns a list of news article URLs into full-text records.

Each article goes through a fixed chain of strategies:
  • HTTP fetch with retries and per-domain throttling
  • Block-page detection
  • Readability extraction, then per-domain CSS/XPath selectors
  • Headless Chromium rendering for whitelisted domains, within a per-run budget
  • Text normalization

Every input URL yields exactly one record with a terminal status.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(feedCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// addRunFlags registers the flags shared by every command that runs the
// extraction engine.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&concurrency, "concurrency", "n", 0, "number of concurrent workers (0 = config default of 5)")
	cmd.Flags().BoolVar(&renderEnabled, "render", false, "enable the headless-browser fallback")
	cmd.Flags().StringVar(&renderWhitelist, "render-whitelist", "", "comma-separated domains eligible for rendering")
	cmd.Flags().IntVar(&maxRenderCalls, "max-render-calls", -1, "render calls allowed per run (-1 = config default)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory for records, failures and the report")
	cmd.Flags().StringVarP(&storageType, "storage", "s", "", "record sinks: json, jsonl, csv, mongodb, sqlite (comma-separated)")
	cmd.Flags().StringVar(&delay, "delay", "", "minimum delay between requests to one domain")
	cmd.Flags().StringVar(&timeout, "timeout", "", "per-request fetch timeout")
}

// loadConfig loads, overrides and validates the configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := applyCLIOverrides(cmd, cfg); err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyCLIOverrides applies command-line flag values to the config. Only
// flags the user actually set take effect.
func applyCLIOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("concurrency") {
		cfg.Engine.Concurrency = concurrency
	}
	if flags.Changed("render") {
		cfg.Render.Enabled = renderEnabled
	}
	if flags.Changed("render-whitelist") {
		cfg.Render.Whitelist = splitList(renderWhitelist)
	}
	if flags.Changed("max-render-calls") && maxRenderCalls >= 0 {
		cfg.Render.MaxCalls = maxRenderCalls
	}
	if outputDir != "" {
		cfg.Storage.OutputDir = outputDir
	}
	if storageType != "" {
		cfg.Storage.Type = strings.ToLower(storageType)
	}
	if delay != "" {
		d, err := time.ParseDuration(delay)
		if err != nil {
			return fmt.Errorf("invalid --delay %q: %w", delay, err)
		}
		cfg.Fetcher.DomainDelay = d
	}
	if timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid --timeout %q: %w", timeout, err)
		}
		cfg.Fetcher.Timeout = d
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ArticleGoat %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
	cmd.AddCommand(show)
	return cmd
}

// setupLogger creates a structured logger from the logging config.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
