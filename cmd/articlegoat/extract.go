package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/ArticleGoat/internal/config"
	"github.com/IshaanNene/ArticleGoat/internal/engine"
	"github.com/IshaanNene/ArticleGoat/internal/extract"
	"github.com/IshaanNene/ArticleGoat/internal/fetcher"
	"github.com/IshaanNene/ArticleGoat/internal/observability"
	"github.com/IshaanNene/ArticleGoat/internal/parser"
	"github.com/IshaanNene/ArticleGoat/internal/pipeline"
	"github.com/IshaanNene/ArticleGoat/internal/source"
	"github.com/IshaanNene/ArticleGoat/internal/storage"
)

var (
	inputPath string
	feedsPath string
)

// extractCmd creates the "extract" subcommand.
func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract articles listed in a JSONL task file",
		Long: `Read article tasks from a JSONL file (one object per line with source,
url, title, summary and published; Spanish keys such as enlace, titular and
fecha are accepted) and extract the full text of each article.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.Logging)
			return runExtraction(cmd.Context(), cfg, source.NewTaskFile(inputPath, logger), logger)
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "JSONL task file")
	_ = cmd.MarkFlagRequired("input")
	addRunFlags(cmd)
	return cmd
}

// feedCmd creates the "feed" subcommand.
func feedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Collect articles from RSS/Atom feeds and extract them",
		Long: `Download the feeds listed in a YAML file, keep the items whose title or
summary mentions one of source.keywords, drop duplicate URLs and extract the
full text of each remaining article.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.Logging)
			feeds, err := source.LoadFeedFile(feedsPath)
			if err != nil {
				return err
			}
			return runExtraction(cmd.Context(), cfg, source.NewFeedSource(feeds, cfg.Source, logger), logger)
		},
	}
	cmd.Flags().StringVarP(&feedsPath, "feeds", "f", "", "YAML file listing the feeds")
	_ = cmd.MarkFlagRequired("feeds")
	addRunFlags(cmd)
	return cmd
}

// runExtraction wires the components, runs the engine over the tasks from
// src and writes the report.
func runExtraction(ctx context.Context, cfg *config.Config, src source.Source, logger *slog.Logger) error {
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)

	tasks, err := src.Tasks(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	if len(tasks) == 0 {
		logger.Warn("no tasks to process")
	}

	metrics := observability.NewMetrics(logger)
	eng := engine.New(cfg, logger)

	// Fetching
	limiter := fetcher.NewDomainLimiter(cfg.Fetcher.DomainDelay)
	httpFetcher := fetcher.NewHTTPFetcher(cfg, limiter, logger, fetcher.WithRetryObserver(metrics.ObserveRetry))
	defer httpFetcher.Close()
	eng.SetFetcher(httpFetcher)
	eng.SetDetector(fetcher.NewBlockingDetector(cfg.Blocking))
	if cfg.Render.Enabled {
		eng.SetRenderer(fetcher.NewRodRenderer(cfg, logger))
	}

	// Extraction
	selectors, err := config.DomainSelectorMap(&cfg.Extractor)
	if err != nil {
		return fmt.Errorf("load selectors: %w", err)
	}
	eng.SetPrimary(extract.NewPrimaryExtractor(cfg.Extractor, logger))
	eng.SetSelector(parser.NewDomainSelectorExtractor(selectors, cfg.Extractor, logger))

	cleaner, err := pipeline.NewCleaner(cfg.Cleaner, logger)
	if err != nil {
		return fmt.Errorf("create cleaner: %w", err)
	}
	eng.SetCleaner(cleaner)

	// Storage
	store, err := storage.Open(&cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	eng.SetStorage(store)

	// Metrics
	eng.OnRecord(metrics.ObserveRecord)
	metrics.TrackBudget(eng.Budget())
	if cfg.Metrics.Enabled {
		srv := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("starting extraction",
		"tasks", len(tasks),
		"concurrency", cfg.Engine.Concurrency,
		"render", cfg.Render.Enabled,
		"render_budget", cfg.Render.MaxCalls,
		"sinks", store.Names(),
	)

	summary, runErr := eng.Run(ctx, runID, engine.Feed(ctx, tasks))
	if summary == nil {
		return fmt.Errorf("run engine: %w", runErr)
	}
	if runErr != nil {
		// write failures are per batch; the report still describes the run
		logger.Error("storage errors during run", "error", runErr)
	}

	reportPath := filepath.Join(cfg.Storage.OutputDir, cfg.Storage.ReportFile)
	if err := storage.WriteReport(reportPath, summary); err != nil {
		logger.Error("failed to write report", "path", reportPath, "error", err)
	}

	printSummary(os.Stdout, summary, store.Names(), cfg.Storage.OutputDir)
	if ctx.Err() != nil {
		fmt.Fprintf(os.Stdout, "\nInterrupted: %d of %d tasks processed\n", summary.Total, len(tasks))
	}
	return nil
}
