package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/TopicPulse/internal/config"
	"github.com/IshaanNene/TopicPulse/internal/engine"
	"github.com/IshaanNene/TopicPulse/internal/fetcher"
	"github.com/IshaanNene/TopicPulse/internal/observability"
	"github.com/IshaanNene/TopicPulse/internal/parser"
	"github.com/IshaanNene/TopicPulse/internal/source"
	"github.com/IshaanNene/TopicPulse/internal/storage"
)

var (
	inputPath   string
	inputColumn string
	outputPath  string
	formats     string
	concurrent  int
	timeout     time.Duration
	fetcherType string
	headful     bool
	headerLang  string
	metricsOn   bool
)

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape metrics for every topic in the input file",
		Long: `Load topics from a CSV or XLSX file, fetch each topic detail page and
export the parsed metrics.

Each topic gets one attempt in its own browser session. Failures are
logged and skipped; the export keeps the input order.`,
		Args: cobra.NoArgs,
		RunE: runScrape,
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "topic list (.csv or .xlsx)")
	cmd.Flags().StringVar(&inputColumn, "column", "", "topic column header")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "comma-separated output formats: csv, xlsx, json, jsonl, mongodb")
	cmd.Flags().IntVarP(&concurrent, "concurrency", "n", 0, "number of parallel browser sessions")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "page load timeout per topic")
	cmd.Flags().StringVar(&fetcherType, "fetcher", "", "page fetcher: browser or http")
	cmd.Flags().BoolVar(&headful, "headful", false, "show the browser window")
	cmd.Flags().StringVar(&headerLang, "header-lang", "", "export header language: zh or en")
	cmd.Flags().BoolVar(&metricsOn, "metrics", false, "serve Prometheus metrics while scraping")

	return cmd
}

// runScrape executes the scrape command.
func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	applyCLIOverrides(cmd, cfg)

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, closeLog, err := setupLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()

	topics, err := source.Load(cfg.Input, logger)
	if err != nil {
		return fmt.Errorf("load topics: %w", err)
	}

	factory, err := fetcher.NewFactory(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	topicParser := parser.NewTopicParser(cfg.Parser, logger)

	// Open the export before scraping so a bad output target fails fast.
	store, err := storage.NewFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		// A second signal kills the process.
		stop()
	}()

	var opts []engine.Option
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(logger)
		if err := metrics.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
		opts = append(opts, engine.WithRecorder(metrics))
	}

	runner := engine.New(cfg, logger, factory, topicParser, opts...)

	start := time.Now()
	results, runErr := runner.Run(ctx, topics)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		store.Close()
		return fmt.Errorf("scrape: %w", runErr)
	}
	if runErr != nil {
		logger.Warn("interrupted, exporting collected results", "records", len(results))
	}
	if len(results) == 0 {
		logger.Warn("no topic was scraped successfully; export will be empty")
	}

	if err := store.Store(results); err != nil {
		store.Close()
		return fmt.Errorf("store results: %w", err)
	}
	if err := store.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	if metrics != nil {
		metrics.RecordStored(store.Name(), len(results))
	}

	elapsed := time.Since(start)
	stats := runner.Stats().Snapshot()

	logger.Info("scrape complete",
		"elapsed", elapsed,
		"topics", stats["topics_total"],
		"ok", stats["topics_ok"],
		"failed", stats["topics_failed"],
		"output", cfg.Output.Path,
	)

	fmt.Printf("\nScrape complete in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Topics:   %v total, %v ok, %v failed\n", stats["topics_total"], stats["topics_ok"], stats["topics_failed"])
	fmt.Printf("   Data:     %v bytes downloaded\n", stats["bytes_downloaded"])
	fmt.Printf("   Output:   %s (%s)\n", cfg.Output.Path, strings.Join(cfg.Output.Formats, ", "))

	if runErr != nil {
		return fmt.Errorf("interrupted: %w", runErr)
	}
	return nil
}

// applyCLIOverrides applies explicitly set command-line flags to the config.
func applyCLIOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("input") {
		cfg.Input.Path = inputPath
	}
	if flags.Changed("column") {
		cfg.Input.Column = inputColumn
	}
	if flags.Changed("output") {
		cfg.Output.Path = outputPath
	}
	if flags.Changed("format") {
		var list []string
		for _, f := range strings.Split(formats, ",") {
			if f = strings.TrimSpace(f); f != "" {
				list = append(list, strings.ToLower(f))
			}
		}
		cfg.Output.Formats = list
	}
	if flags.Changed("concurrency") {
		cfg.Scraper.Concurrency = concurrent
	}
	if flags.Changed("timeout") {
		cfg.Scraper.Timeout = timeout
	}
	if flags.Changed("fetcher") {
		cfg.Scraper.Fetcher = strings.ToLower(fetcherType)
	}
	if headful {
		cfg.Browser.Headless = false
	}
	if flags.Changed("header-lang") {
		cfg.Output.HeaderLang = headerLang
	}
	if metricsOn {
		cfg.Metrics.Enabled = true
	}
}
