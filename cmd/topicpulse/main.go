package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/TopicPulse/internal/config"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "topicpulse",
		Short: "TopicPulse: Weibo topic metrics scraper",
		Long: `TopicPulse reads a list of Weibo topics, renders each topic detail page in
its own headless browser and exports the engagement metrics it finds:
read, discussion, interaction and original counts, best hot-list rank and
time on the hot list.

Pages are scraped in parallel with a bounded worker pool. Topics that fail
are logged and left out of the export.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("TopicPulse %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scraper:\n")
			fmt.Fprintf(out, "  Concurrency:       %d\n", cfg.Scraper.Concurrency)
			fmt.Fprintf(out, "  Timeout:           %s\n", cfg.Scraper.Timeout)
			fmt.Fprintf(out, "  Fetcher:           %s\n", cfg.Scraper.Fetcher)
			fmt.Fprintf(out, "  URL Template:      %s\n", cfg.Scraper.URLTemplate)
			fmt.Fprintf(out, "  Wait Selector:     %s\n", cfg.Scraper.WaitSelector)
			fmt.Fprintf(out, "  Progress Every:    %d\n", cfg.Scraper.ProgressEvery)
			fmt.Fprintf(out, "  User Agents:       %d configured\n", len(cfg.Scraper.UserAgents))
			fmt.Fprintf(out, "\nBrowser:\n")
			fmt.Fprintf(out, "  Headless:          %v\n", cfg.Browser.Headless)
			fmt.Fprintf(out, "  Stealth:           %v\n", cfg.Browser.Stealth)
			fmt.Fprintf(out, "  Binary:            %s\n", orDefault(cfg.Browser.BinPath, "(auto)"))
			fmt.Fprintf(out, "\nProxy:\n")
			fmt.Fprintf(out, "  Enabled:           %v\n", cfg.Proxy.Enabled)
			fmt.Fprintf(out, "  Rotation:          %s\n", cfg.Proxy.Rotation)
			fmt.Fprintf(out, "  Count:             %d\n", len(cfg.Proxy.URLs))
			fmt.Fprintf(out, "\nParser:\n")
			fmt.Fprintf(out, "  Detail Selector:   %s\n", cfg.Parser.DetailSelector)
			fmt.Fprintf(out, "  Labels:            %d\n", len(cfg.Parser.Labels))
			fmt.Fprintf(out, "  Fallback Rules:    %d\n", len(cfg.Parser.Rules))
			fmt.Fprintf(out, "\nInput:\n")
			fmt.Fprintf(out, "  Path:              %s\n", cfg.Input.Path)
			fmt.Fprintf(out, "  Column:            %s\n", orDefault(cfg.Input.Column, "(first)"))
			fmt.Fprintf(out, "\nOutput:\n")
			fmt.Fprintf(out, "  Path:              %s\n", cfg.Output.Path)
			fmt.Fprintf(out, "  Formats:           %s\n", strings.Join(cfg.Output.Formats, ", "))
			fmt.Fprintf(out, "  BOM:               %v\n", cfg.Output.BOM)
			fmt.Fprintf(out, "  Header Language:   %s\n", cfg.Output.HeaderLang)
			fmt.Fprintf(out, "\nLogging:\n")
			fmt.Fprintf(out, "  Level:             %s\n", cfg.Logging.Level)
			fmt.Fprintf(out, "  Format:            %s\n", cfg.Logging.Format)
			fmt.Fprintf(out, "  File:              %s\n", orDefault(cfg.Logging.File, "(none)"))
			fmt.Fprintf(out, "\nMetrics:\n")
			fmt.Fprintf(out, "  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Fprintf(out, "  Port:              %d\n", cfg.Metrics.Port)
			if err := config.Validate(cfg); err != nil {
				fmt.Fprintf(out, "\nInvalid: %v\n", err)
			}
			return nil
		},
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// setupLogger creates the structured logger described by cfg. Records go to
// stderr and, when logging.file is set, to that file as well. The returned
// function closes the file.
func setupLogger(cfg config.LoggingConfig) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	var (
		w       io.Writer = os.Stderr
		closeFn           = func() {}
	)
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closeFn = func() { f.Close() }
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), closeFn, nil
}
