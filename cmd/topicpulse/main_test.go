package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/IshaanNene/TopicPulse/internal/config"
)

func TestApplyCLIOverrides(t *testing.T) {
	cmd := scrapeCmd()
	err := cmd.ParseFlags([]string{
		"-i", "in.xlsx",
		"-o", "out/stats.csv",
		"-f", "CSV, xlsx",
		"-n", "3",
		"--timeout", "20s",
		"--fetcher", "http",
		"--headful",
	})
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	applyCLIOverrides(cmd, cfg)

	if cfg.Input.Path != "in.xlsx" || cfg.Output.Path != "out/stats.csv" {
		t.Errorf("paths not applied: %q %q", cfg.Input.Path, cfg.Output.Path)
	}
	if strings.Join(cfg.Output.Formats, ",") != "csv,xlsx" {
		t.Errorf("unexpected formats %v", cfg.Output.Formats)
	}
	if cfg.Scraper.Concurrency != 3 || cfg.Scraper.Timeout != 20*time.Second {
		t.Errorf("pool settings not applied: %d %s", cfg.Scraper.Concurrency, cfg.Scraper.Timeout)
	}
	if cfg.Scraper.Fetcher != "http" || cfg.Browser.Headless {
		t.Errorf("fetcher settings not applied: %q headless=%v", cfg.Scraper.Fetcher, cfg.Browser.Headless)
	}
	// Flags that were not given keep the config values.
	if cfg.Input.Column != "话题" || cfg.Output.HeaderLang != "zh" {
		t.Errorf("unset flags should not override config")
	}
}

func TestSetupLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper.log")
	logger, closeLog, err := setupLogger(config.LoggingConfig{Level: "warn", Format: "json", File: path})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	logger.Warn("topic failed", "topic", "t")
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(string(data), `"msg":"topic failed"`) {
		t.Errorf("expected JSON warn record, got %s", data)
	}
}
