package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero concurrency", func(c *Config) { c.Scraper.Concurrency = 0 }},
		{"zero timeout", func(c *Config) { c.Scraper.Timeout = 0 }},
		{"unknown fetcher", func(c *Config) { c.Scraper.Fetcher = "curl" }},
		{"template without placeholder", func(c *Config) { c.Scraper.URLTemplate = "https://example.com/" }},
		{"template with bad scheme", func(c *Config) { c.Scraper.URLTemplate = "ftp://example.com/{topic}" }},
		{"unknown format", func(c *Config) { c.Output.Formats = []string{"parquet"} }},
		{"no formats", func(c *Config) { c.Output.Formats = nil }},
		{"bad header lang", func(c *Config) { c.Output.HeaderLang = "fr" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"bad regex rule", func(c *Config) {
			c.Parser.Rules = []ParseRule{{Name: "x", Type: "regex", Pattern: "("}}
		}},
		{"css rule without selector", func(c *Config) {
			c.Parser.Rules = []ParseRule{{Name: "x", Type: "css"}}
		}},
		{"mongodb without uri", func(c *Config) {
			c.Output.Formats = []string{"mongodb"}
			c.Mongo.URI = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topicpulse.yaml")
	yaml := `
scraper:
  concurrency: 3
  timeout: 15s
  fetcher: http
output:
  path: out/stats.csv
  formats: [csv, xlsx]
  header_lang: en
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Scraper.Concurrency != 3 {
		t.Errorf("expected concurrency 3, got %d", cfg.Scraper.Concurrency)
	}
	if cfg.Scraper.Timeout != 15*time.Second {
		t.Errorf("expected 15s timeout, got %s", cfg.Scraper.Timeout)
	}
	if cfg.Scraper.Fetcher != "http" {
		t.Errorf("expected http fetcher, got %q", cfg.Scraper.Fetcher)
	}
	if len(cfg.Output.Formats) != 2 || cfg.Output.Formats[1] != "xlsx" {
		t.Errorf("unexpected formats %v", cfg.Output.Formats)
	}
	// Untouched sections keep their defaults.
	if cfg.Input.Column != "话题" {
		t.Errorf("expected default input column, got %q", cfg.Input.Column)
	}
	if cfg.Parser.Labels["阅读量"] != FieldReadCount {
		t.Errorf("expected default labels, got %v", cfg.Parser.Labels)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TOPICPULSE_SCRAPER_CONCURRENCY", "7")
	t.Setenv("TOPICPULSE_OUTPUT_PATH", "env.csv")

	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scraper.Concurrency != 7 {
		t.Errorf("expected env concurrency 7, got %d", cfg.Scraper.Concurrency)
	}
	if cfg.Output.Path != "env.csv" {
		t.Errorf("expected env output path, got %q", cfg.Output.Path)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected file log level, got %q", cfg.Logging.Level)
	}
}
