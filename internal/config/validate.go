package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Scraper.Concurrency < 1 {
		return fmt.Errorf("scraper.concurrency must be >= 1, got %d", cfg.Scraper.Concurrency)
	}
	if cfg.Scraper.Concurrency > 64 {
		return fmt.Errorf("scraper.concurrency must be <= 64, got %d", cfg.Scraper.Concurrency)
	}
	if cfg.Scraper.Timeout <= 0 {
		return fmt.Errorf("scraper.timeout must be > 0")
	}
	if cfg.Scraper.Fetcher != "browser" && cfg.Scraper.Fetcher != "http" {
		return fmt.Errorf("scraper.fetcher must be 'browser' or 'http', got %q", cfg.Scraper.Fetcher)
	}
	if err := ValidateURLTemplate(cfg.Scraper.URLTemplate); err != nil {
		return fmt.Errorf("scraper.url_template: %w", err)
	}
	if cfg.Scraper.ProgressEvery < 0 {
		return fmt.Errorf("scraper.progress_every must be >= 0, got %d", cfg.Scraper.ProgressEvery)
	}

	if cfg.HTTP.MaxBodySize <= 0 {
		return fmt.Errorf("http.max_body_size must be > 0")
	}
	if cfg.HTTP.MaxRedirects < 0 {
		return fmt.Errorf("http.max_redirects must be >= 0")
	}

	if cfg.Proxy.Enabled {
		if cfg.Proxy.Rotation != "round_robin" && cfg.Proxy.Rotation != "random" {
			return fmt.Errorf("proxy.rotation must be 'round_robin' or 'random', got %q", cfg.Proxy.Rotation)
		}
		for _, proxyURL := range cfg.Proxy.URLs {
			if _, err := url.Parse(proxyURL); err != nil {
				return fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
			}
		}
	}

	if cfg.Parser.DetailSelector == "" {
		return fmt.Errorf("parser.detail_selector must not be empty")
	}
	for _, rule := range cfg.Parser.Rules {
		if err := validateRule(rule); err != nil {
			return err
		}
	}

	if cfg.Input.Path == "" {
		return fmt.Errorf("input.path must not be empty")
	}

	if cfg.Output.Path == "" {
		return fmt.Errorf("output.path must not be empty")
	}
	if len(cfg.Output.Formats) == 0 {
		return fmt.Errorf("output.formats must name at least one format")
	}
	validFormats := map[string]bool{
		"csv": true, "xlsx": true, "json": true, "jsonl": true, "mongodb": true,
	}
	for _, f := range cfg.Output.Formats {
		if !validFormats[strings.ToLower(f)] {
			return fmt.Errorf("output format %q is not supported (valid: csv, xlsx, json, jsonl, mongodb)", f)
		}
		if strings.EqualFold(f, "mongodb") && cfg.Mongo.URI == "" {
			return fmt.Errorf("mongo.uri is required for the mongodb format")
		}
	}
	if cfg.Output.HeaderLang != "zh" && cfg.Output.HeaderLang != "en" {
		return fmt.Errorf("output.header_lang must be 'zh' or 'en', got %q", cfg.Output.HeaderLang)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURLTemplate checks that a page URL template is absolute http(s)
// and carries the {topic} placeholder.
func ValidateURLTemplate(tmpl string) error {
	if !strings.Contains(tmpl, "{topic}") {
		return fmt.Errorf("template %q has no {topic} placeholder", tmpl)
	}
	u, err := url.Parse(strings.ReplaceAll(tmpl, "{topic}", "x"))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

func validateRule(rule ParseRule) error {
	if rule.Name == "" {
		return fmt.Errorf("parser rule without a name")
	}
	switch rule.Type {
	case "", "css", "xpath":
		if rule.Selector == "" {
			return fmt.Errorf("parser rule %q: selector is required", rule.Name)
		}
	case "regex":
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			return fmt.Errorf("parser rule %q: %w", rule.Name, err)
		}
	default:
		return fmt.Errorf("parser rule %q: unknown type %q", rule.Name, rule.Type)
	}
	return nil
}
