package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. TOPICPULSE_SCRAPER_CONCURRENCY.
const EnvPrefix = "TOPICPULSE"

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied by the caller on top of the result.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("topicpulse")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".topicpulse"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// A missing file is fine unless one was asked for explicitly.
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv populates the process environment from a .env file if present.
// Variables already set win over the file.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// setDefaults registers default values in viper so env-only keys resolve.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("scraper.concurrency", cfg.Scraper.Concurrency)
	v.SetDefault("scraper.timeout", cfg.Scraper.Timeout)
	v.SetDefault("scraper.fetcher", cfg.Scraper.Fetcher)
	v.SetDefault("scraper.url_template", cfg.Scraper.URLTemplate)
	v.SetDefault("scraper.wait_selector", cfg.Scraper.WaitSelector)
	v.SetDefault("scraper.progress_every", cfg.Scraper.ProgressEvery)
	v.SetDefault("scraper.user_agents", cfg.Scraper.UserAgents)

	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.stealth", cfg.Browser.Stealth)
	v.SetDefault("browser.bin_path", cfg.Browser.BinPath)
	v.SetDefault("browser.window_size", cfg.Browser.WindowSize)
	v.SetDefault("browser.user_data_dir", cfg.Browser.UserDataDir)

	v.SetDefault("http.max_body_size", cfg.HTTP.MaxBodySize)
	v.SetDefault("http.tls_insecure", cfg.HTTP.TLSInsecure)
	v.SetDefault("http.follow_redirects", cfg.HTTP.FollowRedirects)
	v.SetDefault("http.max_redirects", cfg.HTTP.MaxRedirects)

	v.SetDefault("proxy.enabled", cfg.Proxy.Enabled)
	v.SetDefault("proxy.rotation", cfg.Proxy.Rotation)

	v.SetDefault("parser.detail_selector", cfg.Parser.DetailSelector)
	v.SetDefault("parser.item_selector", cfg.Parser.ItemSelector)
	v.SetDefault("parser.num_selector", cfg.Parser.NumSelector)
	v.SetDefault("parser.label_selector", cfg.Parser.LabelSelector)

	v.SetDefault("input.path", cfg.Input.Path)
	v.SetDefault("input.column", cfg.Input.Column)
	v.SetDefault("input.sheet", cfg.Input.Sheet)

	v.SetDefault("output.path", cfg.Output.Path)
	v.SetDefault("output.formats", cfg.Output.Formats)
	v.SetDefault("output.bom", cfg.Output.BOM)
	v.SetDefault("output.header_lang", cfg.Output.HeaderLang)
	v.SetDefault("output.sheet_name", cfg.Output.SheetName)

	v.SetDefault("mongo.uri", cfg.Mongo.URI)
	v.SetDefault("mongo.database", cfg.Mongo.Database)
	v.SetDefault("mongo.collection", cfg.Mongo.Collection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
