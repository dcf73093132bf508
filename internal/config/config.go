package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// DefaultURLTemplate is the Weibo mobile topic detail page. {topic} is
// replaced with the query-escaped topic name.
const DefaultURLTemplate = "https://m.s.weibo.com/vtopic/detail_new?click_from=searchpc&q={topic}"

// Config is the root configuration for TopicPulse.
type Config struct {
	Scraper ScraperConfig `mapstructure:"scraper" yaml:"scraper"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	HTTP    HTTPConfig    `mapstructure:"http"    yaml:"http"`
	Proxy   ProxyConfig   `mapstructure:"proxy"   yaml:"proxy"`
	Parser  ParserConfig  `mapstructure:"parser"  yaml:"parser"`
	Input   InputConfig   `mapstructure:"input"   yaml:"input"`
	Output  OutputConfig  `mapstructure:"output"  yaml:"output"`
	Mongo   MongoConfig   `mapstructure:"mongo"   yaml:"mongo"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// ScraperConfig controls the topic worker pool.
type ScraperConfig struct {
	Concurrency   int           `mapstructure:"concurrency"    yaml:"concurrency"`
	Timeout       time.Duration `mapstructure:"timeout"        yaml:"timeout"`
	Fetcher       string        `mapstructure:"fetcher"        yaml:"fetcher"` // browser, http
	URLTemplate   string        `mapstructure:"url_template"   yaml:"url_template"`
	WaitSelector  string        `mapstructure:"wait_selector"  yaml:"wait_selector"`
	ProgressEvery int           `mapstructure:"progress_every" yaml:"progress_every"`
	UserAgents    []string      `mapstructure:"user_agents"    yaml:"user_agents"`
}

// BrowserConfig controls the headless Chromium sessions.
type BrowserConfig struct {
	Headless    bool   `mapstructure:"headless"     yaml:"headless"`
	Stealth     bool   `mapstructure:"stealth"      yaml:"stealth"`
	BinPath     string `mapstructure:"bin_path"     yaml:"bin_path"`
	WindowSize  string `mapstructure:"window_size"  yaml:"window_size"`
	UserDataDir string `mapstructure:"user_data_dir" yaml:"user_data_dir"`
}

// HTTPConfig controls the plain HTTP fetcher.
type HTTPConfig struct {
	MaxBodySize     int64 `mapstructure:"max_body_size"    yaml:"max_body_size"`
	TLSInsecure     bool  `mapstructure:"tls_insecure"     yaml:"tls_insecure"`
	FollowRedirects bool  `mapstructure:"follow_redirects" yaml:"follow_redirects"`
	MaxRedirects    int   `mapstructure:"max_redirects"    yaml:"max_redirects"`
}

// ProxyConfig controls proxy rotation.
type ProxyConfig struct {
	Enabled  bool     `mapstructure:"enabled"  yaml:"enabled"`
	Rotation string   `mapstructure:"rotation" yaml:"rotation"`
	URLs     []string `mapstructure:"urls"     yaml:"urls"`
}

// ParserConfig controls how the detail page is read.
type ParserConfig struct {
	DetailSelector string            `mapstructure:"detail_selector" yaml:"detail_selector"`
	ItemSelector   string            `mapstructure:"item_selector"   yaml:"item_selector"`
	NumSelector    string            `mapstructure:"num_selector"    yaml:"num_selector"`
	LabelSelector  string            `mapstructure:"label_selector"  yaml:"label_selector"`
	Labels         map[string]string `mapstructure:"labels"          yaml:"labels"`
	Rules          []ParseRule       `mapstructure:"rules"           yaml:"rules"`
}

// ParseRule defines a fallback extraction rule for a single field.
type ParseRule struct {
	Name      string `mapstructure:"name"      yaml:"name"`
	Selector  string `mapstructure:"selector"  yaml:"selector"`
	Type      string `mapstructure:"type"      yaml:"type"` // css, xpath, regex
	Attribute string `mapstructure:"attribute" yaml:"attribute"`
	Pattern   string `mapstructure:"pattern"   yaml:"pattern"`
}

// InputConfig locates the topic list.
type InputConfig struct {
	Path   string `mapstructure:"path"   yaml:"path"`
	Column string `mapstructure:"column" yaml:"column"`
	Sheet  string `mapstructure:"sheet"  yaml:"sheet"`
}

// OutputConfig controls the export.
type OutputConfig struct {
	Path       string   `mapstructure:"path"        yaml:"path"`
	Formats    []string `mapstructure:"formats"     yaml:"formats"`
	BOM        bool     `mapstructure:"bom"         yaml:"bom"`
	HeaderLang string   `mapstructure:"header_lang" yaml:"header_lang"`
	SheetName  string   `mapstructure:"sheet_name"  yaml:"sheet_name"`
}

// MongoConfig controls the optional MongoDB export.
type MongoConfig struct {
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file"   yaml:"file"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// Field names produced by the parser.
const (
	FieldReadCount        = "read_count"
	FieldDiscussionCount  = "discussion_count"
	FieldInteractionCount = "interaction_count"
	FieldOriginalCount    = "original_count"
	FieldBestRank         = "best_rank"
	FieldListedDuration   = "listed_duration"
)

// DefaultLabels maps the labels shown on the detail page to field names.
func DefaultLabels() map[string]string {
	return map[string]string{
		"阅读量":  FieldReadCount,
		"讨论量":  FieldDiscussionCount,
		"互动量":  FieldInteractionCount,
		"原创量":  FieldOriginalCount,
		"最高排名": FieldBestRank,
		"在榜时长": FieldListedDuration,
	}
}

// DefaultRules are tried for fields the detail block did not provide.
func DefaultRules() []ParseRule {
	return []ParseRule{
		{
			Name:     FieldBestRank,
			Type:     "xpath",
			Selector: "//div[contains(@class,'rank-info')]//span[contains(@class,'rank-num')]",
		},
		{
			Name:    FieldListedDuration,
			Type:    "regex",
			Pattern: `在榜(?:时长)?[:：]?\s*((?:\d+(?:\.\d+)?\s*(?:天|日|小时|时|分钟|分|秒)\s*)+)`,
		},
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scraper: ScraperConfig{
			Concurrency:   5,
			Timeout:       10 * time.Second,
			Fetcher:       "browser",
			URLTemplate:   DefaultURLTemplate,
			WaitSelector:  ".detail-data",
			ProgressEvery: 10,
			UserAgents: []string{
				"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
				"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
			},
		},
		Browser: BrowserConfig{
			Headless: true,
		},
		HTTP: HTTPConfig{
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			FollowRedirects: true,
			MaxRedirects:    10,
		},
		Proxy: ProxyConfig{
			Enabled:  false,
			Rotation: "round_robin",
		},
		Parser: ParserConfig{
			DetailSelector: "div.detail-data",
			ItemSelector:   "div.item-col",
			NumSelector:    "div.num",
			LabelSelector:  "div.des",
			Labels:         DefaultLabels(),
			Rules:          DefaultRules(),
		},
		Input: InputConfig{
			Path:   "topics.csv",
			Column: "话题",
		},
		Output: OutputConfig{
			Path:       "output.csv",
			Formats:    []string{"csv"},
			BOM:        true,
			HeaderLang: "zh",
			SheetName:  "topics",
		},
		Mongo: MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "topicpulse",
			Collection: "topic_stats",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "scraper.log",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
