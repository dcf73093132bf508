// Package topicpulse provides a public SDK for embedding TopicPulse as a library.
//
// Example usage:
//
//	scraper := topicpulse.NewScraper(
//	    topicpulse.WithConcurrency(3),
//	    topicpulse.WithTimeout(15*time.Second),
//	)
//
//	records, err := scraper.Scrape(ctx, []string{"#春节#", "#元宵节#"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range records {
//	    fmt.Println(r.Topic, r.ReadCount)
//	}
package topicpulse

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/IshaanNene/TopicPulse/internal/config"
	"github.com/IshaanNene/TopicPulse/internal/engine"
	"github.com/IshaanNene/TopicPulse/internal/fetcher"
	"github.com/IshaanNene/TopicPulse/internal/parser"
	"github.com/IshaanNene/TopicPulse/internal/types"
)

// TopicStats is the record produced for one topic.
type TopicStats = types.TopicStats

// Value parsers used by the scraper, exposed for callers that read the
// same page formats from other sources.
var (
	ParseCount    = parser.ParseCount
	ParseDuration = parser.ParseDuration
	ParseRank     = parser.ParseRank
)

// Scraper is the high-level API for using TopicPulse as a library.
type Scraper struct {
	cfg    *config.Config
	logger *slog.Logger
	runner *engine.Runner
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithConcurrency sets the number of parallel sessions.
func WithConcurrency(n int) Option {
	return func(s *Scraper) { s.cfg.Scraper.Concurrency = n }
}

// WithTimeout sets the page load timeout per topic.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) { s.cfg.Scraper.Timeout = d }
}

// WithFetcher selects the page fetcher: "browser" (default) or "http".
func WithFetcher(kind string) Option {
	return func(s *Scraper) { s.cfg.Scraper.Fetcher = kind }
}

// WithURLTemplate overrides the topic page URL. The template must contain
// {topic}.
func WithURLTemplate(tmpl string) Option {
	return func(s *Scraper) { s.cfg.Scraper.URLTemplate = tmpl }
}

// WithUserAgent sets a custom User-Agent.
func WithUserAgent(ua string) Option {
	return func(s *Scraper) { s.cfg.Scraper.UserAgents = []string{ua} }
}

// WithProxy enables proxy rotation with the given proxy URLs.
func WithProxy(urls ...string) Option {
	return func(s *Scraper) {
		s.cfg.Proxy.Enabled = true
		s.cfg.Proxy.URLs = urls
	}
}

// WithHeadless toggles the headless browser mode.
func WithHeadless(headless bool) Option {
	return func(s *Scraper) { s.cfg.Browser.Headless = headless }
}

// WithLogger replaces the default stderr logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scraper) { s.logger = logger }
}

// WithConfig starts from cfg instead of the defaults. Options given after
// it still apply on top.
func WithConfig(cfg *config.Config) Option {
	return func(s *Scraper) {
		copied := *cfg
		s.cfg = &copied
	}
}

// NewScraper creates a new Scraper with the given options.
func NewScraper(opts ...Option) *Scraper {
	s := &Scraper{cfg: config.DefaultConfig()}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	return s
}

// Scrape fetches every topic and returns the records in input order.
// Topics that fail are logged and omitted.
func (s *Scraper) Scrape(ctx context.Context, topics []string) ([]*TopicStats, error) {
	if err := config.Validate(s.cfg); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	factory, err := fetcher.NewFactory(s.cfg, s.logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}

	s.runner = engine.New(s.cfg, s.logger, factory, parser.NewTopicParser(s.cfg.Parser, s.logger))
	return s.runner.Run(ctx, topics)
}

// ParsePage parses a saved topic page without fetching anything.
func (s *Scraper) ParsePage(html []byte, topic string) (*TopicStats, error) {
	resp := types.NewBrowserResponse(nil, 200, html, "", 0)
	return parser.NewTopicParser(s.cfg.Parser, s.logger).Parse(resp, topic)
}

// Stats returns statistics of the last Scrape call.
func (s *Scraper) Stats() map[string]any {
	if s.runner != nil {
		return s.runner.Stats().Snapshot()
	}
	return nil
}
