package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/IshaanNene/TopicPulse/internal/config"
	"github.com/IshaanNene/TopicPulse/internal/types"
)

// Fetcher is the interface for all page fetcher implementations.
type Fetcher interface {
	// Fetch retrieves the content at the given request's URL.
	Fetch(ctx context.Context, req *types.Request) (*types.Response, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// Factory creates a fresh fetcher. The engine calls it once per topic so
// no session state is shared between tasks.
type Factory func() (Fetcher, error)

// Option configures a fetcher.
type Option func(*options)

type options struct {
	proxyMgr  *ProxyManager
	userAgent string
}

// WithProxy routes the fetcher through the next proxy of pm.
func WithProxy(pm *ProxyManager) Option {
	return func(o *options) { o.proxyMgr = pm }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

func collectOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewFactory returns a Factory for cfg.Scraper.Fetcher. User agents and
// proxies rotate across the fetchers it creates.
func NewFactory(cfg *config.Config, logger *slog.Logger) (Factory, error) {
	var proxyMgr *ProxyManager
	if cfg.Proxy.Enabled && len(cfg.Proxy.URLs) > 0 {
		proxyMgr = NewProxyManager(&cfg.Proxy, logger)
	}
	agents := &rotator{values: cfg.Scraper.UserAgents}

	switch cfg.Scraper.Fetcher {
	case "http":
		return func() (Fetcher, error) {
			return NewHTTPFetcher(cfg, logger, WithProxy(proxyMgr), WithUserAgent(agents.Next()))
		}, nil
	case "browser":
		return func() (Fetcher, error) {
			return NewBrowserFetcher(cfg, logger, WithProxy(proxyMgr), WithUserAgent(agents.Next()))
		}, nil
	default:
		return nil, fmt.Errorf("unknown fetcher type %q", cfg.Scraper.Fetcher)
	}
}

// rotator hands out values round-robin; safe for concurrent use.
type rotator struct {
	values []string
	index  atomic.Int64
}

func (r *rotator) Next() string {
	if len(r.values) == 0 {
		return ""
	}
	idx := (r.index.Add(1) - 1) % int64(len(r.values))
	return r.values[idx]
}
