package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/TopicPulse/internal/config"
	"github.com/IshaanNene/TopicPulse/internal/types"
)

// BrowserFetcher renders pages in its own headless Chromium via Rod.
// Each instance owns one browser process; create one per topic and Close it.
type BrowserFetcher struct {
	cfg          config.BrowserConfig
	timeout      time.Duration
	waitSelector string
	userAgent    string
	launcher     *launcher.Launcher
	browser      *rod.Browser
	logger       *slog.Logger
}

// NewBrowserFetcher launches a new browser session.
func NewBrowserFetcher(cfg *config.Config, logger *slog.Logger, opts ...Option) (*BrowserFetcher, error) {
	o := collectOptions(opts)

	bf := &BrowserFetcher{
		cfg:          cfg.Browser,
		timeout:      cfg.Scraper.Timeout,
		waitSelector: cfg.Scraper.WaitSelector,
		userAgent:    o.userAgent,
		logger:       logger.With("component", "browser_fetcher"),
	}

	launchURL, err := bf.launchBrowser(o.proxyMgr)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		bf.launcher.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	bf.browser = browser

	bf.logger.Debug("browser session ready",
		"headless", bf.cfg.Headless,
		"stealth", bf.cfg.Stealth,
	)

	return bf, nil
}

// launchBrowser starts a Chromium instance with appropriate flags.
func (bf *BrowserFetcher) launchBrowser(proxyMgr *ProxyManager) (string, error) {
	l := launcher.New().
		Headless(bf.cfg.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled")

	if bf.cfg.BinPath != "" {
		l = l.Bin(bf.cfg.BinPath)
	}
	if proxyURL := proxyMgr.Next(); proxyURL != nil {
		l = l.Proxy(proxyURL.Host)
	}
	if bf.cfg.UserDataDir != "" {
		l = l.UserDataDir(bf.cfg.UserDataDir)
	}
	if bf.cfg.WindowSize != "" {
		l = l.Set("window-size", bf.cfg.WindowSize)
	}

	bf.launcher = l
	return l.Launch()
}

// Fetch navigates to the topic page, waits for the metrics block to render
// and returns the page HTML.
func (bf *BrowserFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	start := time.Now()
	url := req.URLString()

	page, err := bf.newPage()
	if err != nil {
		return nil, &types.FetchError{Topic: req.Topic, URL: url, Err: err}
	}
	defer page.Close()
	page = page.Context(ctx)

	if bf.userAgent != "" {
		err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      bf.userAgent,
			AcceptLanguage: "zh-CN,zh;q=0.9",
		})
		if err != nil {
			bf.logger.Warn("failed to set user agent", "error", err)
		}
	}

	timeout := bf.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	if err := page.Timeout(timeout).Navigate(url); err != nil {
		return nil, &types.FetchError{Topic: req.Topic, URL: url, Err: wrapTimeout(err)}
	}

	selector := req.WaitSelector
	if selector == "" {
		selector = bf.waitSelector
	}
	if selector != "" {
		if _, err := page.Timeout(timeout).Element(selector); err != nil {
			return nil, &types.FetchError{
				Topic: req.Topic,
				URL:   url,
				Err:   fmt.Errorf("wait for %q: %w", selector, wrapTimeout(err)),
			}
		}
	} else if err := page.Timeout(timeout).WaitStable(300 * time.Millisecond); err != nil {
		bf.logger.Warn("page stability timeout, continuing", "url", url, "error", err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &types.FetchError{Topic: req.Topic, URL: url, Err: err}
	}

	finalURL := url
	if info, err := page.Info(); err == nil && info != nil {
		finalURL = info.URL
	}

	duration := time.Since(start)
	bf.logger.Debug("browser fetch complete",
		"topic", req.Topic,
		"final_url", finalURL,
		"size", len(html),
		"duration", duration,
	)

	// Rod does not expose the document status code.
	return types.NewBrowserResponse(req, 200, []byte(html), finalURL, duration), nil
}

// Close shuts down the browser and its process.
func (bf *BrowserFetcher) Close() error {
	var err error
	if bf.browser != nil {
		err = bf.browser.Close()
	}
	if bf.launcher != nil {
		bf.launcher.Kill()
		bf.launcher.Cleanup()
	}
	return err
}

// Type returns the fetcher type identifier.
func (bf *BrowserFetcher) Type() string {
	return "browser"
}

func (bf *BrowserFetcher) newPage() (*rod.Page, error) {
	if bf.cfg.Stealth {
		page, err := stealth.Page(bf.browser)
		if err != nil {
			return nil, fmt.Errorf("stealth page: %w", err)
		}
		return page, nil
	}
	return bf.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
}

func wrapTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", types.ErrTimeout, err)
	}
	return err
}
