// Package browser wraps a Chrome instance driven over the DevTools protocol
// and exposes the page-level primitives the parser needs.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Options controls how the browser is launched.
type Options struct {
	// Headless runs Chrome without a visible window. Interactive login
	// requires a visible window the first time, after which the persisted
	// profile makes headless runs possible.
	Headless bool
	// Proxy is an optional proxy server URL passed straight to Chrome.
	Proxy string
	// UserDataDir persists the Chrome profile (and with it the logged-in
	// session) across runs. Empty means a throwaway profile.
	UserDataDir string
	// NavigationTimeout bounds one page load, including the wait for network
	// quiescence.
	NavigationTimeout time.Duration
}

// Browser is one running Chrome with a single tab attached.
type Browser struct {
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	page        *Page
	logger      *slog.Logger
}

// Launch starts Chrome, opens a tab, and enables network event tracking.
// ctx bounds the lifetime of the whole browser process.
func Launch(ctx context.Context, opts Options, logger *slog.Logger) (*Browser, error) {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 60 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.WindowSize(1366, 768),
		chromedp.UserAgent(userAgent),
	)
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		logger.Debug("chromedp", "message", fmt.Sprintf(format, args...))
	}))

	if err := chromedp.Run(tabCtx, network.Enable()); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	logger.Info("browser started",
		"headless", opts.Headless,
		"profile", opts.UserDataDir,
		"proxy", opts.Proxy != "")

	b := &Browser{
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
		logger:      logger,
	}
	b.page = &Page{
		tabCtx:     tabCtx,
		navTimeout: opts.NavigationTimeout,
		logger:     logger,
	}
	return b, nil
}

// Page returns the browser's tab.
func (b *Browser) Page() *Page {
	return b.page
}

// Close shuts the tab and the Chrome process down.
func (b *Browser) Close() {
	b.tabCancel()
	b.allocCancel()
	b.logger.Info("browser closed")
}
