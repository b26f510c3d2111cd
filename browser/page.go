package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"telegram-parser/parser"
)

// networkQuietWindow is how long the page must stay free of in-flight
// requests before navigation counts as settled.
const networkQuietWindow = 500 * time.Millisecond

// Page is one browser tab. It implements parser.Driver: navigation with a
// network-quiescence wait, scroll control over the content region, and
// element snapshots handed to the parser as offline HTML.
type Page struct {
	tabCtx     context.Context
	navTimeout time.Duration
	logger     *slog.Logger
}

// run executes actions on the tab after verifying the caller's context is
// still live. chromedp actions must run on the tab's own context chain, so
// the caller's context gates entry rather than carrying the work.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(p.tabCtx, actions...)
}

// Navigate loads url and waits for the network to go quiet: no in-flight
// requests for a sustained window, within the navigation timeout.
func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	navCtx, cancel := context.WithTimeout(p.tabCtx, p.navTimeout)
	defer cancel()

	var inflight atomic.Int64
	chromedp.ListenTarget(navCtx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			inflight.Add(1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			inflight.Add(-1)
		}
	})

	p.logger.Debug("navigating", "url", url)
	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	var quietSince time.Time
	for {
		select {
		case <-navCtx.Done():
			// The page loaded but traffic never went quiet. Chat clients
			// hold connections open, so treat this as settled rather than
			// failed.
			p.logger.Debug("network never went quiet, continuing", "url", url)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if inflight.Load() > 0 {
				quietSince = time.Time{}
				continue
			}
			if quietSince.IsZero() {
				quietSince = now
				continue
			}
			if now.Sub(quietSince) >= networkQuietWindow {
				p.logger.Debug("navigation settled", "url", url)
				return nil
			}
		}
	}
}

// Location returns the page's current URL.
func (p *Page) Location(ctx context.Context) (string, error) {
	var loc string
	if err := p.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

// Text returns the trimmed visible text of the first element matching the
// selector set, or "" when nothing matches.
func (p *Page) Text(ctx context.Context, selector string) (string, error) {
	js := fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); return el ? el.innerText.trim() : ""; })()`,
		selector)
	var out string
	if err := p.run(ctx, chromedp.Evaluate(js, &out)); err != nil {
		return "", fmt.Errorf("read text of %q: %w", selector, err)
	}
	return out, nil
}

// Elements snapshots the outer HTML of every element matching the selector
// set, in document order, and hands each to the parser as an offline
// element. Snapshotting decouples extraction from the live DOM, which keeps
// re-renders during scrolling from invalidating nodes mid-extraction.
func (p *Page) Elements(ctx context.Context, selector string) ([]parser.Element, error) {
	js := fmt.Sprintf(
		`Array.from(document.querySelectorAll(%q)).map(el => el.outerHTML)`,
		selector)
	var htmls []string
	if err := p.run(ctx, chromedp.Evaluate(js, &htmls)); err != nil {
		return nil, fmt.Errorf("snapshot %q: %w", selector, err)
	}
	out := make([]parser.Element, 0, len(htmls))
	for _, h := range htmls {
		el, err := parser.NewElement(h)
		if err != nil {
			p.logger.Debug("skipping unparseable element snapshot", "error", err)
			continue
		}
		out = append(out, el)
	}
	return out, nil
}

// ScrollTop returns the scroll offset of the first container matching the
// selector set.
func (p *Page) ScrollTop(ctx context.Context, selector string) (float64, error) {
	js := fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); return el ? el.scrollTop : -1; })()`,
		selector)
	var top float64
	if err := p.run(ctx, chromedp.Evaluate(js, &top)); err != nil {
		return 0, fmt.Errorf("read scroll offset of %q: %w", selector, err)
	}
	if top < 0 {
		return 0, fmt.Errorf("scroll container %q not found", selector)
	}
	return top, nil
}

// ScrollBy adjusts the container's scroll offset by delta pixels, clamped
// at zero.
func (p *Page) ScrollBy(ctx context.Context, selector string, delta float64) error {
	js := fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); if (el) el.scrollTop = Math.max(0, el.scrollTop + (%f)); })()`,
		selector, delta)
	if err := p.run(ctx, chromedp.Evaluate(js, nil)); err != nil {
		return fmt.Errorf("scroll %q: %w", selector, err)
	}
	return nil
}

// ScrollToBottom drives the container to its newest content.
func (p *Page) ScrollToBottom(ctx context.Context, selector string) error {
	js := fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); if (el) el.scrollTop = el.scrollHeight; })()`,
		selector)
	if err := p.run(ctx, chromedp.Evaluate(js, nil)); err != nil {
		return fmt.Errorf("scroll %q to bottom: %w", selector, err)
	}
	return nil
}

// Exists reports whether any element matches the selector set right now.
func (p *Page) Exists(ctx context.Context, selector string) (bool, error) {
	js := fmt.Sprintf(`document.querySelector(%q) !== null`, selector)
	var found bool
	if err := p.run(ctx, chromedp.Evaluate(js, &found)); err != nil {
		return false, fmt.Errorf("query %q: %w", selector, err)
	}
	return found, nil
}

// WaitVisible blocks until an element matching the selector is visible, or
// timeout elapses.
func (p *Page) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	waitCtx, cancel := context.WithTimeout(p.tabCtx, timeout)
	defer cancel()
	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	return nil
}

// Click clicks the first element matching the selector.
func (p *Page) Click(ctx context.Context, selector string) error {
	if err := p.run(ctx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return nil
}

// SendKeys types text into the first element matching the selector.
func (p *Page) SendKeys(ctx context.Context, selector, text string) error {
	if err := p.run(ctx, chromedp.SendKeys(selector, text, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("type into %q: %w", selector, err)
	}
	return nil
}

// ClearText empties a contenteditable field that chromedp.Clear cannot
// handle, such as the login form's phone input.
func (p *Page) ClearText(ctx context.Context, selector string) error {
	js := fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); if (el) el.innerText = ""; })()`,
		selector)
	if err := p.run(ctx, chromedp.Evaluate(js, nil)); err != nil {
		return fmt.Errorf("clear %q: %w", selector, err)
	}
	return nil
}
