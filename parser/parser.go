package parser

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"telegram-parser/pkg/channel"
)

// BaseURL is the Telegram Web client the parser drives.
const BaseURL = "https://web.telegram.org/k/"

// Parser turns a channel target into a parsed result: it navigates the
// browser to the channel, reads the header metadata, and runs the
// scroll-collect engine over the post history.
type Parser struct {
	driver Driver
	sel    Selectors
	opts   Options
	logger *slog.Logger
}

// New creates a parser over driver using the default selector set.
func New(driver Driver, opts Options, logger *slog.Logger) *Parser {
	return &Parser{
		driver: driver,
		sel:    DefaultSelectors(),
		opts:   opts.withDefaults(),
		logger: logger,
	}
}

// normalizeTarget maps a channel identifier to a navigable URL. Full URLs
// pass through; usernames (with or without a leading @) become deep links
// into the web client.
func normalizeTarget(identifier string) string {
	id := strings.TrimSpace(identifier)
	if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
		return id
	}
	id = strings.TrimPrefix(id, "@")
	return BaseURL + "#@" + id
}

// ParseChannel navigates to the target, reads its metadata, and collects its
// posts. Failing to reach the channel (navigation, or no title rendering) is
// fatal; once confirmed on the page, metadata and post failures degrade to
// partial results.
func (p *Parser) ParseChannel(ctx context.Context, target channel.Target) (*channel.Result, error) {
	identifier := target.Identifier()
	url := normalizeTarget(identifier)

	p.logger.Info("parsing channel", "channel", identifier, "url", url)

	if err := p.navigate(ctx, url); err != nil {
		return nil, err
	}

	// The title confirms we actually landed on a channel. Without it there
	// is nothing to collect from.
	title, err := p.driver.Text(ctx, p.sel.Title)
	if err != nil || title == "" {
		p.logger.Warn("channel title not found", "channel", identifier, "error", err)
		return nil, &ChannelNotFoundError{Identifier: identifier}
	}

	info := p.channelInfo(ctx, title)

	posts, term := NewEngine(p.driver, p.sel, p.opts, p.logger).Collect(ctx)
	p.logger.Info("collection finished",
		"channel", identifier,
		"posts", len(posts),
		"termination", string(term))

	return &channel.Result{
		Channel:  info,
		Posts:    posts,
		ParsedAt: time.Now().Format(time.RFC3339),
	}, nil
}

// navigate loads url with retries, then waits out the client-side route
// render that network quiescence cannot observe.
func (p *Parser) navigate(ctx context.Context, url string) error {
	err := retry.Do(
		func() error {
			return p.driver.Navigate(ctx, url)
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Info("retrying navigation after error", "attempt", n, "url", url, "error", err)
		}),
	)
	if err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	sleep(ctx, p.opts.NavigationSettle)
	return nil
}

// channelInfo reads the rest of the channel header around the confirmed
// title. Description and subscriber count are best effort: a failed read is
// logged and recorded on the result's Error field, so exported files can
// tell missing metadata from metadata the channel never had. Username and
// canonical URL derive from the page location when it carries one.
func (p *Parser) channelInfo(ctx context.Context, title string) channel.Info {
	info := channel.Info{Title: title}

	note := func(field string, err error) {
		p.logger.Warn("reading channel header field failed", "field", field, "error", err)
		if info.Error == "" {
			info.Error = field + ": " + err.Error()
		}
	}

	if desc, err := p.driver.Text(ctx, p.sel.Description); err != nil {
		note("description", err)
	} else if desc != "" {
		info.Description = desc
	}
	if subs, err := p.driver.Text(ctx, p.sel.Subscribers); err != nil {
		note("subscribers", err)
	} else if subs != "" {
		info.Subscribers = firstCount(subs)
	}

	if loc, err := p.driver.Location(ctx); err != nil {
		note("location", err)
	} else if i := strings.LastIndex(loc, "@"); i >= 0 && i+1 < len(loc) {
		info.Username = loc[i+1:]
		info.URL = "https://t.me/" + info.Username
	}
	return info
}
