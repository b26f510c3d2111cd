package parser

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"telegram-parser/pkg/channel"
)

// Termination explains why a collect run stopped. Every value is a
// successful completion: the engine always returns whatever it collected.
type Termination string

const (
	LimitReached  Termination = "limit_reached"
	TopReached    Termination = "top_reached"
	IdleExhausted Termination = "idle_exhausted"
	DateBoundary  Termination = "date_boundary_reached"
)

const (
	// maxIdleRounds ends the run after this many consecutive rounds that
	// added nothing and did not move the scroll position.
	maxIdleRounds = 5
	// idleEscalateAfter triggers one larger corrective scroll jump, to shake
	// loose a renderer whose lazy-loading stopped reacting to small scrolls.
	idleEscalateAfter = 3
	// topEpsilon is the scroll offset at or below which the content region
	// counts as scrolled to the top of its history.
	topEpsilon = 2.0
	// escalateFactor scales the corrective jump relative to the normal step.
	escalateFactor = 4
)

// Driver is the browser capability surface the parser drives. The chromedp
// implementation lives in package browser; tests use fakes. Selector
// arguments are comma-separated equivalence sets.
type Driver interface {
	// Navigate loads url, waiting for network quiescence within the driver's
	// navigation timeout.
	Navigate(ctx context.Context, url string) error
	// Location returns the page's current location.
	Location(ctx context.Context) (string, error)
	// Text returns the trimmed text of the first matching element, or ""
	// when nothing matches.
	Text(ctx context.Context, selector string) (string, error)
	// Elements snapshots every matching element, in document order.
	Elements(ctx context.Context, selector string) ([]Element, error)
	// ScrollTop returns the scroll offset of the first matching container.
	ScrollTop(ctx context.Context, selector string) (float64, error)
	// ScrollBy adjusts the container's scroll offset by delta pixels;
	// negative values scroll toward older content.
	ScrollBy(ctx context.Context, selector string, delta float64) error
	// ScrollToBottom drives the container to its newest content.
	ScrollToBottom(ctx context.Context, selector string) error
}

// Options bundles the per-run knobs of a channel parse.
type Options struct {
	// Limit caps how many posts one run collects.
	Limit int
	// DateRange, when active, bounds which posts are kept and stops the run
	// once scrolling reaches content older than the start bound.
	DateRange channel.DateRange
	// ScrollBatchSize is the number of scroll ticks per round.
	ScrollBatchSize int
	// ScrollStepPx is the distance of one scroll tick.
	ScrollStepPx float64
	// InterScrollDelay paces the ticks inside a batch.
	InterScrollDelay time.Duration
	// PostScrollSettle is the pause after a scroll batch, giving the UI time
	// to render newly loaded content.
	PostScrollSettle time.Duration
	// InitialSettle is the pause after the initial scroll to the newest
	// content, before the first round.
	InitialSettle time.Duration
	// NavigationSettle is the pause after navigation, covering client-side
	// route rendering that the network-quiescence wait cannot see.
	NavigationSettle time.Duration
}

func (o Options) withDefaults() Options {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.ScrollBatchSize <= 0 {
		o.ScrollBatchSize = 10
	}
	if o.ScrollStepPx <= 0 {
		o.ScrollStepPx = 600
	}
	if o.InterScrollDelay <= 0 {
		o.InterScrollDelay = 200 * time.Millisecond
	}
	if o.PostScrollSettle <= 0 {
		o.PostScrollSettle = time.Second
	}
	if o.InitialSettle <= 0 {
		o.InitialSettle = 2 * time.Second
	}
	if o.NavigationSettle <= 0 {
		o.NavigationSettle = 5 * time.Second
	}
	return o
}

// Engine is the scroll-collect state machine: it reveals lazily rendered
// posts by scrolling the content region backward through history, extracts
// and deduplicates them, and decides when the run is done.
type Engine struct {
	driver    Driver
	extractor *Extractor
	sel       Selectors
	opts      Options
	logger    *slog.Logger
	ticks     *rate.Limiter
}

// NewEngine creates an engine over driver. Zero fields of opts take the
// defaults from the configuration module.
func NewEngine(driver Driver, sel Selectors, opts Options, logger *slog.Logger) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		driver:    driver,
		extractor: NewExtractor(sel, logger),
		sel:       sel,
		opts:      opts,
		logger:    logger,
		ticks:     rate.NewLimiter(rate.Every(opts.InterScrollDelay), 1),
	}
}

// collectState is the explicit per-run state, threaded through each round so
// the round logic stays testable without a real browser.
type collectState struct {
	collected  []channel.Post
	seen       map[string]struct{}
	idleRounds int
	// escalated records whether the corrective jump already fired for the
	// current idle streak.
	escalated bool
	stop      bool
	// lastTop is the post-scroll offset of the previous round, -1 before the
	// first round completes.
	lastTop float64
}

// Collect runs the engine to completion. It never fails: driver errors
// inside the loop are logged and absorbed as idle rounds, so a partial
// result is always returned in preference to none.
func (e *Engine) Collect(ctx context.Context) ([]channel.Post, Termination) {
	if err := e.driver.ScrollToBottom(ctx, e.sel.Container); err != nil {
		e.logger.Warn("initial scroll to newest content failed", "error", err)
	}
	sleep(ctx, e.opts.InitialSettle)

	st := &collectState{
		seen:    make(map[string]struct{}),
		lastTop: -1,
	}
	for {
		if len(st.collected) >= e.opts.Limit {
			return st.collected, LimitReached
		}
		if st.idleRounds >= maxIdleRounds {
			return st.collected, IdleExhausted
		}
		if term, done := e.round(ctx, st); done {
			return st.collected, term
		}
	}
}

// round performs one query/extract/scroll iteration. It returns done=true
// with a termination when the run ends inside the round; otherwise the
// caller re-evaluates the loop conditions.
func (e *Engine) round(ctx context.Context, st *collectState) (Termination, bool) {
	els, err := e.driver.Elements(ctx, e.sel.Post)
	if err != nil {
		e.logger.Warn("querying rendered posts failed", "error", err)
		e.noteIdle(ctx, st)
		return "", false
	}

	newRecords := 0
	for _, el := range els {
		id, err := resolveID(el)
		if err != nil || id == "" {
			continue
		}
		if _, ok := st.seen[id]; ok {
			continue
		}
		st.seen[id] = struct{}{}

		if e.opts.DateRange.Active() {
			if d, ok := e.resolveDate(el); ok {
				if e.opts.DateRange.BeforeStart(d) {
					// Reached the filtering boundary. Let the rest of this
					// batch finish so already-identified posts still count,
					// then end the round.
					st.stop = true
					e.logger.Info("date boundary reached",
						"id", id,
						"date", d.Format("2006-01-02"))
					continue
				}
				if e.opts.DateRange.AfterEnd(d) {
					continue
				}
			}
		}

		rec := e.extractor.Extract(el)
		if rec.ID == "" {
			continue
		}
		st.collected = append(st.collected, rec)
		newRecords++
		e.logger.Debug("collected post", "id", rec.ID, "total", len(st.collected))

		if len(st.collected) >= e.opts.Limit {
			break
		}
	}

	if len(st.collected) >= e.opts.Limit {
		return LimitReached, true
	}
	if st.stop {
		return DateBoundary, true
	}

	top, err := e.driver.ScrollTop(ctx, e.sel.Container)
	if err != nil {
		e.logger.Warn("reading scroll offset failed", "error", err)
		e.noteIdle(ctx, st)
		return "", false
	}
	if top <= topEpsilon {
		return TopReached, true
	}

	e.scrollBack(ctx)

	newTop, err := e.driver.ScrollTop(ctx, e.sel.Container)
	if err != nil {
		newTop = top
	}
	if newRecords == 0 && st.lastTop >= 0 && newTop == st.lastTop {
		e.logger.Debug("idle round", "count", st.idleRounds+1, "scroll_top", newTop)
		e.noteIdle(ctx, st)
	} else {
		st.idleRounds = 0
		st.escalated = false
	}
	st.lastTop = newTop
	return "", false
}

// noteIdle records one idle round, whatever produced it, and fires one
// corrective scroll jump per stall streak once the streak passes the
// escalation threshold, to shake loose a renderer whose lazy-loading
// stopped reacting to small scrolls.
func (e *Engine) noteIdle(ctx context.Context, st *collectState) {
	st.idleRounds++
	if st.idleRounds < idleEscalateAfter || st.escalated {
		return
	}
	st.escalated = true
	e.logger.Info("scrolling stalled, making corrective jump", "idle_rounds", st.idleRounds)
	if err := e.driver.ScrollBy(ctx, e.sel.Container, -e.opts.ScrollStepPx*escalateFactor); err != nil {
		e.logger.Warn("corrective scroll jump failed", "error", err)
	}
	sleep(ctx, e.opts.PostScrollSettle)
}

// scrollBack pages the content region toward older content: a batch of
// fixed-size ticks paced by the inter-scroll limiter, then a settle pause.
func (e *Engine) scrollBack(ctx context.Context) {
	for range e.opts.ScrollBatchSize {
		if err := e.ticks.Wait(ctx); err != nil {
			return
		}
		if err := e.driver.ScrollBy(ctx, e.sel.Container, -e.opts.ScrollStepPx); err != nil {
			e.logger.Warn("scroll tick failed", "error", err)
			return
		}
	}
	sleep(ctx, e.opts.PostScrollSettle)
}

// resolveDate determines the post's date for range filtering: an explicit
// timestamp attribute when present, else the rendered label. ok=false means
// the date is unknown and the post is treated as in range.
func (e *Engine) resolveDate(el Element) (time.Time, bool) {
	dateEl, err := el.Find(e.sel.PostDate)
	if err != nil {
		return time.Time{}, false
	}
	for _, attr := range []string{"data-timestamp", "data-time"} {
		v, err := dateEl.Attr(attr)
		if err != nil || v == "" {
			continue
		}
		if ts, convErr := parseEpoch(v); convErr == nil {
			return ts, true
		}
	}
	label, err := dateEl.Text()
	if err != nil || label == "" {
		return time.Time{}, false
	}
	return parseDisplayDate(label, time.Now())
}

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
