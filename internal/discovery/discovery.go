// Package discovery scrolls a lazily rendered archive until a target date header
// is present in the document.
//
// The engine is a bounded polling loop. Each pass checks the rendered date
// cells for the target, then looks at the page footer mark: while the mark is
// off-screen the viewport scrolls one step, once it is fully visible the engine
// waits for late rows to render. After MaxSettleCycles consecutive settle waits
// without the target, or MaxIterations passes in total, Discover gives up with a
// *NotFoundError.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lotoarchive/zabava-archive/internal/logger"
	"github.com/lotoarchive/zabava-archive/internal/page"
)

// State is the engine's view of the document after a pass.
type State int

const (
	StateLoading State = iota
	StateFound
	StateMarkerVisible
	StateNotFound
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateFound:
		return "found"
	case StateMarkerVisible:
		return "marker-visible"
	case StateNotFound:
		return "not-found"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrNotFound is wrapped by every *NotFoundError.
var ErrNotFound = errors.New("target date not found")

// NotFoundError reports a discovery run that ended without the target.
type NotFoundError struct {
	Target string
	Result Result
	Reason string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%v: %q (%s after %d iterations)", ErrNotFound, e.Target, e.Reason, e.Result.Iterations)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// Options tunes the loop. Zero values take the defaults below.
type Options struct {
	DateCellSelector string
	MarkerSelector   string
	StepPx           int
	PollInterval     time.Duration
	SettleDelay      time.Duration
	MaxSettleCycles  int
	MaxIterations    int // 0 disables the bound

	// Sleep suspends between passes. Defaults to a timer that honors ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

const (
	DefaultDateCellSelector = ".TBody_dateCell__O2_YI"
	DefaultMarkerSelector   = `svg:has(use[href="#logo-horizontal-2.aae2731c"])`
	DefaultStepPx           = 300
	DefaultPollInterval     = 200 * time.Millisecond
	DefaultSettleDelay      = time.Second
	DefaultMaxSettleCycles  = 5
)

func (o Options) withDefaults() Options {
	if o.DateCellSelector == "" {
		o.DateCellSelector = DefaultDateCellSelector
	}
	if o.MarkerSelector == "" {
		o.MarkerSelector = DefaultMarkerSelector
	}
	if o.StepPx <= 0 {
		o.StepPx = DefaultStepPx
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if o.MaxSettleCycles <= 0 {
		o.MaxSettleCycles = DefaultMaxSettleCycles
	}
	if o.Sleep == nil {
		o.Sleep = sleep
	}
	return o
}

// Result summarizes one Discover call.
type Result struct {
	State        State
	Iterations   int
	Scrolls      int
	SettleCycles int
	Elapsed      time.Duration
}

// Engine drives an Accessor towards a target date header.
type Engine struct {
	page page.Accessor
	opts Options
}

// New creates an engine over p.
func New(p page.Accessor, opts Options) *Engine {
	return &Engine{page: p, opts: opts.withDefaults()}
}

// Discover scrolls until a date cell contains target (case-insensitive substring).
func (e *Engine) Discover(ctx context.Context, target string) (Result, error) {
	start := time.Now()
	want := strings.ToLower(strings.TrimSpace(target))
	res := Result{State: StateLoading}
	settled := 0

	logger.Info("Scrolling until target date appears", logger.Fields{
		"target":  target,
		"step_px": e.opts.StepPx,
	})

	finish := func(state State) Result {
		res.State = state
		res.Elapsed = time.Since(start)
		logger.RecordTiming("discovery.duration", res.Elapsed)
		logger.AddCounter("discovery.scrolls", int64(res.Scrolls))
		return res
	}

	for {
		if err := ctx.Err(); err != nil {
			return finish(res.State), fmt.Errorf("discovery interrupted: %w", err)
		}
		if e.opts.MaxIterations > 0 && res.Iterations >= e.opts.MaxIterations {
			return e.notFound(finish, target, "iteration limit reached")
		}
		res.Iterations++

		found, err := e.targetRendered(ctx, want)
		if err != nil {
			return finish(res.State), err
		}
		if found {
			logger.Info("Target date found", logger.Fields{
				"target":     target,
				"scrolls":    res.Scrolls,
				"iterations": res.Iterations,
			})
			return finish(StateFound), nil
		}

		visible, err := e.markerVisible(ctx)
		if err != nil {
			return finish(res.State), err
		}

		if visible {
			if settled >= e.opts.MaxSettleCycles {
				return e.notFound(finish, target, "end of archive reached")
			}
			settled++
			res.SettleCycles++
			res.State = StateMarkerVisible
			logger.IncrCounter("discovery.settle_waits")
			logger.Debug("End marker visible, waiting for late rows", logger.Fields{
				"settle_cycle": settled,
				"max":          e.opts.MaxSettleCycles,
			})
			if err := e.opts.Sleep(ctx, e.opts.SettleDelay); err != nil {
				return finish(res.State), fmt.Errorf("discovery interrupted: %w", err)
			}
			continue
		}

		settled = 0
		res.State = StateLoading
		if err := e.page.ScrollBy(ctx, e.opts.StepPx); err != nil {
			return finish(res.State), fmt.Errorf("scrolling: %w", err)
		}
		res.Scrolls++
		logger.Debug("Scrolled", logger.Fields{"scrolls": res.Scrolls})
		if err := e.opts.Sleep(ctx, e.opts.PollInterval); err != nil {
			return finish(res.State), fmt.Errorf("discovery interrupted: %w", err)
		}
	}
}

func (e *Engine) notFound(finish func(State) Result, target, reason string) (Result, error) {
	res := finish(StateNotFound)
	logger.Warn("Target date not found", logger.Fields{
		"target":     target,
		"reason":     reason,
		"iterations": res.Iterations,
	})
	return res, &NotFoundError{Target: target, Result: res, Reason: reason}
}

// targetRendered checks every rendered date cell for want.
func (e *Engine) targetRendered(ctx context.Context, want string) (bool, error) {
	cells, err := e.page.QueryAll(ctx, e.opts.DateCellSelector)
	if err != nil {
		return false, fmt.Errorf("querying date cells: %w", err)
	}
	for _, cell := range cells {
		text, err := cell.Text(ctx)
		if err != nil {
			return false, fmt.Errorf("reading date cell: %w", err)
		}
		if strings.Contains(NormalizeText(text), want) {
			return true, nil
		}
	}
	return false, nil
}

// markerVisible reports whether the footer mark is fully inside the viewport.
func (e *Engine) markerVisible(ctx context.Context) (bool, error) {
	markers, err := e.page.QueryAll(ctx, e.opts.MarkerSelector)
	if err != nil {
		return false, fmt.Errorf("querying end marker: %w", err)
	}
	if len(markers) == 0 {
		return false, nil
	}
	rect, err := markers[0].Rect(ctx)
	if err != nil {
		return false, fmt.Errorf("measuring end marker: %w", err)
	}
	if rect == nil {
		return false, nil
	}
	height, err := e.page.ViewportHeight(ctx)
	if err != nil {
		return false, fmt.Errorf("reading viewport height: %w", err)
	}
	return rect.Within(height), nil
}

// NormalizeText collapses whitespace runs, trims and lowercases s.
func NormalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
