package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/lotoarchive/zabava-archive/internal/logger"
	"github.com/lotoarchive/zabava-archive/internal/page"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36"

// Options configures the Chromium process.
type Options struct {
	Headless     bool
	ExecPath     string
	UserAgent    string
	WindowWidth  int
	WindowHeight int
}

// Session is one Chromium tab.
type Session struct {
	ctx         context.Context
	allocCancel context.CancelFunc
	tabCancel   context.CancelFunc
}

var (
	_ page.Accessor    = (*Session)(nil)
	_ page.TextQuerier = (*element)(nil)
)

// Launch starts Chromium and opens a tab. Cancelling ctx tears the browser down.
func Launch(ctx context.Context, opts Options) (*Session, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(opts.UserAgent),
	)
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, contextOptions()...)

	// An empty Run starts the browser.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	logger.Info("Browser started", logger.Fields{"headless": opts.Headless, "exec_path": opts.ExecPath})

	return &Session{ctx: tabCtx, allocCancel: allocCancel, tabCancel: tabCancel}, nil
}

// contextOptions forwards chromedp's own log lines only when debug logging is on.
func contextOptions() []chromedp.ContextOption {
	if logger.Default().MinLevel() != logger.LevelDebug {
		return nil
	}
	logf := func(format string, args ...interface{}) {
		logger.Debug(fmt.Sprintf(format, args...), logger.Fields{"component": "chromedp"})
	}
	return []chromedp.ContextOption{chromedp.WithLogf(logf)}
}

// Close shuts the tab and the browser.
func (s *Session) Close() {
	s.tabCancel()
	s.allocCancel()
}

// Navigate loads url and waits for the DOM to be ready.
func (s *Session) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	tctx, cancel := s.bounded(ctx, timeout)
	defer cancel()

	if err := chromedp.Run(tctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	logger.Info("Page loaded", logger.Fields{"url": url})
	return nil
}

// bounded derives a context from the tab that also ends when ctx does.
func (s *Session) bounded(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var tctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		tctx, cancel = context.WithTimeout(s.ctx, timeout)
	} else {
		tctx, cancel = context.WithCancel(s.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return tctx, func() {
		stop()
		cancel()
	}
}

func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tctx, cancel := s.bounded(ctx, 0)
	defer cancel()
	return chromedp.Run(tctx, actions...)
}

func (s *Session) QueryAll(ctx context.Context, selector string) ([]page.Element, error) {
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("querying %s: %w", selector, err)
	}
	return s.wrap(nodes), nil
}

func (s *Session) ScrollBy(ctx context.Context, dy int) error {
	var y float64
	return s.run(ctx, chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d), window.scrollY", dy), &y))
}

func (s *Session) ViewportHeight(ctx context.Context) (float64, error) {
	var h float64
	if err := s.run(ctx, chromedp.Evaluate("window.innerHeight", &h)); err != nil {
		return 0, err
	}
	return h, nil
}

// WaitForSelector waits until selector matches an element in the DOM.
func (s *Session) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	tctx, cancel := s.bounded(ctx, timeout)
	defer cancel()

	err := chromedp.Run(tctx, chromedp.WaitReady(selector, chromedp.ByQuery))
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s after %s: %w", selector, timeout, page.ErrSelectorTimeout)
	}
	return fmt.Errorf("waiting for %s: %w", selector, err)
}

func (s *Session) wrap(nodes []*cdp.Node) []page.Element {
	els := make([]page.Element, len(nodes))
	for i, n := range nodes {
		els[i] = &element{s: s, node: n}
	}
	return els
}

type element struct {
	s    *Session
	node *cdp.Node
}

const (
	innerTextJS  = `function() { return this.innerText ?? this.textContent ?? ""; }`
	queryTextsJS = `function() {
	return Array.from(this.querySelectorAll(%s), el => el.innerText ?? el.textContent ?? "");
}`
	rectJS = `function() {
	const el = this instanceof SVGElement && this.ownerSVGElement ? this.ownerSVGElement : this;
	const r = el.getBoundingClientRect();
	if (r.width === 0 && r.height === 0) return null;
	return {top: r.top, bottom: r.bottom};
}`
)

func (e *element) Text(ctx context.Context) (string, error) {
	var text string
	if err := e.call(ctx, innerTextJS, &text); err != nil {
		return "", fmt.Errorf("reading text: %w", err)
	}
	return text, nil
}

func (e *element) Rect(ctx context.Context) (*page.Rect, error) {
	var r *struct {
		Top    float64 `json:"top"`
		Bottom float64 `json:"bottom"`
	}
	if err := e.call(ctx, rectJS, &r); err != nil {
		return nil, fmt.Errorf("measuring element: %w", err)
	}
	if r == nil {
		return nil, nil
	}
	return &page.Rect{Top: r.Top, Bottom: r.Bottom}, nil
}

func (e *element) QueryAll(ctx context.Context, selector string) ([]page.Element, error) {
	var nodes []*cdp.Node
	err := e.s.run(ctx, chromedp.Nodes(selector, &nodes,
		chromedp.ByQueryAll, chromedp.FromNode(e.node), chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", selector, err)
	}
	return e.s.wrap(nodes), nil
}

// QueryTexts reads the text of every matching descendant in one round trip.
func (e *element) QueryTexts(ctx context.Context, selector string) ([]string, error) {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return nil, err
	}
	var texts []string
	if err := e.call(ctx, fmt.Sprintf(queryTextsJS, quoted), &texts); err != nil {
		return nil, fmt.Errorf("reading %s: %w", selector, err)
	}
	if texts == nil {
		texts = []string{}
	}
	return texts, nil
}

// call runs fn with the element as this and decodes the returned value into out.
func (e *element) call(ctx context.Context, fn string, out interface{}) error {
	return e.s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		defer runtime.ReleaseObject(obj.ObjectID).Do(ctx) // nolint:errcheck

		res, exc, err := runtime.CallFunctionOn(fn).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exc
		}
		if len(res.Value) == 0 {
			return json.Unmarshal([]byte("null"), out)
		}
		return json.Unmarshal(res.Value, out)
	}))
}
