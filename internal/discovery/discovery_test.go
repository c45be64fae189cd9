package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotoarchive/zabava-archive/internal/logger"
	"github.com/lotoarchive/zabava-archive/internal/page"
)

// framedPage replays a sequence of rendered states; each scroll reveals the next one.
type framedPage struct {
	frames  []*page.Document
	current int
	scrolls int
}

func newFramedPage(t *testing.T, frames ...string) *framedPage {
	t.Helper()
	fp := &framedPage{}
	for _, html := range frames {
		doc, err := page.ParseString(html)
		require.NoError(t, err)
		fp.frames = append(fp.frames, doc)
	}
	return fp
}

func (f *framedPage) doc() *page.Document {
	return f.frames[f.current]
}

func (f *framedPage) advance() {
	if f.current < len(f.frames)-1 {
		f.current++
	}
}

func (f *framedPage) QueryAll(ctx context.Context, selector string) ([]page.Element, error) {
	return f.doc().QueryAll(ctx, selector)
}

func (f *framedPage) ScrollBy(ctx context.Context, dy int) error {
	f.scrolls++
	f.advance()
	return nil
}

func (f *framedPage) ViewportHeight(ctx context.Context) (float64, error) {
	return f.doc().ViewportHeight(ctx)
}

func (f *framedPage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	return f.doc().WaitForSelector(ctx, selector, timeout)
}

const marker = `<svg class="logo"><use href="#logo"></use></svg>`

func frame(dates []string, withMarker bool) string {
	var b strings.Builder
	b.WriteString("<html><body><table>")
	for _, d := range dates {
		fmt.Fprintf(&b, `<tr><td class="date">%s</td></tr>`, d)
	}
	b.WriteString("</table>")
	if withMarker {
		b.WriteString(marker)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func testOptions() Options {
	return Options{
		DateCellSelector: ".date",
		MarkerSelector:   "svg.logo",
		Sleep:            noSleep,
	}
}

func TestDiscover_FoundInThirdFrame(t *testing.T) {
	fp := newFramedPage(t,
		frame([]string{"5 августа 2025"}, false),
		frame([]string{"5 августа 2025", "4 августа 2025"}, false),
		frame([]string{"5 августа 2025", "4 августа 2025", " 2   Августа\n 2025 "}, false),
		frame([]string{"1 августа 2025"}, false),
	)

	res, err := New(fp, testOptions()).Discover(context.Background(), "2 августа")
	require.NoError(t, err)

	assert.Equal(t, StateFound, res.State)
	assert.Equal(t, 2, fp.scrolls, "must stop scrolling once the target frame is rendered")
	assert.Equal(t, 2, fp.current)
	assert.Equal(t, 3, res.Iterations)
	assert.Equal(t, 2, res.Scrolls)
}

func TestDiscover_FoundImmediately(t *testing.T) {
	fp := newFramedPage(t, frame([]string{"Суббота, 2 августа 2025"}, true))

	res, err := New(fp, testOptions()).Discover(context.Background(), "2 АВГУСТА")
	require.NoError(t, err)
	assert.Equal(t, StateFound, res.State)
	assert.Zero(t, fp.scrolls)
}

func TestDiscover_NotFoundAfterSettleCycles(t *testing.T) {
	fp := newFramedPage(t,
		frame([]string{"5 августа 2025"}, false),
		frame([]string{"5 августа 2025", "4 августа 2025"}, true),
	)
	opts := testOptions()
	opts.MaxSettleCycles = 3

	var slept []time.Duration
	opts.Sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	opts.PollInterval = 10 * time.Millisecond
	opts.SettleDelay = 50 * time.Millisecond

	before := settleWaits()
	res, err := New(fp, opts).Discover(context.Background(), "1 января")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, int64(3), settleWaits()-before)

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "1 января", nf.Target)
	assert.Equal(t, StateNotFound, res.State)
	assert.Equal(t, 3, res.SettleCycles)
	assert.Equal(t, 1, res.Scrolls)
	assert.Equal(t, []time.Duration{
		10 * time.Millisecond,
		50 * time.Millisecond, 50 * time.Millisecond, 50 * time.Millisecond,
	}, slept)
}

func settleWaits() int64 {
	counters := logger.GetMetricsSnapshot()["counters"].(map[string]int64)
	return counters["discovery.settle_waits"]
}

func TestDiscover_LateRowsAfterMarker(t *testing.T) {
	fp := newFramedPage(t,
		frame([]string{"5 августа 2025"}, true),
		frame([]string{"5 августа 2025", "2 августа 2025"}, true),
	)
	opts := testOptions()
	opts.Sleep = func(ctx context.Context, d time.Duration) error {
		fp.advance() // rows triggered by the marker arrive during the settle wait
		return nil
	}

	res, err := New(fp, opts).Discover(context.Background(), "2 августа")
	require.NoError(t, err)
	assert.Equal(t, StateFound, res.State)
	assert.Equal(t, 1, res.SettleCycles)
	assert.Zero(t, fp.scrolls)
}

func TestDiscover_SettleCounterResetsWhenMarkerLeaves(t *testing.T) {
	fp := newFramedPage(t,
		frame([]string{"5 августа 2025"}, true),
		frame([]string{"5 августа 2025", "4 августа 2025"}, false),
		frame([]string{"5 августа 2025", "4 августа 2025", "3 августа 2025"}, true),
	)
	opts := testOptions()
	opts.MaxSettleCycles = 1
	waits := 0
	opts.Sleep = func(ctx context.Context, d time.Duration) error {
		waits++
		if waits == 1 {
			fp.advance() // more content pushed the marker below the fold
		}
		return nil
	}

	res, err := New(fp, opts).Discover(context.Background(), "1 августа")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, res.SettleCycles)
	assert.Equal(t, 1, res.Scrolls)
}

func TestDiscover_MaxIterations(t *testing.T) {
	fp := newFramedPage(t, frame([]string{"5 августа 2025"}, false))
	opts := testOptions()
	opts.MaxIterations = 4

	res, err := New(fp, opts).Discover(context.Background(), "1 августа")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 4, res.Iterations)
	assert.Equal(t, 4, fp.scrolls)
	assert.Contains(t, err.Error(), "iteration limit")
}

func TestDiscover_Cancelled(t *testing.T) {
	fp := newFramedPage(t, frame([]string{"5 августа 2025"}, false))
	ctx, cancel := context.WithCancel(context.Background())

	opts := testOptions()
	calls := 0
	opts.Sleep = func(ctx context.Context, d time.Duration) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return ctx.Err()
	}

	_, err := New(fp, opts).Discover(ctx, "1 августа")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, 2, fp.scrolls)
}

func TestDiscover_DefaultSleepHonorsContext(t *testing.T) {
	fp := newFramedPage(t, frame([]string{"5 августа 2025"}, false))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	opts := testOptions()
	opts.Sleep = nil
	opts.PollInterval = time.Hour

	start := time.Now()
	_, err := New(fp, opts).Discover(ctx, "1 августа")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2 Августа 2025", "2 августа 2025"},
		{"  2\n\tавгуста   2025 ", "2 августа 2025"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeText(tt.in))
	}
}

func TestOptions_Defaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, DefaultDateCellSelector, o.DateCellSelector)
	assert.Equal(t, DefaultMarkerSelector, o.MarkerSelector)
	assert.Equal(t, DefaultStepPx, o.StepPx)
	assert.Equal(t, DefaultPollInterval, o.PollInterval)
	assert.Equal(t, DefaultSettleDelay, o.SettleDelay)
	assert.Equal(t, DefaultMaxSettleCycles, o.MaxSettleCycles)
	assert.NotNil(t, o.Sleep)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "found", StateFound.String())
	assert.Equal(t, "not-found", StateNotFound.String())
	assert.Equal(t, "State(9)", State(9).String())
}
