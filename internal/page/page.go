// Package page defines the narrow capability the scraper needs from a rendered
// document: query elements, read their visible text and geometry, scroll the viewport.
//
// The live implementation is browser.Session. Document is a static, goquery-backed
// implementation used to extract from saved pages and to build test fixtures.
package page

import (
	"context"
	"errors"
	"time"
)

// ErrSelectorTimeout is returned by WaitForSelector when nothing matched in time.
var ErrSelectorTimeout = errors.New("timed out waiting for selector")

// Rect is the vertical extent of an element relative to the top of the viewport.
type Rect struct {
	Top    float64
	Bottom float64
}

// Within reports whether r lies fully inside a viewport of the given height.
func (r *Rect) Within(viewportHeight float64) bool {
	return r != nil && r.Top >= 0 && r.Bottom <= viewportHeight
}

// Element is a handle to a rendered node.
type Element interface {
	// Text returns the rendered text of the element.
	Text(ctx context.Context) (string, error)
	// Rect returns the element's viewport geometry, or nil if it is not laid out.
	Rect(ctx context.Context) (*Rect, error)
	// QueryAll returns descendants matching selector in document order.
	QueryAll(ctx context.Context, selector string) ([]Element, error)
}

// Accessor is a live document the scraper can read and scroll.
type Accessor interface {
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	ScrollBy(ctx context.Context, dy int) error
	ViewportHeight(ctx context.Context) (float64, error)
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
}

// First returns the first element matching selector under parent, or nil.
func First(ctx context.Context, parent Element, selector string) (Element, error) {
	els, err := parent.QueryAll(ctx, selector)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return els[0], nil
}

// TextQuerier is implemented by elements that can read the text of all matching
// descendants in a single call.
type TextQuerier interface {
	QueryTexts(ctx context.Context, selector string) ([]string, error)
}

// QueryTexts returns the text of every descendant of parent matching selector,
// in document order. Elements without a batch read fall back to one Text call
// per match.
func QueryTexts(ctx context.Context, parent Element, selector string) ([]string, error) {
	if q, ok := parent.(TextQuerier); ok {
		return q.QueryTexts(ctx, selector)
	}

	els, err := parent.QueryAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(els))
	for _, el := range els {
		t, err := el.Text(ctx)
		if err != nil {
			return nil, err
		}
		texts = append(texts, t)
	}
	return texts, nil
}
