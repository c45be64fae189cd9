package page

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultViewportHeight = 900
	DefaultLineHeight     = 40
)

// Document is a static Accessor over parsed HTML. Every element counts as rendered.
// Geometry is synthesized: the n-th element in document order occupies
// [n*LineHeight, (n+1)*LineHeight) on the page.
type Document struct {
	doc            *goquery.Document
	all            *goquery.Selection
	scrollY        float64
	viewportHeight float64
	lineHeight     float64
}

// NewDocument parses HTML from r.
func NewDocument(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return &Document{
		doc:            doc,
		all:            doc.Find("*"),
		viewportHeight: DefaultViewportHeight,
		lineHeight:     DefaultLineHeight,
	}, nil
}

// ParseString is NewDocument over a string.
func ParseString(html string) (*Document, error) {
	return NewDocument(strings.NewReader(html))
}

// SetViewport overrides the synthetic viewport and line heights.
func (d *Document) SetViewport(viewportHeight, lineHeight float64) {
	d.viewportHeight = viewportHeight
	d.lineHeight = lineHeight
}

func (d *Document) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	return d.wrap(d.doc.Find(selector)), nil
}

func (d *Document) ScrollBy(ctx context.Context, dy int) error {
	d.scrollY += float64(dy)
	if d.scrollY < 0 {
		d.scrollY = 0
	}
	return nil
}

func (d *Document) ViewportHeight(ctx context.Context) (float64, error) {
	return d.viewportHeight, nil
}

// WaitForSelector succeeds at once if selector matches; a static document never
// changes, so a miss is reported as ErrSelectorTimeout without waiting.
func (d *Document) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if d.doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%s: %w", selector, ErrSelectorTimeout)
	}
	return nil
}

func (d *Document) wrap(sel *goquery.Selection) []Element {
	els := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		els = append(els, &docElement{doc: d, sel: s})
	})
	return els
}

type docElement struct {
	doc *Document
	sel *goquery.Selection
}

func (e *docElement) Text(ctx context.Context) (string, error) {
	return e.sel.Text(), nil
}

func (e *docElement) Rect(ctx context.Context) (*Rect, error) {
	n := e.doc.all.IndexOfSelection(e.sel)
	if n < 0 {
		return nil, nil
	}
	top := float64(n)*e.doc.lineHeight - e.doc.scrollY
	return &Rect{Top: top, Bottom: top + e.doc.lineHeight}, nil
}

func (e *docElement) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	return e.doc.wrap(e.sel.Find(selector)), nil
}

func (e *docElement) QueryTexts(ctx context.Context, selector string) ([]string, error) {
	found := e.sel.Find(selector)
	texts := make([]string, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, s.Text())
	})
	return texts, nil
}
