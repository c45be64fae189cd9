package draw

import (
	"context"
	"fmt"

	"github.com/lotoarchive/zabava-archive/internal/logger"
	"github.com/lotoarchive/zabava-archive/internal/page"
)

// Selectors locate the pieces of an archive row.
type Selectors struct {
	Row          string
	DateCell     string
	DrawNumber   string
	NumberButton string
}

// DefaultSelectors match the stoloto.ru archive table.
var DefaultSelectors = Selectors{
	Row:          "tr",
	DateCell:     ".TBody_dateCell__O2_YI",
	DrawNumber:   ".ArchiveTableRow_drawNumber___1Cj4",
	NumberButton: "button.ArchiveTableRow_btn__ns2zz",
}

// Stats describes one extraction.
type Stats struct {
	Rows    int
	Records int
	Skipped int
}

// Extractor reads draw records from a rendered page.
type Extractor struct {
	page page.Accessor
	sel  Selectors
}

// NewExtractor creates an extractor over p.
func NewExtractor(p page.Accessor, sel Selectors) *Extractor {
	return &Extractor{page: p, sel: sel}
}

// Extract walks every row in document order and returns the draw records found.
func (x *Extractor) Extract(ctx context.Context) ([]Record, Stats, error) {
	rows, err := x.page.QueryAll(ctx, x.sel.Row)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("querying rows: %w", err)
	}

	views := make([]RowView, 0, len(rows))
	for i, row := range rows {
		view, err := x.view(ctx, row)
		if err != nil {
			return nil, Stats{}, fmt.Errorf("reading row %d: %w", i, err)
		}
		views = append(views, view)
	}

	acc := Fold(views, Accumulator{})
	stats := Stats{Rows: len(rows), Records: len(acc.Records), Skipped: acc.Skipped}

	if acc.Skipped > 0 {
		logger.Debug("Skipped incomplete draw rows", logger.Fields{"skipped": acc.Skipped})
	}
	logger.AddCounter("extract.rows_skipped", int64(acc.Skipped))
	logger.SetGauge("extract.records", float64(len(acc.Records)))
	logger.Info("Extracted draw records", logger.Fields{
		"rows":    stats.Rows,
		"records": stats.Records,
		"skipped": stats.Skipped,
	})

	return acc.Records, stats, nil
}

// view reads one row with a batched text read per selector.
func (x *Extractor) view(ctx context.Context, row page.Element) (RowView, error) {
	var v RowView

	dates, err := page.QueryTexts(ctx, row, x.sel.DateCell)
	if err != nil {
		return v, err
	}
	if len(dates) > 0 {
		v.DateText = &dates[0]
	}

	draws, err := page.QueryTexts(ctx, row, x.sel.DrawNumber)
	if err != nil {
		return v, err
	}
	if len(draws) == 0 {
		return v, nil
	}
	v.DrawText = &draws[0]

	v.Buttons, err = page.QueryTexts(ctx, row, x.sel.NumberButton)
	if err != nil {
		return v, err
	}
	return v, nil
}
