package draw

import "strings"

// RowView is the part of a rendered row the extractor looks at. Nil pointers mean
// the row has no such element.
type RowView struct {
	DateText *string
	DrawText *string
	Buttons  []string
}

// Accumulator carries state across rows.
type Accumulator struct {
	CurrentDate string
	Records     []Record
	Skipped     int // draw rows with the wrong number of buttons
}

// Step applies one row to acc. A date header updates CurrentDate before the same
// row is considered as a draw row.
func Step(acc Accumulator, row RowView) Accumulator {
	if row.DateText != nil {
		acc.CurrentDate = strings.TrimSpace(*row.DateText)
	}

	if row.DrawText == nil {
		return acc
	}
	if len(row.Buttons) != NumbersPerDraw {
		acc.Skipped++
		return acc
	}

	acc.Records = append(acc.Records, Record{
		Date:       acc.CurrentDate,
		Time:       "",
		DrawNumber: DigitsOnly(*row.DrawText),
		Numbers:    JoinNumbers(row.Buttons),
	})
	return acc
}

// Fold runs Step over rows in order.
func Fold(rows []RowView, acc Accumulator) Accumulator {
	for _, row := range rows {
		acc = Step(acc, row)
	}
	return acc
}
