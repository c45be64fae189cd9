package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/lotoarchive/zabava-archive/internal/draw"
	"github.com/lotoarchive/zabava-archive/internal/logger"
)

// SheetName is the worksheet holding the records.
const SheetName = "Draws"

// SaveXLSX writes records to an XLSX workbook with a single sheet.
func SaveXLSX(path string, records []draw.Record) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Closing workbook failed", logger.Fields{"path": path, "error": err.Error()})
		}
	}()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	if err := setRow(f, 1, Header); err != nil {
		return err
	}
	for i, r := range records {
		if err := setRow(f, i+2, []string{r.Date, r.Time, r.DrawNumber, r.Numbers}); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("row %d: %w", row, err)
	}
	vals := make([]interface{}, len(values))
	for i, v := range values {
		vals[i] = v
	}
	if err := f.SetSheetRow(SheetName, cell, &vals); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}
	return nil
}
