// Package export writes draw records to disk as CSV (with a UTF-8 byte-order mark,
// so spreadsheet tools pick the right encoding) or as an XLSX workbook.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lotoarchive/zabava-archive/internal/draw"
)

// Format selects the output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// BOM is the UTF-8 byte-order mark written at the start of CSV output.
const BOM = "\uFEFF"

// Header is the column row shared by every format.
var Header = []string{"Date", "Time", "DrawNumber", "Numbers"}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be 'csv' or 'xlsx')", s)
	}
}

// FormatForPath guesses the format from a file extension, defaulting to CSV.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// Save writes records to path in the given format.
func Save(path string, format Format, records []draw.Record) error {
	switch format {
	case FormatCSV:
		return SaveCSV(path, records)
	case FormatXLSX:
		return SaveXLSX(path, records)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteCSV writes the BOM, the header and one line per record. Numbers is always
// quoted; other fields only when they contain a comma, quote or line break.
func WriteCSV(w io.Writer, records []draw.Record) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(BOM); err != nil {
		return err
	}
	writeLine(bw, Header, false)
	for _, r := range records {
		writeLine(bw, []string{r.Date, r.Time, r.DrawNumber, r.Numbers}, true)
	}

	return bw.Flush()
}

func writeLine(w *bufio.Writer, fields []string, quoteLast bool) {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		if (quoteLast && i == len(fields)-1) || needsQuotes(f) {
			w.WriteByte('"')
			w.WriteString(strings.ReplaceAll(f, `"`, `""`))
			w.WriteByte('"')
			continue
		}
		w.WriteString(f)
	}
	w.WriteByte('\n')
}

func needsQuotes(f string) bool {
	return strings.ContainsAny(f, ",\"\r\n") || (f != "" && (f[0] == ' ' || f[0] == '\t'))
}

// SaveCSV writes records to path. The file is written to a temporary sibling and
// renamed, so a failed run never leaves a truncated file behind.
func SaveCSV(path string, records []draw.Record) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // nolint:errcheck

	if err := WriteCSV(tmp, records); err != nil {
		tmp.Close() // nolint:errcheck
		return fmt.Errorf("writing CSV: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing CSV: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("setting CSV permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming CSV: %w", err)
	}
	return nil
}
