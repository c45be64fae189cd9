package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/lotoarchive/zabava-archive/internal/draw"
)

// OutputFormat specifies the summary format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// previewSize is how many records the text summary prints.
const previewSize = 5

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt    time.Time              `json:"checked_at"`
	Target       string                 `json:"target,omitempty"`
	OutputPath   string                 `json:"output_path,omitempty"`
	RecordCount  int                    `json:"record_count"`
	SkippedRows  int                    `json:"skipped_rows"`
	NewCount     int                    `json:"new_count"`
	HistoryKept  bool                   `json:"history_kept"`
	HistoryDir   string                 `json:"history_dir,omitempty"`
	Scrolls      int                    `json:"scrolls"`
	SettleCycles int                    `json:"settle_cycles"`
	Records      []draw.Record          `json:"records,omitempty"`
	Metrics      map[string]interface{} `json:"metrics,omitempty"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	fmt.Fprintf(w, "🎯 Получено записей: %d\n", result.RecordCount)

	if len(result.Records) > 0 {
		n := len(result.Records)
		if n > previewSize && !verbose {
			n = previewSize
		}

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "Date\tDrawNumber\tNumbers")
		for _, r := range result.Records[:n] {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Date, r.DrawNumber, r.Numbers)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if n < len(result.Records) {
			fmt.Fprintf(w, "... и ещё %d\n", len(result.Records)-n)
		}
	}

	if result.HistoryKept {
		fmt.Fprintf(w, "Новых тиражей с прошлого запуска: %d\n", result.NewCount)
		if verbose && result.HistoryDir != "" {
			fmt.Fprintf(w, "     History: %s\n", result.HistoryDir)
		}
	}
	if result.OutputPath != "" {
		fmt.Fprintf(w, "💾 Сохранено в %s\n", result.OutputPath)
	}

	if verbose {
		if result.Target != "" {
			fmt.Fprintf(w, "     Target: %s\n", result.Target)
		}
		fmt.Fprintf(w, "     Scrolls: %d\n", result.Scrolls)
		fmt.Fprintf(w, "     Settle cycles: %d\n", result.SettleCycles)
		fmt.Fprintf(w, "     Skipped rows: %d\n", result.SkippedRows)
	}

	return nil
}
