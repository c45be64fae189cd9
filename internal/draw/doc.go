// Package draw turns rendered archive rows into draw records.
//
// Date headers are not repeated on every draw row: a draw row takes its date from
// the nearest preceding header. Extraction is modeled as a fold over row views with
// an explicit Accumulator, so the carry-forward rule is part of the Step signature.
//
// The package also keeps run-over-run snapshots keyed by draw number and reports
// draws that are new since the previous run.
package draw
