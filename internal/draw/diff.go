package draw

import "time"

// Snapshot is the set of records seen by a run, keyed by draw number.
type Snapshot struct {
	Records   map[string]Record `json:"records"`
	Target    string            `json:"target,omitempty"` // cut-off date of the run
	UpdatedAt string            `json:"updated_at"`       // RFC3339 timestamp
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Records: make(map[string]Record),
	}
}

// DiffResult contains records absent from the previous snapshot, in extraction order.
type DiffResult struct {
	NewRecords []Record
}

// Diff compares current records against a previous snapshot.
func Diff(previous *Snapshot, current []Record) *DiffResult {
	result := &DiffResult{
		NewRecords: make([]Record, 0),
	}

	if previous == nil {
		previous = NewSnapshot()
	}

	seen := make(map[string]bool)
	for _, rec := range current {
		if rec.DrawNumber == "" || seen[rec.DrawNumber] {
			continue
		}
		seen[rec.DrawNumber] = true
		if _, exists := previous.Records[rec.DrawNumber]; !exists {
			result.NewRecords = append(result.NewRecords, rec)
		}
	}

	return result
}

// CreateSnapshot creates a snapshot from a list of records
func CreateSnapshot(records []Record, target string, updatedAt time.Time) *Snapshot {
	snap := NewSnapshot()
	snap.Target = target
	snap.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)

	for _, rec := range records {
		if rec.DrawNumber == "" {
			continue
		}
		snap.Records[rec.DrawNumber] = rec
	}

	return snap
}

// Merge adds records from newer into s, replacing entries with the same draw number.
func (s *Snapshot) Merge(newer *Snapshot) {
	for k, v := range newer.Records {
		s.Records[k] = v
	}
	s.Target = newer.Target
	s.UpdatedAt = newer.UpdatedAt
}
