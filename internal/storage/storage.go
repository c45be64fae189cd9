package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/lotoarchive/zabava-archive/internal/draw"
)

// Storage handles persistence of draw snapshots
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Dir returns the resolved data directory.
func (s *Storage) Dir() string {
	return s.dataDir
}

var unsafeName = regexp.MustCompile(`[^a-z0-9_-]+`)

// getSnapshotPath returns the path to the snapshot file for a game
func (s *Storage) getSnapshotPath(game string) string {
	name := unsafeName.ReplaceAllString(strings.ToLower(strings.TrimSpace(game)), "_")
	if name == "" || name == "_" {
		return filepath.Join(s.dataDir, "snapshot.json")
	}
	return filepath.Join(s.dataDir, fmt.Sprintf("snapshot_%s.json", name))
}

// LoadSnapshot loads a snapshot from disk. A missing file yields an empty snapshot.
func (s *Storage) LoadSnapshot(game string) (*draw.Snapshot, error) {
	path := s.getSnapshotPath(game)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return draw.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot draw.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	if snapshot.Records == nil {
		snapshot.Records = make(map[string]draw.Record)
	}

	return &snapshot, nil
}

// SaveSnapshot saves a snapshot to disk
func (s *Storage) SaveSnapshot(snapshot *draw.Snapshot, game string) error {
	path := s.getSnapshotPath(game)

	if snapshot.UpdatedAt == "" {
		snapshot.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return nil
}

// UpdateFromRecords loads the previous snapshot for game, computes which records
// are new, merges the records in and saves the result.
func (s *Storage) UpdateFromRecords(records []draw.Record, game, target string) (*draw.DiffResult, error) {
	previous, err := s.LoadSnapshot(game)
	if err != nil {
		return nil, err
	}

	diff := draw.Diff(previous, records)

	previous.Merge(draw.CreateSnapshot(records, target, time.Now()))
	if err := s.SaveSnapshot(previous, game); err != nil {
		return nil, err
	}

	return diff, nil
}
