// Package storage persists draw snapshots between runs.
//
// Snapshots are JSON files in a data directory (default ~/.local/share/zabava-archive),
// one per game. Each run merges its records into the stored snapshot and reports which
// draws were not seen before.
package storage
