// Package storage persists the host collection as a single snapshot per
// logical location. Every backend serializes access to its location, so two
// saves triggered back to back never interleave.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vedsharma/reqbook/internal/model"
)

// Location names a snapshot slot
type Location string

// StoredHosts is where the host collection lives
const StoredHosts Location = "storedHosts"

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// ErrNotFound is returned by Load when nothing has been saved at the location
var ErrNotFound = errors.New("snapshot not found")

// DecodeError means a snapshot exists but could not be decoded. It is never
// confused with a missing snapshot.
type DecodeError struct {
	Location Location
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode snapshot %q: %v", e.Location, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps an I/O failure during save, load or erase
type PersistenceError struct {
	Op       string
	Location Location
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s snapshot %q: %v", e.Op, e.Location, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Gateway saves, loads and erases snapshots
type Gateway interface {
	// Save fully replaces the snapshot at loc. On failure the previous
	// snapshot is left intact.
	Save(loc Location, snap model.Snapshot) error
	// Load returns ErrNotFound when nothing was saved, *DecodeError when the
	// stored data is unreadable, or a *PersistenceError for I/O failures.
	Load(loc Location) (model.Snapshot, error)
	// Erase removes the snapshot. Erasing an absent snapshot succeeds.
	Erase(loc Location) error
	Close() error
}

// Open returns the gateway for the named backend rooted at dataDir
func Open(backend, dataDir string, logger *slog.Logger) (Gateway, error) {
	switch backend {
	case "", BackendJSON:
		return NewJSONStorage(dataDir, logger)
	case BackendSQLite:
		return NewSQLiteStorage(dataDir, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", backend)
	}
}

// encodeSnapshot produces the persisted JSON document. snap is not modified.
func encodeSnapshot(snap model.Snapshot) ([]byte, error) {
	c := snap.Clone()
	c.Normalize()
	return json.MarshalIndent(c, "", "  ")
}

// decodeSnapshot parses a JSON document. Absent optional fields become empty.
func decodeSnapshot(loc Location, data []byte) (model.Snapshot, error) {
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.Snapshot{}, &DecodeError{Location: loc, Err: err}
	}
	for i, h := range snap.Hosts {
		if h.Address == "" {
			return model.Snapshot{}, &DecodeError{Location: loc, Err: fmt.Errorf("host %d has no address", i)}
		}
		for _, e := range h.Endpoints {
			if !e.HTTPMethod.Valid() {
				return model.Snapshot{}, &DecodeError{Location: loc, Err: fmt.Errorf("endpoint %q on %s has no method", e.Path, h.Address)}
			}
		}
	}
	snap.Normalize()
	return snap, nil
}
