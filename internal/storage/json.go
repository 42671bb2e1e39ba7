package storage

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/vedsharma/reqbook/internal/model"
)

const (
	snapshotExt = ".json"

	// Secure file permissions - owner read/write only
	jsonSecureFileMode = 0600 // -rw-------
	jsonSecureDirMode  = 0700 // drwx------
)

// JSONStorage keeps each location as a JSON file under dataDir
type JSONStorage struct {
	dataDir string
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewJSONStorage creates a new JSON storage instance, creating dataDir if needed
func NewJSONStorage(dataDir string, logger *slog.Logger) (*JSONStorage, error) {
	if err := os.MkdirAll(dataDir, jsonSecureDirMode); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &JSONStorage{dataDir: dataDir, logger: logger}, nil
}

// Path returns the file backing loc
func (s *JSONStorage) Path(loc Location) string {
	return filepath.Join(s.dataDir, string(loc)+snapshotExt)
}

// Save writes the snapshot through a temp file and rename
func (s *JSONStorage) Save(loc Location, snap model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := encodeSnapshot(snap)
	if err != nil {
		return &PersistenceError{Op: "save", Location: loc, Err: fmt.Errorf("marshal: %w", err)}
	}

	path := s.Path(loc)
	if err := atomicWriteFile(path, data, jsonSecureFileMode); err != nil {
		s.logger.Error("failed to save snapshot",
			slog.String("location", string(loc)),
			slog.String("path", path),
			slog.String("error", err.Error()))
		return &PersistenceError{Op: "save", Location: loc, Err: err}
	}

	s.logger.Debug("saved snapshot",
		slog.String("location", string(loc)),
		slog.String("path", path),
		slog.Int("hosts", len(snap.Hosts)),
		slog.Int("bytes", len(data)))
	return nil
}

// Load reads and decodes the snapshot
func (s *JSONStorage) Load(loc Location) (model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(loc)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("no snapshot stored", slog.String("location", string(loc)))
			return model.Snapshot{}, ErrNotFound
		}
		return model.Snapshot{}, &PersistenceError{Op: "load", Location: loc, Err: err}
	}

	snap, err := decodeSnapshot(loc, data)
	if err != nil {
		s.logger.Error("failed to decode snapshot",
			slog.String("location", string(loc)),
			slog.String("path", path),
			slog.String("error", err.Error()))
		return model.Snapshot{}, err
	}

	s.logger.Debug("loaded snapshot",
		slog.String("location", string(loc)),
		slog.Int("hosts", len(snap.Hosts)))
	return snap, nil
}

// Erase deletes the snapshot file
func (s *JSONStorage) Erase(loc Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(loc)); err != nil {
		if os.IsNotExist(err) {
			// Already erased, not an error
			return nil
		}
		return &PersistenceError{Op: "erase", Location: loc, Err: err}
	}

	s.logger.Debug("erased snapshot", slog.String("location", string(loc)))
	return nil
}

// Close is a no-op for file storage
func (s *JSONStorage) Close() error {
	return nil
}

// atomicWriteFile writes to a temp file in the same directory and renames it
// over path, so readers see either the old or the new content
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := f.Name()

	// Clean up temp file on any failure
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	success = true
	return nil
}
