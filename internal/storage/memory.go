package storage

import (
	"sync"

	"github.com/vedsharma/reqbook/internal/model"
)

// MemoryStorage keeps encoded snapshots in memory, for tests and previews.
// Data goes through the same codec as the file backend.
type MemoryStorage struct {
	data map[Location][]byte
	mu   sync.Mutex
}

// NewMemoryStorage creates an empty in-memory gateway
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[Location][]byte)}
}

// Save stores the encoded snapshot
func (m *MemoryStorage) Save(loc Location, snap model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := encodeSnapshot(snap)
	if err != nil {
		return &PersistenceError{Op: "save", Location: loc, Err: err}
	}
	m.data[loc] = data
	return nil
}

// Load decodes the stored snapshot
func (m *MemoryStorage) Load(loc Location) (model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.data[loc]
	if !ok {
		return model.Snapshot{}, ErrNotFound
	}
	return decodeSnapshot(loc, data)
}

// Erase drops the stored snapshot
func (m *MemoryStorage) Erase(loc Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, loc)
	return nil
}

// Put stores raw bytes at loc, bypassing encoding
func (m *MemoryStorage) Put(loc Location, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[loc] = append([]byte(nil), raw...)
}

func (m *MemoryStorage) Close() error {
	return nil
}
