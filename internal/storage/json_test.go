package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/reqbook/internal/model"
)

func newTestJSONStorage(t *testing.T) *JSONStorage {
	t.Helper()
	s, err := NewJSONStorage(t.TempDir(), nil)
	require.NoError(t, err)
	return s
}

func TestJSONStorage_LoadWithoutSaveIsNotFound(t *testing.T) {
	s := newTestJSONStorage(t)

	_, err := s.Load(StoredHosts)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJSONStorage_RoundTrip(t *testing.T) {
	s := newTestJSONStorage(t)
	want := sampleSnapshot()

	require.NoError(t, s.Save(StoredHosts, want))

	got, err := s.Load(StoredHosts)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestJSONStorage_SaveReplaces(t *testing.T) {
	s := newTestJSONStorage(t)
	require.NoError(t, s.Save(StoredHosts, sampleSnapshot()))

	smaller := model.Snapshot{Hosts: []model.Host{model.NewHost("only.com", "")}}
	require.NoError(t, s.Save(StoredHosts, smaller))

	got, err := s.Load(StoredHosts)
	require.NoError(t, err)
	assert.Equal(t, smaller, got)
}

func TestJSONStorage_FilePermissionsAndNoTempLeftovers(t *testing.T) {
	s := newTestJSONStorage(t)
	require.NoError(t, s.Save(StoredHosts, sampleSnapshot()))

	info, err := os.Stat(s.Path(StoredHosts))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(s.Path(StoredHosts)))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "storedHosts.json", entries[0].Name())
}

func TestJSONStorage_PersistedFieldNames(t *testing.T) {
	s := newTestJSONStorage(t)
	require.NoError(t, s.Save(StoredHosts, sampleSnapshot()))

	data, err := os.ReadFile(s.Path(StoredHosts))
	require.NoError(t, err)
	for _, field := range []string{`"hosts"`, `"address"`, `"defaultHeaders"`, `"endpoints"`, `"httpMethod"`, `"queryItems"`, `"responses"`, `"statusCode"`, `"receivedAt"`, `"payload"`} {
		assert.Contains(t, string(data), field)
	}
}

func TestJSONStorage_EraseThenLoadIsNotFound(t *testing.T) {
	s := newTestJSONStorage(t)
	require.NoError(t, s.Save(StoredHosts, sampleSnapshot()))

	require.NoError(t, s.Erase(StoredHosts))
	_, err := s.Load(StoredHosts)
	assert.ErrorIs(t, err, ErrNotFound)

	// Erasing again is fine
	assert.NoError(t, s.Erase(StoredHosts))
}

func TestJSONStorage_CorruptFileIsDecodeError(t *testing.T) {
	s := newTestJSONStorage(t)
	require.NoError(t, os.WriteFile(s.Path(StoredHosts), []byte("not json at all"), 0600))

	_, err := s.Load(StoredHosts)
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestJSONStorage_SaveFailureKeepsPreviousSnapshot(t *testing.T) {
	s := newTestJSONStorage(t)
	want := sampleSnapshot()
	require.NoError(t, s.Save(StoredHosts, want))

	// A directory in the way of the target makes rename fail
	blocked := Location("blocked")
	require.NoError(t, os.Mkdir(s.Path(blocked), 0700))
	err := s.Save(blocked, want)
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "save", perr.Op)

	got, err := s.Load(StoredHosts)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestJSONStorage_ConcurrentSaves(t *testing.T) {
	s := newTestJSONStorage(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Save(StoredHosts, sampleSnapshot()))
		}()
	}
	wg.Wait()

	got, err := s.Load(StoredHosts)
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got)
}
