package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/reqbook/internal/model"
)

func newTestSQLiteStorage(t *testing.T, dir string) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStorage_LoadWithoutSaveIsNotFound(t *testing.T) {
	s := newTestSQLiteStorage(t, t.TempDir())

	_, err := s.Load(StoredHosts)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStorage_RoundTrip(t *testing.T) {
	s := newTestSQLiteStorage(t, t.TempDir())
	want := sampleSnapshot()

	require.NoError(t, s.Save(StoredHosts, want))

	got, err := s.Load(StoredHosts)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSQLiteStorage_SaveReplaces(t *testing.T) {
	s := newTestSQLiteStorage(t, t.TempDir())
	require.NoError(t, s.Save(StoredHosts, sampleSnapshot()))

	smaller := model.Snapshot{Hosts: []model.Host{model.NewHost("only.com", "Only")}}
	require.NoError(t, s.Save(StoredHosts, smaller))

	got, err := s.Load(StoredHosts)
	require.NoError(t, err)
	assert.Equal(t, smaller, got)
}

func TestSQLiteStorage_LocationsAreIndependent(t *testing.T) {
	s := newTestSQLiteStorage(t, t.TempDir())
	require.NoError(t, s.Save(StoredHosts, sampleSnapshot()))

	other := Location("scratch")
	require.NoError(t, s.Save(other, model.Snapshot{Hosts: []model.Host{}}))
	require.NoError(t, s.Erase(other))

	got, err := s.Load(StoredHosts)
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got)
}

func TestSQLiteStorage_EraseThenLoadIsNotFound(t *testing.T) {
	s := newTestSQLiteStorage(t, t.TempDir())
	require.NoError(t, s.Save(StoredHosts, sampleSnapshot()))

	require.NoError(t, s.Erase(StoredHosts))
	_, err := s.Load(StoredHosts)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Erase(StoredHosts))
}

func TestSQLiteStorage_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSQLiteStorage(dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.Save(StoredHosts, sampleSnapshot()))
	require.NoError(t, s.Close())

	reopened := newTestSQLiteStorage(t, dir)
	got, err := reopened.Load(StoredHosts)
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got)

	info, err := os.Stat(filepath.Join(dir, dbFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSQLiteStorage_ImportsJSONSnapshot(t *testing.T) {
	dir := t.TempDir()
	js, err := NewJSONStorage(dir, nil)
	require.NoError(t, err)
	require.NoError(t, js.Save(StoredHosts, sampleSnapshot()))

	s := newTestSQLiteStorage(t, dir)
	got, err := s.Load(StoredHosts)
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got)

	_, err = os.Stat(js.Path(StoredHosts))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(js.Path(StoredHosts) + ".migrated")
	assert.NoError(t, err)

	// Second load reads from the database
	got, err = s.Load(StoredHosts)
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got)
}

func TestSQLiteStorage_CorruptJSONImportIsDecodeError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "storedHosts.json"), []byte("{oops"), 0600))

	s := newTestSQLiteStorage(t, dir)
	_, err := s.Load(StoredHosts)
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
}

func TestSQLiteStorage_EraseSkipsPendingJSONImport(t *testing.T) {
	dir := t.TempDir()
	js, err := NewJSONStorage(dir, nil)
	require.NoError(t, err)
	require.NoError(t, js.Save(StoredHosts, sampleSnapshot()))

	s := newTestSQLiteStorage(t, dir)
	require.NoError(t, s.Erase(StoredHosts))

	_, err = s.Load(StoredHosts)
	assert.ErrorIs(t, err, ErrNotFound)

	// The file is left where it was, and a reopened database still ignores it
	_, err = os.Stat(js.Path(StoredHosts))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	_, err = newTestSQLiteStorage(t, dir).Load(StoredHosts)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStorage_EraseRecoversFromCorruptJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "storedHosts.json"), []byte("{oops"), 0600))

	s := newTestSQLiteStorage(t, dir)
	var decErr *DecodeError
	_, err := s.Load(StoredHosts)
	require.ErrorAs(t, err, &decErr)

	require.NoError(t, s.Erase(StoredHosts))
	_, err = s.Load(StoredHosts)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStorage_SaveThenEraseDoesNotImportJSON(t *testing.T) {
	dir := t.TempDir()
	s := newTestSQLiteStorage(t, dir)
	require.NoError(t, s.Save(StoredHosts, model.Snapshot{Hosts: []model.Host{model.NewHost("db.example.com", "")}}))

	// A JSON file appearing after the database took over is never imported
	js, err := NewJSONStorage(dir, nil)
	require.NoError(t, err)
	require.NoError(t, js.Save(StoredHosts, sampleSnapshot()))

	require.NoError(t, s.Erase(StoredHosts))
	_, err = s.Load(StoredHosts)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStorage_InvalidMethodRowIsDecodeError(t *testing.T) {
	s := newTestSQLiteStorage(t, t.TempDir())
	require.NoError(t, s.Save(StoredHosts, sampleSnapshot()))

	_, err := s.db.Exec("UPDATE endpoints SET method = 'TRACE'")
	require.NoError(t, err)

	_, err = s.Load(StoredHosts)
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
}
