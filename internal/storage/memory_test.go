package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	m := NewMemoryStorage()

	_, err := m.Load(StoredHosts)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Save(StoredHosts, sampleSnapshot()))
	got, err := m.Load(StoredHosts)
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got)

	require.NoError(t, m.Erase(StoredHosts))
	_, err = m.Load(StoredHosts)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorage_PutCorrupt(t *testing.T) {
	m := NewMemoryStorage()
	m.Put(StoredHosts, []byte("garbage"))

	_, err := m.Load(StoredHosts)
	var decErr *DecodeError
	assert.ErrorAs(t, err, &decErr)
}
