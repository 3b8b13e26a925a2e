package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *HashStore {
	t.Helper()
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestHashStore_PutGet(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.GetHash("apps/users/models.py")
	require.NoError(t, err)
	assert.False(t, ok, "missing key must not be an error")

	require.NoError(t, s.PutHash("apps/users/models.py", "abc123"))

	hash, ok, err := s.GetHash("apps/users/models.py")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", hash)
}

func TestHashStore_PutReplaces(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.PutHash("a.py", "one"))
	require.NoError(t, s.PutHash("a.py", "two"))

	hash, ok, err := s.GetHash("a.py")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "two", hash)
}

func TestHashStore_Delete(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.PutHash("a.py", "one"))
	require.NoError(t, s.DeleteHash("a.py"))
	require.NoError(t, s.DeleteHash("never-existed.py"))

	_, ok, err := s.GetHash("a.py")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashStore_Closed(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.PutHash("a.py", "x"), ErrClosed)
	_, _, err := s.GetHash("a.py")
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, s.Close(), "double close is harmless")
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}
