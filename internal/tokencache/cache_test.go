package tokencache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choiwab/julius-baer-side-quest/internal/banking"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	cache := New(t.TempDir())

	state := banking.TokenState{
		Token:  "tok-123",
		Expiry: time.Now().Add(time.Hour).Truncate(time.Second),
		Scope:  banking.ScopeTransfer,
	}
	require.NoError(t, cache.Save(state))

	loaded, ok, err := cache.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, state.Token, loaded.Token)
	assert.Equal(t, state.Scope, loaded.Scope)
	assert.True(t, state.Expiry.Equal(loaded.Expiry))
}

func TestSaveCreatesDirWithOwnerOnlyFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	cache := New(dir)

	require.NoError(t, cache.Save(banking.TokenState{
		Token:  "tok-secret",
		Expiry: time.Now().Add(time.Hour),
		Scope:  banking.ScopeEnquiry,
	}))

	info, err := os.Stat(cache.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "token file must be owner-only")
}

func TestLoadMissingFile(t *testing.T) {
	cache := New(t.TempDir())

	_, ok, err := cache.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadIgnoresExpiredToken(t *testing.T) {
	cache := New(t.TempDir())

	require.NoError(t, cache.Save(banking.TokenState{
		Token:  "tok-old",
		Expiry: time.Now().Add(-time.Minute),
		Scope:  banking.ScopeTransfer,
	}))

	_, ok, err := cache.Load()
	require.NoError(t, err)
	assert.False(t, ok, "expired token must not be offered for reuse")
}

func TestLoadIgnoresCorruptFile(t *testing.T) {
	dir := t.TempDir()
	cache := New(dir)
	require.NoError(t, os.WriteFile(cache.Path(), []byte("{broken"), 0o600))

	_, ok, err := cache.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	cache := New(t.TempDir())
	require.NoError(t, cache.Save(banking.TokenState{
		Token:  "tok",
		Expiry: time.Now().Add(time.Hour),
	}))

	require.NoError(t, cache.Clear())
	_, ok, err := cache.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	// Clearing again is a no-op.
	require.NoError(t, cache.Clear())
}
