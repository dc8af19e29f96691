// Package tokencache persists bearer tokens between CLI invocations so a
// short-lived process can reuse an unexpired token instead of
// re-authenticating on every run.
package tokencache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"

	"github.com/choiwab/julius-baer-side-quest/internal/banking"
)

const fileName = "token.json"

// Cache stores a single token state as a JSON file under a data directory.
type Cache struct {
	path string
}

// New returns a cache rooted at dir. The directory is created on first save.
func New(dir string) *Cache {
	return &Cache{path: filepath.Join(dir, fileName)}
}

// Path returns the backing file location.
func (c *Cache) Path() string {
	return c.path
}

// Save atomically replaces the cached token. The file is written with
// owner-only permissions since it holds a credential.
func (c *Cache) Save(state banking.TokenState) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("create token cache dir: %w", err)
	}

	// renameio handles temp file creation, fsync, atomic rename and
	// cleanup on error, so a crash never leaves a partial token file.
	pending, err := renameio.NewPendingFile(c.path, renameio.WithPermissions(0o600))
	if err != nil {
		return fmt.Errorf("create pending token file: %w", err)
	}
	defer func() {
		_ = pending.Cleanup()
	}()

	enc := json.NewEncoder(pending)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state); err != nil {
		return fmt.Errorf("encode token state: %w", err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace token file: %w", err)
	}
	return nil
}

// Load reads the cached token. A missing file, unreadable content or an
// expired token all yield ok=false; only unexpected I/O failures surface
// as errors.
func (c *Cache) Load() (banking.TokenState, bool, error) {
	var state banking.TokenState

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return state, false, nil
		}
		return state, false, fmt.Errorf("read token cache: %w", err)
	}

	if err := json.Unmarshal(data, &state); err != nil {
		// A corrupt cache is treated as absent rather than fatal.
		return banking.TokenState{}, false, nil
	}
	if !state.Valid(time.Now()) {
		return banking.TokenState{}, false, nil
	}
	return state, true, nil
}

// Clear removes the cached token. Clearing an empty cache is not an error.
func (c *Cache) Clear() error {
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token cache: %w", err)
	}
	return nil
}
