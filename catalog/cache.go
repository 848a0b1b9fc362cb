package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"baer/player"
)

const cacheVersion = 1

// ErrStaleCache means the cache was written for a different slot list.
var ErrStaleCache = errors.New("catalog: cache does not match slots")

type cacheFile struct {
	Version int            `json:"version"`
	Slots   []string       `json:"slots"`
	Catalog player.Catalog `json:"catalog"`
}

// ReadCache loads a meta cache written for exactly slots.
func ReadCache(path string, slots []string) (player.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c cacheFile
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w", path, err)
	}
	if c.Version != cacheVersion || !slices.Equal(c.Slots, slots) || len(c.Catalog) != len(slots) {
		return nil, ErrStaleCache
	}
	return c.Catalog, nil
}

// WriteCache replaces the cache at path through a temporary file and a
// rename.
func WriteCache(path string, slots []string, cat player.Catalog) error {
	data, err := json.MarshalIndent(cacheFile{Version: cacheVersion, Slots: slots, Catalog: cat}, "", "  ")
	if err != nil {
		return fmt.Errorf("catalog: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("catalog: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("catalog: %w", err)
	}
	return nil
}
