//go:build !tinygo

package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"baer/player"
)

func TestWatchReloadsOnChange(t *testing.T) {
	root := newMediaTree(t)
	opts := Options{
		Root:      root,
		Slots:     []string{"/PAW01", "/PAW03"},
		CachePath: filepath.Join(root, "_metaCache.json"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan player.Catalog, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, opts, 20*time.Millisecond, func(c player.Catalog) { got <- c })
	}()
	defer func() {
		cancel()
		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("Watch returned %v", err)
		}
	}()

	// Give the watcher time to register before touching the tree.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(root, "PAW01", "d.mp3"), []byte("x"))

	select {
	case c := <-got:
		if c.TrackCount(0) != 4 {
			t.Fatalf("TrackCount(0) = %d, want 4", c.TrackCount(0))
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after adding a track")
	}

	cached, err := ReadCache(opts.CachePath, opts.Slots)
	if err != nil {
		t.Fatalf("ReadCache: %v", err)
	}
	if cached.TrackCount(0) != 4 {
		t.Fatalf("cached TrackCount(0) = %d, want 4", cached.TrackCount(0))
	}

	// A slot directory created later is picked up too.
	if err := os.Mkdir(filepath.Join(root, "PAW03"), 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(root, "PAW03", "new.wav"), []byte("RIFF"))

	deadline := time.After(3 * time.Second)
	for {
		select {
		case c := <-got:
			if c.TrackCount(1) == 1 {
				return
			}
		case <-deadline:
			t.Fatal("no reload for the new slot directory")
		}
	}
}

func TestWatchMissingRoot(t *testing.T) {
	err := Watch(context.Background(), Options{Root: filepath.Join(t.TempDir(), "nope")}, 0, func(player.Catalog) {})
	if err == nil {
		t.Fatal("Watch on a missing root succeeded")
	}
}
