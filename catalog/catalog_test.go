package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"baer/player"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// id3v1 returns a file body carrying an ID3v1 trailer.
func id3v1(title, artist string) []byte {
	body := make([]byte, 64)
	tag := make([]byte, 128)
	copy(tag, "TAG")
	copy(tag[3:33], title)
	copy(tag[33:63], artist)
	return append(body, tag...)
}

func newMediaTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "PAW01", "b.mp3"), []byte("not really audio"))
	writeFile(t, filepath.Join(root, "PAW01", "A.mp3"), id3v1("Morning Song", "The Bears"))
	writeFile(t, filepath.Join(root, "PAW01", "c.WAV"), []byte("RIFF"))
	writeFile(t, filepath.Join(root, "PAW01", "notes.txt"), []byte("skip"))
	writeFile(t, filepath.Join(root, "PAW01", ".hidden.mp3"), []byte("skip"))
	writeFile(t, filepath.Join(root, "PAW02", "only.ogg"), []byte("skip"))
	if err := os.MkdirAll(filepath.Join(root, "PAW01", "sub.mp3"), 0o755); err != nil {
		t.Fatal(err)
	}
	return root
}

func trackNames(s player.Slot) []string {
	var names []string
	for _, tr := range s.Tracks {
		names = append(names, filepath.Base(tr.Path))
	}
	return names
}

func TestScan(t *testing.T) {
	root := newMediaTree(t)
	cat, err := Scan(root, []string{"/PAW01", "/PAW02", "/PAW03"}, DefaultExtensions, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(cat) != 3 {
		t.Fatalf("len(cat) = %d, want 3", len(cat))
	}

	want := []string{"A.mp3", "b.mp3", "c.WAV"}
	if got := trackNames(cat[0]); !slices.Equal(got, want) {
		t.Fatalf("slot 0 = %v, want %v", got, want)
	}
	if cat[0].Dir != "/PAW01" {
		t.Fatalf("slot 0 dir = %q", cat[0].Dir)
	}
	if tr := cat[0].Tracks[0]; tr.Title != "Morning Song" || tr.Artist != "The Bears" {
		t.Fatalf("tagged track = %+v", tr)
	}
	if tr := cat[0].Tracks[1]; tr.Title != "b" || tr.Artist != "" {
		t.Fatalf("untagged track = %+v", tr)
	}
	if cat.TrackCount(1) != 1 || cat.TrackCount(2) != 0 {
		t.Fatalf("track counts = %d, %d, want 1, 0", cat.TrackCount(1), cat.TrackCount(2))
	}
}

func TestScanMissingRoot(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "nope"), []string{"/PAW01"}, DefaultExtensions, nil); err == nil {
		t.Fatal("Scan of a missing root: want error")
	}
}

func TestCacheRoundTripAndStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta", "_metaCache.json")
	slots := []string{"/PAW01", "/PAW02"}
	cat := player.Catalog{
		{Dir: "/PAW01", Tracks: []player.Track{{Path: "/m/PAW01/a.mp3", Title: "a"}}},
		{Dir: "/PAW02"},
	}

	if err := WriteCache(path, slots, cat); err != nil {
		t.Fatalf("WriteCache: %v", err)
	}
	got, err := ReadCache(path, slots)
	if err != nil {
		t.Fatalf("ReadCache: %v", err)
	}
	if got.TrackCount(0) != 1 || got[0].Tracks[0].Path != "/m/PAW01/a.mp3" {
		t.Fatalf("ReadCache = %+v", got)
	}

	if _, err := ReadCache(path, []string{"/PAW01"}); !errors.Is(err, ErrStaleCache) {
		t.Fatalf("ReadCache with other slots err = %v, want ErrStaleCache", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temporary cache file left behind")
	}
}

func TestLoadUsesAndRefreshesCache(t *testing.T) {
	root := newMediaTree(t)
	cache := filepath.Join(root, "_metaCache.json")
	opts := Options{Root: root, Slots: []string{"/PAW01", "/PAW02"}, CachePath: cache}

	first, err := Load(opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first.TrackCount(0) != 3 {
		t.Fatalf("TrackCount(0) = %d, want 3", first.TrackCount(0))
	}
	if _, err := os.Stat(cache); err != nil {
		t.Fatalf("cache not written: %v", err)
	}

	// New files are invisible until a rescan.
	writeFile(t, filepath.Join(root, "PAW01", "d.mp3"), []byte("x"))
	cached, err := Load(opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cached.TrackCount(0) != 3 {
		t.Fatalf("cached TrackCount(0) = %d, want 3", cached.TrackCount(0))
	}

	opts.Rescan = true
	fresh, err := Load(opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if fresh.TrackCount(0) != 4 {
		t.Fatalf("rescanned TrackCount(0) = %d, want 4", fresh.TrackCount(0))
	}
}

func TestLoadIgnoresCorruptCache(t *testing.T) {
	root := newMediaTree(t)
	cache := filepath.Join(root, "_metaCache.json")
	writeFile(t, cache, []byte("{broken"))

	cat, err := Load(Options{Root: root, Slots: []string{"/PAW01"}, CachePath: cache})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.TrackCount(0) != 3 {
		t.Fatalf("TrackCount(0) = %d, want 3", cat.TrackCount(0))
	}
	if _, err := ReadCache(cache, []string{"/PAW01"}); err != nil {
		t.Fatalf("cache not rewritten: %v", err)
	}
}
