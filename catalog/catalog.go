// Package catalog builds the slot catalog from the media tree and keeps a
// metadata cache next to it so later boots skip the tag scan.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"baer/player"

	"github.com/dhowden/tag"
	"github.com/samber/lo"
)

// DefaultExtensions are the file types a scan picks up.
var DefaultExtensions = []string{".mp3", ".wav", ".flac", ".ogg"}

// Options controls Load.
type Options struct {
	// Root is the media root; slot directories are relative to it.
	Root string
	// Slots are the slot directories in slot order, e.g. "/PAW01".
	Slots []string
	// Extensions defaults to DefaultExtensions.
	Extensions []string
	// CachePath is the meta cache file. Empty disables the cache.
	CachePath string
	// Rescan ignores an existing cache.
	Rescan bool
	Log    *slog.Logger
}

// Load returns the catalog from the cache if it matches the slot list,
// otherwise scans the media tree and rewrites the cache.
func Load(opts Options) (player.Catalog, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("module", "CATALOG")

	if opts.CachePath != "" && !opts.Rescan {
		cat, err := ReadCache(opts.CachePath, opts.Slots)
		switch {
		case err == nil:
			log.Info("meta cache loaded", "path", opts.CachePath, "slots", len(cat))
			return cat, nil
		case errors.Is(err, fs.ErrNotExist):
			log.Info("no meta cache", "path", opts.CachePath)
		default:
			log.Warn("meta cache unusable", "path", opts.CachePath, "err", err)
		}
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	cat, err := Scan(opts.Root, opts.Slots, exts, log)
	if err != nil {
		return nil, err
	}
	if opts.CachePath != "" {
		if err := WriteCache(opts.CachePath, opts.Slots, cat); err != nil {
			log.Warn("meta cache write failed", "path", opts.CachePath, "err", err)
		}
	}
	return cat, nil
}

// Scan lists every slot directory under root. A missing slot directory
// yields an empty slot; a missing root is an error.
func Scan(root string, slots []string, exts []string, log *slog.Logger) (player.Catalog, error) {
	if log == nil {
		log = slog.Default()
	}
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("catalog: media root: %w", err)
	}

	cat := make(player.Catalog, len(slots))
	for i, dir := range slots {
		cat[i].Dir = dir
		tracks, err := scanDir(filepath.Join(root, filepath.FromSlash(dir)), exts, log)
		if err != nil {
			log.Warn("slot unreadable", "slot", i, "dir", dir, "err", err)
			continue
		}
		cat[i].Tracks = tracks
		log.Debug("slot scanned", "slot", i, "dir", dir, "tracks", len(tracks))
	}
	return cat, nil
}

func scanDir(dir string, exts []string, log *slog.Logger) ([]player.Track, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		return e.Name(), !e.IsDir()
	})
	return lo.Map(pickAudio(names, exts), func(name string, _ int) player.Track {
		return readTrack(filepath.Join(dir, name), log)
	}), nil
}

// pickAudio keeps the visible file names with a known extension, ordered
// case-insensitively.
func pickAudio(names []string, exts []string) []string {
	audio := lo.Filter(names, func(name string, _ int) bool {
		if strings.HasPrefix(name, ".") {
			return false
		}
		return slices.Contains(exts, strings.ToLower(path.Ext(name)))
	})
	slices.SortFunc(audio, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return audio
}

// readTrack fills title and artist from the file's tags, falling back to
// the file name.
func readTrack(p string, log *slog.Logger) player.Track {
	f, err := os.Open(p)
	if err != nil {
		log.Warn("open failed", "path", p, "err", err)
		return fileTrack(p)
	}
	defer f.Close()
	return taggedTrack(p, f, log)
}

func fileTrack(p string) player.Track {
	base := path.Base(filepath.ToSlash(p))
	return player.Track{Path: p, Title: strings.TrimSuffix(base, path.Ext(base))}
}

func taggedTrack(p string, r io.ReadSeeker, log *slog.Logger) player.Track {
	t := fileTrack(p)
	m, err := tag.ReadFrom(r)
	if err != nil {
		if !errors.Is(err, tag.ErrNoTagsFound) {
			log.Debug("tag read failed", "path", p, "err", err)
		}
		return t
	}
	if title := strings.TrimSpace(m.Title()); title != "" {
		t.Title = title
	}
	t.Artist = strings.TrimSpace(m.Artist())
	return t
}
