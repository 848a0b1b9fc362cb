//go:build !tinygo

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"baer/player"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDelay is how long Watch waits for a burst of changes to
// settle before rescanning.
const DefaultWatchDelay = 500 * time.Millisecond

// Watch rescans the media tree whenever a slot directory changes and passes
// the new catalog to onChange. The meta cache is rewritten on every rescan.
// It blocks until ctx is done.
func Watch(ctx context.Context, opts Options, delay time.Duration, onChange func(player.Catalog)) error {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("module", "CATALOG")
	if delay <= 0 {
		delay = DefaultWatchDelay
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("catalog: watch: %w", err)
	}
	defer w.Close()

	root := filepath.Clean(opts.Root)
	if err := w.Add(root); err != nil {
		return fmt.Errorf("catalog: watch %s: %w", root, err)
	}
	slotDirs := make(map[string]bool, len(opts.Slots))
	for _, s := range opts.Slots {
		dir := filepath.Join(root, filepath.FromSlash(s))
		slotDirs[dir] = true
		if err := w.Add(dir); err != nil {
			log.Debug("slot not watched yet", "dir", dir, "err", err)
		}
	}

	relevant := func(name string) bool {
		return slotDirs[name] || slotDirs[filepath.Dir(name)]
	}

	timer := time.NewTimer(delay)
	timer.Stop()
	var settle <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Clean(ev.Name)
			if !relevant(name) {
				continue
			}
			if slotDirs[name] && ev.Op.Has(fsnotify.Create) {
				if err := w.Add(name); err != nil {
					log.Warn("slot watch failed", "dir", name, "err", err)
				}
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(delay)
			settle = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "err", err)

		case <-settle:
			settle = nil
			rescan := opts
			rescan.Rescan = true
			cat, err := Load(rescan)
			if err != nil {
				log.Warn("rescan failed", "err", err)
				continue
			}
			log.Info("media changed, catalog reloaded", "slots", len(cat))
			onChange(cat)
		}
	}
}
