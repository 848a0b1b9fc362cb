//go:build !tinygo

package app

import (
	"context"

	"baer/catalog"
)

// WatchMedia swaps in a fresh catalog whenever the media tree changes,
// until ctx is done or the device powers off.
func (a *App) WatchMedia(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-a.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return catalog.Watch(ctx, a.catalogOptions(), 0, a.engine.SetCatalog)
}
