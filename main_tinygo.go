//go:build tinygo

package main

import (
	"context"
	"log/slog"

	"baer/app"
	"baer/catalog"
	"baer/config"
	"baer/hal"
	"baer/internal/buildinfo"
	"baer/player"
)

func main() {
	cfg := config.Default()
	h := hal.New(cfg.HALPins())
	log := slog.New(slog.NewTextHandler(hal.LogWriter(h.Logger()), nil))
	log.Info("starting", buildinfo.Attrs()...)

	opts := app.Options{Config: cfg, Autoplay: -1, Logger: log}
	if !catalog.SDAvailable {
		// Without a card driver every slot boots empty.
		opts.Catalog = make(player.Catalog, len(cfg.Slots))
		for i, dir := range cfg.Slots {
			opts.Catalog[i].Dir = dir
		}
	}

	a, err := app.New(h, opts)
	if err != nil {
		log.Error("init", "err", err)
		select {}
	}
	app.InstallPanicHandler(h, log, nil)

	ctx := context.Background()
	if err := a.Boot(ctx); err != nil {
		log.Error("boot", "err", err)
		select {}
	}
	err = a.Run(ctx)
	log.Info("stopped", "err", err)
	select {}
}
