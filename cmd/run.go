//go:build !tinygo

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"baer/app"
	"baer/audio"
	"baer/config"
	"baer/hal"
	"baer/internal/buildinfo"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type runOptions struct {
	headless     bool
	hz           int
	ticks        uint64
	scale        int
	mediaRoot    string
	batteryVolts float32
	batteryPct   float32
	charging     bool
	autoplay     int
	rescan       bool
	watch        bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the firmware on the simulated board",
	Long: `Boot the firmware against the simulated board.

In window mode the buttons map to the keyboard and audio goes to the
speaker when the build supports it. Headless mode runs at a fixed tick
rate with a silent, clocked audio backend.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cfg
		if runOpts.mediaRoot != "" {
			c.MediaRoot = runOpts.mediaRoot
		}
		err := runDevice(cmd.Context(), c, runOpts, slog.Default())
		if errors.Is(err, app.ErrPoweredOff) || errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	f := runCmd.Flags()
	f.BoolVar(&runOpts.headless, "headless", false, "run without a window")
	f.IntVar(&runOpts.hz, "hz", 60, "tick rate in headless mode")
	f.Uint64Var(&runOpts.ticks, "ticks", 0, "stop after N ticks in headless mode (0 = run until powered off)")
	f.IntVar(&runOpts.scale, "scale", 2, "window scale factor")
	f.StringVar(&runOpts.mediaRoot, "media-root", "", "media root (overrides config)")
	f.Float32Var(&runOpts.batteryVolts, "battery-volts", 3.9, "simulated battery voltage")
	f.Float32Var(&runOpts.batteryPct, "battery-percent", 80, "simulated state of charge")
	f.BoolVar(&runOpts.charging, "charging", false, "start with the charger connected")
	f.IntVar(&runOpts.autoplay, "autoplay", -1, "slot to start after boot (-1 = none)")
	f.BoolVar(&runOpts.rescan, "rescan", false, "ignore the meta cache and rescan the media tree")
	f.BoolVar(&runOpts.watch, "watch", false, "reload the catalog when the media tree changes")
}

// newDevice returns the app factory the host runners call once the
// simulated board exists.
func newDevice(ctx context.Context, c config.Config, o runOptions, log *slog.Logger) func(hal.HAL) func() error {
	return func(h hal.HAL) func() error {
		log := log.With("run", uuid.NewString())
		opts := app.Options{
			Config:   c,
			Rescan:   o.rescan,
			Autoplay: o.autoplay,
			Logger:   log,
		}
		if !o.headless && audio.SpeakerAvailable {
			opts.NewDecoder = func(onEnd func()) (app.Decoder, error) {
				return audio.NewSpeaker(onEnd, log)
			}
		}

		log.Info("starting", buildinfo.Attrs()...)
		a, err := app.New(h, opts)
		if err != nil {
			return func() error { return err }
		}
		app.InstallPanicHandler(h, log, func() { os.Exit(1) })
		if err := a.Boot(ctx); err != nil {
			return func() error { return err }
		}
		if o.watch {
			go func() {
				if err := a.WatchMedia(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Warn("media watch stopped", "err", err)
				}
			}()
		}
		return a.Step
	}
}

func runDevice(ctx context.Context, c config.Config, o runOptions, log *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sim := hal.SimConfig{
		Pins:           c.HALPins(),
		BatteryVolts:   o.batteryVolts,
		BatteryPercent: o.batteryPct,
		Charging:       o.charging,
	}

	if o.headless {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
		return hal.RunHeadless(ctx, newDevice(ctx, c, o, log), hal.HeadlessConfig{
			Hz:    o.hz,
			Ticks: o.ticks,
			Sim:   sim,
		})
	}
	if err := hal.RunWindow(newDevice(ctx, c, o, log), hal.WindowConfig{Scale: o.scale, Sim: sim}); err != nil {
		return fmt.Errorf("window: %w", err)
	}
	return nil
}
