// Package app wires the device together: bus, peripherals, input/output
// controller, playback engine and power monitor. It owns the boot and
// shutdown sequences.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"baer/bus"
	"baer/catalog"
	"baer/config"
	"baer/devices/max17048"
	"baer/devices/tas5806"
	"baer/hal"
	"baer/hbi"
	"baer/kernel"
	"baer/player"
	"baer/power"
)

// ErrPoweredOff is returned by Step once the shutdown sequence has run.
var ErrPoweredOff = errors.New("app: powered off")

// Decoder is the audio backend the engine drives.
type Decoder interface {
	player.Decoder
	Close() error
}

// Options configures New.
type Options struct {
	Config config.Config
	// Catalog skips the media scan when set.
	Catalog player.Catalog
	// Rescan ignores the meta cache.
	Rescan bool
	// NewDecoder builds the audio backend. onEnd must be called after a
	// track plays to its end. Nil selects the build's default backend.
	NewDecoder func(onEnd func()) (Decoder, error)
	// Autoplay starts this slot after boot unless a button was held.
	// Negative disables it.
	Autoplay int
	Logger   *slog.Logger
}

// Status is a point-in-time view of the device.
type Status struct {
	Stage          string
	BootOverride   bool
	PoweredOff     bool
	ShutdownReason string

	Playing  player.PlayingInfo
	HasTrack bool
	Volume   int
	MaxVol   int

	Power    power.State
	HasPower bool
}

// App is one running device.
type App struct {
	h    hal.HAL
	cfg  config.Config
	opts Options
	log  *slog.Logger

	clock   *kernel.Clock
	arb     *bus.Arbiter
	rails   power.Rails
	gauge   max17048.Device
	codec   *tas5806.Device
	pdn     hal.GPIOPin
	io      *hbi.DriverSet
	hbi     *hbi.Controller
	engine  *player.Engine
	monitor *power.Monitor
	dec     Decoder
	panel   *panel

	ctx    context.Context
	cancel context.CancelFunc

	stage          atomic.Value // string
	bootOverride   atomic.Bool
	off            atomic.Bool
	shutdownOnce   sync.Once
	shutdownReason atomic.Value // string
	done           chan struct{}
}

// New builds the device on h. Nothing touches hardware until Boot.
func New(h hal.HAL, opts Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(hal.LogWriter(h.Logger()), nil))
	}
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		h:     h,
		cfg:   cfg,
		opts:  opts,
		log:   log.With("module", "MAIN"),
		clock: &kernel.Clock{},
		done:  make(chan struct{}),
	}
	a.stage.Store("")
	a.shutdownReason.Store("")
	if t := h.Time(); t != nil && t.Ticks() != nil {
		a.clock.Follow(t.Ticks())
	} else {
		a.clock.StartTick()
	}

	i2c := h.I2C()
	if i2c == nil {
		return nil, errors.New("app: no peripheral bus")
	}
	a.arb = bus.New(i2c, log)
	a.rails = power.Rails{
		PowerSave:  a.pin(cfg.Pins.PowerSave),
		Audio:      a.pin(cfg.Pins.HVEnable),
		Peripheral: a.pin(cfg.Pins.VCCPEnable),
		Log:        log,
	}
	a.pdn = a.pin(cfg.Pins.CodecPowerDown)
	a.gauge = max17048.New(a.arb)
	a.codec = tas5806.New(a.arb, tas5806.Address)

	newDecoder := opts.NewDecoder
	if newDecoder == nil {
		newDecoder = defaultDecoder
	}
	dec, err := newDecoder(a.endOfTrack)
	if err != nil {
		return nil, fmt.Errorf("app: audio: %w", err)
	}
	a.dec = dec
	a.engine = player.New(dec, a.codec, nil, cfg.Player(), a.clock, log)

	a.monitor = power.NewMonitor(cfg.PowerMonitor(), a.gauge,
		power.PinChargeSense{Pin: a.pin(cfg.Pins.ChargeStatus)}, a.clock, log)

	a.io = hbi.NewDriverSet(a.arb, a.pin(cfg.Pins.LEDReset), cfg.HBI.LEDBrightness, log.With("module", "HBI"))
	a.hbi = hbi.New(cfg.Controller(), a.io, a.engine, hbi.Pins{
		InputInt:      a.pin(cfg.Pins.InputInt),
		EncoderA:      a.pin(cfg.Pins.EncoderA),
		EncoderB:      a.pin(cfg.Pins.EncoderB),
		EncoderButton: a.pin(cfg.Pins.EncoderButton),
	}, a.clock, log)
	a.hbi.SetShutdownHandler(func() {
		kernel.Go("shutdown", func() { a.Shutdown("long press") })
	})

	if disp := h.Display(); disp != nil && disp.Framebuffer() != nil {
		a.panel = newPanel(disp.Framebuffer(), cfg.Name)
	}
	return a, nil
}

func (a *App) pin(id int) hal.GPIOPin {
	g := a.h.GPIO()
	if g == nil || id < 0 || id >= g.PinCount() {
		return nil
	}
	return g.Pin(id)
}

func (a *App) endOfTrack() {
	if a.off.Load() {
		return
	}
	a.engine.EndOfTrack()
}

func (a *App) setStage(s string) {
	a.stage.Store(s)
	a.log.Info("boot", "stage", s)
	bootDiagSetStep(s)
}

// Boot runs the power-on sequence and starts the worker task. The worker
// stops when ctx is done or the device shuts down.
func (a *App) Boot(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)
	bootDiagStart(a.h)

	a.setStage("rails")
	if err := a.rails.Configure(); err != nil {
		a.log.Error("rail pins", "err", err)
	}
	a.rails.DisableVCCPowerSave()
	a.rails.EnablePeripheralVoltage()
	if d := a.cfg.Timing.PeripheralStartup; d > 0 {
		time.Sleep(d)
	}
	if a.log.Enabled(ctx, slog.LevelDebug) {
		a.log.Debug("bus scan", "devices", fmt.Sprintf("% x", a.arb.Scan()))
	}

	a.setStage("power")
	if a.cfg.BatteryPresent {
		if err := a.gauge.QuickStart(); err != nil {
			a.log.Error("fuel gauge quick start failed", "err", err)
		}
		if a.monitor.SampleAndCheckShutdown() {
			a.log.Warn("battery too low to boot")
			a.Shutdown("battery low")
			return ErrPoweredOff
		}
	}

	a.setStage("hbi")
	if err := a.hbi.Initialize(); err != nil {
		a.cancel()
		return err
	}
	a.hbi.AllLedsOn()
	if a.hbi.AnyButtonCurrentlyPressed() {
		a.bootOverride.Store(true)
		a.log.Warn("button held at boot, auto-resume skipped")
	}

	a.setStage("codec")
	a.bringUpCodec()
	a.engine.Initialize()

	kernel.Go("hbi", func() { a.hbi.RunWorkerLoop(a.ctx) })

	a.setStage("catalog")
	a.hbi.SetReadyToPlay(false)
	a.hbi.SetVegas(true)
	cat, err := a.loadCatalog()
	a.hbi.SetVegas(false)
	if err != nil {
		a.cancel()
		return err
	}
	a.engine.SetCatalog(cat)

	a.setStage("ready")
	a.hbi.SetActionsEnabled(true)
	a.hbi.SetReadyToPlay(true)

	if slot := a.opts.Autoplay; slot >= 0 && !a.bootOverride.Load() {
		a.engine.PlayNextFromSlot(slot)
	}
	return nil
}

func (a *App) bringUpCodec() {
	log := a.log.With("module", "CODEC")
	if a.pdn != nil {
		if err := a.pdn.Configure(hal.GPIOModeOutput, hal.GPIOPullNone); err != nil {
			log.Error("power-down pin", "err", err)
		} else if err := a.pdn.Write(true); err != nil {
			log.Error("power-down pin", "err", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := a.codec.Reset(); err != nil {
		log.Error("reset failed", "err", err)
		return
	}
	if err := a.codec.SetParamsAndHighZ(); err != nil {
		log.Error("setup failed", "err", err)
		return
	}
	a.rails.EnableAudioVoltage()
	if err := a.codec.SetModePlay(); err != nil {
		log.Error("play mode failed", "err", err)
		return
	}
	if state, err := a.codec.PowerState(); err == nil {
		log.Debug("amplifier up", "power_state", state)
	}
}

func (a *App) loadCatalog() (player.Catalog, error) {
	if a.opts.Catalog != nil {
		return a.opts.Catalog, nil
	}
	if catalog.SDAvailable {
		cat, err := catalog.LoadSD(a.cfg.SDPins(), a.cfg.Slots, a.log)
		if err != nil {
			a.log.Warn("media card unreadable, slots stay empty", "err", err)
			cat = make(player.Catalog, len(a.cfg.Slots))
			for i, dir := range a.cfg.Slots {
				cat[i].Dir = dir
			}
		}
		return cat, nil
	}
	return catalog.Load(a.catalogOptions())
}

func (a *App) catalogOptions() catalog.Options {
	return catalog.Options{
		Root:      a.cfg.MediaRoot,
		Slots:     a.cfg.Slots,
		CachePath: a.cfg.MetaCachePath(),
		Rescan:    a.opts.Rescan,
		Log:       a.log,
	}
}

// Step runs one iteration of the main loop: playing-info refresh, the
// battery check and the status panel.
func (a *App) Step() error {
	if a.off.Load() {
		return ErrPoweredOff
	}
	a.engine.RefreshIfDue()
	if a.monitor.CheckShutdown() {
		a.log.Warn("battery low, shutting down")
		a.Shutdown("battery low")
		return ErrPoweredOff
	}
	if a.panel != nil {
		a.panel.draw(a.Status(), a.clock.Ticks())
	}
	return nil
}

// Run calls Step every worker cycle until ctx is done or the device
// powers off.
func (a *App) Run(ctx context.Context) error {
	t := time.NewTicker(a.cfg.Timing.WorkerCycle)
	defer t.Stop()
	for {
		if err := a.Step(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.done:
			return ErrPoweredOff
		case <-t.C:
		}
	}
}

// Shutdown runs the power-off sequence once. Later calls wait for the
// first to finish.
func (a *App) Shutdown(reason string) {
	a.shutdownOnce.Do(func() {
		a.shutdownReason.Store(reason)
		a.log.Info("shutdown", "reason", reason)
		ctx := a.ctx
		if ctx == nil {
			ctx = context.Background()
		}

		a.hbi.SetActionsEnabled(false)
		a.engine.Stop()
		a.hbi.AllLedsOff()

		log := a.log.With("module", "CODEC")
		if err := a.codec.SetMuted(true); err != nil {
			log.Error("mute failed", "err", err)
		}
		if err := a.codec.SetModeDeepSleep(); err != nil {
			log.Error("deep sleep failed", "err", err)
		}
		a.rails.DisableAudioVoltage()

		a.hbi.WaitUntilEncoderButtonReleased(ctx)

		if a.cfg.BatteryPresent {
			if err := a.gauge.Sleep(); err != nil {
				a.log.Error("fuel gauge sleep failed", "err", err)
			}
		}
		if a.cancel != nil {
			a.cancel()
		}
		if err := a.dec.Close(); err != nil {
			a.log.Error("audio close failed", "err", err)
		}
		a.rails.EnableVCCPowerSave()
		a.rails.DisablePeripheralVoltage()

		a.off.Store(true)
		close(a.done)
		a.log.Info("powered off")
	})
	<-a.done
}

// Done is closed once the device has powered off.
func (a *App) Done() <-chan struct{} { return a.done }

// Status returns the current device state.
func (a *App) Status() Status {
	s := Status{
		Stage:          a.stage.Load().(string),
		BootOverride:   a.bootOverride.Load(),
		PoweredOff:     a.off.Load(),
		ShutdownReason: a.shutdownReason.Load().(string),
		Volume:         a.engine.Volume(),
		MaxVol:         a.engine.MaxVolume(),
	}
	s.Playing, s.HasTrack = a.engine.PlayingInfo()
	s.Power, s.HasPower = a.monitor.State()
	return s
}

// Engine returns the playback engine, the control surface for transports.
func (a *App) Engine() *player.Engine { return a.engine }

// Controller returns the input/output controller.
func (a *App) Controller() *hbi.Controller { return a.hbi }

// Monitor returns the battery monitor.
func (a *App) Monitor() *power.Monitor { return a.monitor }

// Bus returns the bus arbiter.
func (a *App) Bus() *bus.Arbiter { return a.arb }
