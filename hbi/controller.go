// Package hbi is the human-baer interface: the 24 button lines and their
// LEDs, the rotary encoder and its push button.
//
// Interrupt handlers only enqueue events. A single worker task drains the
// queue, talks to the bus and calls into the player.
package hbi

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"baer/hal"
	"baer/kernel"
	"baer/player"
)

// Player is the playback surface the controller drives.
type Player interface {
	PlayNextFromSlot(slot int)
	Play()
	Pause()
	Stop()
	Next()
	Prev()
	VolumeUp()
	VolumeDown()
	PlayingInfo() (player.PlayingInfo, bool)
}

// IODriver reads the button lines and drives the LEDs.
type IODriver interface {
	Initialize() error
	ReadInputs() (uint32, error)
	WriteMask(mask uint32) error
	SetAll(on bool) error
}

// Pins are the controller's direct GPIO connections. Any may be nil.
type Pins struct {
	InputInt      hal.GPIOPin
	EncoderA      hal.GPIOPin
	EncoderB      hal.GPIOPin
	EncoderButton hal.GPIOPin
}

// Config tunes the controller.
type Config struct {
	Mappings              [Lines]Mapping
	SlotDirs              []string
	ReverseEncoder        bool
	ReleaseInsteadOfPress bool

	ButtonDebounce  time.Duration
	EncoderDebounce time.Duration
	LongPress       time.Duration
	Cycle           time.Duration
	VegasStep       time.Duration
}

// DefaultConfig returns the factory tuning.
func DefaultConfig() Config {
	return Config{
		Mappings:        DefaultMappings(),
		SlotDirs:        []string{"/PAW01", "/PAW02", "/PAW03", "/PAW04"},
		ButtonDebounce:  50 * time.Millisecond,
		EncoderDebounce: 5 * time.Millisecond,
		LongPress:       3 * time.Second,
		Cycle:           50 * time.Millisecond,
		VegasStep:       150 * time.Millisecond,
	}
}

const (
	eventInputChanged uint8 = iota + 1
	eventVolumeUp
	eventVolumeDown
)

// Controller is the input/output controller.
type Controller struct {
	cfg    Config
	table  lineTable
	io     IODriver
	player Player
	pins   Pins
	clock  kernel.TickSource
	log    *slog.Logger
	queue  *kernel.Queue

	debounceTicks    uint64
	encDebounceTicks uint64
	longPressTicks   uint64
	vegasTicks       uint64

	onShutdown atomic.Value // func()

	actionsEnabled atomic.Bool
	readyToPlay    atomic.Bool
	vegas          atomic.Bool
	override       atomic.Bool
	ledsDirty      atomic.Bool

	// Owned by the encoder interrupt handler.
	encLastTick atomic.Uint64
	encSeen     atomic.Bool

	// Owned by the worker task.
	lastSnapshot uint32
	press        pressTimer
	dispatched   atomic.Uint64

	ledMu      sync.Mutex // serializes LED writes and guards the fields below
	lastMask   uint32
	maskValid  bool
	vegasIndex int
	vegasLast  uint64
}

// New returns a controller. Nothing touches hardware until Initialize.
func New(cfg Config, io IODriver, p Player, pins Pins, clock kernel.TickSource, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Cycle <= 0 {
		cfg.Cycle = DefaultConfig().Cycle
	}
	return &Controller{
		cfg:              cfg,
		table:            newLineTable(cfg.Mappings, cfg.SlotDirs),
		io:               io,
		player:           p,
		pins:             pins,
		clock:            clock,
		log:              log.With("module", "HBI"),
		queue:            kernel.NewQueue(),
		debounceTicks:    kernel.DurationTicks(cfg.ButtonDebounce),
		encDebounceTicks: kernel.DurationTicks(cfg.EncoderDebounce),
		longPressTicks:   kernel.DurationTicks(cfg.LongPress),
		vegasTicks:       kernel.DurationTicks(cfg.VegasStep),
		lastSnapshot:     idleSnapshot,
	}
}

// SetShutdownHandler registers the function called on a confirmed long
// press of the encoder button.
func (c *Controller) SetShutdownHandler(fn func()) {
	c.onShutdown.Store(fn)
}

// Initialize configures the chips and pins, takes the baseline input
// snapshot and installs the interrupt handlers.
func (c *Controller) Initialize() error {
	if err := c.io.Initialize(); err != nil {
		c.log.Error("driver init failed", "err", err)
	}

	if snap, err := c.io.ReadInputs(); err != nil {
		c.log.Error("baseline read failed", "err", err)
	} else {
		c.lastSnapshot = snap
	}
	if err := c.io.WriteMask(0); err != nil {
		c.log.Error("led clear failed", "err", err)
	}

	for _, p := range []hal.GPIOPin{c.pins.InputInt, c.pins.EncoderA, c.pins.EncoderB, c.pins.EncoderButton} {
		if p == nil {
			continue
		}
		if err := p.Configure(hal.GPIOModeInput, hal.GPIOPullUp); err != nil {
			return fmt.Errorf("hbi: %w", err)
		}
	}
	if c.pins.InputInt != nil {
		if err := c.pins.InputInt.SetInterrupt(hal.PinEdgeFalling, c.onInputInterrupt); err != nil {
			return fmt.Errorf("hbi: input interrupt: %w", err)
		}
	}
	if c.pins.EncoderA != nil && c.pins.EncoderB != nil {
		if err := c.pins.EncoderA.SetInterrupt(hal.PinEdgeBoth, c.onEncoderInterrupt); err != nil {
			return fmt.Errorf("hbi: encoder interrupt: %w", err)
		}
	}
	c.log.Info("initialized", "slots", len(c.table.lineOf), "baseline", fmt.Sprintf("%06x", c.lastSnapshot))
	return nil
}

// RunWorkerLoop drains the event queue until ctx is done. Housekeeping
// (long-press polling and the LED overlay) runs at least once per cycle.
func (c *Controller) RunWorkerLoop(ctx context.Context) {
	for {
		ev, ok := c.queue.RecvTimeout(ctx, c.cfg.Cycle)
		if ctx.Err() != nil {
			return
		}
		if ok {
			c.handleEvent(ev)
		}
		c.housekeeping()
	}
}

func (c *Controller) handleEvent(ev kernel.Event) {
	switch ev.Kind {
	case eventInputChanged:
		snap, err := c.io.ReadInputs()
		if err != nil {
			c.log.Error("input read failed", "err", err)
			return
		}
		c.processSnapshot(snap)
	case eventVolumeUp:
		if c.actionsEnabled.Load() {
			c.player.VolumeUp()
		}
	case eventVolumeDown:
		if c.actionsEnabled.Load() {
			c.player.VolumeDown()
		}
	}
}

func (c *Controller) housekeeping() {
	c.pollEncoderButton()
	c.refreshLeds()
}

// SetActionsEnabled gates every button-mapped action, encoder volume and
// the short press. The long press stays armed.
func (c *Controller) SetActionsEnabled(enabled bool) {
	c.actionsEnabled.Store(enabled)
}

// ActionsEnabled reports the gate state.
func (c *Controller) ActionsEnabled() bool { return c.actionsEnabled.Load() }

// AnyButtonCurrentlyPressed reads the lines directly. A read failure
// counts as nothing pressed.
func (c *Controller) AnyButtonCurrentlyPressed() bool {
	snap, err := c.io.ReadInputs()
	if err != nil {
		c.log.Error("input read failed", "err", err)
		return false
	}
	return snap&idleSnapshot != idleSnapshot
}

// EncoderButtonPressed reports the push button level (active low).
func (c *Controller) EncoderButtonPressed() bool {
	if c.pins.EncoderButton == nil {
		return false
	}
	level, err := c.pins.EncoderButton.Read()
	return err == nil && !level
}

// WaitUntilEncoderButtonReleased polls the push button until it reads
// released or ctx is done.
func (c *Controller) WaitUntilEncoderButtonReleased(ctx context.Context) {
	t := time.NewTicker(10 * time.Millisecond)
	defer t.Stop()
	for c.EncoderButtonPressed() {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Dispatched returns how many line actions have been dispatched.
func (c *Controller) Dispatched() uint64 { return c.dispatched.Load() }
