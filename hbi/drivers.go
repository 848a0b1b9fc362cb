package hbi

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"baer/bus"
	"baer/devices/tca9534"
	"baer/devices/tlc59108"
	"baer/hal"

	"tinygo.org/x/drivers"
)

// Bus addresses of the three LED drivers and the three input expanders.
const (
	LEDDriverBase = 0x40
	ExpanderBase  = 0x38
)

const groups = Lines / LinesPerGroup

// idleSnapshot is the raw input level with nothing pressed (pull-ups).
const idleSnapshot = 1<<Lines - 1

// DriverSet is the LED drivers and input expanders behind one bus arbiter.
type DriverSet struct {
	arb        *bus.Arbiter
	leds       [groups]tlc59108.Device
	inputs     [groups]tca9534.Device
	reset      hal.GPIOPin
	brightness uint8
	log        *slog.Logger

	written [groups]uint8
	valid   [groups]bool
}

// NewDriverSet returns the driver set on arb. reset is the shared LED
// driver reset line and may be nil.
func NewDriverSet(arb *bus.Arbiter, reset hal.GPIOPin, brightness uint8, log *slog.Logger) *DriverSet {
	if log == nil {
		log = slog.Default()
	}
	d := &DriverSet{arb: arb, reset: reset, brightness: brightness, log: log}
	for g := 0; g < groups; g++ {
		d.leds[g] = tlc59108.New(arb, uint8(LEDDriverBase+g))
		d.inputs[g] = tca9534.New(arb, uint8(ExpanderBase+g))
	}
	return d
}

// Initialize pulses the LED driver reset line and configures every chip.
// All chips are attempted; the errors are joined.
func (d *DriverSet) Initialize() error {
	if d.reset != nil {
		if err := d.reset.Configure(hal.GPIOModeOutput, hal.GPIOPullNone); err != nil {
			return fmt.Errorf("hbi: led reset pin: %w", err)
		}
		if err := d.reset.Write(false); err != nil {
			return fmt.Errorf("hbi: led reset pin low: %w", err)
		}
		time.Sleep(time.Millisecond)
		if err := d.reset.Write(true); err != nil {
			return fmt.Errorf("hbi: led reset pin high: %w", err)
		}
		time.Sleep(time.Millisecond)
	}

	var errs []error
	for g := range d.leds {
		if err := d.leds[g].Configure(); err != nil {
			errs = append(errs, err)
		}
		if err := d.inputs[g].Configure(); err != nil {
			errs = append(errs, err)
		}
		d.valid[g] = false
	}
	return errors.Join(errs...)
}

// ReadInputs reads all three expanders in one bus transaction and returns
// the 24-bit raw level snapshot. A released line reads 1.
func (d *DriverSet) ReadInputs() (uint32, error) {
	var snap uint32
	err := d.arb.Do(func(raw drivers.I2C) error {
		for g := range d.inputs {
			v, err := d.inputs[g].On(raw).ReadInputs()
			if err != nil {
				return fmt.Errorf("hbi: expander %#x: %w", d.inputs[g].Address, err)
			}
			snap |= uint32(v) << (g * LinesPerGroup)
		}
		return nil
	})
	return snap, err
}

// WriteMask lights the lines set in mask. Drivers whose eight bits did not
// change since their last successful write are skipped.
func (d *DriverSet) WriteMask(mask uint32) error {
	var errs []error
	for g := range d.leds {
		bits := uint8(mask >> (g * LinesPerGroup))
		if d.valid[g] && d.written[g] == bits {
			continue
		}
		var duty [tlc59108.NumChannels]uint8
		for ch := range duty {
			if bits&(1<<ch) != 0 {
				duty[ch] = d.brightness
			}
		}
		if err := d.leds[g].SetAllBrightness(duty); err != nil {
			d.valid[g] = false
			errs = append(errs, fmt.Errorf("hbi: led driver %#x: %w", d.leds[g].Address, err))
			continue
		}
		d.written[g] = bits
		d.valid[g] = true
	}
	return errors.Join(errs...)
}

// SetAll turns every LED on or off.
func (d *DriverSet) SetAll(on bool) error {
	if on {
		return d.WriteMask(idleSnapshot)
	}
	return d.WriteMask(0)
}
