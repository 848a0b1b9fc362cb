// Package tlc59108 drives the TI TLC59108 8-channel constant-current LED sink.
package tlc59108

import (
	"fmt"

	"tinygo.org/x/drivers"
)

// NumChannels is the number of LED outputs per chip.
const NumChannels = 8

// Registers.
const (
	RegMode1   = 0x00
	RegMode2   = 0x01
	RegPWM0    = 0x02
	RegGrpPWM  = 0x0A
	RegGrpFreq = 0x0B
	RegLEDOut0 = 0x0C
	RegLEDOut1 = 0x0D
)

// Auto-increment flags OR'ed into the control register address.
const (
	AutoIncrementAll = 0x80
	AutoIncrementInd = 0xA0
)

// LEDOUT driver states, two bits per channel.
const (
	LEDOff         = 0x0
	LEDOn          = 0x1
	LEDPWM         = 0x2
	LEDPWMGroup    = 0x3
	ledOutAllPWM   = LEDPWM | LEDPWM<<2 | LEDPWM<<4 | LEDPWM<<6
	mode1OscOn     = 0x00
	mode2DimGroups = 0x00
)

// Device is one TLC59108 on the bus. It is a small value; use On to
// address the same chip through a different bus handle.
type Device struct {
	bus     drivers.I2C
	Address uint8
}

// New returns a device at addr on bus.
func New(bus drivers.I2C, addr uint8) Device {
	return Device{bus: bus, Address: addr}
}

// On returns a copy of d that talks through bus.
func (d Device) On(bus drivers.I2C) Device {
	d.bus = bus
	return d
}

// Configure wakes the oscillator and puts every channel under individual
// PWM control.
func (d Device) Configure() error {
	if err := d.bus.Tx(uint16(d.Address), []byte{RegMode1, mode1OscOn}, nil); err != nil {
		return fmt.Errorf("tlc59108 %#x: mode1: %w", d.Address, err)
	}
	if err := d.bus.Tx(uint16(d.Address), []byte{RegMode2, mode2DimGroups}, nil); err != nil {
		return fmt.Errorf("tlc59108 %#x: mode2: %w", d.Address, err)
	}
	w := []byte{AutoIncrementAll | RegLEDOut0, ledOutAllPWM, ledOutAllPWM}
	if err := d.bus.Tx(uint16(d.Address), w, nil); err != nil {
		return fmt.Errorf("tlc59108 %#x: ledout: %w", d.Address, err)
	}
	return nil
}

// SetBrightness sets one channel's PWM duty.
func (d Device) SetBrightness(ch int, v uint8) error {
	if ch < 0 || ch >= NumChannels {
		return fmt.Errorf("tlc59108 %#x: channel %d out of range", d.Address, ch)
	}
	return d.bus.Tx(uint16(d.Address), []byte{RegPWM0 + uint8(ch), v}, nil)
}

// SetAllBrightness writes all eight PWM registers in one transaction.
func (d Device) SetAllBrightness(v [NumChannels]uint8) error {
	var w [NumChannels + 1]byte
	w[0] = AutoIncrementInd | RegPWM0
	copy(w[1:], v[:])
	return d.bus.Tx(uint16(d.Address), w[:], nil)
}

// Brightness reads back all eight PWM registers.
func (d Device) Brightness() ([NumChannels]uint8, error) {
	var v [NumChannels]uint8
	err := d.bus.Tx(uint16(d.Address), []byte{AutoIncrementInd | RegPWM0}, v[:])
	return v, err
}
