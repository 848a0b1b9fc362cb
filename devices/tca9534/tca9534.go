// Package tca9534 drives the TI TCA9534 8-bit I/O expander.
package tca9534

import (
	"fmt"

	"tinygo.org/x/drivers"
)

// Registers.
const (
	RegInput    = 0x00
	RegOutput   = 0x01
	RegPolarity = 0x02
	RegConfig   = 0x03
)

// Device is one TCA9534 on the bus.
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

// Configure makes all eight pins non-inverted inputs.
func (d Device) Configure() error {
	if err := d.bus.Tx(uint16(d.Address), []byte{RegPolarity, 0x00}, nil); err != nil {
		return fmt.Errorf("tca9534 %#x: polarity: %w", d.Address, err)
	}
	if err := d.bus.Tx(uint16(d.Address), []byte{RegConfig, 0xFF}, nil); err != nil {
		return fmt.Errorf("tca9534 %#x: config: %w", d.Address, err)
	}
	return nil
}

// ReadInputs returns the current pin levels. Reading also releases the
// chip's interrupt output.
func (d Device) ReadInputs() (uint8, error) {
	var buf [1]byte
	if err := d.bus.Tx(uint16(d.Address), []byte{RegInput}, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}
