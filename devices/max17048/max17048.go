// Package max17048 reads the Maxim MAX17048 single-cell fuel gauge.
package max17048

import (
	"encoding/binary"
	"fmt"

	"tinygo.org/x/drivers"
)

// Address is the fixed bus address.
const Address = 0x36

// Registers. All are 16 bits, big endian.
const (
	RegVCell   = 0x02
	RegSOC     = 0x04
	RegMode    = 0x06
	RegVersion = 0x08
	RegHibRT   = 0x0A
	RegConfig  = 0x0C
	RegCommand = 0xFE
)

const (
	// VoltsPerLSB is the VCELL resolution.
	VoltsPerLSB = 78.125e-6

	modeQuickStart = 0x4000
	modeEnSleep    = 0x2000
	configSleep    = 0x0080
)

// Device is the gauge on the bus.
type Device struct {
	bus     drivers.I2C
	Address uint8
}

// New returns a gauge at the fixed address.
func New(bus drivers.I2C) Device {
	return Device{bus: bus, Address: Address}
}

func (d Device) read16(reg uint8) (uint16, error) {
	var buf [2]byte
	if err := d.bus.Tx(uint16(d.Address), []byte{reg}, buf[:]); err != nil {
		return 0, fmt.Errorf("max17048: read %#02x: %w", reg, err)
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func (d Device) write16(reg uint8, v uint16) error {
	w := []byte{reg, byte(v >> 8), byte(v)}
	if err := d.bus.Tx(uint16(d.Address), w, nil); err != nil {
		return fmt.Errorf("max17048: write %#02x: %w", reg, err)
	}
	return nil
}

// Voltage returns the cell voltage in volts.
func (d Device) Voltage() (float32, error) {
	raw, err := d.read16(RegVCell)
	if err != nil {
		return 0, err
	}
	return float32(float64(raw) * VoltsPerLSB), nil
}

// Percent returns the state of charge in percent.
func (d Device) Percent() (float32, error) {
	raw, err := d.read16(RegSOC)
	if err != nil {
		return 0, err
	}
	return float32(raw>>8) + float32(raw&0xFF)/256, nil
}

// Version returns the silicon version.
func (d Device) Version() (uint16, error) {
	return d.read16(RegVersion)
}

// QuickStart restarts the fuel-gauge calculations, as if the cell had just
// been inserted.
func (d Device) QuickStart() error {
	return d.write16(RegMode, modeQuickStart)
}

// Sleep enables sleep mode and puts the gauge to sleep.
func (d Device) Sleep() error {
	if err := d.write16(RegMode, modeEnSleep); err != nil {
		return err
	}
	cfg, err := d.read16(RegConfig)
	if err != nil {
		return err
	}
	return d.write16(RegConfig, cfg|configSleep)
}

// Wake clears the sleep bit.
func (d Device) Wake() error {
	cfg, err := d.read16(RegConfig)
	if err != nil {
		return err
	}
	return d.write16(RegConfig, cfg&^configSleep)
}
