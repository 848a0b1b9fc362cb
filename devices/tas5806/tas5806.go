// Package tas5806 drives the TI TAS5806 class-D audio amplifier.
package tas5806

import (
	"fmt"
	"sync"

	"tinygo.org/x/drivers"
)

// Address is the default bus address.
const Address = 0x2C

// Registers.
const (
	RegResetCtrl   = 0x01
	RegDeviceCtrl1 = 0x02
	RegDeviceCtrl2 = 0x03
	RegSigChCtrl   = 0x28
	RegSapCtrl1    = 0x33
	RegBckMon      = 0x38
	RegClkDetStat  = 0x39
	RegDigVolCtl   = 0x4C
	RegAutoMute    = 0x50
	RegAGain       = 0x54
	RegPowerState  = 0x68
	RegChanFault   = 0x70
	RegGlobalFault = 0x71
)

// DEVICE_CTRL_2 control states.
const (
	StateDeepSleep = 0x00
	StateSleep     = 0x01
	StateHiZ       = 0x02
	StatePlay      = 0x03

	stateMask = 0x03
	muteBit   = 0x08
)

const (
	resetModuleAndRegisters = 0b0001_0001
	sigChAuto32FS           = 0b0011_0000
	againMinus6dB           = 0b0000_1100
)

// MaxVolume is the loudest DIG_VOL_CTL setting expressed as a volume.
const MaxVolume = 254

// Device is the amplifier on the bus. It shadows DEVICE_CTRL_2 so mute and
// state changes do not clobber each other.
type Device struct {
	mu      sync.Mutex
	bus     drivers.I2C
	Address uint8
	ctrl2   uint8
}

// New returns a device at addr on bus.
func New(bus drivers.I2C, addr uint8) *Device {
	return &Device{bus: bus, Address: addr}
}

func (d *Device) write(reg, v uint8) error {
	if err := d.bus.Tx(uint16(d.Address), []byte{reg, v}, nil); err != nil {
		return fmt.Errorf("tas5806: write %#02x: %w", reg, err)
	}
	return nil
}

// Reset resets the DSP module and all registers.
func (d *Device) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ctrl2 = StateDeepSleep
	return d.write(RegResetCtrl, resetModuleAndRegisters)
}

// SetParamsAndHighZ applies the fixed board parameters and parks the output
// stage in Hi-Z: auto sample rate at 32FS and -6dB analog gain.
func (d *Device) SetParamsAndHighZ() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.setStateLocked(StateHiZ); err != nil {
		return err
	}
	if err := d.write(RegSigChCtrl, sigChAuto32FS); err != nil {
		return err
	}
	return d.write(RegAGain, againMinus6dB)
}

// SetModePlay starts the output stage.
func (d *Device) SetModePlay() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setStateLocked(StatePlay)
}

// SetModeDeepSleep powers the output stage down.
func (d *Device) SetModeDeepSleep() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setStateLocked(StateDeepSleep)
}

func (d *Device) setStateLocked(state uint8) error {
	v := d.ctrl2&^stateMask | state&stateMask
	if err := d.write(RegDeviceCtrl2, v); err != nil {
		return err
	}
	d.ctrl2 = v
	return nil
}

// SetMuted sets or clears the mute bit.
func (d *Device) SetMuted(muted bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := d.ctrl2 &^ muteBit
	if muted {
		v |= muteBit
	}
	if err := d.write(RegDeviceCtrl2, v); err != nil {
		return err
	}
	d.ctrl2 = v
	return nil
}

// SetVolume maps 0..254 onto DIG_VOL_CTL, where 0 is the loudest register
// value. Volumes above MaxVolume are clamped.
func (d *Device) SetVolume(volume uint8) error {
	if volume > MaxVolume {
		volume = MaxVolume
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(RegDigVolCtl, MaxVolume-volume)
}

// PowerState reads the current power state register.
func (d *Device) PowerState() (uint8, error) {
	var buf [1]byte
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.bus.Tx(uint16(d.Address), []byte{RegPowerState}, buf[:]); err != nil {
		return 0, fmt.Errorf("tas5806: power state: %w", err)
	}
	return buf[0], nil
}

// Faults reads the channel and global fault registers.
func (d *Device) Faults() (channel, global uint8, err error) {
	var buf [2]byte
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.bus.Tx(uint16(d.Address), []byte{RegChanFault}, buf[:]); err != nil {
		return 0, 0, fmt.Errorf("tas5806: faults: %w", err)
	}
	return buf[0], buf[1], nil
}
