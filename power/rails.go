package power

import (
	"errors"
	"fmt"
	"log/slog"

	"baer/hal"
)

// Rails switches the supply rails. A nil pin is skipped.
type Rails struct {
	// PowerSave is the 3V3 regulator power-save input, active low.
	PowerSave hal.GPIOPin
	// Audio enables the amplifier high-voltage rail.
	Audio hal.GPIOPin
	// Peripheral enables the peripheral VCC rail.
	Peripheral hal.GPIOPin

	Log *slog.Logger
}

// Configure makes every rail pin an output.
func (r Rails) Configure() error {
	var errs []error
	for _, p := range []hal.GPIOPin{r.PowerSave, r.Audio, r.Peripheral} {
		if p == nil {
			continue
		}
		if err := p.Configure(hal.GPIOModeOutput, hal.GPIOPullNone); err != nil {
			errs = append(errs, fmt.Errorf("power: configure %s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (r Rails) set(p hal.GPIOPin, level bool) {
	if p == nil {
		return
	}
	if err := p.Write(level); err != nil && r.Log != nil {
		r.Log.Error("rail switch failed", "module", "POWER", "pin", p.Name(), "level", level, "err", err)
	}
}

// DisableVCCPowerSave runs the 3V3 regulator in full PWM mode.
func (r Rails) DisableVCCPowerSave() { r.set(r.PowerSave, true) }

// EnableVCCPowerSave lets the 3V3 regulator skip pulses at light load.
func (r Rails) EnableVCCPowerSave() { r.set(r.PowerSave, false) }

func (r Rails) EnableAudioVoltage()  { r.set(r.Audio, true) }
func (r Rails) DisableAudioVoltage() { r.set(r.Audio, false) }

func (r Rails) EnablePeripheralVoltage()  { r.set(r.Peripheral, true) }
func (r Rails) DisablePeripheralVoltage() { r.set(r.Peripheral, false) }
