//go:build tinygo && baremetal

package hal

import (
	"machine"

	"tinygo.org/x/drivers"
)

type tinyGoHAL struct {
	logger *serialLogger
	gpio   *machineGPIO
	i2c    *machine.I2C
	t      *tinyGoTime
}

// New returns the bare-metal HAL. The bus runs at 400kHz on pins.SDA and
// pins.SCL; the log goes to the default serial port.
func New(pins Pins) HAL {
	i2c := machine.I2C0
	i2c.Configure(machine.I2CConfig{
		SDA:       machine.Pin(pins.SDA),
		SCL:       machine.Pin(pins.SCL),
		Frequency: 400 * machine.KHz,
	})

	return &tinyGoHAL{
		logger: &serialLogger{},
		gpio:   &machineGPIO{},
		i2c:    i2c,
		t:      newTinyGoTime(),
	}
}

func (h *tinyGoHAL) Logger() Logger   { return h.logger }
func (h *tinyGoHAL) GPIO() GPIO       { return h.gpio }
func (h *tinyGoHAL) I2C() drivers.I2C { return h.i2c }
func (h *tinyGoHAL) Display() Display { return nil }
func (h *tinyGoHAL) Time() Time       { return h.t }
