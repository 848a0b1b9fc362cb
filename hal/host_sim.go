//go:build !tinygo

package hal

import (
	"fmt"
	"sync"

	"baer/devices/max17048"
	"baer/devices/tas5806"
	"baer/devices/tca9534"
	"baer/devices/tlc59108"

	"tinygo.org/x/drivers/tester"
)

// Simulated board layout.
const (
	SimGroups        = 3
	SimLinesPerGroup = 8
	SimLines         = SimGroups * SimLinesPerGroup

	simLEDBase      = 0x40
	simExpanderBase = 0x38
	simGaugeVersion = 0x0012
)

// SimConfig describes the simulated board.
type SimConfig struct {
	Pins           Pins
	BatteryVolts   float32
	BatteryPercent float32
	Charging       bool
}

type simFault string

type simFailer struct{}

func (simFailer) Fatalf(f string, a ...interface{}) {
	panic(simFault(fmt.Sprintf(f, a...)))
}

// Simulator stands in for the board peripherals on the host: three LED
// drivers, three input expanders, the amplifier and the fuel gauge on a
// mock bus, plus the pins they signal on.
type Simulator struct {
	mu     sync.Mutex
	bus    *tester.I2CBus
	leds   [SimGroups]*tester.I2CDevice8
	inputs [SimGroups]*tester.I2CDevice8
	codec  *tester.I2CDevice8
	gauge  *tester.I2CDevice8

	intPin  *VirtualPin
	encA    *VirtualPin
	encB    *VirtualPin
	encBtn  *VirtualPin
	charge  *VirtualPin
	charges bool
	volts   float32
	percent float32
}

func newSimulator(cfg SimConfig, gpio *virtualGPIO) *Simulator {
	s := &Simulator{bus: tester.NewI2CBus(simFailer{})}
	for i := 0; i < SimGroups; i++ {
		s.leds[i] = s.bus.NewDevice(uint8(simLEDBase + i))
		s.inputs[i] = s.bus.NewDevice(uint8(simExpanderBase + i))
		s.inputs[i].Registers[tca9534.RegInput] = 0xFF
	}
	s.codec = s.bus.NewDevice(tas5806.Address)
	s.gauge = s.bus.NewDevice(max17048.Address)
	s.gauge.Registers[max17048.RegVersion] = simGaugeVersion >> 8
	s.gauge.Registers[max17048.RegVersion+1] = simGaugeVersion & 0xFF

	pin := func(id int) *VirtualPin {
		if id < 0 || id >= len(gpio.pins) {
			return nil
		}
		return gpio.pins[id]
	}
	s.intPin = pin(cfg.Pins.InputInt)
	s.encA = pin(cfg.Pins.EncoderA)
	s.encB = pin(cfg.Pins.EncoderB)
	s.encBtn = pin(cfg.Pins.EncoderButton)
	s.charge = pin(cfg.Pins.ChargeStatus)

	s.SetBattery(cfg.BatteryVolts, cfg.BatteryPercent)
	s.SetCharging(cfg.Charging)
	return s
}

// Tx implements drivers.I2C. Addressing a missing device or misusing a
// register returns an error instead of aborting.
func (s *Simulator) Tx(addr uint16, w, r []byte) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if v := recover(); v != nil {
			f, ok := v.(simFault)
			if !ok {
				panic(v)
			}
			err = fmt.Errorf("i2c %#02x: %s", addr, string(f))
		}
	}()
	return s.bus.Tx(addr, w, r)
}

// SetLine presses or releases one button line and raises the expander
// interrupt if the level changed.
func (s *Simulator) SetLine(line int, pressed bool) {
	if line < 0 || line >= SimLines {
		return
	}
	s.mu.Lock()
	reg := &s.inputs[line/SimLinesPerGroup].Registers[tca9534.RegInput]
	prev := *reg
	bit := uint8(1) << (line % SimLinesPerGroup)
	if pressed {
		*reg &^= bit
	} else {
		*reg |= bit
	}
	changed := *reg != prev
	s.mu.Unlock()

	if changed && s.intPin != nil {
		s.intPin.Drive(false)
		s.intPin.Drive(true)
	}
}

// LinePressed reports whether a line is currently held down.
func (s *Simulator) LinePressed(line int) bool {
	if line < 0 || line >= SimLines {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	reg := s.inputs[line/SimLinesPerGroup].Registers[tca9534.RegInput]
	return reg&(1<<(line%SimLinesPerGroup)) == 0
}

// TurnEncoder moves the encoder one detent.
func (s *Simulator) TurnEncoder(up bool) {
	if s.encA == nil || s.encB == nil {
		return
	}
	a, _ := s.encA.Read()
	next := !a
	// The decoder treats unequal phases after the A edge as "up".
	s.encB.Drive(next != up)
	s.encA.Drive(next)
}

// SetEncoderButton presses or releases the encoder push button.
func (s *Simulator) SetEncoderButton(pressed bool) {
	if s.encBtn != nil {
		s.encBtn.Drive(!pressed)
	}
}

// SetCharging drives the active-low charger status line.
func (s *Simulator) SetCharging(charging bool) {
	s.mu.Lock()
	s.charges = charging
	s.mu.Unlock()
	if s.charge != nil {
		s.charge.Drive(!charging)
	}
}

// Charging reports the simulated charger state.
func (s *Simulator) Charging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.charges
}

// SetBattery loads the gauge registers.
func (s *Simulator) SetBattery(volts, percent float32) {
	if volts < 0 {
		volts = 0
	}
	if percent < 0 {
		percent = 0
	}
	raw := uint16(float64(volts) / max17048.VoltsPerLSB)
	soc := uint16(percent * 256)
	if percent >= 256 {
		soc = 0xFFFF
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.volts = volts
	s.percent = percent
	s.gauge.Registers[max17048.RegVCell] = uint8(raw >> 8)
	s.gauge.Registers[max17048.RegVCell+1] = uint8(raw)
	s.gauge.Registers[max17048.RegSOC] = uint8(soc >> 8)
	s.gauge.Registers[max17048.RegSOC+1] = uint8(soc)
}

// Battery returns the simulated cell voltage and charge.
func (s *Simulator) Battery() (volts, percent float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volts, s.percent
}

// LEDLevels returns the PWM duty of every LED, line order.
func (s *Simulator) LEDLevels() [SimLines]uint8 {
	var out [SimLines]uint8
	s.mu.Lock()
	defer s.mu.Unlock()
	base := tlc59108.AutoIncrementInd | tlc59108.RegPWM0
	for g, dev := range s.leds {
		copy(out[g*SimLinesPerGroup:(g+1)*SimLinesPerGroup], dev.Registers[base:base+SimLinesPerGroup])
	}
	return out
}

// Amplifier returns the amplifier control register and the volume it was
// last set to.
func (s *Simulator) Amplifier() (ctrl2 uint8, volume uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codec.Registers[tas5806.RegDeviceCtrl2], tas5806.MaxVolume - s.codec.Registers[tas5806.RegDigVolCtl]
}
