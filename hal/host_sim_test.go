//go:build !tinygo

package hal

import (
	"math"
	"testing"

	"baer/devices/max17048"
	"baer/devices/tca9534"
	"baer/devices/tlc59108"
)

func testPins() Pins {
	return Pins{SDA: 10, SCL: 11, InputInt: 7, EncoderA: 4, EncoderB: 5, EncoderButton: 6, ChargeStatus: 47}
}

func TestSimulatorButtonsRaiseInterrupt(t *testing.T) {
	h := newHost(SimConfig{Pins: testPins(), BatteryVolts: 3.8, BatteryPercent: 70})
	sim := SimulatorOf(h)

	var irqs int
	h.GPIO().Pin(7).SetInterrupt(PinEdgeFalling, func(GPIOPin) { irqs++ })

	sim.SetLine(10, true)
	sim.SetLine(10, true)
	if irqs != 1 {
		t.Fatalf("interrupts = %d, want 1", irqs)
	}
	if !sim.LinePressed(10) {
		t.Fatal("LinePressed(10) = false")
	}

	in, err := tca9534.New(h.I2C(), 0x39).ReadInputs()
	if err != nil {
		t.Fatalf("ReadInputs: %v", err)
	}
	if in != 0b1111_1011 {
		t.Fatalf("expander 2 inputs = %08b, want 11111011", in)
	}

	sim.SetLine(10, false)
	if irqs != 2 || sim.LinePressed(10) {
		t.Fatalf("release: interrupts=%d pressed=%v", irqs, sim.LinePressed(10))
	}
}

func TestSimulatorMissingDeviceIsError(t *testing.T) {
	h := newHost(SimConfig{Pins: testPins()})

	if err := h.I2C().Tx(0x50, []byte{0}, make([]byte, 1)); err == nil {
		t.Fatal("Tx to empty address: want error")
	}
	if err := h.I2C().Tx(0x38, nil, make([]byte, 1)); err == nil {
		t.Fatal("Tx without register byte: want error")
	}
}

func TestSimulatorEncoderPhases(t *testing.T) {
	h := newHost(SimConfig{Pins: testPins()})
	sim := SimulatorOf(h)
	a, b := h.GPIO().Pin(4), h.GPIO().Pin(5)

	var ups, downs int
	a.SetInterrupt(PinEdgeBoth, func(GPIOPin) {
		la, _ := a.Read()
		lb, _ := b.Read()
		if la != lb {
			ups++
		} else {
			downs++
		}
	})

	sim.TurnEncoder(true)
	sim.TurnEncoder(true)
	sim.TurnEncoder(false)
	if ups != 2 || downs != 1 {
		t.Fatalf("ups=%d downs=%d, want 2 1", ups, downs)
	}
}

func TestSimulatorBatteryAndLEDs(t *testing.T) {
	h := newHost(SimConfig{Pins: testPins(), BatteryVolts: 3.7, BatteryPercent: 42.5, Charging: true})
	sim := SimulatorOf(h)

	v, err := max17048.New(h.I2C()).Voltage()
	if err != nil {
		t.Fatalf("Voltage: %v", err)
	}
	if math.Abs(float64(v)-3.7) > 0.001 {
		t.Fatalf("Voltage() = %v, want 3.7", v)
	}
	if level, _ := h.GPIO().Pin(47).Read(); level {
		t.Fatal("charge status should be low while charging")
	}

	led := tlc59108.New(h.I2C(), 0x41)
	var duty [tlc59108.NumChannels]uint8
	duty[2] = 0x80
	if err := led.SetAllBrightness(duty); err != nil {
		t.Fatalf("SetAllBrightness: %v", err)
	}
	if got := sim.LEDLevels()[10]; got != 0x80 {
		t.Fatalf("LEDLevels()[10] = %#x, want 0x80", got)
	}
}
