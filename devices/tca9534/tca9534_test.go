package tca9534

import (
	"errors"
	"testing"

	"tinygo.org/x/drivers/tester"
)

func TestConfigure(t *testing.T) {
	bus := tester.NewI2CBus(t)
	dev := bus.NewDevice(0x38)
	dev.Registers[RegPolarity] = 0xFF

	if err := New(bus, 0x38).Configure(); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if dev.Registers[RegConfig] != 0xFF {
		t.Fatalf("CONFIG = %#x, want 0xff", dev.Registers[RegConfig])
	}
	if dev.Registers[RegPolarity] != 0 {
		t.Fatalf("POLARITY = %#x, want 0", dev.Registers[RegPolarity])
	}
}

func TestReadInputs(t *testing.T) {
	bus := tester.NewI2CBus(t)
	dev := bus.NewDevice(0x39)
	dev.Registers[RegInput] = 0b1111_1011

	got, err := New(bus, 0x39).ReadInputs()
	if err != nil {
		t.Fatalf("ReadInputs: %v", err)
	}
	if got != 0b1111_1011 {
		t.Fatalf("ReadInputs() = %08b, want 11111011", got)
	}

	dev.Err = errors.New("nack")
	if _, err := New(bus, 0x39).ReadInputs(); err == nil {
		t.Fatal("ReadInputs with bus error: want error")
	}
}
