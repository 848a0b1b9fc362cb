//go:build tinygo && baremetal

package hal

import (
	"machine"
	"strconv"
	"time"
)

const machinePinCount = 49

type tinyGoTime struct {
	ch  chan uint64
	seq uint64
}

func newTinyGoTime() *tinyGoTime {
	t := &tinyGoTime{ch: make(chan uint64, 16)}
	go func() {
		ticker := time.NewTicker(1 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			t.seq++
			select {
			case t.ch <- t.seq:
			default:
			}
		}
	}()
	return t
}

func (t *tinyGoTime) Ticks() <-chan uint64 { return t.ch }

type serialLogger struct{}

func (l *serialLogger) WriteLineString(s string) {
	for i := 0; i < len(s); i++ {
		machine.Serial.WriteByte(s[i])
	}
	machine.Serial.WriteByte('\r')
	machine.Serial.WriteByte('\n')
}

func (l *serialLogger) WriteLineBytes(b []byte) {
	for i := 0; i < len(b); i++ {
		machine.Serial.WriteByte(b[i])
	}
	machine.Serial.WriteByte('\r')
	machine.Serial.WriteByte('\n')
}

type machineGPIO struct {
	pins [machinePinCount]*machinePin
}

func (g *machineGPIO) PinCount() int { return machinePinCount }

func (g *machineGPIO) Pin(id int) GPIOPin {
	if id < 0 || id >= machinePinCount {
		return nil
	}
	if g.pins[id] == nil {
		g.pins[id] = &machinePin{pin: machine.Pin(id), name: "GPIO" + strconv.Itoa(id)}
	}
	return g.pins[id]
}

type machinePin struct {
	pin  machine.Pin
	name string
}

func (p *machinePin) Name() string { return p.name }

func (p *machinePin) Caps() GPIOCaps {
	return GPIOCapInput | GPIOCapOutput | GPIOCapPullUp | GPIOCapPullDown | GPIOCapInterrupt
}

func (p *machinePin) Configure(mode GPIOMode, pull GPIOPull) error {
	var cfg machine.PinConfig
	switch {
	case mode == GPIOModeOutput:
		cfg.Mode = machine.PinOutput
	case pull == GPIOPullUp:
		cfg.Mode = machine.PinInputPullup
	case pull == GPIOPullDown:
		cfg.Mode = machine.PinInputPulldown
	default:
		cfg.Mode = machine.PinInput
	}
	p.pin.Configure(cfg)
	return nil
}

func (p *machinePin) Read() (bool, error) { return p.pin.Get(), nil }

func (p *machinePin) Write(level bool) error {
	p.pin.Set(level)
	return nil
}

func (p *machinePin) SetInterrupt(edge PinEdge, fn func(GPIOPin)) error {
	if fn == nil {
		return p.pin.SetInterrupt(0, nil)
	}
	var change machine.PinChange
	switch edge {
	case PinEdgeRising:
		change = machine.PinRising
	case PinEdgeFalling:
		change = machine.PinFalling
	default:
		change = machine.PinToggle
	}
	return p.pin.SetInterrupt(change, func(machine.Pin) { fn(p) })
}
