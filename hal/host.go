//go:build !tinygo

package hal

import (
	"fmt"
	"os"
	"sync"

	"tinygo.org/x/drivers"
)

// hostPinCount covers GPIO0..GPIO48.
const hostPinCount = 49

type hostHAL struct {
	logger *hostLogger
	gpio   *virtualGPIO
	sim    *Simulator
	fb     *hostFramebuffer
	t      *hostTime
}

// New returns a host HAL backed by a board simulator.
func New(cfg SimConfig) HAL {
	return newHost(cfg)
}

func newHost(cfg SimConfig) *hostHAL {
	pins := make([]*VirtualPin, hostPinCount)
	for i := range pins {
		pins[i] = NewVirtualPin(fmt.Sprintf("GPIO%d", i))
	}
	gpio := &virtualGPIO{pins: pins}
	return &hostHAL{
		logger: &hostLogger{w: os.Stdout},
		gpio:   gpio,
		sim:    newSimulator(cfg, gpio),
		fb:     newHostFramebuffer(320, 160),
		t:      newHostTime(),
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) GPIO() GPIO       { return h.gpio }
func (h *hostHAL) I2C() drivers.I2C { return h.sim }
func (h *hostHAL) Display() Display { return hostDisplay{fb: h.fb} }
func (h *hostHAL) Time() Time       { return h.t }

// SimulatorOf returns the board simulator behind a host HAL, or nil.
func SimulatorOf(h HAL) *Simulator {
	if hh, ok := h.(*hostHAL); ok {
		return hh.sim
	}
	return nil
}

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostLogger struct {
	mu sync.Mutex
	w  *os.File
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}
