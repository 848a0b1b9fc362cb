package hal

import (
	"fmt"
	"sync"
)

// GPIOMode selects whether a pin is an input or output.
type GPIOMode uint8

const (
	GPIOModeInput GPIOMode = iota
	GPIOModeOutput
)

// GPIOPull selects the pull resistor configuration.
type GPIOPull uint8

const (
	GPIOPullNone GPIOPull = iota
	GPIOPullUp
	GPIOPullDown
)

// GPIOCaps declares what operations a pin supports.
type GPIOCaps uint8

const (
	GPIOCapInput GPIOCaps = 1 << iota
	GPIOCapOutput
	GPIOCapPullUp
	GPIOCapPullDown
	GPIOCapInterrupt
)

// PinEdge selects which level transitions raise an interrupt.
type PinEdge uint8

const (
	PinEdgeRising PinEdge = 1 << iota
	PinEdgeFalling

	PinEdgeBoth = PinEdgeRising | PinEdgeFalling
)

// GPIO provides access to general-purpose IO pins.
//
// Implementations may return nil if GPIO is unsupported.
type GPIO interface {
	PinCount() int
	Pin(id int) GPIOPin
}

// GPIOPin is a single digital IO pin.
type GPIOPin interface {
	Name() string
	Caps() GPIOCaps
	Configure(mode GPIOMode, pull GPIOPull) error
	Read() (level bool, err error)
	Write(level bool) error

	// SetInterrupt installs fn for the given edges; a nil fn removes it.
	// fn runs in interrupt context: it must not block, allocate or log.
	SetInterrupt(edge PinEdge, fn func(GPIOPin)) error
}

type nullGPIO struct{}

func (nullGPIO) PinCount() int      { return 0 }
func (nullGPIO) Pin(id int) GPIOPin { return nil }

type virtualGPIO struct {
	pins []*VirtualPin
}

func newVirtualGPIO(pins []*VirtualPin) GPIO {
	if len(pins) == 0 {
		return nullGPIO{}
	}
	return &virtualGPIO{pins: pins}
}

func (g *virtualGPIO) PinCount() int {
	if g == nil {
		return 0
	}
	return len(g.pins)
}

func (g *virtualGPIO) Pin(id int) GPIOPin {
	if g == nil || id < 0 || id >= len(g.pins) {
		return nil
	}
	return g.pins[id]
}

// VirtualPin is an in-memory pin. Its input level is set with Drive, which
// fires any installed interrupt handler the way a real edge would.
type VirtualPin struct {
	mu    sync.Mutex
	name  string
	caps  GPIOCaps
	mode  GPIOMode
	pull  GPIOPull
	level bool

	edge    PinEdge
	handler func(GPIOPin)
}

// NewVirtualPin returns a pin supporting every mode, pull and interrupts.
// The initial level is high, as if pulled up.
func NewVirtualPin(name string) *VirtualPin {
	return &VirtualPin{
		name:  name,
		caps:  GPIOCapInput | GPIOCapOutput | GPIOCapPullUp | GPIOCapPullDown | GPIOCapInterrupt,
		mode:  GPIOModeInput,
		pull:  GPIOPullNone,
		level: true,
	}
}

func (p *VirtualPin) Name() string   { return p.name }
func (p *VirtualPin) Caps() GPIOCaps { return p.caps }

func (p *VirtualPin) Configure(mode GPIOMode, pull GPIOPull) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch mode {
	case GPIOModeInput:
		if p.caps&GPIOCapInput == 0 {
			return fmt.Errorf("gpio: pin %s: input unsupported", p.name)
		}
	case GPIOModeOutput:
		if p.caps&GPIOCapOutput == 0 {
			return fmt.Errorf("gpio: pin %s: output unsupported", p.name)
		}
	default:
		return fmt.Errorf("gpio: pin %s: invalid mode", p.name)
	}

	switch pull {
	case GPIOPullNone:
	case GPIOPullUp:
		if p.caps&GPIOCapPullUp == 0 {
			return fmt.Errorf("gpio: pin %s: pull-up unsupported", p.name)
		}
	case GPIOPullDown:
		if p.caps&GPIOCapPullDown == 0 {
			return fmt.Errorf("gpio: pin %s: pull-down unsupported", p.name)
		}
	default:
		return fmt.Errorf("gpio: pin %s: invalid pull", p.name)
	}

	p.mode = mode
	p.pull = pull
	return nil
}

func (p *VirtualPin) Read() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level, nil
}

func (p *VirtualPin) Write(level bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode != GPIOModeOutput {
		return fmt.Errorf("gpio: pin %s: not in output mode", p.name)
	}
	p.level = level
	return nil
}

func (p *VirtualPin) SetInterrupt(edge PinEdge, fn func(GPIOPin)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.caps&GPIOCapInterrupt == 0 {
		return fmt.Errorf("gpio: pin %s: %w", p.name, ErrNotImplemented)
	}
	p.edge = edge
	p.handler = fn
	return nil
}

// Drive sets the externally applied level. A matching edge calls the
// interrupt handler synchronously, outside the pin lock.
func (p *VirtualPin) Drive(level bool) {
	p.mu.Lock()
	prev := p.level
	p.level = level
	fn := p.handler
	edge := p.edge
	p.mu.Unlock()

	if fn == nil || prev == level {
		return
	}
	if (level && edge&PinEdgeRising != 0) || (!level && edge&PinEdgeFalling != 0) {
		fn(p)
	}
}
