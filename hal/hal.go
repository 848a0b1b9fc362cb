package hal

import (
	"errors"

	"tinygo.org/x/drivers"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var ErrNotImplemented = errors.New("not implemented")

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// Time provides a base tick stream.
//
// The tick duration is 1ms on every backend.
type Time interface {
	Ticks() <-chan uint64
}

// Pins names the board GPIO numbers wired to the peripherals the HAL knows
// about. Negative values mean "not connected".
type Pins struct {
	SDA           int
	SCL           int
	InputInt      int
	EncoderA      int
	EncoderB      int
	EncoderButton int
	ChargeStatus  int
}

// HAL provides the only contact point between the firmware and the outside world.
type HAL interface {
	Logger() Logger
	GPIO() GPIO
	// I2C returns the shared peripheral bus. Callers must serialize access.
	I2C() drivers.I2C
	// Display returns nil when the target has no screen.
	Display() Display
	Time() Time
}
