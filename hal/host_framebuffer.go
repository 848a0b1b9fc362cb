//go:build !tinygo

package hal

import (
	"encoding/binary"
	"sync"
)

type hostFramebuffer struct {
	mu     sync.Mutex
	width  int
	height int
	stride int
	buf    []byte
}

// newHostFramebuffer returns a little-endian RGB565 status panel.
func newHostFramebuffer(width, height int) *hostFramebuffer {
	f := &hostFramebuffer{width: width, height: height, stride: 2 * width}
	f.buf = make([]byte, f.stride*height)
	return f
}

func (f *hostFramebuffer) Width() int          { return f.width }
func (f *hostFramebuffer) Height() int         { return f.height }
func (f *hostFramebuffer) Format() PixelFormat { return PixelFormatRGB565 }
func (f *hostFramebuffer) StrideBytes() int    { return f.stride }
func (f *hostFramebuffer) Buffer() []byte      { return f.buf }
func (f *hostFramebuffer) Present() error      { return nil }

// ClearRGB fills the panel with one color.
func (f *hostFramebuffer) ClearRGB(r, g, b uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()
	px := RGB565(r, g, b)
	for i := 0; i+1 < len(f.buf); i += 2 {
		binary.LittleEndian.PutUint16(f.buf[i:], px)
	}
}

// snapshotRGB565 copies the panel for the window, which renders it while
// the firmware keeps drawing.
func (f *hostFramebuffer) snapshotRGB565(dst []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy(dst, f.buf)
}
