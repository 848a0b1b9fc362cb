package app

import (
	"image/color"

	"baer/hal"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

var (
	colorBG    = color.RGBA{R: 0x10, G: 0x0c, B: 0x08, A: 0xff}
	colorFG    = color.RGBA{R: 0xf0, G: 0xe6, B: 0xd2, A: 0xff}
	colorDim   = color.RGBA{R: 0x8a, G: 0x80, B: 0x70, A: 0xff}
	colorAlert = color.RGBA{R: 0xff, G: 0x55, B: 0x44, A: 0xff}
	colorOK    = color.RGBA{R: 0x66, G: 0xd0, B: 0x6a, A: 0xff}
)

var panelFont = &proggy.TinySZ8pt7b

const (
	lineHeight = 12
	lineOffset = 9
)

// fbDisplay adapts a HAL framebuffer to the tinyfont drawing interface.
type fbDisplay struct {
	fb hal.Framebuffer
}

func (d fbDisplay) Size() (x, y int16) {
	if d.fb == nil {
		return 0, 0
	}
	return int16(d.fb.Width()), int16(d.fb.Height())
}

func (d fbDisplay) SetPixel(x, y int16, c color.RGBA) {
	if d.fb == nil || d.fb.Format() != hal.PixelFormatRGB565 {
		return
	}
	buf := d.fb.Buffer()
	if buf == nil {
		return
	}

	ix, iy := int(x), int(y)
	if ix < 0 || ix >= d.fb.Width() || iy < 0 || iy >= d.fb.Height() {
		return
	}
	pixel := hal.RGB565(c.R, c.G, c.B)
	off := iy*d.fb.StrideBytes() + ix*2
	if off < 0 || off+1 >= len(buf) {
		return
	}
	buf[off] = byte(pixel)
	buf[off+1] = byte(pixel >> 8)
}

func (d fbDisplay) Display() error {
	if d.fb == nil {
		return nil
	}
	return d.fb.Present()
}

// fillRect paints a clipped rectangle.
func (d fbDisplay) fillRect(x, y, w, h int, c color.RGBA) {
	if d.fb == nil || d.fb.Format() != hal.PixelFormatRGB565 {
		return
	}
	buf := d.fb.Buffer()
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+w, d.fb.Width()), min(y+h, d.fb.Height())
	pixel := hal.RGB565(c.R, c.G, c.B)
	stride := d.fb.StrideBytes()
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			off := py*stride + px*2
			if off+1 >= len(buf) {
				return
			}
			buf[off] = byte(pixel)
			buf[off+1] = byte(pixel >> 8)
		}
	}
}

// text writes s with its top at row y.
func (d fbDisplay) text(x, y int, c color.RGBA, s string) {
	tinyfont.WriteLine(d, panelFont, int16(x), int16(y+lineOffset), s, c)
}

// columns returns how many glyphs fit across the framebuffer.
func (d fbDisplay) columns() int {
	_, w := tinyfont.LineWidth(panelFont, "0")
	if w == 0 || d.fb == nil {
		return 0
	}
	return d.fb.Width() / int(w)
}
