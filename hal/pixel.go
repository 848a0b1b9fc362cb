package hal

import "image/color"

// RGB565 packs an 8-bit-per-channel color.
func RGB565(r, g, b uint8) uint16 {
	return uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b>>3)
}

// ColorFrom565 expands a packed pixel, replicating the high bits into the
// low ones so full scale maps to 255.
func ColorFrom565(p uint16) color.RGBA {
	r5 := uint8(p>>11) & 0x1F
	g6 := uint8(p>>5) & 0x3F
	b5 := uint8(p) & 0x1F
	return color.RGBA{R: r5<<3 | r5>>2, G: g6<<2 | g6>>4, B: b5<<3 | b5>>2, A: 0xFF}
}
