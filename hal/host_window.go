//go:build !tinygo && cgo

package hal

import (
	"image"
	"image/color"

	"baer/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
)

const (
	ledCell = 36
	ledSize = 24
	ledBand = SimGroups*ledCell + 8
)

// WindowConfig controls the desktop simulator window.
type WindowConfig struct {
	Scale int
	Sim   SimConfig
}

// RunWindow opens a desktop window showing the LED matrix and the status
// framebuffer, and maps the keyboard onto the board inputs.
// It blocks until the window closes.
func RunWindow(newApp func(HAL) func() error, cfg WindowConfig) error {
	if cfg.Scale <= 0 {
		cfg.Scale = 2
	}
	h := newHost(cfg.Sim)
	step := newApp(h)

	g := &hostGame{h: h, step: step}
	ebiten.SetWindowTitle("Baer (" + buildinfo.Short() + ")")
	w, ht := g.Layout(0, 0)
	ebiten.SetWindowSize(w*cfg.Scale, ht*cfg.Scale)
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}

type hostGame struct {
	h       *hostHAL
	img     *image.RGBA
	fbImg   *ebiten.Image
	scratch []byte
	step    func() error
}

func (g *hostGame) Update() error {
	pollSimInput(g.h.sim)
	g.h.t.step()
	if g.step != nil {
		if err := g.step(); err != nil {
			return err
		}
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	g.drawLEDs(screen)

	fb := g.h.fb
	if g.img == nil || g.img.Bounds().Dx() != fb.width || g.img.Bounds().Dy() != fb.height {
		g.img = image.NewRGBA(image.Rect(0, 0, fb.width, fb.height))
		g.scratch = make([]byte, len(fb.buf))
		if g.fbImg != nil {
			g.fbImg.Deallocate()
		}
		g.fbImg = ebiten.NewImage(fb.width, fb.height)
	}

	fb.snapshotRGB565(g.scratch)

	src := g.scratch
	dst := g.img.Pix
	for i := 0; i+1 < len(src) && 2*i+3 < len(dst); i += 2 {
		c := ColorFrom565(uint16(src[i]) | uint16(src[i+1])<<8)
		j := 2 * i
		dst[j], dst[j+1], dst[j+2], dst[j+3] = c.R, c.G, c.B, c.A
	}

	g.fbImg.WritePixels(g.img.Pix)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(0, ledBand)
	screen.DrawImage(g.fbImg, op)
}

// drawLEDs paints one square per button line, brightness from the LED
// driver PWM registers. Pressed lines get an outline.
func (g *hostGame) drawLEDs(screen *ebiten.Image) {
	levels := g.h.sim.LEDLevels()
	for line, duty := range levels {
		row := line / SimLinesPerGroup
		col := line % SimLinesPerGroup
		x := 8 + col*ledCell + (g.h.fb.width-8*ledCell)/2
		y := 4 + row*ledCell
		if g.h.sim.LinePressed(line) {
			outline := screen.SubImage(image.Rect(x-2, y-2, x+ledSize+2, y+ledSize+2)).(*ebiten.Image)
			outline.Fill(color.RGBA{0x60, 0x60, 0x60, 0xFF})
		}
		cell := screen.SubImage(image.Rect(x, y, x+ledSize, y+ledSize)).(*ebiten.Image)
		cell.Fill(color.RGBA{R: 0x20 + uint8(uint16(duty)*0xDF/0xFF), G: 0x18 + duty/3, B: 0x10, A: 0xFF})
	}
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.fb.width, g.h.fb.height + ledBand
}
