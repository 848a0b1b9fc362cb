package app

import (
	"fmt"
	"path/filepath"
	"time"

	"baer/hal"
	"baer/internal/buildinfo"
)

// panelInterval limits redraws of an unchanged screen.
const panelInterval = 250

// panel draws the status screen of the host simulator.
type panel struct {
	d     fbDisplay
	title string

	last     uint64
	drawn    bool
	lastText []string
}

func newPanel(fb hal.Framebuffer, title string) *panel {
	return &panel{d: fbDisplay{fb: fb}, title: title}
}

func (p *panel) draw(s Status, now uint64) {
	if p.drawn && now-p.last < panelInterval {
		return
	}
	lines := statusLines(s)
	if p.drawn && equalLines(lines, p.lastText) {
		return
	}
	p.last = now
	p.drawn = true
	p.lastText = lines

	fb := p.d.fb
	p.d.fillRect(0, 0, fb.Width(), fb.Height(), colorBG)
	p.d.text(4, 2, colorFG, p.title)
	p.d.text(fb.Width()-60, 2, colorDim, buildinfo.Short())
	p.d.fillRect(0, lineHeight+4, fb.Width(), 1, colorDim)

	y := lineHeight + 8
	for i, line := range lines {
		c := colorFG
		switch {
		case i == 0 && s.PoweredOff:
			c = colorAlert
		case i == 0 && s.HasTrack && !s.Playing.Paused():
			c = colorOK
		}
		p.d.text(4, y, c, line)
		y += lineHeight
	}

	if s.Volume > 0 && s.MaxVol > 0 {
		w := (fb.Width() - 8) * s.Volume / s.MaxVol
		p.d.fillRect(4, fb.Height()-6, fb.Width()-8, 3, colorDim)
		p.d.fillRect(4, fb.Height()-6, w, 3, colorOK)
	}
	_ = fb.Present()
}

func statusLines(s Status) []string {
	var state string
	switch {
	case s.PoweredOff:
		state = "OFF (" + s.ShutdownReason + ")"
	case s.Stage != "ready":
		state = "BOOT " + s.Stage
	case !s.HasTrack:
		state = "STOPPED"
	case s.Playing.Paused():
		state = "PAUSED"
	default:
		state = "PLAYING"
	}
	if s.BootOverride {
		state += " [override]"
	}

	lines := []string{state}
	if s.HasTrack {
		info := s.Playing
		lines = append(lines,
			fmt.Sprintf("slot %d  track %d/%d", info.Slot+1, info.Index+1, info.Total),
			filepath.Base(info.Path),
			mmss(info.CurrentTime)+" / "+mmss(info.Duration),
		)
	}
	lines = append(lines, fmt.Sprintf("volume %d/%d", s.Volume, s.MaxVol))
	if s.HasPower {
		batt := fmt.Sprintf("battery %.2fV %.0f%%", s.Power.Voltage, s.Power.Percent)
		if s.Power.Charging {
			batt += " charging"
		}
		lines = append(lines, batt)
	}
	return lines
}

func mmss(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
