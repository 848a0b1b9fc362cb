package app

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"baer/hal"
	"baer/kernel"
)

// InstallPanicHandler reports the first task panic to log and the display,
// then calls halt. A nil halt parks the caller forever.
func InstallPanicHandler(h hal.HAL, log *slog.Logger, halt func()) {
	if halt == nil {
		halt = func() { select {} }
	}
	kernel.SetPanicHandler(func(info kernel.PanicInfo) {
		if log != nil {
			log.Error("panic", "module", "MAIN", "task", info.Task, "value", fmt.Sprint(info.Value))
		}
		if l := h.Logger(); l != nil && len(info.Stack) > 0 {
			for _, line := range strings.Split(string(info.Stack), "\n") {
				if line != "" {
					l.WriteLineString(line)
				}
			}
		}
		drawPanic(h, info)
		halt()
	})
}

func drawPanic(h hal.HAL, info kernel.PanicInfo) {
	disp := h.Display()
	if disp == nil {
		return
	}
	fb := disp.Framebuffer()
	if fb == nil {
		return
	}
	d := fbDisplay{fb: fb}
	d.fillRect(0, 0, fb.Width(), fb.Height(), colorBG)

	lines := []string{
		"PANIC",
		"task: " + info.Task,
		fmt.Sprintf("panic: %v", info.Value),
	}
	if len(info.Stack) > 0 {
		for _, line := range strings.Split(string(info.Stack), "\n") {
			if line != "" {
				lines = append(lines, strings.TrimSpace(line))
			}
		}
	} else {
		lines = append(lines, "stack: unavailable")
	}

	cols := d.columns()
	if cols <= 0 {
		cols = 1
	}
	y := 0
	for i, line := range lines {
		c := colorFG
		if i == 0 {
			c = colorAlert
		}
		for len(line) > 0 {
			if y+lineHeight > fb.Height() {
				_ = fb.Present()
				return
			}
			chunk, rest := takeRunes(line, cols)
			d.text(0, y, c, chunk)
			y += lineHeight
			line = strings.TrimLeft(rest, " ")
		}
	}
	_ = fb.Present()
}

func takeRunes(s string, n int) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	if len(s) <= n {
		return s, ""
	}
	var i, count int
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		count++
	}
	return s[:i], s[i:]
}
