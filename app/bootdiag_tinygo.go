//go:build tinygo && bootdebug

package app

import (
	"machine"
	"sync"
	"time"

	"baer/hal"
)

var (
	bootDiagMu   sync.Mutex
	bootDiagStep string
	bootDiagOnce sync.Once
)

func bootDiagSetStep(msg string) {
	bootDiagMu.Lock()
	bootDiagStep = msg
	bootDiagMu.Unlock()
}

// bootDiagStart repeats the current boot stage on the log and on USB CDC
// until the device is ready, so a hang can be located without a debugger.
func bootDiagStart(h hal.HAL) {
	if h == nil {
		return
	}
	bootDiagOnce.Do(func() {
		l := h.Logger()
		go func() {
			for {
				bootDiagMu.Lock()
				step := bootDiagStep
				bootDiagMu.Unlock()
				if step == "ready" {
					return
				}
				if step == "" {
					step = "<empty>"
				}
				line := "bootdiag: " + step
				if l != nil {
					l.WriteLineString(line)
				}
				if usb := machine.USBCDC; usb != nil {
					_, _ = usb.Write([]byte(line + "\r\n"))
				}
				time.Sleep(250 * time.Millisecond)
			}
		}()
	})
}
