//go:build !(tinygo && bootdebug)

package app

import "baer/hal"

func bootDiagSetStep(string) {}

func bootDiagStart(hal.HAL) {}
