//go:build !tinygo && cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// simLineKeys maps keyboard rows onto the 24 button lines: 1-8, Q-I, A-K.
var simLineKeys = [SimLines]ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5, ebiten.Key6, ebiten.Key7, ebiten.Key8,
	ebiten.KeyQ, ebiten.KeyW, ebiten.KeyE, ebiten.KeyR, ebiten.KeyT, ebiten.KeyY, ebiten.KeyU, ebiten.KeyI,
	ebiten.KeyA, ebiten.KeyS, ebiten.KeyD, ebiten.KeyF, ebiten.KeyG, ebiten.KeyH, ebiten.KeyJ, ebiten.KeyK,
}

const simBatteryStep = 0.05

func pollSimInput(sim *Simulator) {
	for line, key := range simLineKeys {
		if inpututil.IsKeyJustPressed(key) {
			sim.SetLine(line, true)
		}
		if inpututil.IsKeyJustReleased(key) {
			sim.SetLine(line, false)
		}
	}

	// Arrow keys turn the encoder, space is its push button.
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) || inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) {
		sim.TurnEncoder(true)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) || inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) {
		sim.TurnEncoder(false)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		sim.SetEncoderButton(true)
	}
	if inpututil.IsKeyJustReleased(ebiten.KeySpace) {
		sim.SetEncoderButton(false)
	}

	// Battery: C toggles the charger, minus/equal drain and fill the cell.
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		sim.SetCharging(!sim.Charging())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) {
		v, p := sim.Battery()
		sim.SetBattery(v-simBatteryStep, p-5)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) {
		v, p := sim.Battery()
		sim.SetBattery(v+simBatteryStep, p+5)
	}
}
