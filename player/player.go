// Package player is the playback engine: slot/track navigation, pause and
// resume, volume, and a versioned snapshot of what is playing.
package player

import (
	"errors"
	"time"
)

var (
	ErrInvalidSlot  = errors.New("player: invalid slot")
	ErrInvalidTrack = errors.New("player: invalid track")
	ErrEmptyPath    = errors.New("player: empty track path")
)

// Track is one playable file.
type Track struct {
	Path   string `json:"path"`
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
}

// Slot is one playback bucket, bound to one button.
type Slot struct {
	Dir    string  `json:"dir"`
	Tracks []Track `json:"tracks"`
}

// Catalog is the ordered slot list. It is read-only once the engine owns it.
type Catalog []Slot

// TrackCount returns the number of tracks in slot, or 0 if out of range.
func (c Catalog) TrackCount(slot int) int {
	if slot < 0 || slot >= len(c) {
		return 0
	}
	return len(c[slot].Tracks)
}

// PlayingInfo describes the current track. A zero PausedAt means playing.
type PlayingInfo struct {
	Slot        int
	Index       int
	Total       int
	Path        string
	PausedAt    time.Duration
	Duration    time.Duration
	CurrentTime time.Duration
	Serial      uint64
}

// Paused reports whether playback is paused.
func (p PlayingInfo) Paused() bool { return p.PausedAt > 0 }

// Decoder plays one file at a time. End-of-track is reported through the
// callback it was constructed with, never synchronously from its methods.
type Decoder interface {
	PlayFromPath(path string) error
	SetPosition(offset time.Duration) error
	Position() time.Duration
	Duration() time.Duration
	Stop()
	SetMuted(muted bool)
}

// Codec sets the hardware output volume.
type Codec interface {
	SetVolume(volume uint8) error
}
