//go:build tinygo

package audio

import "time"

// Silent accepts every request and plays nothing. The board has no decoder
// pipeline in this build; the codec is still driven over I2C.
type Silent struct {
	path  string
	muted bool
}

// NewSilent returns the stub backend.
func NewSilent() *Silent { return &Silent{} }

func (s *Silent) PlayFromPath(path string) error {
	s.path = path
	return nil
}

func (s *Silent) SetPosition(time.Duration) error { return nil }
func (s *Silent) Position() time.Duration         { return 0 }
func (s *Silent) Duration() time.Duration         { return 0 }
func (s *Silent) Stop()                           { s.path = "" }
func (s *Silent) SetMuted(muted bool)             { s.muted = muted }
func (s *Silent) Close() error                    { return nil }
