//go:build !tinygo && !((linux && cgo) || windows || darwin)

package audio

import (
	"errors"
	"log/slog"
	"time"
)

// SpeakerAvailable reports whether this build can open the sound card.
// Sound output needs cgo on Linux.
const SpeakerAvailable = false

// Speaker is unavailable in this build.
type Speaker struct{}

// NewSpeaker always fails in this build.
func NewSpeaker(onEnd func(), log *slog.Logger) (*Speaker, error) {
	return nil, errors.New("audio: built without sound output")
}

func (*Speaker) PlayFromPath(string) error       { return ErrUnsupported }
func (*Speaker) SetPosition(time.Duration) error { return nil }
func (*Speaker) Position() time.Duration         { return 0 }
func (*Speaker) Duration() time.Duration         { return 0 }
func (*Speaker) Stop()                           {}
func (*Speaker) SetMuted(bool)                   {}
func (*Speaker) Close() error                    { return nil }
