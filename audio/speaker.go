//go:build !tinygo && ((linux && cgo) || windows || darwin)

package audio

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// SpeakerAvailable reports whether this build can open the sound card.
const SpeakerAvailable = true

const speakerRate = beep.SampleRate(44100)

// Speaker plays through the host sound card.
type Speaker struct {
	mu    sync.Mutex
	onEnd func()
	log   *slog.Logger

	initialized bool
	streamer    beep.StreamSeekCloser
	format      beep.Format
	volume      *effects.Volume
	muted       bool
	gen         uint64
}

// NewSpeaker returns a speaker backend. onEnd runs on its own goroutine
// after a track plays to its end.
func NewSpeaker(onEnd func(), log *slog.Logger) (*Speaker, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := speaker.Init(speakerRate, speakerRate.N(time.Second/10)); err != nil {
		return nil, err
	}
	return &Speaker{onEnd: onEnd, log: log.With("module", "AUDIO"), initialized: true}, nil
}

func (s *Speaker) PlayFromPath(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	streamer, format, err := Open(path)
	if err != nil {
		return err
	}
	s.streamer = streamer
	s.format = format
	s.gen++
	gen := s.gen

	resampled := beep.Resample(4, format.SampleRate, speakerRate, streamer)
	s.volume = &effects.Volume{Streamer: resampled, Base: 2, Silent: s.muted}
	speaker.Play(beep.Seq(s.volume, beep.Callback(func() {
		// Runs under the speaker lock.
		go s.finished(gen)
	})))
	return nil
}

func (s *Speaker) finished(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.streamer == nil {
		s.mu.Unlock()
		return
	}
	s.streamer.Close()
	s.streamer = nil
	s.volume = nil
	s.mu.Unlock()

	s.log.Debug("end of track")
	if s.onEnd != nil {
		s.onEnd()
	}
}

func (s *Speaker) SetPosition(offset time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamer == nil {
		return nil
	}
	speaker.Lock()
	defer speaker.Unlock()
	n := s.format.SampleRate.N(offset)
	if last := s.streamer.Len() - 1; n > last {
		n = last
	}
	if n < 0 {
		n = 0
	}
	return s.streamer.Seek(n)
}

func (s *Speaker) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := s.streamer.Position()
	speaker.Unlock()
	return s.format.SampleRate.D(pos)
}

func (s *Speaker) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamer == nil {
		return 0
	}
	return s.format.SampleRate.D(s.streamer.Len())
}

func (s *Speaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Speaker) stopLocked() {
	// Invalidates the pending end callback.
	s.gen++
	speaker.Clear()
	if s.streamer != nil {
		s.streamer.Close()
		s.streamer = nil
	}
	s.volume = nil
}

func (s *Speaker) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = muted
	if s.volume != nil {
		speaker.Lock()
		s.volume.Silent = muted
		speaker.Unlock()
	}
}

// Close stops playback and releases the sound card.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	if s.initialized {
		speaker.Close()
		s.initialized = false
	}
	return nil
}
