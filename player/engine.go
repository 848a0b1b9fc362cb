package player

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"baer/kernel"

	"github.com/samber/lo"
)

// Config tunes the engine.
type Config struct {
	InitialVolume   int
	MinVolume       int
	MaxVolume       int
	VolumeStep      int
	RefreshInterval time.Duration
}

// DefaultConfig returns the factory tuning.
func DefaultConfig() Config {
	return Config{
		InitialVolume:   130,
		MinVolume:       0,
		MaxVolume:       254,
		VolumeStep:      5,
		RefreshInterval: 500 * time.Millisecond,
	}
}

// Engine is the playback engine. Control operations are serialized by one
// mutex; PlayingInfo and Serial are lock-free reads of the last published
// snapshot.
type Engine struct {
	mu      sync.Mutex
	dec     Decoder
	codec   Codec
	catalog Catalog
	cfg     Config
	clock   kernel.TickSource
	log     *slog.Logger

	cur          *PlayingInfo
	refreshed    bool
	lastRefresh  uint64
	refreshTicks uint64

	volume atomic.Int32
	snap   kernel.Snapshot[PlayingInfo]
}

// New returns an engine over catalog. codec may be nil.
func New(dec Decoder, codec Codec, catalog Catalog, cfg Config, clock kernel.TickSource, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxVolume < cfg.MinVolume {
		cfg.MinVolume, cfg.MaxVolume = cfg.MaxVolume, cfg.MinVolume
	}
	if cfg.VolumeStep <= 0 {
		cfg.VolumeStep = 1
	}
	e := &Engine{
		dec:          dec,
		codec:        codec,
		catalog:      catalog,
		cfg:          cfg,
		clock:        clock,
		log:          log.With("module", "AUDIO"),
		refreshTicks: kernel.DurationTicks(cfg.RefreshInterval),
	}
	e.volume.Store(int32(lo.Clamp(cfg.InitialVolume, cfg.MinVolume, cfg.MaxVolume)))
	e.snap.Clear()
	return e
}

// Initialize applies the initial volume to the codec.
func (e *Engine) Initialize() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.applyVolumeLocked(int(e.volume.Load()))
}

// Catalog returns the slot list.
func (e *Engine) Catalog() Catalog {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalog
}

// SetCatalog replaces the slot list. Anything playing is stopped first.
func (e *Engine) SetCatalog(catalog Catalog) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur != nil {
		e.stopLocked()
	}
	e.catalog = catalog
	e.log.Info("catalog", "slots", len(catalog))
}

// PlayingInfo returns the last published snapshot and whether a track is
// loaded.
func (e *Engine) PlayingInfo() (PlayingInfo, bool) {
	info, ok, _ := e.snap.Load()
	return info, ok
}

// Serial returns the engine version counter. It changes on every
// state-affecting operation.
func (e *Engine) Serial() uint64 { return e.snap.Seq() }

// publishLocked bumps the serial and publishes the current state.
func (e *Engine) publishLocked() {
	if e.cur == nil {
		e.snap.Clear()
		return
	}
	e.cur.Serial = e.snap.Seq() + 1
	e.snap.Publish(*e.cur)
}

// PlaySlotTrack starts track of slot from the beginning.
func (e *Engine) PlaySlotTrack(slot, track int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playSlotTrackLocked(slot, track)
}

func (e *Engine) playSlotTrackLocked(slot, track int) error {
	if slot < 0 || slot >= len(e.catalog) {
		e.log.Warn("invalid slot", "slot", slot)
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	tracks := e.catalog[slot].Tracks
	if track < 0 || track >= len(tracks) {
		e.log.Warn("invalid track", "slot", slot, "track", track)
		return fmt.Errorf("%w: %d/%d", ErrInvalidTrack, slot, track)
	}
	path := tracks[track].Path
	if path == "" {
		e.log.Warn("empty track path", "slot", slot, "track", track)
		return ErrEmptyPath
	}

	e.dec.SetMuted(true)
	defer e.dec.SetMuted(false)
	if err := e.dec.PlayFromPath(path); err != nil {
		e.log.Error("play failed", "path", path, "err", err)
		e.cur = nil
		e.publishLocked()
		return fmt.Errorf("player: play %s: %w", path, err)
	}

	e.cur = &PlayingInfo{
		Slot:     slot,
		Index:    track,
		Total:    len(tracks),
		Path:     path,
		Duration: e.dec.Duration(),
	}
	e.publishLocked()
	e.log.Info("playing", "slot", slot, "track", track, "total", len(tracks), "path", path)
	return nil
}

// PlayNextFromSlot advances within slot if it is the current one, otherwise
// starts it from its first track.
func (e *Engine) PlayNextFromSlot(slot int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playNextFromSlotLocked(slot, 1)
}

// playNextFromSlotLocked moves by increment (+1 or -1) within slot, wrapping
// at both ends. Entering a slot moving backwards starts at its last track.
func (e *Engine) playNextFromSlotLocked(slot, increment int) {
	total := e.catalog.TrackCount(slot)
	if total == 0 {
		e.log.Warn("slot has no tracks", "slot", slot)
		return
	}

	var index int
	switch {
	case e.cur != nil && e.cur.Slot == slot:
		index = e.cur.Index + increment
		if index >= total {
			index = 0
		} else if index < 0 {
			index = total - 1
		}
	case increment < 0:
		index = total - 1
	}
	e.playSlotTrackLocked(slot, index)
}

// Play resumes a paused track at the captured offset. It is a no-op unless
// paused.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil || !e.cur.Paused() {
		e.log.Debug("play ignored, not paused")
		return
	}

	offset := e.cur.PausedAt
	e.dec.SetMuted(true)
	defer e.dec.SetMuted(false)
	if err := e.dec.PlayFromPath(e.cur.Path); err != nil {
		e.log.Error("resume failed", "path", e.cur.Path, "err", err)
		return
	}
	if err := e.dec.SetPosition(offset); err != nil {
		e.log.Error("seek failed", "offset", offset, "err", err)
	}
	e.cur.PausedAt = 0
	e.cur.CurrentTime = offset
	e.publishLocked()
	e.log.Info("resumed", "offset", offset)
}

// Pause captures the position and stops the decoder. Pausing twice is a
// no-op.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil || e.cur.Paused() {
		e.log.Debug("pause ignored")
		return
	}

	pos := e.dec.Position()
	if pos <= 0 {
		// Zero means "not paused".
		pos = 1
	}
	e.dec.Stop()
	e.cur.PausedAt = pos
	e.cur.CurrentTime = pos
	e.publishLocked()
	e.log.Info("paused", "offset", pos)
}

// Stop drops the current track.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	e.dec.Stop()
	e.cur = nil
	e.publishLocked()
	e.log.Info("stopped")
}

// adjacentSlotLocked finds the next slot in dir with tracks, wrapping.
// It returns from itself if no other slot has tracks.
func (e *Engine) adjacentSlotLocked(from, dir int) int {
	n := len(e.catalog)
	s := from
	for i := 0; i < n; i++ {
		s = ((s+dir)%n + n) % n
		if len(e.catalog[s].Tracks) > 0 {
			return s
		}
	}
	return from
}

// Next moves to the following track, crossing into the next non-empty slot
// after the last one. It is a no-op when nothing is loaded.
func (e *Engine) Next() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextLocked()
}

func (e *Engine) nextLocked() {
	if e.cur == nil {
		e.log.Debug("next ignored, nothing playing")
		return
	}
	slot := e.cur.Slot
	if e.cur.Index+1 >= e.catalog.TrackCount(slot) {
		slot = e.adjacentSlotLocked(slot, 1)
	}
	e.playNextFromSlotLocked(slot, 1)
}

// Prev moves to the preceding track, crossing into the last track of the
// previous non-empty slot.
func (e *Engine) Prev() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil {
		e.log.Debug("prev ignored, nothing playing")
		return
	}
	slot := e.cur.Slot
	if e.cur.Index == 0 {
		slot = e.adjacentSlotLocked(slot, -1)
	}
	e.playNextFromSlotLocked(slot, -1)
}

// EndOfTrack is the decoder's end-of-stream callback. It behaves like Next
// except that running off the last slot stops playback where Next wraps to
// the first slot. A paused track stays paused: only Play resumes it.
func (e *Engine) EndOfTrack() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil || e.cur.Paused() {
		return
	}
	slot := e.cur.Slot
	if e.cur.Index+1 >= e.catalog.TrackCount(slot) && e.adjacentSlotLocked(slot, 1) <= slot {
		e.log.Info("end of catalog")
		e.stopLocked()
		return
	}
	e.nextLocked()
}

// RefreshIfDue updates position and duration of a playing track, at most
// once per refresh interval. It reports whether a refresh happened.
func (e *Engine) RefreshIfDue() bool {
	now := e.clock.Ticks()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.refreshed && now-e.lastRefresh < e.refreshTicks {
		return false
	}
	e.refreshed = true
	e.lastRefresh = now
	if e.cur == nil || e.cur.Paused() {
		return false
	}
	e.cur.CurrentTime = e.dec.Position()
	e.cur.Duration = e.dec.Duration()
	e.publishLocked()
	return true
}

// Volume returns the current volume.
func (e *Engine) Volume() int { return int(e.volume.Load()) }

// MaxVolume returns the upper volume bound.
func (e *Engine) MaxVolume() int { return e.cfg.MaxVolume }

// VolumeUp raises the volume by one step.
func (e *Engine) VolumeUp() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.applyVolumeLocked(e.Volume() + e.cfg.VolumeStep)
}

// VolumeDown lowers the volume by one step.
func (e *Engine) VolumeDown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.applyVolumeLocked(e.Volume() - e.cfg.VolumeStep)
}

// SetVolume clamps v to the configured range and applies it.
func (e *Engine) SetVolume(v int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.applyVolumeLocked(v)
}

func (e *Engine) applyVolumeLocked(v int) {
	v = lo.Clamp(v, e.cfg.MinVolume, e.cfg.MaxVolume)
	if e.codec != nil {
		if err := e.codec.SetVolume(uint8(v)); err != nil {
			e.log.Error("set volume failed", "volume", v, "err", err)
			return
		}
	}
	if old := int(e.volume.Swap(int32(v))); old != v {
		e.log.Debug("volume", "volume", v)
	}
}
