package viewer

import (
	"sync"
	"time"
)

// Player is the video surface the synchronizer drives. Implementations
// wrap whatever actually renders the video; position is in seconds from
// the start of the file.
type Player interface {
	Load(videoURL string, durationSeconds int) error
	Play() error
	Pause() error
	Seek(offsetSeconds int) error
	Position() int
	IsPlaying() bool
	// SetControlsEnabled toggles user scrubbing. Controls stay off while
	// pinned to the broadcast clock and come on for replay.
	SetControlsEnabled(enabled bool)
}

// HeadlessPlayer is a clock-driven Player with no rendering. It is the
// default for the CLI viewer and doubles as the test player.
type HeadlessPlayer struct {
	mu       sync.Mutex
	duration int
	playing  bool
	controls bool
	base     int       // position when playback last started or seeked
	since    time.Time // when playback last started
	now      func() time.Time
}

// NewHeadlessPlayer creates a stopped player at position zero.
func NewHeadlessPlayer() *HeadlessPlayer {
	return &HeadlessPlayer{now: time.Now}
}

// Load resets the player for a new video.
func (p *HeadlessPlayer) Load(videoURL string, durationSeconds int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.duration = durationSeconds
	p.playing = false
	p.base = 0
	return nil
}

// Play starts the clock.
func (p *HeadlessPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		return nil
	}
	p.playing = true
	p.since = p.now()
	return nil
}

// Pause freezes the position.
func (p *HeadlessPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return nil
	}
	p.base = p.positionLocked()
	p.playing = false
	return nil
}

// Seek jumps to an absolute offset.
func (p *HeadlessPlayer) Seek(offsetSeconds int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if offsetSeconds < 0 {
		offsetSeconds = 0
	}
	p.base = offsetSeconds
	p.since = p.now()
	return nil
}

// Position returns the current playback offset in seconds.
func (p *HeadlessPlayer) Position() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

// IsPlaying reports whether the clock is running.
func (p *HeadlessPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// SetControlsEnabled records whether scrubbing is allowed.
func (p *HeadlessPlayer) SetControlsEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.controls = enabled
}

// ControlsEnabled reports whether scrubbing is allowed.
func (p *HeadlessPlayer) ControlsEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.controls
}

func (p *HeadlessPlayer) positionLocked() int {
	pos := p.base
	if p.playing {
		pos += int(p.now().Sub(p.since) / time.Second)
	}
	if p.duration > 0 && pos > p.duration {
		pos = p.duration
	}
	return pos
}
