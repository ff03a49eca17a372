package viewer

import (
	"context"
	"time"

	"github.com/classcast/classcast/internal/domain"
	"github.com/classcast/classcast/pkg/log"
)

// State is the viewer's playback phase.
type State string

const (
	// StateCountdown means the session has not started yet.
	StateCountdown State = "countdown"
	// StateLive means the player is pinned to the broadcast clock.
	StateLive State = "live"
	// StateEnded means the broadcast is over and playback is stopped.
	StateEnded State = "ended"
	// StateReplay means the viewer is replaying an ended session on its
	// own clock. Replay never reports playback offsets upstream.
	StateReplay State = "replay"
)

// TriggerFunc reports a playback offset so due scheduled messages fire.
type TriggerFunc func(ctx context.Context, sessionID string, offsetSeconds int) error

// SynchronizerOptions configures a Synchronizer.
type SynchronizerOptions struct {
	// DriftTolerance is how far the player may lag or lead the broadcast
	// clock before it is snapped back with a seek.
	DriftTolerance time.Duration
	// TickInterval is how often the synchronizer re-evaluates. Defaults
	// to one second.
	TickInterval time.Duration
	// OnState is called on every state transition.
	OnState func(State)
	// OnCountdown is called each tick while counting down.
	OnCountdown func(remaining time.Duration)
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Synchronizer pins a Player to the broadcast clock derived from the
// session's scheduled start. There is no server-side playhead: every
// viewer derives the same position from the same wall clock.
type Synchronizer struct {
	session *domain.SessionResponse
	player  Player
	trigger TriggerFunc

	driftTolerance time.Duration
	tickInterval   time.Duration
	onState        func(State)
	onCountdown    func(time.Duration)
	now            func() time.Time

	state  State
	loaded bool
}

// NewSynchronizer creates a synchronizer for one session.
func NewSynchronizer(session *domain.SessionResponse, player Player, trigger TriggerFunc, opts SynchronizerOptions) *Synchronizer {
	if opts.DriftTolerance <= 0 {
		opts.DriftTolerance = 3 * time.Second
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Synchronizer{
		session:        session,
		player:         player,
		trigger:        trigger,
		driftTolerance: opts.DriftTolerance,
		tickInterval:   opts.TickInterval,
		onState:        opts.OnState,
		onCountdown:    opts.OnCountdown,
		now:            opts.Clock,
		state:          StateCountdown,
	}
}

// State returns the current phase.
func (s *Synchronizer) State() State {
	return s.state
}

// Run ticks until the context is cancelled. Safe to call once.
func (s *Synchronizer) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick re-evaluates the session phase and realigns the player. Exported
// so callers with their own loop (or tests) can drive it directly.
func (s *Synchronizer) Tick(ctx context.Context) {
	if s.state == StateReplay {
		// Replay runs on the viewer's own clock, nothing to align.
		return
	}

	now := s.now()
	status := s.derivedStatus(now)

	switch status {
	case domain.StatusScheduled:
		s.setState(StateCountdown)
		if s.onCountdown != nil {
			s.onCountdown(s.session.ScheduledStart.Sub(now))
		}

	case domain.StatusLive:
		s.setState(StateLive)
		s.alignLive(ctx, now)

	case domain.StatusEnded:
		if s.state != StateEnded {
			s.player.Pause()
		}
		s.setState(StateEnded)
	}
}

// StartReplay switches an ended session into replay from the top.
// Replay never fires triggers. Returns false if the session is not
// ended yet.
func (s *Synchronizer) StartReplay() bool {
	if s.state != StateEnded {
		return false
	}
	s.ensureLoaded()
	s.player.SetControlsEnabled(true)
	s.player.Seek(0)
	s.player.Play()
	s.setState(StateReplay)
	return true
}

func (s *Synchronizer) derivedStatus(now time.Time) domain.Status {
	if s.session.EndedAt != nil && !now.Before(*s.session.EndedAt) {
		return domain.StatusEnded
	}
	return domain.DeriveStatus(now, s.session.ScheduledStart, s.videoDuration())
}

func (s *Synchronizer) alignLive(ctx context.Context, now time.Time) {
	s.ensureLoaded()

	expected := int(now.Sub(s.session.ScheduledStart) / time.Second)
	if expected < 0 {
		expected = 0
	}

	drift := expected - s.player.Position()
	if drift < 0 {
		drift = -drift
	}
	if time.Duration(drift)*time.Second > s.driftTolerance {
		if err := s.player.Seek(expected); err != nil {
			log.L().Warn().Err(err).Int("expected_offset", expected).Msg("seek failed")
		}
	}
	if !s.player.IsPlaying() {
		s.player.Play()
	}

	if s.trigger != nil {
		if err := s.trigger(ctx, s.session.ID, expected); err != nil {
			log.L().Warn().Err(err).Str(log.FieldSessionID, s.session.ID).Msg("trigger report failed")
		}
	}
}

func (s *Synchronizer) ensureLoaded() {
	if s.loaded {
		return
	}
	url, duration := "", 0
	if s.session.Video != nil {
		url = s.session.Video.URL
		duration = s.session.Video.DurationSeconds
	}
	if err := s.player.Load(url, duration); err != nil {
		log.L().Error().Err(err).Msg("failed to load video")
		return
	}
	s.player.SetControlsEnabled(false)
	s.loaded = true
}

func (s *Synchronizer) videoDuration() int {
	if s.session.Video == nil {
		return 0
	}
	return s.session.Video.DurationSeconds
}

func (s *Synchronizer) setState(next State) {
	if s.state == next {
		return
	}
	s.state = next
	if s.onState != nil {
		s.onState(next)
	}
}
