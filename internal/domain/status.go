package domain

import "time"

// Status represents the lifecycle state of a session.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
	StatusEnded     Status = "ended"
)

// Valid reports whether s is one of the three known states.
func (s Status) Valid() bool {
	return s == StatusScheduled || s == StatusLive || s == StatusEnded
}

// DeriveStatus maps wall-clock time onto a session state. It is the single
// source of truth; the persisted status column is only a cache of the last
// reconciliation and must never be trusted without recomputation.
//
// A zero or unknown duration means the session has no natural end: once
// live it stays live until ended explicitly.
func DeriveStatus(now, scheduledStart time.Time, durationSeconds int) Status {
	if now.Before(scheduledStart) {
		return StatusScheduled
	}
	if durationSeconds <= 0 {
		return StatusLive
	}
	if now.Before(scheduledStart.Add(time.Duration(durationSeconds) * time.Second)) {
		return StatusLive
	}
	return StatusEnded
}
