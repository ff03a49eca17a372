package domain

import (
	"time"
)

// Session represents a scheduled broadcast of a pre-recorded video that is
// presented to viewers as a live class.
type Session struct {
	ID             string     `json:"id"`
	Slug           string     `json:"slug"`
	Title          string     `json:"title"`
	ScheduledStart time.Time  `json:"scheduled_start"`
	VideoID        string     `json:"video_id"`
	Status         Status     `json:"status"`
	EndedAt        *time.Time `json:"ended_at,omitempty"` // set by an explicit manual end
	CreatorID      string     `json:"creator_id"`
	CreatedAt      time.Time  `json:"created_at"`

	// Populated on read; never written through the session.
	Video *Video `json:"video,omitempty"`
}

// DerivedStatus computes the authoritative status at the given instant.
// A manual end overrides the clock for sessions whose video duration is
// unknown and would otherwise never leave the live state.
func (s *Session) DerivedStatus(now time.Time) Status {
	if s.EndedAt != nil && !now.Before(*s.EndedAt) {
		return StatusEnded
	}
	return DeriveStatus(now, s.ScheduledStart, s.VideoDuration())
}

// VideoDuration returns the duration of the attached video in seconds,
// or 0 when the video or its duration is unknown.
func (s *Session) VideoDuration() int {
	if s.Video == nil {
		return 0
	}
	return s.Video.DurationSeconds
}

// Video is read-only metadata for a playable recording. Its duration is the
// single quantity that turns a scheduled start into an end boundary.
type Video struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	DurationSeconds int       `json:"duration_seconds"`
	URL             string    `json:"url"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateVideoRequest registers a pre-recorded video for broadcasting.
// A zero duration means open-ended: sessions on it stay live until
// ended manually.
type CreateVideoRequest struct {
	Title           string `json:"title" binding:"required,min=1,max=200"`
	DurationSeconds int    `json:"duration_seconds" binding:"min=0"`
	URL             string `json:"url" binding:"required,max=500"`
}

// CreateSessionRequest represents a create session request.
type CreateSessionRequest struct {
	Title          string    `json:"title" binding:"required,min=1,max=200"`
	ScheduledStart time.Time `json:"scheduled_start" binding:"required"`
	VideoID        string    `json:"video_id" binding:"required"`
}

// UpdateSessionRequest represents an update session request. Nil fields are
// left unchanged.
type UpdateSessionRequest struct {
	Title          *string    `json:"title"`
	ScheduledStart *time.Time `json:"scheduled_start"`
}

// ListSessionsRequest represents a list sessions request.
type ListSessionsRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Status   string `form:"status"`
}

// SessionResponse represents a session in API responses. Status is always
// the reconciled value.
type SessionResponse struct {
	ID             string     `json:"id"`
	Slug           string     `json:"slug"`
	Title          string     `json:"title"`
	ScheduledStart time.Time  `json:"scheduled_start"`
	Status         Status     `json:"status"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	CreatorID      string     `json:"creator_id"`
	CreatedAt      time.Time  `json:"created_at"`
	Video          *Video     `json:"video,omitempty"`
}

// ListSessionsResponse represents a paginated list response.
type ListSessionsResponse struct {
	Sessions   []SessionResponse `json:"sessions"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// ToResponse converts Session to SessionResponse.
func (s *Session) ToResponse() SessionResponse {
	return SessionResponse{
		ID:             s.ID,
		Slug:           s.Slug,
		Title:          s.Title,
		ScheduledStart: s.ScheduledStart,
		Status:         s.Status,
		EndedAt:        s.EndedAt,
		CreatorID:      s.CreatorID,
		CreatedAt:      s.CreatedAt,
		Video:          s.Video,
	}
}
