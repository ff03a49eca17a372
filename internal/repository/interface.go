package repository

import (
	"context"
	"errors"

	"github.com/classcast/classcast/internal/domain"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrVideoNotFound   = errors.New("video not found")
)

// SessionRepository defines the interface for session persistence.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Session, error)
	// Resolve accepts either the public slug or the internal id.
	// The slug index is tried first.
	Resolve(ctx context.Context, idOrSlug string) (*domain.Session, error)
	List(ctx context.Context, page, pageSize int, status string) ([]domain.Session, int, error)
	// UpdateFields writes a subset of columns. Used for edits and for the
	// reconciler's status write-back.
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	// Delete removes the session and cascades to its scheduled messages,
	// chat messages, and guests.
	Delete(ctx context.Context, id string) error

	GetVideo(ctx context.Context, id string) (*domain.Video, error)
	CreateVideo(ctx context.Context, video *domain.Video) error
	ListVideos(ctx context.Context) ([]domain.Video, error)
}

// LedgerRepository is the durable list of (offset, text, sent) tuples per
// session: the at-most-once delivery guard.
type LedgerRepository interface {
	// ReplaceAll swaps the session's whole ledger for the given entries,
	// each with sent=false. The delete and insert run in one transaction
	// where the store supports it; on stores without transactions this is
	// a two-phase operation with a documented partial-failure window.
	ReplaceAll(ctx context.Context, sessionID string, messages []*domain.ScheduledMessage) error
	// FindDue returns entries with offset_seconds <= currentOffset that
	// have not been sent, in no particular order.
	FindDue(ctx context.Context, sessionID string, currentOffset int) ([]domain.ScheduledMessage, error)
	// MarkSent flips the one-way sent flag. Calling it twice is a no-op.
	MarkSent(ctx context.Context, messageID string) error
	ListBySession(ctx context.Context, sessionID string) ([]domain.ScheduledMessage, error)
}

// ChatRepository persists chat messages for history replay.
type ChatRepository interface {
	Create(ctx context.Context, msg *domain.ChatMessage) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error)
}

// GuestRepository is the explicit guest registry keyed by session id.
type GuestRepository interface {
	Create(ctx context.Context, guest *domain.Guest) error
	GetByID(ctx context.Context, id string) (*domain.Guest, error)
	DeleteBySession(ctx context.Context, sessionID string) error
}
