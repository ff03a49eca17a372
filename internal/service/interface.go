package service

import (
	"context"

	"github.com/classcast/classcast/internal/domain"
	"github.com/classcast/classcast/pkg/pubsub"
)

// SessionService defines the business logic for sessions and their
// scheduled-message ledger. Every read path reconciles the persisted
// status against the clock-derived one.
type SessionService interface {
	CreateSession(ctx context.Context, creatorID string, req *domain.CreateSessionRequest) (*domain.SessionResponse, error)
	GetSession(ctx context.Context, idOrSlug string) (*domain.SessionResponse, error)
	ListSessions(ctx context.Context, page, pageSize int, status string) (*domain.ListSessionsResponse, error)
	UpdateSession(ctx context.Context, idOrSlug string, req *domain.UpdateSessionRequest) (*domain.SessionResponse, error)
	EndSession(ctx context.Context, idOrSlug string) (*domain.SessionResponse, error)
	DeleteSession(ctx context.Context, idOrSlug string) error

	ReplaceMessages(ctx context.Context, idOrSlug string, req *domain.ReplaceMessagesRequest) ([]domain.ScheduledMessage, error)
	ListMessages(ctx context.Context, idOrSlug string) ([]domain.ScheduledMessage, error)

	JoinSession(ctx context.Context, idOrSlug string, req *domain.JoinSessionRequest) (*domain.JoinSessionResponse, error)

	RegisterVideo(ctx context.Context, req *domain.CreateVideoRequest) (*domain.Video, error)
	ListVideos(ctx context.Context) ([]domain.Video, error)
}

// TriggerService is the at-most-once delivery protocol for timestamp
// triggered messages.
type TriggerService interface {
	// Trigger fires every due-but-unsent ledger entry at or before the
	// reported playback offset. Zero due entries is success, not failure.
	Trigger(ctx context.Context, idOrSlug string, offsetSeconds int) error
}

// ChatService handles viewer and admin chat.
type ChatService interface {
	Send(ctx context.Context, sender domain.Identity, req *domain.SendChatRequest) (*domain.ChatMessage, error)
	History(ctx context.Context, idOrSlug string, limit int) ([]domain.ChatMessage, error)
}

// PresenceService tracks who is attending a session.
type PresenceService interface {
	Join(ctx context.Context, sessionID string, member pubsub.Member) error
	Leave(ctx context.Context, sessionID, memberID string) error
	HandRaise(ctx context.Context, idOrSlug, memberID string, isRaised bool) error
	// Snapshot lists current members with operators filtered out, plus the
	// configured display count base.
	Snapshot(ctx context.Context, sessionID string) (*pubsub.PresenceSnapshotPayload, error)
}
