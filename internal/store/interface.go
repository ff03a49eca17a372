package store

import (
	"context"
	"time"

	"github.com/classcast/classcast/pkg/pubsub"
)

// PresenceStore tracks the live membership of a session's presence channel.
type PresenceStore interface {
	AddMember(ctx context.Context, sessionID string, member pubsub.Member, ttl time.Duration) error
	RemoveMember(ctx context.Context, sessionID, memberID string) error
	SetHandRaised(ctx context.Context, sessionID, memberID string, raised bool) error
	ListMembers(ctx context.Context, sessionID string) ([]pubsub.Member, error)
	Count(ctx context.Context, sessionID string) (int, error)
	Close() error
}
