package service

import (
	"context"
	"errors"
	"time"

	"github.com/classcast/classcast/internal/domain"
	"github.com/classcast/classcast/internal/repository"
	"github.com/classcast/classcast/internal/store"
	"github.com/classcast/classcast/pkg/log"
	"github.com/classcast/classcast/pkg/pubsub"
)

// presenceServiceImpl implements PresenceService on top of the redis
// membership store. Role data is used only to filter operators out of the
// viewer-facing roster, never to grant permissions.
type presenceServiceImpl struct {
	sessions  repository.SessionRepository
	presence  store.PresenceStore
	bus       pubsub.Publisher
	memberTTL time.Duration
	countBase int
}

// NewPresenceService creates a new presence service. countBase is a
// display-only constant added to the live member count.
func NewPresenceService(sessions repository.SessionRepository, presence store.PresenceStore, bus pubsub.Publisher, memberTTL time.Duration, countBase int) PresenceService {
	if memberTTL <= 0 {
		memberTTL = 2 * time.Minute
	}
	return &presenceServiceImpl{
		sessions:  sessions,
		presence:  presence,
		bus:       bus,
		memberTTL: memberTTL,
		countBase: countBase,
	}
}

// Join adds a member to the session's presence channel and announces it.
func (s *presenceServiceImpl) Join(ctx context.Context, sessionID string, member pubsub.Member) error {
	if err := s.presence.AddMember(ctx, sessionID, member, s.memberTTL); err != nil {
		return err
	}

	s.publishMember(ctx, pubsub.EventMemberJoined, sessionID, member)
	return nil
}

// Leave removes a member and announces the departure.
func (s *presenceServiceImpl) Leave(ctx context.Context, sessionID, memberID string) error {
	if err := s.presence.RemoveMember(ctx, sessionID, memberID); err != nil {
		return err
	}

	s.publishMember(ctx, pubsub.EventMemberLeft, sessionID, pubsub.Member{ID: memberID})
	return nil
}

// HandRaise merges a hand-raise toggle into the member map and broadcasts
// it on the session event stream. Fire-and-forget: nothing beyond the store
// merge is persisted. Accepts the public slug like every other
// session-addressed operation; member keys and channels always use the
// primary id.
func (s *presenceServiceImpl) HandRaise(ctx context.Context, idOrSlug, memberID string, isRaised bool) error {
	session, err := s.sessions.Resolve(ctx, idOrSlug)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	sessionID := session.ID

	if err := s.presence.SetHandRaised(ctx, sessionID, memberID, isRaised); err != nil {
		return err
	}

	event, err := pubsub.NewEvent(pubsub.EventHandRaise, sessionID, pubsub.HandRaisePayload{
		SessionID: sessionID,
		MemberID:  memberID,
		IsRaised:  isRaised,
	})
	if err != nil {
		return err
	}
	if err := s.bus.Publish(ctx, pubsub.SessionEventsChannel(sessionID), event); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str(log.FieldSessionID, sessionID).Msg("failed to broadcast hand raise")
	}
	return nil
}

// Snapshot returns current membership with operators filtered out.
func (s *presenceServiceImpl) Snapshot(ctx context.Context, sessionID string) (*pubsub.PresenceSnapshotPayload, error) {
	members, err := s.presence.ListMembers(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	roster := make([]pubsub.Member, 0, len(members))
	for _, m := range members {
		if m.Role == string(domain.RoleAdmin) {
			continue
		}
		roster = append(roster, m)
	}

	return &pubsub.PresenceSnapshotPayload{
		SessionID: sessionID,
		Members:   roster,
		CountBase: s.countBase,
	}, nil
}

func (s *presenceServiceImpl) publishMember(ctx context.Context, eventType, sessionID string, member pubsub.Member) {
	event, err := pubsub.NewEvent(eventType, sessionID, pubsub.MemberEventPayload{
		SessionID: sessionID,
		Member:    member,
	})
	if err != nil {
		return
	}
	if err := s.bus.Publish(ctx, pubsub.SessionPresenceChannel(sessionID), event); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str(log.FieldSessionID, sessionID).Msg("failed to broadcast presence event")
	}
}
