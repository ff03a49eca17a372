package service

import (
	"context"
	"errors"
	"time"

	"github.com/classcast/classcast/internal/domain"
	"github.com/classcast/classcast/internal/repository"
	"github.com/classcast/classcast/pkg/id"
	"github.com/classcast/classcast/pkg/log"
	"github.com/classcast/classcast/pkg/pubsub"
)

// triggerServiceImpl implements the at-most-once delivery protocol for
// scheduled messages.
//
// Viewers call Trigger about once a second with non-decreasing offsets.
// Due-but-unsent is the only selection predicate and the sent flag is
// one-way, so redundant or concurrent calls cannot double-fire an entry
// beyond the accepted at-least-once broadcast race: the ledger update is
// deliberately the last step so a crash between publish and flag-set yields
// at most a duplicate broadcast, never a permanently undelivered message.
type triggerServiceImpl struct {
	sessions repository.SessionRepository
	ledger   repository.LedgerRepository
	chat     repository.ChatRepository
	bus      pubsub.Publisher
	now      func() time.Time
}

// NewTriggerService creates a new trigger service.
func NewTriggerService(
	sessions repository.SessionRepository,
	ledger repository.LedgerRepository,
	chat repository.ChatRepository,
	bus pubsub.Publisher,
) TriggerService {
	return &triggerServiceImpl{
		sessions: sessions,
		ledger:   ledger,
		chat:     chat,
		bus:      bus,
		now:      time.Now,
	}
}

// Trigger fires every due-but-unsent entry at or before offsetSeconds.
func (s *triggerServiceImpl) Trigger(ctx context.Context, idOrSlug string, offsetSeconds int) error {
	l := log.Ctx(ctx)

	session, err := s.sessions.Resolve(ctx, idOrSlug)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	due, err := s.ledger.FindDue(ctx, session.ID, offsetSeconds)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	channel := pubsub.SessionEventsChannel(session.ID)

	for i := range due {
		entry := &due[i]
		s.fire(ctx, channel, session.ID, entry)
	}

	l.Debug().
		Str(log.FieldSessionID, session.ID).
		Int(log.FieldOffset, offsetSeconds).
		Int("fired", len(due)).
		Msg("scheduled messages triggered")
	return nil
}

// fire broadcasts one entry, persists its chat row, and flips the sent
// flag. Broadcast and persistence are best effort relative to each other:
// live viewers already saw a broadcast whose chat row failed to persist,
// and history replay will simply miss that line.
func (s *triggerServiceImpl) fire(ctx context.Context, channel, sessionID string, entry *domain.ScheduledMessage) {
	l := log.Ctx(ctx)

	// Mint the chat id before publishing so the live broadcast and the
	// persisted history row carry the same id; viewers dedupe on it
	// after a reconnect refetch.
	chatMsg := &domain.ChatMessage{
		ID:         id.NewMessageID(),
		SessionID:  sessionID,
		SenderID:   entry.ID,
		SenderName: entry.SenderName,
		Body:       entry.Text,
		Type:       domain.ChatTypeAdmin,
		CreatedAt:  s.now(),
	}

	event, err := pubsub.NewEvent(pubsub.EventChatMessage, sessionID, pubsub.ChatMessagePayload{
		MessageID:    chatMsg.ID,
		SessionID:    sessionID,
		SenderID:     entry.ID,
		SenderName:   entry.SenderName,
		SenderAvatar: entry.SenderAvatar,
		Body:         entry.Text,
		MessageType:  string(domain.ChatTypeAdmin),
		SentAt:       s.now().Unix(),
	})
	if err == nil {
		if pubErr := s.bus.Publish(ctx, channel, event); pubErr != nil {
			l.Warn().Err(pubErr).Str(log.FieldMessageID, entry.ID).Msg("failed to broadcast scheduled message")
		}
	}

	if err := s.chat.Create(ctx, chatMsg); err != nil {
		l.Warn().Err(err).Str(log.FieldMessageID, entry.ID).Msg("failed to persist scheduled message chat row")
	}

	// Last step: flag the entry sent. See type comment for the crash
	// ordering rationale.
	if err := s.ledger.MarkSent(ctx, entry.ID); err != nil {
		l.Error().Err(err).Str(log.FieldMessageID, entry.ID).Msg("failed to mark scheduled message sent")
	}
}
