package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/classcast/classcast/internal/domain"
	"github.com/classcast/classcast/internal/ratelimit"
	"github.com/classcast/classcast/internal/repository"
	"github.com/classcast/classcast/pkg/log"
	"github.com/classcast/classcast/pkg/pubsub"
)

// chatServiceImpl implements ChatService. Persistence is the durable
// record; the broadcast is fire-and-forget to whoever is connected.
type chatServiceImpl struct {
	sessions repository.SessionRepository
	chat     repository.ChatRepository
	bus      pubsub.Publisher
	limiter  ratelimit.Limiter
	now      func() time.Time
}

// NewChatService creates a new chat service.
func NewChatService(
	sessions repository.SessionRepository,
	chat repository.ChatRepository,
	bus pubsub.Publisher,
	limiter ratelimit.Limiter,
) ChatService {
	return &chatServiceImpl{
		sessions: sessions,
		chat:     chat,
		bus:      bus,
		limiter:  limiter,
		now:      time.Now,
	}
}

// Send validates, rate limits, persists, and broadcasts one chat message.
func (s *chatServiceImpl) Send(ctx context.Context, sender domain.Identity, req *domain.SendChatRequest) (*domain.ChatMessage, error) {
	l := log.Ctx(ctx)

	body := strings.TrimSpace(req.Message)
	if body == "" {
		return nil, &ValidationError{Kind: KindMissingContent, Message: "message must not be empty"}
	}
	// Counted in runes, matching the request binding's max tag.
	if utf8.RuneCountInString(body) > domain.MaxChatMessageLength {
		return nil, ErrMessageTooLong
	}

	msgType := domain.ChatMessageType(req.Type)
	if msgType == "" {
		msgType = domain.ChatTypeUser
	}
	if msgType == domain.ChatTypeAdmin && !sender.IsOperator() {
		return nil, ErrNotOperator
	}

	session, err := s.sessions.Resolve(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	// Guests may only speak in the session they were minted for.
	if sender.Role == domain.RoleGuest && sender.SessionID != session.ID {
		return nil, ErrGuestWrongScope
	}

	if !s.limiter.Allow(sender.ID) {
		return nil, ErrRateLimited
	}

	msg := &domain.ChatMessage{
		SessionID:  session.ID,
		SenderID:   sender.ID,
		SenderName: sender.DisplayName,
		Body:       body,
		Type:       msgType,
		CreatedAt:  s.now(),
	}

	if err := s.chat.Create(ctx, msg); err != nil {
		return nil, err
	}

	// Best effort: the row is durable, delivery failure only affects who
	// sees it live right now.
	event, err := pubsub.NewEvent(pubsub.EventChatMessage, session.ID, pubsub.ChatMessagePayload{
		MessageID:   msg.ID,
		SessionID:   session.ID,
		SenderID:    sender.ID,
		SenderName:  sender.DisplayName,
		Body:        body,
		MessageType: string(msgType),
		SentAt:      msg.CreatedAt.Unix(),
	})
	if err == nil {
		if pubErr := s.bus.Publish(ctx, pubsub.SessionEventsChannel(session.ID), event); pubErr != nil {
			l.Warn().Err(pubErr).Str(log.FieldSessionID, session.ID).Msg("failed to broadcast chat message")
		}
	}

	return msg, nil
}

// History returns persisted chat for replay or reconnect refetch.
func (s *chatServiceImpl) History(ctx context.Context, idOrSlug string, limit int) ([]domain.ChatMessage, error) {
	session, err := s.sessions.Resolve(ctx, idOrSlug)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s.chat.ListBySession(ctx, session.ID, limit)
}
