package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/classcast/classcast/internal/domain"
	"github.com/classcast/classcast/internal/repository"
	"github.com/classcast/classcast/pkg/jwt"
	"github.com/classcast/classcast/pkg/log"
	"github.com/classcast/classcast/pkg/pubsub"
)

// sessionServiceImpl implements SessionService.
type sessionServiceImpl struct {
	sessions repository.SessionRepository
	ledger   repository.LedgerRepository
	guests   repository.GuestRepository
	bus      pubsub.Publisher
	tokens   *jwt.Manager
	now      func() time.Time
}

// NewSessionService creates a new session service.
func NewSessionService(
	sessions repository.SessionRepository,
	ledger repository.LedgerRepository,
	guests repository.GuestRepository,
	bus pubsub.Publisher,
	tokens *jwt.Manager,
) SessionService {
	return &sessionServiceImpl{
		sessions: sessions,
		ledger:   ledger,
		guests:   guests,
		bus:      bus,
		tokens:   tokens,
		now:      time.Now,
	}
}

// CreateSession creates a new session with a future scheduled start.
func (s *sessionServiceImpl) CreateSession(ctx context.Context, creatorID string, req *domain.CreateSessionRequest) (*domain.SessionResponse, error) {
	if !req.ScheduledStart.After(s.now()) {
		return nil, ErrStartNotFuture
	}

	video, err := s.sessions.GetVideo(ctx, req.VideoID)
	if err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}

	session := &domain.Session{
		Title:          req.Title,
		ScheduledStart: req.ScheduledStart,
		VideoID:        req.VideoID,
		Status:         domain.StatusScheduled,
		CreatorID:      creatorID,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	session.Video = video
	resp := session.ToResponse()
	return &resp, nil
}

// GetSession resolves a session by slug or id and reconciles its status.
func (s *sessionServiceImpl) GetSession(ctx context.Context, idOrSlug string) (*domain.SessionResponse, error) {
	session, err := s.resolve(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	s.reconcile(ctx, session)
	resp := session.ToResponse()
	return &resp, nil
}

// ListSessions lists sessions ordered by scheduled start, reconciling each
// row on the way out.
func (s *sessionServiceImpl) ListSessions(ctx context.Context, page, pageSize int, status string) (*domain.ListSessionsResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	sessions, total, err := s.sessions.List(ctx, page, pageSize, status)
	if err != nil {
		return nil, err
	}

	responses := make([]domain.SessionResponse, len(sessions))
	for i := range sessions {
		s.reconcile(ctx, &sessions[i])
		responses[i] = sessions[i].ToResponse()
	}

	totalPages := (total + pageSize - 1) / pageSize

	return &domain.ListSessionsResponse{
		Sessions:   responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// UpdateSession edits title and/or scheduled start. Moving the start to a
// new future instant resets the lifecycle: status is force-written back to
// scheduled as part of the edit, not left to the next reconciliation.
func (s *sessionServiceImpl) UpdateSession(ctx context.Context, idOrSlug string, req *domain.UpdateSessionRequest) (*domain.SessionResponse, error) {
	session, err := s.resolve(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, &ValidationError{Kind: KindMissingContent, Message: "title must not be empty"}
		}
		fields["title"] = title
		session.Title = title
	}
	if req.ScheduledStart != nil {
		if !req.ScheduledStart.After(s.now()) {
			return nil, ErrStartNotFuture
		}
		fields["scheduled_start"] = *req.ScheduledStart
		fields["status"] = string(domain.StatusScheduled)
		fields["ended_at"] = nil
		session.ScheduledStart = *req.ScheduledStart
		session.Status = domain.StatusScheduled
		session.EndedAt = nil
	}

	if len(fields) > 0 {
		if err := s.sessions.UpdateFields(ctx, session.ID, fields); err != nil {
			return nil, s.mapNotFound(err)
		}
		s.publishUpdate(ctx, session)
	}

	s.reconcile(ctx, session)
	resp := session.ToResponse()
	return &resp, nil
}

// EndSession closes a session explicitly. This is the only way to end a
// session whose video duration is unknown.
func (s *sessionServiceImpl) EndSession(ctx context.Context, idOrSlug string) (*domain.SessionResponse, error) {
	session, err := s.resolve(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	now := s.now()
	fields := map[string]interface{}{
		"status":   string(domain.StatusEnded),
		"ended_at": now,
	}
	if err := s.sessions.UpdateFields(ctx, session.ID, fields); err != nil {
		return nil, s.mapNotFound(err)
	}

	session.Status = domain.StatusEnded
	session.EndedAt = &now

	event, err := pubsub.NewEvent(pubsub.EventSessionEnded, session.ID, pubsub.SessionUpdatePayload{
		SessionID:      session.ID,
		Title:          session.Title,
		Status:         string(session.Status),
		ScheduledStart: session.ScheduledStart.Unix(),
	})
	if err == nil {
		if pubErr := s.bus.Publish(ctx, pubsub.SessionEventsChannel(session.ID), event); pubErr != nil {
			log.Ctx(ctx).Warn().Err(pubErr).Str(log.FieldSessionID, session.ID).Msg("failed to broadcast session end")
		}
	}

	resp := session.ToResponse()
	return &resp, nil
}

// DeleteSession removes the session, its ledger, its chat history, and the
// guest identities minted for it.
func (s *sessionServiceImpl) DeleteSession(ctx context.Context, idOrSlug string) error {
	session, err := s.resolve(ctx, idOrSlug)
	if err != nil {
		return err
	}
	return s.mapNotFound(s.sessions.Delete(ctx, session.ID))
}

// ReplaceMessages validates and swaps the session's scheduled message list.
// The whole batch is rejected on the first offending entry.
func (s *sessionServiceImpl) ReplaceMessages(ctx context.Context, idOrSlug string, req *domain.ReplaceMessagesRequest) ([]domain.ScheduledMessage, error) {
	session, err := s.resolve(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	duration := session.VideoDuration()
	seen := make(map[int]bool, len(req.Messages))
	messages := make([]*domain.ScheduledMessage, 0, len(req.Messages))

	for _, in := range req.Messages {
		if strings.TrimSpace(in.Text) == "" {
			return nil, &ValidationError{
				Kind:    KindMissingContent,
				Message: fmt.Sprintf("message at offset %d has no text", in.OffsetSeconds),
			}
		}
		if in.OffsetSeconds < 0 || (duration > 0 && in.OffsetSeconds > duration) {
			return nil, &ValidationError{
				Kind:    KindInvalidTimestamp,
				Message: fmt.Sprintf("offset %d is outside [0, %d]", in.OffsetSeconds, duration),
			}
		}
		if seen[in.OffsetSeconds] {
			return nil, &ValidationError{
				Kind:    KindDuplicateTimestamp,
				Message: fmt.Sprintf("duplicate offset %d", in.OffsetSeconds),
			}
		}
		seen[in.OffsetSeconds] = true

		messages = append(messages, &domain.ScheduledMessage{
			OffsetSeconds: in.OffsetSeconds,
			Text:          in.Text,
			SenderName:    in.SenderName,
			SenderAvatar:  in.SenderAvatar,
		})
	}

	if err := s.ledger.ReplaceAll(ctx, session.ID, messages); err != nil {
		return nil, err
	}

	return s.ledger.ListBySession(ctx, session.ID)
}

// ListMessages returns the session's ledger.
func (s *sessionServiceImpl) ListMessages(ctx context.Context, idOrSlug string) ([]domain.ScheduledMessage, error) {
	session, err := s.resolve(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	return s.ledger.ListBySession(ctx, session.ID)
}

// JoinSession mints a session-scoped guest identity and its token.
func (s *sessionServiceImpl) JoinSession(ctx context.Context, idOrSlug string, req *domain.JoinSessionRequest) (*domain.JoinSessionResponse, error) {
	session, err := s.resolve(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	guest := &domain.Guest{
		SessionID:   session.ID,
		DisplayName: req.DisplayName,
	}
	if err := s.guests.Create(ctx, guest); err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(guest.ID, guest.DisplayName, string(domain.RoleGuest), session.ID)
	if err != nil {
		return nil, err
	}

	return &domain.JoinSessionResponse{
		GuestID:     guest.ID,
		DisplayName: guest.DisplayName,
		Token:       token,
	}, nil
}

// RegisterVideo adds a pre-recorded video to the catalog. Zero duration
// means open-ended playback.
func (s *sessionServiceImpl) RegisterVideo(ctx context.Context, req *domain.CreateVideoRequest) (*domain.Video, error) {
	video := &domain.Video{
		Title:           strings.TrimSpace(req.Title),
		DurationSeconds: req.DurationSeconds,
		URL:             req.URL,
	}
	if video.Title == "" {
		return nil, &ValidationError{Kind: KindMissingContent, Message: "title must not be empty"}
	}
	if err := s.sessions.CreateVideo(ctx, video); err != nil {
		return nil, err
	}
	return video, nil
}

// ListVideos returns the video catalog.
func (s *sessionServiceImpl) ListVideos(ctx context.Context) ([]domain.Video, error) {
	return s.sessions.ListVideos(ctx)
}

// resolve centralizes the dual slug/id lookup and error mapping.
func (s *sessionServiceImpl) resolve(ctx context.Context, idOrSlug string) (*domain.Session, error) {
	session, err := s.sessions.Resolve(ctx, idOrSlug)
	if err != nil {
		return nil, s.mapNotFound(err)
	}
	return session, nil
}

// reconcile corrects the persisted status to the clock-derived one. The
// write-back is best effort: if it fails the caller still gets the correct
// computed status for this request.
func (s *sessionServiceImpl) reconcile(ctx context.Context, session *domain.Session) {
	derived := session.DerivedStatus(s.now())
	if derived == session.Status {
		return
	}

	session.Status = derived
	if err := s.sessions.UpdateFields(ctx, session.ID, map[string]interface{}{
		"status": string(derived),
	}); err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Str(log.FieldSessionID, session.ID).
			Str("derived_status", string(derived)).
			Msg("failed to persist reconciled status")
	}
}

func (s *sessionServiceImpl) publishUpdate(ctx context.Context, session *domain.Session) {
	event, err := pubsub.NewEvent(pubsub.EventSessionUpdate, session.ID, pubsub.SessionUpdatePayload{
		SessionID:      session.ID,
		Title:          session.Title,
		Status:         string(session.Status),
		ScheduledStart: session.ScheduledStart.Unix(),
	})
	if err != nil {
		return
	}
	if err := s.bus.Publish(ctx, pubsub.SessionEventsChannel(session.ID), event); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str(log.FieldSessionID, session.ID).Msg("failed to broadcast session update")
	}
}

func (s *sessionServiceImpl) mapNotFound(err error) error {
	if errors.Is(err, repository.ErrSessionNotFound) {
		return ErrSessionNotFound
	}
	return err
}
