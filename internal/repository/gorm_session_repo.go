package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/classcast/classcast/internal/domain"
	"github.com/classcast/classcast/pkg/id"
	"github.com/classcast/classcast/pkg/log"
)

// GormSessionRepository implements SessionRepository using GORM.
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GORM-based session repository.
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// Create creates a new session with a fresh primary id and public slug.
func (r *GormSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	l := log.Ctx(ctx)

	session.ID = id.New()
	slug, err := id.NewSlug()
	if err != nil {
		return err
	}
	session.Slug = slug
	if session.Status == "" {
		session.Status = domain.StatusScheduled
	}

	model := domain.SessionToModel(session)
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		l.Error().Err(result.Error).Msg("failed to create session in db")
		return result.Error
	}

	session.CreatedAt = model.CreatedAt
	l.Debug().Str(log.FieldSessionID, session.ID).Str(log.FieldSlug, session.Slug).Msg("session created in db")
	return nil
}

// GetByID retrieves a session by primary id, with its video preloaded.
func (r *GormSessionRepository) GetByID(ctx context.Context, sessionID string) (*domain.Session, error) {
	return r.getOne(ctx, "id = ?", sessionID)
}

// GetBySlug retrieves a session by public slug, with its video preloaded.
func (r *GormSessionRepository) GetBySlug(ctx context.Context, slug string) (*domain.Session, error) {
	return r.getOne(ctx, "slug = ?", slug)
}

// Resolve accepts either the public slug or the internal id, slug first.
func (r *GormSessionRepository) Resolve(ctx context.Context, idOrSlug string) (*domain.Session, error) {
	if !id.IsUUID(idOrSlug) {
		return r.GetBySlug(ctx, idOrSlug)
	}
	session, err := r.GetByID(ctx, idOrSlug)
	if errors.Is(err, ErrSessionNotFound) {
		// An id-shaped string can still be a slug in principle.
		return r.GetBySlug(ctx, idOrSlug)
	}
	return session, err
}

func (r *GormSessionRepository) getOne(ctx context.Context, query string, arg string) (*domain.Session, error) {
	l := log.Ctx(ctx)

	var model domain.SessionModel
	result := r.db.WithContext(ctx).Preload("Video").First(&model, query, arg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		l.Error().Err(result.Error).Msg("failed to get session")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// CreateVideo registers a video with a fresh id.
func (r *GormSessionRepository) CreateVideo(ctx context.Context, video *domain.Video) error {
	l := log.Ctx(ctx)

	video.ID = id.New()
	model := domain.VideoToModel(video)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		l.Error().Err(err).Msg("failed to create video in db")
		return err
	}
	video.CreatedAt = model.CreatedAt
	return nil
}

// ListVideos retrieves every registered video, newest first.
func (r *GormSessionRepository) ListVideos(ctx context.Context) ([]domain.Video, error) {
	var models []domain.VideoModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error; err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to list videos from db")
		return nil, err
	}

	videos := make([]domain.Video, len(models))
	for i, model := range models {
		videos[i] = *model.ToDomain()
	}
	return videos, nil
}

// List retrieves sessions with pagination, filtered by status and ordered
// by scheduled start.
func (r *GormSessionRepository) List(ctx context.Context, page, pageSize int, status string) ([]domain.Session, int, error) {
	l := log.Ctx(ctx)

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	offset := (page - 1) * pageSize

	query := r.db.WithContext(ctx).Model(&domain.SessionModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		l.Error().Err(err).Msg("failed to count sessions")
		return nil, 0, err
	}

	var models []domain.SessionModel
	if err := query.Preload("Video").Order("scheduled_start ASC").Offset(offset).Limit(pageSize).Find(&models).Error; err != nil {
		l.Error().Err(err).Msg("failed to list sessions from db")
		return nil, 0, err
	}

	sessions := make([]domain.Session, len(models))
	for i, model := range models {
		sessions[i] = *model.ToDomain()
	}

	return sessions, int(total), nil
}

// UpdateFields writes a subset of columns on one session row.
func (r *GormSessionRepository) UpdateFields(ctx context.Context, sessionID string, fields map[string]interface{}) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).Model(&domain.SessionModel{}).
		Where("id = ?", sessionID).
		Updates(fields)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldSessionID, sessionID).Msg("failed to update session fields")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes the session and everything minted for it: scheduled
// messages, chat history, and guest identities.
func (r *GormSessionRepository) Delete(ctx context.Context, sessionID string) error {
	l := log.Ctx(ctx)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", sessionID).Delete(&domain.SessionModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrSessionNotFound
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&domain.ScheduledMessageModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&domain.ChatMessageModel{}).Error; err != nil {
			return err
		}
		return tx.Where("session_id = ?", sessionID).Delete(&domain.GuestModel{}).Error
	})
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			l.Error().Err(err).Str(log.FieldSessionID, sessionID).Msg("failed to delete session")
		}
		return err
	}

	l.Debug().Str(log.FieldSessionID, sessionID).Msg("session deleted with cascade")
	return nil
}

// GetVideo retrieves a video by id.
func (r *GormSessionRepository) GetVideo(ctx context.Context, videoID string) (*domain.Video, error) {
	var model domain.VideoModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", videoID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}
