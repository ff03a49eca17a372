package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/classcast/classcast/internal/domain"
	"github.com/classcast/classcast/pkg/id"
	"github.com/classcast/classcast/pkg/log"
)

// GormChatRepository implements ChatRepository using GORM.
type GormChatRepository struct {
	db *gorm.DB
}

// NewGormChatRepository creates a new GORM-based chat repository.
func NewGormChatRepository(db *gorm.DB) *GormChatRepository {
	return &GormChatRepository{db: db}
}

// Create persists one chat message. IDs are time-sortable so history reads
// come back in send order even across processes.
func (r *GormChatRepository) Create(ctx context.Context, msg *domain.ChatMessage) error {
	l := log.Ctx(ctx)

	if msg.ID == "" {
		msg.ID = id.NewMessageID()
	}
	model := domain.ChatMessageToModel(msg)
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldSessionID, msg.SessionID).Msg("failed to persist chat message")
		return result.Error
	}
	msg.CreatedAt = model.CreatedAt
	return nil
}

// ListBySession returns up to limit most recent messages in ascending time
// order, for history replay.
func (r *GormChatRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var models []domain.ChatMessageModel
	result := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	// Reverse into ascending order for display.
	messages := make([]domain.ChatMessage, len(models))
	for i, model := range models {
		messages[len(models)-1-i] = *model.ToDomain()
	}
	return messages, nil
}
