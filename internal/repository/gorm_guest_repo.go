package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/classcast/classcast/internal/domain"
	"github.com/classcast/classcast/pkg/id"
	"github.com/classcast/classcast/pkg/log"
)

// GormGuestRepository implements GuestRepository using GORM. It is the
// explicit guest registry: guests are rows keyed by session id, not markers
// hidden in a profile field.
type GormGuestRepository struct {
	db *gorm.DB
}

// NewGormGuestRepository creates a new GORM-based guest repository.
func NewGormGuestRepository(db *gorm.DB) *GormGuestRepository {
	return &GormGuestRepository{db: db}
}

// Create mints a new guest identity for a session.
func (r *GormGuestRepository) Create(ctx context.Context, guest *domain.Guest) error {
	l := log.Ctx(ctx)

	guest.ID = id.New()
	model := &domain.GuestModel{
		ID:          guest.ID,
		SessionID:   guest.SessionID,
		DisplayName: guest.DisplayName,
	}
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldSessionID, guest.SessionID).Msg("failed to create guest")
		return result.Error
	}
	guest.CreatedAt = model.CreatedAt
	return nil
}

// GetByID retrieves a guest by id.
func (r *GormGuestRepository) GetByID(ctx context.Context, guestID string) (*domain.Guest, error) {
	var model domain.GuestModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", guestID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// DeleteBySession removes every guest minted for a session.
func (r *GormGuestRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&domain.GuestModel{}).Error
}
