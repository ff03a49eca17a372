package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/classcast/classcast/internal/domain"
	"github.com/classcast/classcast/pkg/id"
	"github.com/classcast/classcast/pkg/log"
)

// GormLedgerRepository implements LedgerRepository using GORM.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GORM-based ledger repository.
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// ReplaceAll swaps the session's ledger for the given entries inside one
// transaction. Every inserted entry starts unsent.
func (r *GormLedgerRepository) ReplaceAll(ctx context.Context, sessionID string, messages []*domain.ScheduledMessage) error {
	l := log.Ctx(ctx)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&domain.ScheduledMessageModel{}).Error; err != nil {
			return err
		}

		for _, msg := range messages {
			msg.ID = id.New()
			msg.SessionID = sessionID
			msg.Sent = false
			if err := tx.Create(domain.ScheduledMessageToModel(msg)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		l.Error().Err(err).Str(log.FieldSessionID, sessionID).Msg("failed to replace scheduled messages")
		return err
	}

	l.Debug().Str(log.FieldSessionID, sessionID).Int("count", len(messages)).Msg("scheduled messages replaced")
	return nil
}

// FindDue returns due-but-unsent entries. Due-but-unsent is the only
// selection predicate; ordering among simultaneously-due entries is not
// guaranteed.
func (r *GormLedgerRepository) FindDue(ctx context.Context, sessionID string, currentOffset int) ([]domain.ScheduledMessage, error) {
	l := log.Ctx(ctx)

	var models []domain.ScheduledMessageModel
	result := r.db.WithContext(ctx).
		Where("session_id = ? AND offset_seconds <= ? AND sent = ?", sessionID, currentOffset, false).
		Find(&models)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldSessionID, sessionID).Msg("failed to find due scheduled messages")
		return nil, result.Error
	}

	messages := make([]domain.ScheduledMessage, len(models))
	for i, model := range models {
		messages[i] = *model.ToDomain()
	}
	return messages, nil
}

// MarkSent flips the one-way sent flag. Writing true over true is harmless,
// which makes concurrent triggers safe to race.
func (r *GormLedgerRepository) MarkSent(ctx context.Context, messageID string) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).Model(&domain.ScheduledMessageModel{}).
		Where("id = ?", messageID).
		Update("sent", true)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldMessageID, messageID).Msg("failed to mark scheduled message sent")
		return result.Error
	}
	return nil
}

// ListBySession returns the full ledger for a session ordered by offset.
func (r *GormLedgerRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.ScheduledMessage, error) {
	var models []domain.ScheduledMessageModel
	result := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("offset_seconds ASC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	messages := make([]domain.ScheduledMessage, len(models))
	for i, model := range models {
		messages[i] = *model.ToDomain()
	}
	return messages, nil
}
