package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"minsponsor/internal/models/db_models"
)

type IProcessedEventRepository interface {
	MarkProcessed(ctx context.Context, provider db_models.PaymentProvider, eventID string) (duplicate bool, err error)
}

type ProcessedEventRepository struct {
	db *gorm.DB
}

func NewProcessedEventRepository(db *gorm.DB) IProcessedEventRepository {
	return &ProcessedEventRepository{db: db}
}

// MarkProcessed appends the (provider, event_id) marker. A unique-constraint
// collision means the event was already handled; that is the idempotency
// signal, not an error.
func (r *ProcessedEventRepository) MarkProcessed(ctx context.Context, provider db_models.PaymentProvider, eventID string) (bool, error) {
	err := r.db.WithContext(ctx).Create(&db_models.ProcessedEvent{
		Provider: provider,
		EventID:  eventID,
	}).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}
