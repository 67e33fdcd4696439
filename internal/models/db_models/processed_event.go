package db_models

// ProcessedEvent is an append-only idempotency marker. The composite unique
// index is the whole mechanism: an insert that collides means the event was
// already handled, and callers treat gorm.ErrDuplicatedKey as "skip".
type ProcessedEvent struct {
	BaseModel
	Provider PaymentProvider `gorm:"uniqueIndex:idx_processed_provider_event"`
	EventID  string          `gorm:"uniqueIndex:idx_processed_provider_event"`
}
