package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"minsponsor/internal/models/db_models"
	"minsponsor/pkg/utils"
)

type ITransactionRepository interface {
	Create(ctx context.Context, txn *db_models.Transaction) error
	GetByChargeID(ctx context.Context, provider db_models.PaymentProvider, chargeID string) (*db_models.Transaction, error)
	MarkSucceededByChargeID(ctx context.Context, provider db_models.PaymentProvider, chargeID string) (int64, error)
	MarkFailedByChargeID(ctx context.Context, provider db_models.PaymentProvider, chargeID string) (int64, error)
	ExistsForSubscriptionBetween(ctx context.Context, subID uuid.UUID, fromUnix, toUnix int64) (bool, error)
	LastSucceededAt(ctx context.Context, subID uuid.UUID) (*int64, error)
}

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) ITransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a transaction. The (provider, provider_charge_id) unique
// index makes a concurrent duplicate delivery surface as
// gorm.ErrDuplicatedKey, which callers treat as already-recorded.
func (r *TransactionRepository) Create(ctx context.Context, txn *db_models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *TransactionRepository) GetByChargeID(ctx context.Context, provider db_models.PaymentProvider, chargeID string) (*db_models.Transaction, error) {
	var txn db_models.Transaction
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_charge_id = ?", provider, chargeID).
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (r *TransactionRepository) MarkSucceededByChargeID(ctx context.Context, provider db_models.PaymentProvider, chargeID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db_models.Transaction{}).
		Where("provider = ? AND provider_charge_id = ?", provider, chargeID).
		Updates(map[string]interface{}{
			"status":  db_models.TxnStatusSucceeded,
			"paid_at": utils.NowUnixSeconds(),
		})
	return res.RowsAffected, res.Error
}

func (r *TransactionRepository) MarkFailedByChargeID(ctx context.Context, provider db_models.PaymentProvider, chargeID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db_models.Transaction{}).
		Where("provider = ? AND provider_charge_id = ?", provider, chargeID).
		Update("status", db_models.TxnStatusFailed)
	return res.RowsAffected, res.Error
}

// ExistsForSubscriptionBetween reports whether any transaction (regardless of
// status) was created for the subscription in [fromUnix, toUnix). The charge
// scheduler uses this as its one-charge-per-calendar-month gate.
func (r *TransactionRepository) ExistsForSubscriptionBetween(ctx context.Context, subID uuid.UUID, fromUnix, toUnix int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db_models.Transaction{}).
		Where("subscription_id = ? AND created_at >= ? AND created_at < ?", subID, fromUnix, toUnix).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *TransactionRepository) LastSucceededAt(ctx context.Context, subID uuid.UUID) (*int64, error) {
	var txn db_models.Transaction
	err := r.db.WithContext(ctx).
		Where("subscription_id = ? AND status = ?", subID, db_models.TxnStatusSucceeded).
		Order("created_at DESC").
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn.CreatedAt, nil
}
