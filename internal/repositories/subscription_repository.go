package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"minsponsor/internal/models/db_models"
	"minsponsor/pkg/utils"
)

type ISubscriptionRepository interface {
	Create(ctx context.Context, sub *db_models.Subscription) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.Subscription, error)
	GetByProviderSubscriptionID(ctx context.Context, psid string) (*db_models.Subscription, error)
	SetProviderSubscriptionID(ctx context.Context, id uuid.UUID, psid string) error
	Activate(ctx context.Context, psid string) (int64, error)
	Cancel(ctx context.Context, psid string) (int64, error)
	Expire(ctx context.Context, psid string) (int64, error)
	ActivateByID(ctx context.Context, id uuid.UUID) error
	ExpireByID(ctx context.Context, id uuid.UUID) error
	ListActiveVippsMonthly(ctx context.Context) ([]db_models.Subscription, error)
}

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) ISubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *db_models.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

// Delete is the checkout saga's compensating action. It must be idempotent:
// deleting an already-gone row is not an error.
func (r *SubscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&db_models.Subscription{}, "id = ?", id).Error
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Subscription, error) {
	var sub db_models.Subscription
	err := r.db.WithContext(ctx).
		Preload("Organization").
		First(&sub, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) GetByProviderSubscriptionID(ctx context.Context, psid string) (*db_models.Subscription, error) {
	var sub db_models.Subscription
	err := r.db.WithContext(ctx).
		Preload("Organization").
		First(&sub, "provider_subscription_id = ?", psid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) SetProviderSubscriptionID(ctx context.Context, id uuid.UUID, psid string) error {
	return r.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Where("id = ?", id).
		Update("provider_subscription_id", psid).Error
}

func (r *SubscriptionRepository) Activate(ctx context.Context, psid string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Where("provider_subscription_id = ?", psid).
		Updates(map[string]interface{}{
			"status":     db_models.SubStatusActive,
			"started_at": utils.NowUnixSeconds(),
		})
	return res.RowsAffected, res.Error
}

func (r *SubscriptionRepository) Cancel(ctx context.Context, psid string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Where("provider_subscription_id = ?", psid).
		Updates(map[string]interface{}{
			"status":       db_models.SubStatusCancelled,
			"cancelled_at": utils.NowUnixSeconds(),
		})
	return res.RowsAffected, res.Error
}

// Expire marks the subscription expired without a cancelled_at timestamp:
// expiry is the provider timing out an agreement, not a sponsor action.
func (r *SubscriptionRepository) Expire(ctx context.Context, psid string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Where("provider_subscription_id = ?", psid).
		Update("status", db_models.SubStatusExpired)
	return res.RowsAffected, res.Error
}

func (r *SubscriptionRepository) ActivateByID(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     db_models.SubStatusActive,
			"started_at": utils.NowUnixSeconds(),
		}).Error
}

func (r *SubscriptionRepository) ExpireByID(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Where("id = ?", id).
		Update("status", db_models.SubStatusExpired).Error
}

func (r *SubscriptionRepository) ListActiveVippsMonthly(ctx context.Context) ([]db_models.Subscription, error) {
	var subs []db_models.Subscription
	err := r.db.WithContext(ctx).
		Preload("Organization").
		Where("provider = ? AND status = ? AND interval = ? AND provider_subscription_id IS NOT NULL",
			db_models.ProviderVipps, db_models.SubStatusActive, db_models.IntervalMonthly).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}
