package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"minsponsor/internal/models/db_models"
)

type IOrganizationRepository interface {
	GetActiveByID(ctx context.Context, id uuid.UUID) (*db_models.Organization, error)
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.Organization, error)
	GetGroup(ctx context.Context, id uuid.UUID) (*db_models.Group, error)
	GetIndividual(ctx context.Context, id uuid.UUID) (*db_models.Individual, error)
	SetStripeAccount(ctx context.Context, orgID uuid.UUID, accountID string) error
	SetStripeChargesEnabled(ctx context.Context, stripeAccountID string, enabled bool) (int64, error)
}

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) IOrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) GetActiveByID(ctx context.Context, id uuid.UUID) (*db_models.Organization, error) {
	var org db_models.Organization
	err := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, db_models.OrgStatusActive).
		First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Organization, error) {
	var org db_models.Organization
	err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepository) GetGroup(ctx context.Context, id uuid.UUID) (*db_models.Group, error) {
	var group db_models.Group
	err := r.db.WithContext(ctx).First(&group, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &group, nil
}

func (r *OrganizationRepository) GetIndividual(ctx context.Context, id uuid.UUID) (*db_models.Individual, error) {
	var ind db_models.Individual
	err := r.db.WithContext(ctx).First(&ind, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ind, nil
}

func (r *OrganizationRepository) SetStripeAccount(ctx context.Context, orgID uuid.UUID, accountID string) error {
	return r.db.WithContext(ctx).
		Model(&db_models.Organization{}).
		Where("id = ?", orgID).
		Update("stripe_account_id", accountID).Error
}

// SetStripeChargesEnabled mirrors the charges_enabled flag Stripe reports on
// account.updated. Returns the number of matched organizations so callers can
// detect events for unknown accounts.
func (r *OrganizationRepository) SetStripeChargesEnabled(ctx context.Context, stripeAccountID string, enabled bool) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db_models.Organization{}).
		Where("stripe_account_id = ?", stripeAccountID).
		Update("stripe_charges_enabled", enabled)
	return res.RowsAffected, res.Error
}
