package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PaymentProvider string

const (
	ProviderStripe PaymentProvider = "stripe"
	ProviderVipps  PaymentProvider = "vipps"
)

type SubscriptionStatus string

const (
	SubStatusPending   SubscriptionStatus = "pending"
	SubStatusActive    SubscriptionStatus = "active"
	SubStatusCancelled SubscriptionStatus = "cancelled"
	SubStatusExpired   SubscriptionStatus = "expired"
)

type SubscriptionInterval string

const (
	IntervalMonthly SubscriptionInterval = "monthly"
	IntervalOneTime SubscriptionInterval = "one_time"
)

// Subscription is one sponsor's commitment to a recipient. Rows are created
// pending (Vipps path) or active straight from the webhook (Stripe path) and
// are only ever mutated by the webhook reconciler, the callback resolver, or
// the checkout orchestrator's compensating delete of a still-pending row.
type Subscription struct {
	BaseModel
	Provider PaymentProvider `gorm:"index"`

	// Stripe subscription id or Vipps agreement id, depending on Provider.
	ProviderSubscriptionID *string `gorm:"uniqueIndex"`
	ProviderCustomerID     *string `gorm:"index"`

	SponsorEmail string
	SponsorName  *string
	SponsorPhone *string

	OrganizationID uuid.UUID  `gorm:"index"`
	GroupID        *uuid.UUID `gorm:"index"`
	IndividualID   *uuid.UUID `gorm:"index"`

	AmountMinor int64                // øre
	Interval    SubscriptionInterval `gorm:"index"`
	Status      SubscriptionStatus   `gorm:"index"`

	StartedAt   *int64
	CancelledAt *int64

	Metadata datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	Organization Organization `gorm:"foreignKey:OrganizationID"`
}
