package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TransactionStatus string

const (
	TxnStatusPending   TransactionStatus = "pending"
	TxnStatusSucceeded TransactionStatus = "succeeded"
	TxnStatusFailed    TransactionStatus = "failed"
	TxnStatusRefunded  TransactionStatus = "refunded"
)

// Transaction is one realized (or attempted) charge against a subscription.
// Created pending by the charge scheduler / callback resolver (Vipps) or
// succeeded directly by the webhook reconciler (Stripe only reports completed
// invoices). The (provider, provider_charge_id) unique index closes the race
// between concurrent duplicate webhook deliveries.
type Transaction struct {
	BaseModel
	SubscriptionID uuid.UUID       `gorm:"index"`
	Provider       PaymentProvider `gorm:"index;uniqueIndex:idx_txn_provider_charge"`

	// Stripe charge id or Vipps charge id, depending on Provider.
	ProviderChargeID *string `gorm:"uniqueIndex:idx_txn_provider_charge"`

	// Recipient references denormalized from the subscription so finance
	// reports never need a join back through cancelled subscriptions.
	OrganizationID uuid.UUID  `gorm:"index"`
	GroupID        *uuid.UUID `gorm:"index"`
	IndividualID   *uuid.UUID `gorm:"index"`

	AmountMinor      int64 // øre
	PlatformFeeMinor int64
	Status           TransactionStatus `gorm:"index"`

	PaidAt *int64

	// Raw provider payloads, failure reasons, etc.
	Receipt datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	Subscription Subscription `gorm:"foreignKey:SubscriptionID"`
}
