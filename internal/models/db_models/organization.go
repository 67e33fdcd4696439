package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type OrganizationStatus string

const (
	OrgStatusActive    OrganizationStatus = "active"
	OrgStatusPending   OrganizationStatus = "pending"
	OrgStatusSuspended OrganizationStatus = "suspended"
)

type EntityStatus string

const (
	EntityStatusActive   EntityStatus = "active"
	EntityStatusInactive EntityStatus = "inactive"
)

type Organization struct {
	BaseModel
	Name         string
	Category     string
	OrgNumber    string `gorm:"size:9"`
	Slug         string `gorm:"uniqueIndex"`
	Description  *string
	ContactEmail string
	ContactPhone *string

	// Stripe Connect
	StripeAccountID      *string `gorm:"index"`
	StripeChargesEnabled bool    `gorm:"default:false"`

	// Vipps Recurring (merchant serial number issued per club)
	VippsMSN     *string
	VippsEnabled bool `gorm:"default:false"`

	SuggestedAmounts datatypes.JSON     `gorm:"type:jsonb;default:'[]'"`
	Status           OrganizationStatus `gorm:"index;default:'pending'"`
}

type Group struct {
	BaseModel
	OrganizationID uuid.UUID `gorm:"index"`
	Name           string
	Slug           string
	Description    *string
	Status         EntityStatus `gorm:"default:'active'"`

	Organization Organization `gorm:"foreignKey:OrganizationID"`
}

type Individual struct {
	BaseModel
	OrganizationID uuid.UUID  `gorm:"index"`
	GroupID        *uuid.UUID `gorm:"index"`
	FirstName      string
	LastName       string
	Slug           string
	Status         EntityStatus `gorm:"default:'active'"`

	Organization Organization `gorm:"foreignKey:OrganizationID"`
	Group        *Group       `gorm:"foreignKey:GroupID"`
}

// CanAcceptPayments reports whether at least one provider is enabled.
func (o *Organization) CanAcceptPayments() bool {
	return o.StripeChargesEnabled || o.VippsEnabled
}
