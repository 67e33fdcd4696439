package db_models

import "github.com/google/uuid"

// ReportShare backs shareable finance-report links. Link generation itself
// lives outside this service; the table is part of the shared schema.
type ReportShare struct {
	BaseModel
	OrganizationID uuid.UUID `gorm:"index"`
	Token          string    `gorm:"uniqueIndex"`
	ExpiresAt      *int64

	Organization Organization `gorm:"foreignKey:OrganizationID"`
}
