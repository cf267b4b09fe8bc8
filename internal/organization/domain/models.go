// Package domain contains persistence models for organizations.
package domain

import (
	"time"

	"github.com/google/uuid"
)

const DefaultOrganizationName = "Minha empresa"

// Organization represents a tenant.
type Organization struct {
	ID        uuid.UUID `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	Slug      string    `gorm:"size:191;not null;uniqueIndex:ux_organizations_slug" json:"slug"`
	CreatedBy uuid.UUID `gorm:"size:36;not null;index" json:"created_by"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }

type OrganizationListItem struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
