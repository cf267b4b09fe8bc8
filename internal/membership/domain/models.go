// Package domain holds organization membership models and the role policy.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// ParseRole accepts owner, admin or member, ignoring surrounding spaces.
func ParseRole(value string) (Role, error) {
	switch role := Role(strings.TrimSpace(value)); role {
	case RoleOwner, RoleAdmin, RoleMember:
		return role, nil
	default:
		return "", ErrInvalidRole
	}
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Elevated reports whether the role may manage other members.
func (r Role) Elevated() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Member is one row of organization_members. A user holds at most one role per organization.
type Member struct {
	OrganizationID uuid.UUID `gorm:"primaryKey;size:36;column:organization_id" json:"organization_id"`
	UserID         uuid.UUID `gorm:"primaryKey;size:36;column:user_id" json:"user_id"`
	Role           Role      `gorm:"type:text;not null;index" json:"role"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (Member) TableName() string { return "organization_members" }
