package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	memberdomain "github.com/smallbiznis/propostas/internal/membership/domain"
)

type InvitationStatus string

const (
	StatusPending  InvitationStatus = "pending"
	StatusAccepted InvitationStatus = "accepted"
)

// Invite is one row of organization_invites, unique per (organization_id, email).
// Token is cleared on acceptance; AcceptedToken keeps the consumed value so a
// replayed link is reported as already accepted rather than unknown.
type Invite struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id,string"`
	OrganizationID uuid.UUID         `gorm:"size:36;not null;uniqueIndex:ux_organization_invites_org_email,priority:1" json:"organization_id"`
	Email          string            `gorm:"size:320;not null;uniqueIndex:ux_organization_invites_org_email,priority:2" json:"email"`
	Role           memberdomain.Role `gorm:"type:text;not null" json:"role"`
	Status         InvitationStatus  `gorm:"type:text;not null" json:"status"`
	InvitedBy      uuid.UUID         `gorm:"size:36;not null" json:"invited_by"`
	Token          *uuid.UUID        `gorm:"size:36;uniqueIndex" json:"-"`
	AcceptedToken  *uuid.UUID        `gorm:"size:36;index" json:"-"`
	ExpiresAt      *time.Time        `json:"expires_at"`
	AcceptedAt     *time.Time        `json:"accepted_at"`
	AcceptedBy     *uuid.UUID        `gorm:"size:36" json:"accepted_by"`
	CreatedAt      time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null" json:"updated_at"`
}

func (Invite) TableName() string { return "organization_invites" }

// Expired reports whether the invite can no longer be used at now. An invite
// without an expiry never expires.
func (i Invite) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && !i.ExpiresAt.After(now)
}
