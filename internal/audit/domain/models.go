package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ActionInviteMember       = "invite_member"
	ActionChangeMemberRole   = "change_member_role"
	ActionRemoveMember       = "remove_member"
	ActionAcceptInvite       = "accept_invite"
	ActionCompleteOnboarding = "complete_onboarding"
)

// AuditLog is an append-only record of an administrative action. Rows are
// never updated or deleted.
type AuditLog struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id,string"`
	OrganizationID uuid.UUID         `gorm:"size:36;not null;index:idx_admin_audit_logs_org_created,priority:1" json:"organization_id"`
	ActorUserID    uuid.UUID         `gorm:"size:36;not null" json:"actor_user_id"`
	TargetUserID   *uuid.UUID        `gorm:"size:36" json:"target_user_id"`
	Action         string            `gorm:"type:text;not null" json:"action"`
	Payload        datatypes.JSONMap `gorm:"not null" json:"payload"`
	RequestID      *string           `gorm:"type:text" json:"request_id,omitempty"`
	IPAddress      *string           `gorm:"type:text" json:"ip_address,omitempty"`
	UserAgent      *string           `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;index:idx_admin_audit_logs_org_created,priority:2" json:"created_at"`
}

func (AuditLog) TableName() string { return "admin_audit_logs" }

// Entry is what callers hand to Record.
type Entry struct {
	OrganizationID uuid.UUID
	ActorUserID    uuid.UUID
	TargetUserID   *uuid.UUID
	Action         string
	Payload        map[string]any
}

type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	OrganizationID uuid.UUID
	Action         string
	TargetUserID   *uuid.UUID
	Cursor         *AuditCursor
	Limit          int
}
