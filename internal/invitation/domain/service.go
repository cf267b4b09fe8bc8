package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
	memberdomain "github.com/smallbiznis/propostas/internal/membership/domain"
	"gorm.io/gorm"
)

type InviteRequest struct {
	OrganizationID uuid.UUID
	RequesterID    uuid.UUID
	Email          string
	Role           memberdomain.Role
}

type AcceptRequest struct {
	Token  string
	UserID uuid.UUID
	Email  string
}

type AcceptResult struct {
	Invite Invite              `json:"invite"`
	Member memberdomain.Member `json:"member"`
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, invite Invite) (*Invite, error)
	// FindByToken matches the live token or the one consumed on acceptance.
	FindByToken(ctx context.Context, token uuid.UUID, forUpdate bool) (*Invite, error)
	MarkAccepted(ctx context.Context, invite Invite) error
	ListPending(ctx context.Context, orgID uuid.UUID) ([]Invite, error)
}

type Service interface {
	Invite(ctx context.Context, req InviteRequest) (*Invite, error)
	Validate(ctx context.Context, token string) (*Invite, error)
	Accept(ctx context.Context, req AcceptRequest) (*AcceptResult, error)
	ListPending(ctx context.Context, orgID uuid.UUID) ([]Invite, error)
}

var (
	ErrInvalidEmail    = errors.New("invalid_email")
	ErrTokenMissing    = errors.New("invite_token_missing")
	ErrNotFound        = errors.New("invite_not_found")
	ErrAlreadyAccepted = errors.New("invite_already_accepted")
	ErrExpired         = errors.New("invite_expired")
	ErrEmailMismatch   = errors.New("invite_email_mismatch")
)
