package authorization

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Service answers capability questions for organization-scoped reads.
// Membership mutations are decided by the membership policy instead.
type Service interface {
	Authorize(ctx context.Context, userID, orgID uuid.UUID, object string, action string) error
}

var (
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidActor        = errors.New("invalid_actor")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidObject       = errors.New("invalid_object")
	ErrInvalidAction       = errors.New("invalid_action")
)
