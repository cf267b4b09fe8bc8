package domain

import (
	"context"

	"github.com/google/uuid"
)

type ChangeRoleRequest struct {
	OrganizationID uuid.UUID
	RequesterID    uuid.UUID
	TargetUserID   uuid.UUID
	Role           Role
}

type RemoveRequest struct {
	OrganizationID uuid.UUID
	RequesterID    uuid.UUID
	TargetUserID   uuid.UUID
}

type Service interface {
	ChangeRole(ctx context.Context, req ChangeRoleRequest) (*Member, error)
	Remove(ctx context.Context, req RemoveRequest) error
	List(ctx context.Context, orgID uuid.UUID) ([]Member, error)
}
