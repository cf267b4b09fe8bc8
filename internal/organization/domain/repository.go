package domain

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrganization(ctx context.Context, org Organization) error
	// FindOwnedBy returns the oldest organization userID owns, or nil.
	FindOwnedBy(ctx context.Context, userID uuid.UUID) (*Organization, error)
	// FindByID returns nil when the organization does not exist.
	FindByID(ctx context.Context, orgID uuid.UUID) (*Organization, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListOrganizationsByUser(ctx context.Context, userID uuid.UUID) ([]OrganizationListItem, error)
}
