package domain

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, orgID, userID uuid.UUID) (*Member, error)
	// GetForUpdate locks the row on PostgreSQL until the transaction ends.
	GetForUpdate(ctx context.Context, orgID, userID uuid.UUID) (*Member, error)
	// LockOwners counts the owners of orgID, locking their rows on PostgreSQL.
	LockOwners(ctx context.Context, orgID uuid.UUID) (int64, error)
	UpdateRole(ctx context.Context, orgID, userID uuid.UUID, role Role) (*Member, error)
	Delete(ctx context.Context, orgID, userID uuid.UUID) error
	Insert(ctx context.Context, member Member) error
	Upsert(ctx context.Context, member Member) error
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]Member, error)
}
