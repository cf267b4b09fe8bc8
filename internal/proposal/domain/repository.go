package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, proposal *Proposal) error
	// Update rewrites an owned row and reports whether it existed.
	Update(ctx context.Context, db *gorm.DB, proposal *Proposal) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, userID uuid.UUID, id snowflake.ID) (*Proposal, error)
	Delete(ctx context.Context, db *gorm.DB, userID uuid.UUID, id snowflake.ID) (bool, error)
	List(ctx context.Context, db *gorm.DB, userID uuid.UUID, search string) ([]Proposal, error)
	// LatestNumberForYear returns the number of the most recently created
	// proposal whose number ends in "/<year>", or "" when there is none.
	LatestNumberForYear(ctx context.Context, db *gorm.DB, userID uuid.UUID, year int) (string, error)
}
