package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type Service interface {
	// CompleteOnboarding is idempotent: a user who already owns an
	// organization gets that one back.
	CompleteOnboarding(ctx context.Context, userID uuid.UUID, companyName string) (*Organization, error)
	ListOrganizationsByUser(ctx context.Context, userID uuid.UUID) ([]OrganizationListItem, error)
	GetOrganization(ctx context.Context, orgID uuid.UUID) (*Organization, error)
}

var (
	ErrInvalidUser         = errors.New("invalid_user")
	ErrOnboardingInProcess = errors.New("onboarding_in_progress")
	ErrNotFound            = errors.New("organization_not_found")
)
