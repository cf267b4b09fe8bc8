package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	auditdomain "github.com/smallbiznis/propostas/internal/audit/domain"
	"github.com/smallbiznis/propostas/internal/clock"
	memberdomain "github.com/smallbiznis/propostas/internal/membership/domain"
	"github.com/smallbiznis/propostas/internal/organization/domain"
	"github.com/smallbiznis/propostas/internal/ratelimit"
	"github.com/smallbiznis/propostas/pkg/db"
	"github.com/smallbiznis/propostas/pkg/rls"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    domain.Repository
	Members memberdomain.Repository
	Audit   auditdomain.Service
	Locker  *ratelimit.KeyedLocker `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    domain.Repository
	members memberdomain.Repository
	audit   auditdomain.Service
	locker  *ratelimit.KeyedLocker
}

func NewService(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("organization.service"),
		clock:   p.Clock,
		repo:    p.Repo,
		members: p.Members,
		audit:   p.Audit,
		locker:  p.Locker,
	}
}

func (s *Service) CompleteOnboarding(ctx context.Context, userID uuid.UUID, companyName string) (*domain.Organization, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrInvalidUser
	}

	var org *domain.Organization
	err := s.locker.WithOnboardingLock(ctx, userID.String(), func() error {
		var err error
		org, err = s.onboard(ctx, userID, companyName)
		return err
	})
	if errors.Is(err, ratelimit.ErrLocked) {
		return nil, domain.ErrOnboardingInProcess
	}
	if err != nil {
		return nil, err
	}
	return org, nil
}

func (s *Service) onboard(ctx context.Context, userID uuid.UUID, companyName string) (*domain.Organization, error) {
	var org *domain.Organization
	created := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindOwnedBy(ctx, userID)
		if err != nil {
			return fmt.Errorf("find owned organization: %w", err)
		}
		if existing != nil {
			org = existing
			return nil
		}

		name := strings.TrimSpace(companyName)
		if name == "" {
			name = domain.DefaultOrganizationName
		}
		orgID := uuid.New()
		orgSlug, err := s.uniqueSlug(ctx, repo, name, orgID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		candidate := domain.Organization{
			ID:        orgID,
			Name:      name,
			Slug:      orgSlug,
			CreatedBy: userID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := repo.CreateOrganization(ctx, candidate); err != nil {
			return fmt.Errorf("create organization: %w", err)
		}

		if err := rls.WithOrganization(tx, orgID); err != nil {
			return err
		}
		if err := s.members.WithTx(tx).Insert(ctx, memberdomain.Member{
			OrganizationID: orgID,
			UserID:         userID,
			Role:           memberdomain.RoleOwner,
			CreatedAt:      now,
			UpdatedAt:      now,
		}); err != nil {
			return fmt.Errorf("create owner membership: %w", err)
		}

		if err := s.audit.Record(ctx, tx, auditdomain.Entry{
			OrganizationID: orgID,
			ActorUserID:    userID,
			Action:         auditdomain.ActionCompleteOnboarding,
			Payload: map[string]any{
				"name": name,
				"slug": orgSlug,
			},
		}); err != nil {
			return err
		}

		org = &candidate
		created = true
		return nil
	})
	if err != nil {
		return nil, db.WrapConflict(err)
	}

	if created {
		s.log.Info("organization created",
			zap.String("organization_id", org.ID.String()),
			zap.String("slug", org.Slug),
		)
	}
	return org, nil
}

func (s *Service) uniqueSlug(ctx context.Context, repo domain.Repository, name string, orgID uuid.UUID) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "organizacao"
	}

	exists, err := repo.SlugExists(ctx, base)
	if err != nil {
		return "", fmt.Errorf("check slug: %w", err)
	}
	if !exists {
		return base, nil
	}
	return base + "-" + strings.ReplaceAll(orgID.String(), "-", "")[:8], nil
}

func (s *Service) ListOrganizationsByUser(ctx context.Context, userID uuid.UUID) ([]domain.OrganizationListItem, error) {
	items, err := s.repo.ListOrganizationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	return items, nil
}

func (s *Service) GetOrganization(ctx context.Context, orgID uuid.UUID) (*domain.Organization, error) {
	org, err := s.repo.FindByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return org, nil
}
