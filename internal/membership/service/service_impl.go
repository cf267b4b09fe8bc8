package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	auditdomain "github.com/smallbiznis/propostas/internal/audit/domain"
	"github.com/smallbiznis/propostas/internal/membership/domain"
	"github.com/smallbiznis/propostas/internal/observability/metrics"
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
	Repo    domain.Repository
	Audit   auditdomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	audit   auditdomain.Service
	metrics *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("membership.service"),
		repo:    p.Repo,
		audit:   p.Audit,
		metrics: p.Metrics,
	}
}

func (s *Service) ChangeRole(ctx context.Context, req domain.ChangeRoleRequest) (*domain.Member, error) {
	if !req.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	var updated *domain.Member
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := rls.WithOrganization(tx, req.OrganizationID); err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)

		requester, err := requireMember(ctx, repo, req.OrganizationID, req.RequesterID)
		if err != nil {
			return err
		}
		if err := domain.CanManage(requester.Role); err != nil {
			return err
		}

		target, err := lockTarget(ctx, repo, req.OrganizationID, req.TargetUserID)
		if err != nil {
			return err
		}

		change := domain.RoleChange{
			RequesterID:   req.RequesterID,
			RequesterRole: requester.Role,
			TargetID:      req.TargetUserID,
			TargetRole:    target.Role,
			NewRole:       req.Role,
		}
		if err := domain.EvaluateRoleChange(change); err != nil {
			return err
		}
		if change.DemotesOwner() {
			if err := ensureOwnerRemains(ctx, repo, req.OrganizationID); err != nil {
				return err
			}
		}

		updated, err = repo.UpdateRole(ctx, req.OrganizationID, req.TargetUserID, req.Role)
		if err != nil {
			return fmt.Errorf("update membership role: %w", err)
		}

		targetID := req.TargetUserID
		return s.audit.Record(ctx, tx, auditdomain.Entry{
			OrganizationID: req.OrganizationID,
			ActorUserID:    req.RequesterID,
			TargetUserID:   &targetID,
			Action:         auditdomain.ActionChangeMemberRole,
			Payload: map[string]any{
				"previous_role": string(target.Role),
				"new_role":      string(req.Role),
			},
		})
	})
	err = db.WrapConflict(err)
	s.observe(ctx, auditdomain.ActionChangeMemberRole, err)
	if err != nil {
		return nil, err
	}

	s.log.Info("member role changed",
		zap.String("organization_id", req.OrganizationID.String()),
		zap.String("target_user_id", req.TargetUserID.String()),
		zap.String("role", string(req.Role)),
	)
	return updated, nil
}

func (s *Service) Remove(ctx context.Context, req domain.RemoveRequest) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := rls.WithOrganization(tx, req.OrganizationID); err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)

		requester, err := requireMember(ctx, repo, req.OrganizationID, req.RequesterID)
		if err != nil {
			return err
		}
		if err := domain.CanManage(requester.Role); err != nil {
			return err
		}

		target, err := lockTarget(ctx, repo, req.OrganizationID, req.TargetUserID)
		if err != nil {
			return err
		}

		if err := domain.EvaluateRemoval(requester.Role, target.Role); err != nil {
			return err
		}
		if target.Role == domain.RoleOwner {
			if err := ensureOwnerRemains(ctx, repo, req.OrganizationID); err != nil {
				return err
			}
		}

		if err := repo.Delete(ctx, req.OrganizationID, req.TargetUserID); err != nil {
			return fmt.Errorf("delete membership: %w", err)
		}

		targetID := req.TargetUserID
		return s.audit.Record(ctx, tx, auditdomain.Entry{
			OrganizationID: req.OrganizationID,
			ActorUserID:    req.RequesterID,
			TargetUserID:   &targetID,
			Action:         auditdomain.ActionRemoveMember,
			Payload: map[string]any{
				"removed_role": string(target.Role),
			},
		})
	})
	err = db.WrapConflict(err)
	s.observe(ctx, auditdomain.ActionRemoveMember, err)
	if err != nil {
		return err
	}

	s.log.Info("member removed",
		zap.String("organization_id", req.OrganizationID.String()),
		zap.String("target_user_id", req.TargetUserID.String()),
	)
	return nil
}

func (s *Service) List(ctx context.Context, orgID uuid.UUID) ([]domain.Member, error) {
	members, err := s.repo.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

func (s *Service) observe(ctx context.Context, operation string, err error) {
	if err == nil {
		s.metrics.RecordMemberMutation(ctx, operation, "ok")
		return
	}
	if reason := domain.ReasonCode(err); reason != "" {
		s.metrics.RecordMemberMutation(ctx, operation, "denied")
		s.metrics.RecordPolicyDenial(ctx, reason)
		return
	}
	s.metrics.RecordMemberMutation(ctx, operation, "error")
	if !errors.Is(err, context.Canceled) {
		s.log.Error("membership mutation failed", zap.String("operation", operation), zap.Error(err))
	}
}

// requireMember loads a membership and maps absence to ErrNoAccess.
func requireMember(ctx context.Context, repo domain.Repository, orgID, userID uuid.UUID) (*domain.Member, error) {
	member, err := repo.Get(ctx, orgID, userID)
	if err != nil {
		return nil, fmt.Errorf("load membership: %w", err)
	}
	if member == nil {
		return nil, domain.ErrNoAccess
	}
	return member, nil
}

// lockTarget locks the target membership. Owner targets take the owner rows
// first so concurrent owner changes always lock in the same order.
func lockTarget(ctx context.Context, repo domain.Repository, orgID, userID uuid.UUID) (*domain.Member, error) {
	current, err := repo.Get(ctx, orgID, userID)
	if err != nil {
		return nil, fmt.Errorf("load target membership: %w", err)
	}
	if current == nil {
		return nil, domain.ErrNoAccess
	}
	if current.Role == domain.RoleOwner {
		if _, err := repo.LockOwners(ctx, orgID); err != nil {
			return nil, fmt.Errorf("lock owners: %w", err)
		}
	}

	target, err := repo.GetForUpdate(ctx, orgID, userID)
	if err != nil {
		return nil, fmt.Errorf("lock target membership: %w", err)
	}
	if target == nil {
		return nil, domain.ErrNoAccess
	}
	return target, nil
}

func ensureOwnerRemains(ctx context.Context, repo domain.Repository, orgID uuid.UUID) error {
	owners, err := repo.LockOwners(ctx, orgID)
	if err != nil {
		return fmt.Errorf("count owners: %w", err)
	}
	return domain.EnsureOwnerRemains(owners)
}
