package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	auditdomain "github.com/smallbiznis/propostas/internal/audit/domain"
	"github.com/smallbiznis/propostas/internal/audit/masking"
	"github.com/smallbiznis/propostas/internal/clock"
	"github.com/smallbiznis/propostas/internal/config"
	"github.com/smallbiznis/propostas/internal/invitation/domain"
	memberdomain "github.com/smallbiznis/propostas/internal/membership/domain"
	"github.com/smallbiznis/propostas/internal/observability/metrics"
	"github.com/smallbiznis/propostas/internal/providers/email"
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
	Config  config.Config
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Members memberdomain.Repository
	Audit   auditdomain.Service
	Email   email.Provider   `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	ttl       time.Duration
	acceptURL string
	repo      domain.Repository
	members   memberdomain.Repository
	audit     auditdomain.Service
	email     email.Provider
	metrics   *metrics.Metrics
}

func NewService(p Params) domain.Service {
	ttl := p.Config.Invite.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	mailer := p.Email
	if mailer == nil {
		mailer = &email.NoOpProvider{}
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("invitation.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		ttl:       ttl,
		acceptURL: p.Config.Invite.AcceptURL,
		repo:      p.Repo,
		members:   p.Members,
		audit:     p.Audit,
		email:     mailer,
		metrics:   p.Metrics,
	}
}

func (s *Service) Invite(ctx context.Context, req domain.InviteRequest) (*domain.Invite, error) {
	address := strings.ToLower(strings.TrimSpace(req.Email))
	if address == "" {
		return nil, domain.ErrInvalidEmail
	}
	if !req.Role.Valid() {
		return nil, memberdomain.ErrInvalidRole
	}

	var stored *domain.Invite
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := rls.WithOrganization(tx, req.OrganizationID); err != nil {
			return err
		}

		requester, err := s.members.WithTx(tx).Get(ctx, req.OrganizationID, req.RequesterID)
		if err != nil {
			return fmt.Errorf("load membership: %w", err)
		}
		if requester == nil {
			return memberdomain.ErrNoAccess
		}
		if err := memberdomain.EvaluateInvite(requester.Role, req.Role); err != nil {
			return err
		}

		now := s.clock.Now()
		token := uuid.New()
		expiresAt := now.Add(s.ttl)
		stored, err = s.repo.WithTx(tx).Upsert(ctx, domain.Invite{
			ID:             s.genID.Generate(),
			OrganizationID: req.OrganizationID,
			Email:          address,
			Role:           req.Role,
			Status:         domain.StatusPending,
			InvitedBy:      req.RequesterID,
			Token:          &token,
			ExpiresAt:      &expiresAt,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			return fmt.Errorf("upsert invite: %w", err)
		}

		return s.audit.Record(ctx, tx, auditdomain.Entry{
			OrganizationID: req.OrganizationID,
			ActorUserID:    req.RequesterID,
			Action:         auditdomain.ActionInviteMember,
			Payload: map[string]any{
				"email":     address,
				"role":      string(req.Role),
				"invite_id": stored.ID.String(),
			},
		})
	})
	err = db.WrapConflict(err)
	s.observe(ctx, err)
	if err != nil {
		return nil, err
	}

	s.sendInviteEmail(ctx, *stored)
	return stored, nil
}

// sendInviteEmail is best effort; the invite stays valid when delivery fails.
func (s *Service) sendInviteEmail(ctx context.Context, invite domain.Invite) {
	if invite.Token == nil {
		return
	}
	link, err := s.acceptLink(*invite.Token)
	if err != nil {
		s.log.Warn("invalid invite accept url", zap.Error(err))
		return
	}

	data := map[string]any{
		"role":       string(invite.Role),
		"accept_url": link,
	}
	if invite.ExpiresAt != nil {
		data["expires_at"] = invite.ExpiresAt.Format("02/01/2006 15:04")
	}

	if err := s.email.SendTemplate(ctx, []string{invite.Email}, email.TemplateInviteMember, data); err != nil {
		s.log.Warn("failed to send invite email",
			zap.String("email", masking.MaskEmail(invite.Email)),
			zap.String("token", masking.MaskSecret(invite.Token.String())),
			zap.Error(err),
		)
		return
	}
	s.log.Info("invite email sent", zap.String("email", masking.MaskEmail(invite.Email)))
}

func (s *Service) acceptLink(token uuid.UUID) (string, error) {
	base, err := url.Parse(s.acceptURL)
	if err != nil {
		return "", err
	}
	query := base.Query()
	query.Set("token", token.String())
	base.RawQuery = query.Encode()
	return base.String(), nil
}

func (s *Service) Validate(ctx context.Context, token string) (*domain.Invite, error) {
	return s.lookup(ctx, s.repo.WithTx(s.db), token, false)
}

// lookup applies the validation order: missing token, unknown, accepted, expired.
func (s *Service) lookup(ctx context.Context, repo domain.Repository, rawToken string, forUpdate bool) (*domain.Invite, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, domain.ErrTokenMissing
	}
	token, err := uuid.Parse(rawToken)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	invite, err := repo.FindByToken(ctx, token, forUpdate)
	if err != nil {
		return nil, fmt.Errorf("find invite: %w", err)
	}
	if invite == nil {
		return nil, domain.ErrNotFound
	}
	if invite.AcceptedAt != nil {
		return nil, domain.ErrAlreadyAccepted
	}
	if invite.Expired(s.clock.Now()) {
		return nil, domain.ErrExpired
	}
	return invite, nil
}

func (s *Service) Accept(ctx context.Context, req domain.AcceptRequest) (*domain.AcceptResult, error) {
	var result domain.AcceptResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invite, err := s.lookup(ctx, repo, req.Token, true)
		if err != nil {
			return err
		}
		if invite.Token == nil {
			return domain.ErrNotFound
		}

		inviteEmail := strings.ToLower(strings.TrimSpace(invite.Email))
		userEmail := strings.ToLower(strings.TrimSpace(req.Email))
		if inviteEmail != "" && inviteEmail != userEmail {
			return domain.ErrEmailMismatch
		}

		if err := rls.WithOrganization(tx, invite.OrganizationID); err != nil {
			return err
		}
		members := s.members.WithTx(tx)

		existing, err := members.GetForUpdate(ctx, invite.OrganizationID, req.UserID)
		if err != nil {
			return fmt.Errorf("load membership: %w", err)
		}
		if existing != nil && existing.Role == memberdomain.RoleOwner && invite.Role != memberdomain.RoleOwner {
			owners, err := members.LockOwners(ctx, invite.OrganizationID)
			if err != nil {
				return fmt.Errorf("count owners: %w", err)
			}
			if err := memberdomain.EnsureOwnerRemains(owners); err != nil {
				return err
			}
		}

		now := s.clock.Now()
		member := memberdomain.Member{
			OrganizationID: invite.OrganizationID,
			UserID:         req.UserID,
			Role:           invite.Role,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if existing != nil {
			member.CreatedAt = existing.CreatedAt
		}
		if err := members.Upsert(ctx, member); err != nil {
			return fmt.Errorf("upsert membership: %w", err)
		}

		consumed := *invite.Token
		userID := req.UserID
		invite.Status = domain.StatusAccepted
		invite.Token = nil
		invite.AcceptedToken = &consumed
		invite.AcceptedAt = &now
		invite.AcceptedBy = &userID
		invite.UpdatedAt = now
		if err := repo.MarkAccepted(ctx, *invite); err != nil {
			if errors.Is(err, domain.ErrAlreadyAccepted) {
				return err
			}
			return fmt.Errorf("mark invite accepted: %w", err)
		}

		if err := s.audit.Record(ctx, tx, auditdomain.Entry{
			OrganizationID: invite.OrganizationID,
			ActorUserID:    req.UserID,
			TargetUserID:   &userID,
			Action:         auditdomain.ActionAcceptInvite,
			Payload: map[string]any{
				"invite_id": invite.ID.String(),
				"role":      string(invite.Role),
			},
		}); err != nil {
			return err
		}

		result = domain.AcceptResult{Invite: *invite, Member: member}
		return nil
	})
	err = db.WrapConflict(err)
	if err != nil {
		s.metrics.RecordInviteAcceptance(ctx, acceptanceOutcome(err))
		return nil, err
	}

	s.metrics.RecordInviteAcceptance(ctx, "accepted")
	s.log.Info("invite accepted",
		zap.String("organization_id", result.Invite.OrganizationID.String()),
		zap.String("user_id", req.UserID.String()),
	)
	return &result, nil
}

func (s *Service) ListPending(ctx context.Context, orgID uuid.UUID) ([]domain.Invite, error) {
	invites, err := s.repo.ListPending(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	return invites, nil
}

func (s *Service) observe(ctx context.Context, err error) {
	if err == nil {
		s.metrics.RecordMemberMutation(ctx, auditdomain.ActionInviteMember, "ok")
		return
	}
	if reason := memberdomain.ReasonCode(err); reason != "" {
		s.metrics.RecordMemberMutation(ctx, auditdomain.ActionInviteMember, "denied")
		s.metrics.RecordPolicyDenial(ctx, reason)
		return
	}
	s.metrics.RecordMemberMutation(ctx, auditdomain.ActionInviteMember, "error")
}

func acceptanceOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenMissing), errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrAlreadyAccepted):
		return "already_accepted"
	case errors.Is(err, domain.ErrExpired):
		return "expired"
	case errors.Is(err, domain.ErrEmailMismatch):
		return "email_mismatch"
	case errors.Is(err, memberdomain.ErrLastOwner):
		return "last_owner"
	case errors.Is(err, db.ErrConcurrentUpdate):
		return "conflict"
	default:
		return "error"
	}
}
