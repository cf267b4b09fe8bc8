package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/smallbiznis/propostas/internal/invitation/domain"
	"github.com/smallbiznis/propostas/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

// Upsert inserts the invite or refreshes the existing one for the same
// organization and email, then returns the stored row.
func (r *repository) Upsert(ctx context.Context, invite domain.Invite) (*domain.Invite, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "organization_id"}, {Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"role",
			"status",
			"invited_by",
			"token",
			"accepted_token",
			"expires_at",
			"accepted_at",
			"accepted_by",
			"updated_at",
		}),
	}).Create(&invite).Error
	if err != nil {
		return nil, err
	}

	var stored domain.Invite
	err = r.db.WithContext(ctx).
		Where("organization_id = ? AND email = ?", invite.OrganizationID, invite.Email).
		Take(&stored).Error
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *repository) FindByToken(ctx context.Context, token uuid.UUID, forUpdate bool) (*domain.Invite, error) {
	stmt := r.db.WithContext(ctx)
	if forUpdate && db.IsPostgres(r.db) {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var invite domain.Invite
	err := stmt.
		Where("token = ? OR accepted_token = ?", token, token).
		Take(&invite).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *repository) MarkAccepted(ctx context.Context, invite domain.Invite) error {
	res := r.db.WithContext(ctx).Model(&domain.Invite{}).
		Where("id = ? AND accepted_at IS NULL", invite.ID).
		Updates(map[string]any{
			"status":         invite.Status,
			"token":          nil,
			"accepted_token": invite.AcceptedToken,
			"accepted_at":    invite.AcceptedAt,
			"accepted_by":    invite.AcceptedBy,
			"updated_at":     invite.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAlreadyAccepted
	}
	return nil
}

func (r *repository) ListPending(ctx context.Context, orgID uuid.UUID) ([]domain.Invite, error) {
	var invites []domain.Invite
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND status = ?", orgID, domain.StatusPending).
		Order("created_at DESC").
		Find(&invites).Error
	if err != nil {
		return nil, err
	}
	return invites, nil
}
