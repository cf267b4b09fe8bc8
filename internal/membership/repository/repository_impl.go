package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/propostas/internal/membership/domain"
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

func (r *repository) Get(ctx context.Context, orgID, userID uuid.UUID) (*domain.Member, error) {
	return r.get(ctx, r.db.WithContext(ctx), orgID, userID)
}

func (r *repository) GetForUpdate(ctx context.Context, orgID, userID uuid.UUID) (*domain.Member, error) {
	stmt := r.db.WithContext(ctx)
	if db.IsPostgres(r.db) {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.get(ctx, stmt, orgID, userID)
}

func (r *repository) get(_ context.Context, stmt *gorm.DB, orgID, userID uuid.UUID) (*domain.Member, error) {
	var member domain.Member
	err := stmt.
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Take(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *repository) LockOwners(ctx context.Context, orgID uuid.UUID) (int64, error) {
	if !db.IsPostgres(r.db) {
		var count int64
		err := r.db.WithContext(ctx).Model(&domain.Member{}).
			Where("organization_id = ? AND role = ?", orgID, domain.RoleOwner).
			Count(&count).Error
		return count, err
	}

	// Aggregates cannot take FOR UPDATE, so lock the rows and count them.
	var owners []uuid.UUID
	err := r.db.WithContext(ctx).Raw(
		`SELECT user_id FROM organization_members
		 WHERE organization_id = ? AND role = ?
		 ORDER BY user_id
		 FOR UPDATE`,
		orgID,
		domain.RoleOwner,
	).Scan(&owners).Error
	if err != nil {
		return 0, err
	}
	return int64(len(owners)), nil
}

func (r *repository) UpdateRole(ctx context.Context, orgID, userID uuid.UUID, role domain.Role) (*domain.Member, error) {
	res := r.db.WithContext(ctx).Model(&domain.Member{}).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Updates(map[string]any{
			"role":       role,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.Get(ctx, orgID, userID)
}

func (r *repository) Delete(ctx context.Context, orgID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Delete(&domain.Member{}).Error
}

func (r *repository) Insert(ctx context.Context, member domain.Member) error {
	return r.db.WithContext(ctx).Create(&member).Error
}

func (r *repository) Upsert(ctx context.Context, member domain.Member) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "organization_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
	}).Create(&member).Error
}

func (r *repository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]domain.Member, error) {
	var members []domain.Member
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}
