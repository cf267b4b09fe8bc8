package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/propostas/internal/proposal/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, proposal *domain.Proposal) error {
	return db.WithContext(ctx).Create(proposal).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, proposal *domain.Proposal) (bool, error) {
	result := db.WithContext(ctx).
		Model(&domain.Proposal{}).
		Where("id = ? AND user_id = ?", proposal.ID, proposal.UserID).
		Updates(map[string]any{
			"cliente_nome":    proposal.ClienteNome,
			"proposta_numero": proposal.PropostaNumero,
			"data_proposta":   proposal.DataProposta,
			"status":          proposal.Status,
			"dados":           proposal.Dados,
			"updated_at":      proposal.UpdatedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID uuid.UUID, id snowflake.ID) (*domain.Proposal, error) {
	var proposal domain.Proposal
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&proposal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, userID uuid.UUID, id snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Proposal{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, userID uuid.UUID, search string) ([]domain.Proposal, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Proposal{}).
		Where("user_id = ?", userID)

	if search = strings.TrimSpace(search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		stmt = stmt.Where(
			"(LOWER(cliente_nome) LIKE ? ESCAPE '!' OR LOWER(proposta_numero) LIKE ? ESCAPE '!')",
			pattern, pattern,
		)
	}

	var proposals []domain.Proposal
	if err := stmt.Order("created_at DESC").Order("id DESC").Find(&proposals).Error; err != nil {
		return nil, err
	}
	return proposals, nil
}

func (r *repo) LatestNumberForYear(ctx context.Context, db *gorm.DB, userID uuid.UUID, year int) (string, error) {
	var numbers []string
	err := db.WithContext(ctx).
		Model(&domain.Proposal{}).
		Where("user_id = ? AND proposta_numero LIKE ?", userID, fmt.Sprintf("%%/%d", year)).
		Order("created_at DESC").
		Limit(1).
		Pluck("proposta_numero", &numbers).Error
	if err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return replacer.Replace(value)
}
