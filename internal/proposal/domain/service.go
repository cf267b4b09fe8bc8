package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Service interface {
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, userID uuid.UUID, id string) (*Response, error)
	Save(ctx context.Context, req SaveRequest) (*Response, error)
	Delete(ctx context.Context, userID uuid.UUID, id string) error
	// Duplicate returns a copy of the stored document with the number
	// cleared. Nothing is persisted.
	Duplicate(ctx context.Context, userID uuid.UUID, id string) (map[string]any, error)
	NextNumber(ctx context.Context, userID uuid.UUID) (string, error)
	NewDraft(ctx context.Context, userID uuid.UUID) (map[string]any, error)
}

type ListRequest struct {
	UserID uuid.UUID
	Search string
}

// SaveRequest inserts when ID is empty and updates the owned row otherwise.
type SaveRequest struct {
	ID     string
	UserID uuid.UUID
	Dados  map[string]any
}

type Response struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	ClienteNome    string         `json:"cliente_nome"`
	PropostaNumero string         `json:"proposta_numero"`
	DataProposta   *string        `json:"data_proposta"`
	Status         string         `json:"status"`
	Dados          map[string]any `json:"dados"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

var (
	ErrInvalidUser    = errors.New("invalid_user")
	ErrInvalidID      = errors.New("invalid_id")
	ErrInvalidPayload = errors.New("invalid_payload")
	ErrInvalidStatus  = errors.New("invalid_status")
	ErrNotFound       = errors.New("proposal_not_found")
)
