package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const DefaultStatus = "Rascunho"

// Keys of the proposal document that are mirrored into columns.
const (
	FieldClientName = "clienteNome"
	FieldNumber     = "propostaNumero"
	FieldDate       = "propostaData"
	FieldStatus     = "status"
)

type Proposal struct {
	ID             snowflake.ID      `json:"id" gorm:"primaryKey"`
	UserID         uuid.UUID         `json:"user_id" gorm:"size:36;not null;index:idx_propostas_user_created,priority:1"`
	ClienteNome    string            `json:"cliente_nome" gorm:"type:text;not null;default:''"`
	PropostaNumero string            `json:"proposta_numero" gorm:"type:text;not null;default:''"`
	DataProposta   *time.Time        `json:"data_proposta,omitempty" gorm:"type:date"`
	Status         string            `json:"status" gorm:"type:text;not null;default:'Rascunho'"`
	Dados          datatypes.JSONMap `json:"dados" gorm:"not null"`
	CreatedAt      time.Time         `json:"created_at" gorm:"not null;index:idx_propostas_user_created,priority:2"`
	UpdatedAt      time.Time         `json:"updated_at" gorm:"not null"`
}

func (Proposal) TableName() string { return "propostas" }
