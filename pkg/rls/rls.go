package rls

import (
	"github.com/google/uuid"
	"github.com/smallbiznis/propostas/pkg/db"
	"gorm.io/gorm"
)

// WithOrganization scopes row-level security policies to orgID for the rest
// of the transaction. It is a no-op outside PostgreSQL.
func WithOrganization(tx *gorm.DB, orgID uuid.UUID) error {
	if !db.IsPostgres(tx) {
		return nil
	}
	return tx.Exec("SELECT set_config('app.current_org_id', ?, true)", orgID.String()).Error
}
