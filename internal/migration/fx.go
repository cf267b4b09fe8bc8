package migration

import (
	auditdomain "github.com/smallbiznis/propostas/internal/audit/domain"
	invitationdomain "github.com/smallbiznis/propostas/internal/invitation/domain"
	memberdomain "github.com/smallbiznis/propostas/internal/membership/domain"
	organizationdomain "github.com/smallbiznis/propostas/internal/organization/domain"
	proposaldomain "github.com/smallbiznis/propostas/internal/proposal/domain"
	"github.com/smallbiznis/propostas/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Apply),
)

// Apply brings the schema up to date. PostgreSQL uses the versioned SQL
// migrations; other dialects are created from the models.
func Apply(conn *gorm.DB, log *zap.Logger) error {
	log = log.Named("migration")

	if db.IsPostgres(conn) {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB); err != nil {
			return err
		}
		log.Info("migrations applied", zap.String("dialect", "postgres"))
		return nil
	}

	if err := conn.AutoMigrate(Models()...); err != nil {
		return err
	}
	log.Info("schema synchronised from models", zap.String("dialect", conn.Dialector.Name()))
	return nil
}

func Models() []any {
	return []any{
		&organizationdomain.Organization{},
		&memberdomain.Member{},
		&invitationdomain.Invite{},
		&auditdomain.AuditLog{},
		&proposaldomain.Proposal{},
	}
}
