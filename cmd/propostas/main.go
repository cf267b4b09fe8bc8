package main

import (
	"github.com/smallbiznis/propostas/internal/audit"
	"github.com/smallbiznis/propostas/internal/auth"
	"github.com/smallbiznis/propostas/internal/authorization"
	"github.com/smallbiznis/propostas/internal/clock"
	"github.com/smallbiznis/propostas/internal/config"
	"github.com/smallbiznis/propostas/internal/invitation"
	"github.com/smallbiznis/propostas/internal/membership"
	"github.com/smallbiznis/propostas/internal/migration"
	"github.com/smallbiznis/propostas/internal/observability"
	"github.com/smallbiznis/propostas/internal/organization"
	"github.com/smallbiznis/propostas/internal/proposal"
	"github.com/smallbiznis/propostas/internal/providers"
	"github.com/smallbiznis/propostas/internal/ratelimit"
	"github.com/smallbiznis/propostas/internal/server"
	"github.com/smallbiznis/propostas/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		db.Module,
		clock.Module,
		migration.Module,
		ratelimit.Module,
		providers.Module,

		// Domains
		audit.Module,
		membership.Module,
		invitation.Module,
		organization.Module,
		proposal.Module,
		auth.Module,
		authorization.Module,

		server.Module,
	)
	app.Run()
}
