package organization

import (
	"github.com/smallbiznis/propostas/internal/organization/repository"
	"github.com/smallbiznis/propostas/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
