package email

import (
	"strings"

	"github.com/smallbiznis/propostas/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.email",
	fx.Provide(NewFromConfig),
)

// NewFromConfig returns the SMTP provider, or a provider that only logs when
// no SMTP host is configured.
func NewFromConfig(cfg config.Config, log *zap.Logger) (Provider, error) {
	if strings.TrimSpace(cfg.Email.SMTPHost) == "" {
		log.Named("email").Warn("smtp host not configured, outgoing e-mail is disabled")
		return &NoOpProvider{}, nil
	}
	return NewSMTP(Config{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		Username: cfg.Email.SMTPUsername,
		Password: cfg.Email.SMTPPassword,
		From:     cfg.Email.SMTPFrom,
	})
}
