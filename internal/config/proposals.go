package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ProposalDefaults seeds the editor when a new proposal is started.
type ProposalDefaults struct {
	CompanyName      string   `mapstructure:"companyName"`
	CompanySubtitle  string   `mapstructure:"companySubtitle"`
	CompanyAddress   string   `mapstructure:"companyAddress"`
	CompanyCNPJ      string   `mapstructure:"companyCnpj"`
	CompanyLegalName string   `mapstructure:"companyLegalName"`
	PrimaryColor     string   `mapstructure:"primaryColor"`
	SecondaryColor   string   `mapstructure:"secondaryColor"`
	Validity         string   `mapstructure:"validity"`
	IntroText        string   `mapstructure:"introText"`
	Statuses         []string `mapstructure:"statuses"`
	DefaultStatus    string   `mapstructure:"defaultStatus"`
}

func DefaultProposalDefaults() ProposalDefaults {
	return ProposalDefaults{
		CompanyName:      "RGA Recursos Humanos",
		CompanySubtitle:  "RECURSOS HUMANOS",
		CompanyAddress:   "Rua Das Águias, n. 960, bairro São Lázaro – CEP 69.073-140 – Manaus, Amazonas.",
		CompanyCNPJ:      "55.534.852/0001-50",
		CompanyLegalName: "INSTITUTO RGA",
		PrimaryColor:     "#1976D2",
		SecondaryColor:   "#E53935",
		Validity:         "5 dias a contar desta data",
		IntroText:        "Sabemos que suas vagas não são para qualquer um.",
		Statuses:         []string{"Rascunho", "Enviada", "Aceita", "Recusada"},
		DefaultStatus:    "Rascunho",
	}
}

type ProposalDefaultsHolder struct {
	current atomic.Value // holds ProposalDefaults
}

// NewProposalDefaultsHolder reads propostas.yml when present and keeps it
// in sync with the file on disk.
func NewProposalDefaultsHolder(log *zap.Logger) (*ProposalDefaultsHolder, error) {
	log = log.Named("config.proposals")

	v := viper.New()
	v.SetConfigName("propostas")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/propostas")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PROPOSTAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultProposalDefaults()
	v.SetDefault("proposals.companyName", defaults.CompanyName)
	v.SetDefault("proposals.companySubtitle", defaults.CompanySubtitle)
	v.SetDefault("proposals.companyAddress", defaults.CompanyAddress)
	v.SetDefault("proposals.companyCnpj", defaults.CompanyCNPJ)
	v.SetDefault("proposals.companyLegalName", defaults.CompanyLegalName)
	v.SetDefault("proposals.primaryColor", defaults.PrimaryColor)
	v.SetDefault("proposals.secondaryColor", defaults.SecondaryColor)
	v.SetDefault("proposals.validity", defaults.Validity)
	v.SetDefault("proposals.introText", defaults.IntroText)
	v.SetDefault("proposals.statuses", defaults.Statuses)
	v.SetDefault("proposals.defaultStatus", defaults.DefaultStatus)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileFound = false
	}

	var cfg ProposalDefaults
	if err := v.UnmarshalKey("proposals", &cfg); err != nil {
		return nil, err
	}
	if err := validateProposalDefaults(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticProposalDefaults(cfg)

	if fileFound {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated ProposalDefaults
			if err := v.UnmarshalKey("proposals", &updated); err != nil {
				log.Warn("reload failed", zap.String("file", e.Name), zap.Error(err))
				return
			}
			if err := validateProposalDefaults(updated); err != nil {
				log.Warn("invalid config ignored", zap.String("file", e.Name), zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("proposal defaults reloaded", zap.String("file", e.Name))
		})
	}

	return holder, nil
}

// NewStaticProposalDefaults returns a holder that never reloads.
func NewStaticProposalDefaults(cfg ProposalDefaults) *ProposalDefaultsHolder {
	holder := &ProposalDefaultsHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *ProposalDefaultsHolder) Get() ProposalDefaults {
	return h.current.Load().(ProposalDefaults)
}

func validateProposalDefaults(cfg ProposalDefaults) error {
	if len(cfg.Statuses) == 0 {
		return errors.New("proposals.statuses cannot be empty")
	}
	for _, status := range cfg.Statuses {
		if status == cfg.DefaultStatus {
			return nil
		}
	}
	return errors.New("proposals.defaultStatus must be one of proposals.statuses")
}
