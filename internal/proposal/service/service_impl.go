package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/smallbiznis/propostas/internal/clock"
	"github.com/smallbiznis/propostas/internal/config"
	"github.com/smallbiznis/propostas/internal/proposal/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

var numberPattern = regexp.MustCompile(`(\d+)/(\d+)`)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Clock    clock.Clock
	Defaults *config.ProposalDefaultsHolder
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	clock    clock.Clock
	defaults *config.ProposalDefaultsHolder
	validate *validator.Validate
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("proposal.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		clock:    p.Clock,
		defaults: p.Defaults,
		validate: validator.New(),
	}
}

// documentFields are the parts of a proposal document mirrored into columns.
type documentFields struct {
	ClienteNome    string `validate:"max=500"`
	PropostaNumero string `validate:"max=64"`
	PropostaData   string `validate:"omitempty,datetime=2006-01-02"`
	Status         string `validate:"required,max=32"`
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	if req.UserID == uuid.Nil {
		return nil, domain.ErrInvalidUser
	}

	items, err := s.repo.List(ctx, s.db, req.UserID, req.Search)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID, id string) (*domain.Response, error) {
	proposal, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(proposal)
	return &resp, nil
}

func (s *Service) Save(ctx context.Context, req domain.SaveRequest) (*domain.Response, error) {
	if req.UserID == uuid.Nil {
		return nil, domain.ErrInvalidUser
	}
	if req.Dados == nil {
		return nil, domain.ErrInvalidPayload
	}

	fields, err := s.extractFields(req.Dados)
	if err != nil {
		return nil, err
	}

	var proposalDate *time.Time
	if fields.PropostaData != "" {
		parsed, err := time.Parse(dateLayout, fields.PropostaData)
		if err != nil {
			return nil, domain.ErrInvalidPayload
		}
		proposalDate = &parsed
	}

	now := s.clock.Now()
	proposal := &domain.Proposal{
		UserID:         req.UserID,
		ClienteNome:    fields.ClienteNome,
		PropostaNumero: fields.PropostaNumero,
		DataProposta:   proposalDate,
		Status:         fields.Status,
		Dados:          datatypes.JSONMap(req.Dados),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if strings.TrimSpace(req.ID) == "" {
		proposal.ID = s.genID.Generate()
		if err := s.repo.Insert(ctx, s.db, proposal); err != nil {
			return nil, fmt.Errorf("insert proposal: %w", err)
		}
		resp := toResponse(proposal)
		return &resp, nil
	}

	existing, err := s.load(ctx, req.UserID, req.ID)
	if err != nil {
		return nil, err
	}
	proposal.ID = existing.ID
	proposal.CreatedAt = existing.CreatedAt

	updated, err := s.repo.Update(ctx, s.db, proposal)
	if err != nil {
		return nil, fmt.Errorf("update proposal: %w", err)
	}
	if !updated {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(proposal)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	if userID == uuid.Nil {
		return domain.ErrInvalidUser
	}
	proposalID, err := parseID(id)
	if err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, s.db, userID, proposalID)
	if err != nil {
		return fmt.Errorf("delete proposal: %w", err)
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Service) Duplicate(ctx context.Context, userID uuid.UUID, id string) (map[string]any, error) {
	proposal, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	dados := make(map[string]any, len(proposal.Dados)+1)
	for key, value := range proposal.Dados {
		dados[key] = value
	}
	dados[domain.FieldNumber] = ""
	return dados, nil
}

func (s *Service) NextNumber(ctx context.Context, userID uuid.UUID) (string, error) {
	if userID == uuid.Nil {
		return "", domain.ErrInvalidUser
	}

	year := s.clock.Now().Year()
	last, err := s.repo.LatestNumberForYear(ctx, s.db, userID, year)
	if err != nil {
		return "", fmt.Errorf("latest proposal number: %w", err)
	}

	next := 1
	if match := numberPattern.FindStringSubmatch(last); match != nil {
		if n, err := strconv.Atoi(match[1]); err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("%d/%d", next, year), nil
}

func (s *Service) NewDraft(ctx context.Context, userID uuid.UUID) (map[string]any, error) {
	number, err := s.NextNumber(ctx, userID)
	if err != nil {
		return nil, err
	}

	defaults := s.defaults.Get()
	return map[string]any{
		"empresaNome":        defaults.CompanyName,
		"empresaSubtitulo":   defaults.CompanySubtitle,
		"empresaEndereco":    defaults.CompanyAddress,
		"empresaCNPJ":        defaults.CompanyCNPJ,
		"empresaRazaoSocial": defaults.CompanyLegalName,
		"corPrimaria":        defaults.PrimaryColor,
		"corSecundaria":      defaults.SecondaryColor,
		"propostaValidade":   defaults.Validity,
		"introTexto":         defaults.IntroText,
		"clienteNome":        "",
		"clienteCNPJ":        "",
		domain.FieldNumber:   number,
		domain.FieldDate:     s.clock.Now().Format(dateLayout),
		domain.FieldStatus:   defaults.DefaultStatus,
	}, nil
}

func (s *Service) load(ctx context.Context, userID uuid.UUID, id string) (*domain.Proposal, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrInvalidUser
	}
	proposalID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	proposal, err := s.repo.FindByID(ctx, s.db, userID, proposalID)
	if err != nil {
		return nil, fmt.Errorf("find proposal: %w", err)
	}
	if proposal == nil {
		return nil, domain.ErrNotFound
	}
	return proposal, nil
}

func (s *Service) extractFields(dados map[string]any) (documentFields, error) {
	var fields documentFields
	var err error

	if fields.ClienteNome, err = stringField(dados, domain.FieldClientName); err != nil {
		return fields, err
	}
	if fields.PropostaNumero, err = stringField(dados, domain.FieldNumber); err != nil {
		return fields, err
	}
	if fields.PropostaData, err = stringField(dados, domain.FieldDate); err != nil {
		return fields, err
	}
	if fields.Status, err = stringField(dados, domain.FieldStatus); err != nil {
		return fields, err
	}
	if fields.Status == "" {
		fields.Status = domain.DefaultStatus
	}

	if err := s.validate.Struct(fields); err != nil {
		s.log.Debug("proposal payload rejected", zap.Error(err))
		return fields, domain.ErrInvalidPayload
	}

	allowed := false
	for _, status := range s.defaults.Get().Statuses {
		if status == fields.Status {
			allowed = true
			break
		}
	}
	if !allowed {
		return fields, domain.ErrInvalidStatus
	}
	return fields, nil
}

func stringField(dados map[string]any, key string) (string, error) {
	raw, ok := dados[key]
	if !ok || raw == nil {
		return "", nil
	}
	value, ok := raw.(string)
	if !ok {
		return "", domain.ErrInvalidPayload
	}
	return strings.TrimSpace(value), nil
}

func parseID(id string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed <= 0 {
		return 0, domain.ErrInvalidID
	}
	return parsed, nil
}

func toResponse(p *domain.Proposal) domain.Response {
	var date *string
	if p.DataProposta != nil {
		formatted := p.DataProposta.Format(dateLayout)
		date = &formatted
	}
	dados := map[string]any(p.Dados)
	if dados == nil {
		dados = map[string]any{}
	}
	return domain.Response{
		ID:             p.ID.String(),
		UserID:         p.UserID.String(),
		ClienteNome:    p.ClienteNome,
		PropostaNumero: p.PropostaNumero,
		DataProposta:   date,
		Status:         p.Status,
		Dados:          dados,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
