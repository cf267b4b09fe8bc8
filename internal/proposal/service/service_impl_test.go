package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/propostas/internal/clock"
	"github.com/smallbiznis/propostas/internal/config"
	"github.com/smallbiznis/propostas/internal/dbtest"
	"github.com/smallbiznis/propostas/internal/proposal/domain"
	"github.com/smallbiznis/propostas/internal/proposal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	svc := NewService(Params{
		DB:       dbtest.Open(t),
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     repository.Provide(),
		Clock:    fakeClock,
		Defaults: config.NewStaticProposalDefaults(config.DefaultProposalDefaults()),
	})
	return svc, fakeClock
}

func save(t *testing.T, svc domain.Service, fakeClock *clock.FakeClock, userID uuid.UUID, dados map[string]any) *domain.Response {
	t.Helper()
	resp, err := svc.Save(context.Background(), domain.SaveRequest{UserID: userID, Dados: dados})
	require.NoError(t, err)
	fakeClock.Advance(time.Minute)
	return resp
}

func TestNextNumberStartsAtOneAndIncrements(t *testing.T) {
	svc, fakeClock := newService(t)
	userID := uuid.New()

	number, err := svc.NextNumber(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "1/2026", number)

	save(t, svc, fakeClock, userID, map[string]any{"propostaNumero": "7/2026"})
	save(t, svc, fakeClock, userID, map[string]any{"propostaNumero": "3/2025"})

	number, err = svc.NextNumber(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "8/2026", number)

	other, err := svc.NextNumber(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "1/2026", other)
}

func TestNextNumberUsesMostRecentlyCreated(t *testing.T) {
	svc, fakeClock := newService(t)
	userID := uuid.New()

	save(t, svc, fakeClock, userID, map[string]any{"propostaNumero": "12/2026"})
	save(t, svc, fakeClock, userID, map[string]any{"propostaNumero": "4/2026"})

	number, err := svc.NextNumber(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "5/2026", number)
}

func TestSaveDerivesColumnsAndUpdatesOwnedRow(t *testing.T) {
	svc, fakeClock := newService(t)
	userID := uuid.New()

	created := save(t, svc, fakeClock, userID, map[string]any{
		"clienteNome":    " Acme Ltda ",
		"propostaNumero": "1/2026",
		"propostaData":   "2026-03-10",
	})
	assert.Equal(t, "Acme Ltda", created.ClienteNome)
	assert.Equal(t, domain.DefaultStatus, created.Status)
	require.NotNil(t, created.DataProposta)
	assert.Equal(t, "2026-03-10", *created.DataProposta)

	updated, err := svc.Save(context.Background(), domain.SaveRequest{
		ID:     created.ID,
		UserID: userID,
		Dados: map[string]any{
			"clienteNome":    "Acme S.A.",
			"propostaNumero": "1/2026",
			"status":         "Enviada",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	got, err := svc.Get(context.Background(), userID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme S.A.", got.ClienteNome)
	assert.Equal(t, "Enviada", got.Status)
	assert.Nil(t, got.DataProposta)

	_, err = svc.Save(context.Background(), domain.SaveRequest{
		ID:     created.ID,
		UserID: uuid.New(),
		Dados:  map[string]any{"clienteNome": "Intruso"},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveRejectsInvalidPayload(t *testing.T) {
	svc, _ := newService(t)
	userID := uuid.New()

	_, err := svc.Save(context.Background(), domain.SaveRequest{UserID: userID, Dados: map[string]any{"status": "Arquivada"}})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = svc.Save(context.Background(), domain.SaveRequest{UserID: userID, Dados: map[string]any{"propostaData": "10/03/2026"}})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	_, err = svc.Save(context.Background(), domain.SaveRequest{UserID: userID, Dados: map[string]any{"clienteNome": 42}})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	_, err = svc.Save(context.Background(), domain.SaveRequest{UserID: userID})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestListSearchesNameAndNumberNewestFirst(t *testing.T) {
	svc, fakeClock := newService(t)
	userID := uuid.New()

	save(t, svc, fakeClock, userID, map[string]any{"clienteNome": "Padaria Central", "propostaNumero": "1/2026"})
	save(t, svc, fakeClock, userID, map[string]any{"clienteNome": "Oficina do Zé", "propostaNumero": "2/2026"})
	save(t, svc, fakeClock, uuid.New(), map[string]any{"clienteNome": "Padaria Alheia", "propostaNumero": "1/2026"})

	all, err := svc.List(context.Background(), domain.ListRequest{UserID: userID})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "2/2026", all[0].PropostaNumero)

	byName, err := svc.List(context.Background(), domain.ListRequest{UserID: userID, Search: "PADARIA"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Padaria Central", byName[0].ClienteNome)

	byNumber, err := svc.List(context.Background(), domain.ListRequest{UserID: userID, Search: "2/20"})
	require.NoError(t, err)
	require.Len(t, byNumber, 1)
	assert.Equal(t, "2/2026", byNumber[0].PropostaNumero)

	none, err := svc.List(context.Background(), domain.ListRequest{UserID: userID, Search: "%"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDuplicateClearsNumberWithoutPersisting(t *testing.T) {
	svc, fakeClock := newService(t)
	userID := uuid.New()

	created := save(t, svc, fakeClock, userID, map[string]any{"clienteNome": "Acme", "propostaNumero": "9/2026"})

	dados, err := svc.Duplicate(context.Background(), userID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "", dados["propostaNumero"])
	assert.Equal(t, "Acme", dados["clienteNome"])

	items, err := svc.List(context.Background(), domain.ListRequest{UserID: userID})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestDeleteOnlyOwnedRows(t *testing.T) {
	svc, fakeClock := newService(t)
	userID := uuid.New()
	created := save(t, svc, fakeClock, userID, map[string]any{"clienteNome": "Acme"})

	assert.ErrorIs(t, svc.Delete(context.Background(), uuid.New(), created.ID), domain.ErrNotFound)
	require.NoError(t, svc.Delete(context.Background(), userID, created.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), userID, created.ID), domain.ErrNotFound)

	_, err := svc.Get(context.Background(), userID, "not-a-number")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestNewDraftUsesDefaultsAndNextNumber(t *testing.T) {
	svc, fakeClock := newService(t)
	userID := uuid.New()
	save(t, svc, fakeClock, userID, map[string]any{"propostaNumero": "2/2026"})

	draft, err := svc.NewDraft(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "3/2026", draft["propostaNumero"])
	assert.Equal(t, "2026-03-10", draft["propostaData"])
	assert.Equal(t, "Rascunho", draft["status"])
	assert.Equal(t, "RGA Recursos Humanos", draft["empresaNome"])
}
