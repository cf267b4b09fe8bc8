package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposalLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := signToken(t, uuid.New(), "")

	w := ts.do(t, http.MethodGet, "/api/proposals/next_number", token, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "1/2026", decodeBody(t, w)["proposta_numero"])

	w = ts.do(t, http.MethodGet, "/api/proposals/new", token, nil)
	requireStatus(t, w, http.StatusOK)
	draft := decodeBody(t, w)["dados"].(map[string]any)
	assert.Equal(t, "1/2026", draft["propostaNumero"])
	assert.Equal(t, "2026-03-10", draft["propostaData"])
	assert.Equal(t, "Rascunho", draft["status"])

	draft["clienteNome"] = "Construtora Rio Negro"
	w = ts.do(t, http.MethodPost, "/api/proposals", token, map[string]any{"dados": draft})
	requireStatus(t, w, http.StatusCreated)
	created := decodeBody(t, w)
	id := created["id"].(string)
	assert.Equal(t, "Construtora Rio Negro", created["cliente_nome"])
	assert.Equal(t, "1/2026", created["proposta_numero"])
	assert.Equal(t, "2026-03-10", created["data_proposta"])

	ts.clock.Advance(time.Minute)
	w = ts.do(t, http.MethodGet, "/api/proposals/next_number", token, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "2/2026", decodeBody(t, w)["proposta_numero"])

	draft["status"] = "Enviada"
	w = ts.do(t, http.MethodPut, "/api/proposals/"+id, token, map[string]any{"dados": draft})
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "Enviada", decodeBody(t, w)["status"])

	w = ts.do(t, http.MethodGet, "/api/proposals?q=rio%20negro", token, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Len(t, decodeBody(t, w)["data"], 1)

	w = ts.do(t, http.MethodGet, "/api/proposals?q=inexistente", token, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Len(t, decodeBody(t, w)["data"], 0)

	w = ts.do(t, http.MethodPost, "/api/proposals/"+id+"/duplicate", token, nil)
	requireStatus(t, w, http.StatusOK)
	copied := decodeBody(t, w)["dados"].(map[string]any)
	assert.Equal(t, "", copied["propostaNumero"])
	assert.Equal(t, "Construtora Rio Negro", copied["clienteNome"])

	w = ts.do(t, http.MethodDelete, "/api/proposals/"+id, token, nil)
	requireStatus(t, w, http.StatusNoContent)

	w = ts.do(t, http.MethodGet, "/api/proposals/"+id, token, nil)
	requireStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "Proposta não encontrada.", errorMessage(t, w))
}

func TestProposalsAreScopedToOwner(t *testing.T) {
	ts := newTestServer(t)
	owner := signToken(t, uuid.New(), "")
	stranger := signToken(t, uuid.New(), "")

	w := ts.do(t, http.MethodPost, "/api/proposals", owner, map[string]any{"dados": map[string]any{"clienteNome": "Cliente A"}})
	requireStatus(t, w, http.StatusCreated)
	id := decodeBody(t, w)["id"].(string)

	w = ts.do(t, http.MethodGet, "/api/proposals/"+id, stranger, nil)
	requireStatus(t, w, http.StatusNotFound)

	w = ts.do(t, http.MethodPut, "/api/proposals/"+id, stranger, map[string]any{"dados": map[string]any{"clienteNome": "X"}})
	requireStatus(t, w, http.StatusNotFound)

	w = ts.do(t, http.MethodDelete, "/api/proposals/"+id, stranger, nil)
	requireStatus(t, w, http.StatusNotFound)

	w = ts.do(t, http.MethodGet, "/api/proposals", stranger, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Len(t, decodeBody(t, w)["data"], 0)
}

func TestProposalValidation(t *testing.T) {
	ts := newTestServer(t)
	token := signToken(t, uuid.New(), "")

	cases := []struct {
		name    string
		body    any
		status  int
		message string
	}{
		{"no dados", map[string]any{}, http.StatusBadRequest, "Dados da proposta inválidos."},
		{"bad json", "{", http.StatusBadRequest, "Corpo da requisição inválido."},
		{"bad date", map[string]any{"dados": map[string]any{"propostaData": "10/03/2026"}}, http.StatusBadRequest, "Dados da proposta inválidos."},
		{"bad status", map[string]any{"dados": map[string]any{"status": "Arquivada"}}, http.StatusBadRequest, "Status de proposta inválido."},
		{"non string field", map[string]any{"dados": map[string]any{"clienteNome": 42}}, http.StatusBadRequest, "Dados da proposta inválidos."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/proposals", token, tc.body)
			requireStatus(t, w, tc.status)
			assert.Equal(t, tc.message, errorMessage(t, w))
		})
	}

	w := ts.do(t, http.MethodGet, "/api/proposals/abc", token, nil)
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "Identificador de proposta inválido.", errorMessage(t, w))
}

func TestProposalsRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/proposals", "", nil)
	requireStatus(t, w, http.StatusUnauthorized)

	w = ts.do(t, http.MethodPatch, "/api/proposals/1", signToken(t, uuid.New(), ""), nil)
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
