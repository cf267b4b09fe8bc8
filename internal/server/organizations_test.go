package server

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	memberdomain "github.com/smallbiznis/propostas/internal/membership/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteOnboardingIsIdempotent(t *testing.T) {
	ts := newTestServer(t)
	user := uuid.New()
	token := signToken(t, user, "dono@example.com")

	w := ts.do(t, http.MethodPost, "/functions/v1/complete_onboarding", token, map[string]any{"company_name": "  Padaria Boa Massa "})
	requireStatus(t, w, http.StatusOK)
	first := decodeBody(t, w)["organization"].(map[string]any)
	assert.Equal(t, "Padaria Boa Massa", first["name"])
	assert.Equal(t, "padaria-boa-massa", first["slug"])

	w = ts.do(t, http.MethodPost, "/functions/v1/complete_onboarding", token, nil)
	requireStatus(t, w, http.StatusOK)
	second := decodeBody(t, w)["organization"].(map[string]any)
	assert.Equal(t, first["id"], second["id"])

	w = ts.do(t, http.MethodGet, "/api/organizations", token, nil)
	requireStatus(t, w, http.StatusOK)
	items := decodeBody(t, w)["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "owner", items[0].(map[string]any)["role"])
}

func TestCompleteOnboardingDefaultName(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/functions/v1/complete_onboarding", signToken(t, uuid.New(), ""), nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "Minha empresa", decodeBody(t, w)["organization"].(map[string]any)["name"])
}

func TestListOrganizationsRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/organizations", "", nil)
	requireStatus(t, w, http.StatusUnauthorized)
	assert.Equal(t, "Unauthorized.", errorMessage(t, w))
}

func TestGetOrganizationRequiresMembership(t *testing.T) {
	ts := newTestServer(t)
	owner := uuid.New()

	w := ts.do(t, http.MethodPost, "/functions/v1/complete_onboarding", signToken(t, owner, ""), map[string]any{"company_name": "Acme"})
	requireStatus(t, w, http.StatusOK)
	orgID := decodeBody(t, w)["organization"].(map[string]any)["id"].(string)

	member := uuid.New()
	ts.addMember(t, uuid.MustParse(orgID), member, memberdomain.RoleMember)

	w = ts.do(t, http.MethodGet, "/api/organizations/"+orgID, signToken(t, member, ""), nil)
	requireStatus(t, w, http.StatusOK)
	org := decodeBody(t, w)["organization"].(map[string]any)
	assert.Equal(t, orgID, org["id"])
	assert.Equal(t, "Acme", org["name"])

	w = ts.do(t, http.MethodGet, "/api/organizations/"+orgID, signToken(t, uuid.New(), ""), nil)
	requireStatus(t, w, http.StatusForbidden)
	assert.Equal(t, "Usuário sem permissão para esta operação.", errorMessage(t, w))
}
