package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) inviteToken(t *testing.T, email string) string {
	t.Helper()
	var token string
	require.NoError(t, ts.db.Table("organization_invites").Select("token").Where("email = ?", email).Scan(&token).Error)
	require.NotEmpty(t, token)
	return token
}

func TestInviteAndAccept(t *testing.T) {
	ts := newTestServer(t)
	f := newOrgFixture(t, ts)
	invitee := uuid.New()

	w := ts.do(t, http.MethodPost, "/functions/v1/invite_member", signToken(t, f.owner, ""), map[string]any{
		"organization_id": f.orgID.String(),
		"email":           "  Nova.Pessoa@Example.com ",
		"role":            "admin",
	})
	requireStatus(t, w, http.StatusOK)
	invite := decodeBody(t, w)["invite"].(map[string]any)
	assert.Equal(t, "nova.pessoa@example.com", invite["email"])
	assert.Equal(t, "admin", invite["role"])
	assert.Equal(t, "pending", invite["status"])
	assert.Equal(t, f.owner.String(), invite["invited_by"])
	assert.NotContains(t, invite, "token")
	assert.EqualValues(t, 1, ts.auditCount(t, "invite_member"))

	token := ts.inviteToken(t, "nova.pessoa@example.com")

	w = ts.do(t, http.MethodPost, "/functions/v1/validate_invite", "", map[string]any{"token": token})
	requireStatus(t, w, http.StatusOK)

	inviteeToken := signToken(t, invitee, "nova.pessoa@example.com")
	w = ts.do(t, http.MethodPost, "/functions/v1/accept_invite", inviteeToken, map[string]any{"token": token})
	requireStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)
	member := body["member"].(map[string]any)
	assert.Equal(t, invitee.String(), member["user_id"])
	assert.Equal(t, "admin", member["role"])
	assert.Equal(t, "accepted", body["invite"].(map[string]any)["status"])

	w = ts.do(t, http.MethodPost, "/functions/v1/accept_invite", inviteeToken, map[string]any{"token": token})
	requireStatus(t, w, http.StatusConflict)
	assert.Equal(t, "Este convite já foi aceito.", errorMessage(t, w))

	w = ts.do(t, http.MethodPost, "/functions/v1/validate_invite", "", map[string]any{"token": token})
	requireStatus(t, w, http.StatusConflict)
}

func TestInviteMemberRejections(t *testing.T) {
	ts := newTestServer(t)
	f := newOrgFixture(t, ts)

	cases := []struct {
		name      string
		requester uuid.UUID
		body      map[string]any
		status    int
		message   string
	}{
		{"missing email", f.owner, map[string]any{"organization_id": f.orgID.String(), "email": "  "}, http.StatusBadRequest, "organization_id e email são obrigatórios."},
		{"bad email", f.owner, map[string]any{"organization_id": f.orgID.String(), "email": "sem-arroba"}, http.StatusBadRequest, "E-mail inválido."},
		{"bad role", f.owner, map[string]any{"organization_id": f.orgID.String(), "email": "a@example.com", "role": "root"}, http.StatusBadRequest, "Role inválida."},
		{"empty role", f.owner, map[string]any{"organization_id": f.orgID.String(), "email": "a@example.com", "role": ""}, http.StatusBadRequest, "Role inválida."},
		{"blank role", f.owner, map[string]any{"organization_id": f.orgID.String(), "email": "a@example.com", "role": "   "}, http.StatusBadRequest, "Role inválida."},
		{"member", f.member, map[string]any{"organization_id": f.orgID.String(), "email": "a@example.com"}, http.StatusForbidden, "Apenas owner/admin pode gerir membros."},
		{"admin inviting owner", f.admin, map[string]any{"organization_id": f.orgID.String(), "email": "a@example.com", "role": "owner"}, http.StatusForbidden, "Admin não pode convidar novo owner."},
		{"outsider", uuid.New(), map[string]any{"organization_id": f.orgID.String(), "email": "a@example.com"}, http.StatusForbidden, "Usuário sem acesso à organização."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/functions/v1/invite_member", signToken(t, tc.requester, ""), tc.body)
			requireStatus(t, w, tc.status)
			assert.Equal(t, tc.message, errorMessage(t, w))
		})
	}
	assert.Zero(t, ts.auditCount(t, "invite_member"))
}

func TestInviteDefaultsToMemberRole(t *testing.T) {
	ts := newTestServer(t)
	f := newOrgFixture(t, ts)

	w := ts.do(t, http.MethodPost, "/functions/v1/invite_member", signToken(t, f.admin, ""), map[string]any{
		"organization_id": f.orgID.String(),
		"email":           "b@example.com",
	})
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "member", decodeBody(t, w)["invite"].(map[string]any)["role"])
}

func TestAcceptInviteRejections(t *testing.T) {
	ts := newTestServer(t)
	f := newOrgFixture(t, ts)

	w := ts.do(t, http.MethodPost, "/functions/v1/invite_member", signToken(t, f.owner, ""), map[string]any{
		"organization_id": f.orgID.String(),
		"email":           "c@example.com",
	})
	requireStatus(t, w, http.StatusOK)
	token := ts.inviteToken(t, "c@example.com")

	w = ts.do(t, http.MethodPost, "/functions/v1/accept_invite", signToken(t, uuid.New(), "c@example.com"), nil)
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "Token de convite não informado.", errorMessage(t, w))

	w = ts.do(t, http.MethodPost, "/functions/v1/accept_invite", signToken(t, uuid.New(), "c@example.com"), map[string]any{"token": uuid.NewString()})
	requireStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "Convite não encontrado.", errorMessage(t, w))

	w = ts.do(t, http.MethodPost, "/functions/v1/accept_invite", signToken(t, uuid.New(), "outra@example.com"), map[string]any{"token": token})
	requireStatus(t, w, http.StatusForbidden)
	assert.Equal(t, "O e-mail autenticado é diferente do e-mail do convite.", errorMessage(t, w))

	ts.clock.Advance(73 * time.Hour)
	w = ts.do(t, http.MethodPost, "/functions/v1/validate_invite", "", map[string]any{"token": token})
	requireStatus(t, w, http.StatusGone)
	assert.Equal(t, "Este convite expirou.", errorMessage(t, w))
}

func TestListInvitesCapability(t *testing.T) {
	ts := newTestServer(t)
	f := newOrgFixture(t, ts)

	w := ts.do(t, http.MethodPost, "/functions/v1/invite_member", signToken(t, f.owner, ""), map[string]any{
		"organization_id": f.orgID.String(),
		"email":           "d@example.com",
	})
	requireStatus(t, w, http.StatusOK)

	path := "/api/organizations/" + f.orgID.String() + "/invites"
	w = ts.do(t, http.MethodGet, path, signToken(t, f.admin, ""), nil)
	requireStatus(t, w, http.StatusOK)
	assert.Len(t, decodeBody(t, w)["data"], 1)

	w = ts.do(t, http.MethodGet, path, signToken(t, f.member, ""), nil)
	requireStatus(t, w, http.StatusForbidden)
	assert.Equal(t, "Usuário sem permissão para esta operação.", errorMessage(t, w))
}
