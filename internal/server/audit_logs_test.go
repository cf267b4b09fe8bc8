package server

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAuditLogs(t *testing.T) {
	ts := newTestServer(t)
	f := newOrgFixture(t, ts)
	ownerToken := signToken(t, f.owner, "")

	w := ts.do(t, http.MethodPost, "/functions/v1/change_member_role", ownerToken, map[string]any{
		"organization_id": f.orgID.String(),
		"target_user_id":  f.member.String(),
		"role":            "admin",
	})
	requireStatus(t, w, http.StatusOK)
	w = ts.do(t, http.MethodPost, "/functions/v1/invite_member", ownerToken, map[string]any{
		"organization_id": f.orgID.String(),
		"email":           "e@example.com",
	})
	requireStatus(t, w, http.StatusOK)

	path := "/api/organizations/" + f.orgID.String() + "/audit_logs"

	w = ts.do(t, http.MethodGet, path, ownerToken, nil)
	requireStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)
	assert.Len(t, body["data"], 2)
	assert.Contains(t, body, "page_info")

	w = ts.do(t, http.MethodGet, path+"?action=change_member_role&target_user_id="+f.member.String(), ownerToken, nil)
	requireStatus(t, w, http.StatusOK)
	logs := decodeBody(t, w)["data"].([]any)
	require.Len(t, logs, 1)
	entry := logs[0].(map[string]any)
	assert.Equal(t, "change_member_role", entry["action"])
	assert.Equal(t, f.owner.String(), entry["actor_user_id"])
	payload := entry["payload"].(map[string]any)
	assert.Equal(t, "member", payload["previous_role"])
	assert.Equal(t, "admin", payload["new_role"])
}

func TestListAuditLogsRejections(t *testing.T) {
	ts := newTestServer(t)
	f := newOrgFixture(t, ts)
	path := "/api/organizations/" + f.orgID.String() + "/audit_logs"

	w := ts.do(t, http.MethodGet, path, signToken(t, f.member, ""), nil)
	requireStatus(t, w, http.StatusForbidden)

	w = ts.do(t, http.MethodGet, path+"?target_user_id=abc", signToken(t, f.owner, ""), nil)
	requireStatus(t, w, http.StatusBadRequest)

	w = ts.do(t, http.MethodGet, path+"?page_token=not-a-cursor", signToken(t, f.owner, ""), nil)
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "page_token inválido.", errorMessage(t, w))

	w = ts.do(t, http.MethodGet, "/api/organizations/not-a-uuid/audit_logs", signToken(t, f.owner, ""), nil)
	requireStatus(t, w, http.StatusForbidden)
	assert.Equal(t, "Usuário sem acesso à organização.", errorMessage(t, w))

	w = ts.do(t, http.MethodGet, "/api/organizations/"+uuid.NewString()+"/audit_logs", signToken(t, f.owner, ""), nil)
	requireStatus(t, w, http.StatusForbidden)
}
