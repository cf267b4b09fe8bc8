package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	auditrepository "github.com/smallbiznis/propostas/internal/audit/repository"
	auditservice "github.com/smallbiznis/propostas/internal/audit/service"
	authservice "github.com/smallbiznis/propostas/internal/auth/service"
	"github.com/smallbiznis/propostas/internal/authorization"
	"github.com/smallbiznis/propostas/internal/clock"
	"github.com/smallbiznis/propostas/internal/config"
	"github.com/smallbiznis/propostas/internal/dbtest"
	invitationrepository "github.com/smallbiznis/propostas/internal/invitation/repository"
	invitationservice "github.com/smallbiznis/propostas/internal/invitation/service"
	memberdomain "github.com/smallbiznis/propostas/internal/membership/domain"
	memberrepository "github.com/smallbiznis/propostas/internal/membership/repository"
	memberservice "github.com/smallbiznis/propostas/internal/membership/service"
	"github.com/smallbiznis/propostas/internal/observability"
	obsmetrics "github.com/smallbiznis/propostas/internal/observability/metrics"
	organizationrepository "github.com/smallbiznis/propostas/internal/organization/repository"
	organizationservice "github.com/smallbiznis/propostas/internal/organization/service"
	proposalrepository "github.com/smallbiznis/propostas/internal/proposal/repository"
	proposalservice "github.com/smallbiznis/propostas/internal/proposal/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testJWTSecret = "server-test-secret-with-at-least-32-characters"

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type testServer struct {
	*Server
	db      *gorm.DB
	clock   *clock.FakeClock
	members memberdomain.Repository
}

type testServerOption func(*config.Config)

func withoutJWTSecret() testServerOption {
	return func(cfg *config.Config) {
		cfg.Auth.JWTSecret = ""
	}
}

func newTestServer(t *testing.T, opts ...testServerOption) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Environment: "test",
		Auth:        config.AuthConfig{JWTSecret: testJWTSecret, Audience: "authenticated"},
		Invite:      config.InviteConfig{TTL: 72 * time.Hour, AcceptURL: "http://localhost:5173/aceitar-convite"},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	db := dbtest.Open(t)
	log := zap.NewNop()
	fakeClock := clock.NewFakeClock(testNow)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  auditrepository.Provide(),
		Clock: fakeClock,
	})
	members := memberrepository.NewRepository(db)
	memberSvc := memberservice.NewService(memberservice.Params{
		DB:    db,
		Log:   log,
		Repo:  members,
		Audit: auditSvc,
	})
	inviteSvc := invitationservice.NewService(invitationservice.Params{
		DB:      db,
		Log:     log,
		Config:  cfg,
		GenID:   node,
		Clock:   fakeClock,
		Repo:    invitationrepository.NewRepository(db),
		Members: members,
		Audit:   auditSvc,
	})
	orgSvc := organizationservice.NewService(organizationservice.Params{
		DB:      db,
		Log:     log,
		Clock:   fakeClock,
		Repo:    organizationrepository.NewRepository(db),
		Members: members,
		Audit:   auditSvc,
	})
	proposalSvc := proposalservice.NewService(proposalservice.Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Repo:     proposalrepository.Provide(),
		Clock:    fakeClock,
		Defaults: config.NewStaticProposalDefaults(config.DefaultProposalDefaults()),
	})
	enforcer, err := authorization.NewEnforcer(db)
	require.NoError(t, err)
	authzSvc := authorization.NewService(authorization.Params{
		Log:      log,
		Enforcer: enforcer,
		Members:  members,
	})
	verifier := authservice.NewVerifier(authservice.Params{Config: cfg, Log: log, Clock: fakeClock})

	engine := NewEngine(observability.Config{}, obsmetrics.NewHTTPMetrics(obsmetrics.Config{ServiceName: "propostas", Environment: "test"}))
	srv := NewServer(ServerParams{
		Gin:         engine,
		Cfg:         cfg,
		Log:         log,
		Verifier:    verifier,
		AuthzSvc:    authzSvc,
		AuditSvc:    auditSvc,
		MemberSvc:   memberSvc,
		InviteSvc:   inviteSvc,
		OrgSvc:      orgSvc,
		ProposalSvc: proposalSvc,
	})

	return &testServer{Server: srv, db: db, clock: fakeClock, members: members}
}

func (ts *testServer) addMember(t *testing.T, orgID, userID uuid.UUID, role memberdomain.Role) {
	t.Helper()
	require.NoError(t, ts.members.Upsert(context.Background(), memberdomain.Member{
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
		CreatedAt:      testNow,
		UpdatedAt:      testNow,
	}))
}

func signToken(t *testing.T, userID uuid.UUID, email string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"aud":   "authenticated",
		"email": email,
		"role":  "authenticated",
		"iat":   testNow.Add(-time.Minute).Unix(),
		"exp":   testNow.Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.Engine().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	msg, _ := decodeBody(t, w)["error"].(string)
	return msg
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}
