package authorization

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/propostas/internal/dbtest"
	memberdomain "github.com/smallbiznis/propostas/internal/membership/domain"
	memberrepository "github.com/smallbiznis/propostas/internal/membership/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (Service, memberdomain.Repository) {
	t.Helper()

	db := dbtest.Open(t)
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)

	members := memberrepository.NewRepository(db)
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer, Members: members}), members
}

func addMember(t *testing.T, repo memberdomain.Repository, orgID, userID uuid.UUID, role memberdomain.Role) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, repo.Upsert(context.Background(), memberdomain.Member{
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
		CreatedAt:      now,
		UpdatedAt:      now,
	}))
}

func TestAuthorizeByRole(t *testing.T) {
	svc, members := newTestService(t)
	orgID := uuid.New()
	owner, admin, member := uuid.New(), uuid.New(), uuid.New()
	addMember(t, members, orgID, owner, memberdomain.RoleOwner)
	addMember(t, members, orgID, admin, memberdomain.RoleAdmin)
	addMember(t, members, orgID, member, memberdomain.RoleMember)

	ctx := context.Background()
	assert.NoError(t, svc.Authorize(ctx, owner, orgID, ObjectAuditLog, ActionAuditLogView))
	assert.NoError(t, svc.Authorize(ctx, admin, orgID, ObjectInvite, ActionInviteView))
	assert.NoError(t, svc.Authorize(ctx, member, orgID, ObjectMember, ActionMemberView))
	assert.ErrorIs(t, svc.Authorize(ctx, member, orgID, ObjectAuditLog, ActionAuditLogView), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, member, orgID, ObjectInvite, ActionInviteView), ErrForbidden)
}

func TestAuthorizeRejectsNonMembers(t *testing.T) {
	svc, members := newTestService(t)
	orgID := uuid.New()
	owner := uuid.New()
	addMember(t, members, orgID, owner, memberdomain.RoleOwner)

	err := svc.Authorize(context.Background(), owner, uuid.New(), ObjectMember, ActionMemberView)
	assert.ErrorIs(t, err, ErrForbidden)

	err = svc.Authorize(context.Background(), uuid.New(), orgID, ObjectMember, ActionMemberView)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuthorizeFollowsRoleChanges(t *testing.T) {
	svc, members := newTestService(t)
	orgID := uuid.New()
	userID := uuid.New()
	addMember(t, members, orgID, userID, memberdomain.RoleAdmin)

	require.NoError(t, svc.Authorize(context.Background(), userID, orgID, ObjectAuditLog, ActionAuditLogView))

	addMember(t, members, orgID, userID, memberdomain.RoleMember)
	err := svc.Authorize(context.Background(), userID, orgID, ObjectAuditLog, ActionAuditLogView)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuthorizeValidatesInput(t *testing.T) {
	svc, _ := newTestService(t)
	assert.ErrorIs(t, svc.Authorize(context.Background(), uuid.Nil, uuid.New(), ObjectMember, ActionMemberView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(context.Background(), uuid.New(), uuid.Nil, ObjectMember, ActionMemberView), ErrInvalidOrganization)
	assert.ErrorIs(t, svc.Authorize(context.Background(), uuid.New(), uuid.New(), " ", ActionMemberView), ErrInvalidObject)
}
