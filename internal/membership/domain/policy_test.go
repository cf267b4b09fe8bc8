package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	role, err := ParseRole("  admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	_, err = ParseRole("Owner")
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = ParseRole("")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestEvaluateRoleChange(t *testing.T) {
	self := uuid.New()
	other := uuid.New()

	cases := []struct {
		name   string
		change RoleChange
		want   error
	}{
		{
			name:   "member cannot manage",
			change: RoleChange{RequesterID: self, RequesterRole: RoleMember, TargetID: other, TargetRole: RoleMember, NewRole: RoleAdmin},
			want:   ErrNotManager,
		},
		{
			name:   "admin cannot touch owner",
			change: RoleChange{RequesterID: self, RequesterRole: RoleAdmin, TargetID: other, TargetRole: RoleOwner, NewRole: RoleMember},
			want:   ErrAdminCannotChangeElevated,
		},
		{
			name:   "admin cannot touch admin",
			change: RoleChange{RequesterID: self, RequesterRole: RoleAdmin, TargetID: other, TargetRole: RoleAdmin, NewRole: RoleMember},
			want:   ErrAdminCannotChangeElevated,
		},
		{
			name:   "admin cannot promote",
			change: RoleChange{RequesterID: self, RequesterRole: RoleAdmin, TargetID: other, TargetRole: RoleMember, NewRole: RoleAdmin},
			want:   ErrAdminCanOnlyGrantMember,
		},
		{
			name:   "admin sets member",
			change: RoleChange{RequesterID: self, RequesterRole: RoleAdmin, TargetID: other, TargetRole: RoleMember, NewRole: RoleMember},
		},
		{
			name:   "owner self downgrade",
			change: RoleChange{RequesterID: self, RequesterRole: RoleOwner, TargetID: self, TargetRole: RoleOwner, NewRole: RoleAdmin},
			want:   ErrOwnerSelfDowngrade,
		},
		{
			name:   "owner keeps own role",
			change: RoleChange{RequesterID: self, RequesterRole: RoleOwner, TargetID: self, TargetRole: RoleOwner, NewRole: RoleOwner},
		},
		{
			name:   "owner promotes member to owner",
			change: RoleChange{RequesterID: self, RequesterRole: RoleOwner, TargetID: other, TargetRole: RoleMember, NewRole: RoleOwner},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := EvaluateRoleChange(tc.change)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestEvaluateRemoval(t *testing.T) {
	assert.ErrorIs(t, EvaluateRemoval(RoleMember, RoleMember), ErrNotManager)
	assert.ErrorIs(t, EvaluateRemoval(RoleAdmin, RoleOwner), ErrAdminCannotRemoveElevated)
	assert.ErrorIs(t, EvaluateRemoval(RoleAdmin, RoleAdmin), ErrAdminCannotRemoveElevated)
	assert.NoError(t, EvaluateRemoval(RoleAdmin, RoleMember))
	assert.NoError(t, EvaluateRemoval(RoleOwner, RoleOwner))
}

func TestEvaluateInvite(t *testing.T) {
	assert.ErrorIs(t, EvaluateInvite(RoleMember, RoleMember), ErrNotManager)
	assert.ErrorIs(t, EvaluateInvite(RoleAdmin, RoleOwner), ErrAdminCannotInviteOwner)
	assert.NoError(t, EvaluateInvite(RoleAdmin, RoleAdmin))
	assert.NoError(t, EvaluateInvite(RoleOwner, RoleOwner))
}

func TestEnsureOwnerRemains(t *testing.T) {
	assert.ErrorIs(t, EnsureOwnerRemains(0), ErrLastOwner)
	assert.ErrorIs(t, EnsureOwnerRemains(1), ErrLastOwner)
	assert.NoError(t, EnsureOwnerRemains(2))
}

func TestReasonCode(t *testing.T) {
	assert.Equal(t, "last_owner", ReasonCode(ErrLastOwner))
	assert.Equal(t, "", ReasonCode(assert.AnError))
}

func TestRoleChangeDemotesOwner(t *testing.T) {
	assert.True(t, RoleChange{TargetRole: RoleOwner, NewRole: RoleMember}.DemotesOwner())
	assert.False(t, RoleChange{TargetRole: RoleOwner, NewRole: RoleOwner}.DemotesOwner())
	assert.False(t, RoleChange{TargetRole: RoleAdmin, NewRole: RoleMember}.DemotesOwner())
}
