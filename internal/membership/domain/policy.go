package domain

import "github.com/google/uuid"

// RoleChange describes a requested change of TargetID's role by RequesterID.
type RoleChange struct {
	RequesterID   uuid.UUID
	RequesterRole Role
	TargetID      uuid.UUID
	TargetRole    Role
	NewRole       Role
}

// DemotesOwner reports whether the change takes the owner role away from the target.
func (c RoleChange) DemotesOwner() bool {
	return c.TargetRole == RoleOwner && c.NewRole != RoleOwner
}

func CanManage(requester Role) error {
	if !requester.Elevated() {
		return ErrNotManager
	}
	return nil
}

// EvaluateRoleChange applies the role change rules in priority order. The
// owner-count guard is separate because it needs live data; see EnsureOwnerRemains.
func EvaluateRoleChange(c RoleChange) error {
	if err := CanManage(c.RequesterRole); err != nil {
		return err
	}
	if c.RequesterRole == RoleAdmin && c.TargetRole.Elevated() {
		return ErrAdminCannotChangeElevated
	}
	if c.RequesterRole == RoleAdmin && c.NewRole != RoleMember {
		return ErrAdminCanOnlyGrantMember
	}
	if c.RequesterID == c.TargetID && c.RequesterRole == RoleOwner && c.NewRole != RoleOwner {
		return ErrOwnerSelfDowngrade
	}
	return nil
}

func EvaluateRemoval(requester, target Role) error {
	if err := CanManage(requester); err != nil {
		return err
	}
	if requester == RoleAdmin && target.Elevated() {
		return ErrAdminCannotRemoveElevated
	}
	return nil
}

func EvaluateInvite(requester, invited Role) error {
	if err := CanManage(requester); err != nil {
		return err
	}
	if requester == RoleAdmin && invited == RoleOwner {
		return ErrAdminCannotInviteOwner
	}
	return nil
}

// EnsureOwnerRemains rejects an owner demotion or removal that would leave
// the organization with no owner. ownerCount includes the target.
func EnsureOwnerRemains(ownerCount int64) error {
	if ownerCount <= 1 {
		return ErrLastOwner
	}
	return nil
}
