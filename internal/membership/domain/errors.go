package domain

import "errors"

var (
	ErrInvalidRole               = errors.New("invalid_role")
	ErrNoAccess                  = errors.New("no_access")
	ErrNotManager                = errors.New("not_manager")
	ErrAdminCannotChangeElevated = errors.New("admin_cannot_change_elevated")
	ErrAdminCannotRemoveElevated = errors.New("admin_cannot_remove_elevated")
	ErrAdminCanOnlyGrantMember   = errors.New("admin_can_only_grant_member")
	ErrOwnerSelfDowngrade        = errors.New("owner_self_downgrade")
	ErrLastOwner                 = errors.New("last_owner")
	ErrAdminCannotInviteOwner    = errors.New("admin_cannot_invite_owner")
)

// ReasonCode returns the stable code of a policy rejection, or "" when err is
// not one.
func ReasonCode(err error) string {
	for _, known := range []error{
		ErrInvalidRole,
		ErrNoAccess,
		ErrNotManager,
		ErrAdminCannotChangeElevated,
		ErrAdminCannotRemoveElevated,
		ErrAdminCanOnlyGrantMember,
		ErrOwnerSelfDowngrade,
		ErrLastOwner,
		ErrAdminCannotInviteOwner,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return ""
}
