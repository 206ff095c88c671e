// Package access decides whether an acting identity may read or mutate an
// account or its addresses. Every function is pure.
package access

import (
	"accounts/internal/apperrors"
	"accounts/internal/models"
)

// Actor is the identity resolved from a session token.
type Actor struct {
	ID   string
	Role models.Role
}

// ActorOf builds the actor for an authenticated user.
func ActorOf(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// isAdmin is the single place a role is turned into a privilege. Unknown
// roles never grant anything.
func isAdmin(a Actor) bool {
	switch a.Role {
	case models.RoleAdmin:
		return true
	case models.RoleUser:
		return false
	default:
		return false
	}
}

func isSelfOrAdmin(a Actor, targetID string) bool {
	if isAdmin(a) {
		return true
	}
	return a.ID != "" && a.ID == targetID
}

// CanListAllUsers reports whether the actor may list every account.
func CanListAllUsers(a Actor) bool { return isAdmin(a) }

// CanViewUser reports whether the actor may read the account targetID.
func CanViewUser(a Actor, targetID string) bool { return isSelfOrAdmin(a, targetID) }

// CanModifyUser reports whether the actor may update the account targetID.
func CanModifyUser(a Actor, targetID string) bool { return isSelfOrAdmin(a, targetID) }

// CanDeleteUser reports whether the actor may delete the account targetID.
func CanDeleteUser(a Actor, targetID string) bool { return isSelfOrAdmin(a, targetID) }

// CanManageAddressesOf reports whether the actor may read or change the
// addresses owned by ownerID.
func CanManageAddressesOf(a Actor, ownerID string) bool { return isSelfOrAdmin(a, ownerID) }

// CanChangeRole reports whether the actor may set the role field on update.
func CanChangeRole(a Actor) bool { return isAdmin(a) }

// CanReassignAddress reports whether the actor may move an address to a
// different owner.
func CanReassignAddress(a Actor) bool { return isAdmin(a) }

// FilterUpdate drops the fields the actor is not allowed to set. Role
// changes from non-admins are removed silently rather than rejected.
func FilterUpdate(a Actor, in models.UpdateUserInput) models.UpdateUserInput {
	if !CanChangeRole(a) {
		in.Role = nil
	}
	return in
}

// Require turns a policy decision into an AccessDenied error.
func Require(allowed bool, message string) error {
	if allowed {
		return nil
	}
	return apperrors.AccessDenied(message)
}
