package workflow

import "github.com/cockroachdb/errors"

// Role is one of the closed set of role tags consulted by transition guards.
// Users may carry additional role strings, but only these tags are ever
// checked by the workflow core.
type Role string

// Known role tags
const (
	RoleChief         Role = "Chief"
	RoleCaptain       Role = "Captain"
	RoleSergeant      Role = "Sergeant"
	RoleDetective     Role = "Detective"
	RoleOfficer       Role = "Police Officer"
	RolePatrolOfficer Role = "Patrol Officer"
	RoleCadet         Role = "Cadet"
	RoleJudge         Role = "Judge"
	RoleCoroner       Role = "Coroner"
	RoleComplainant   Role = "Complainant"
	RoleCitizen       Role = "Base User"
)

// ApprovalRoles are the superior ranks that can approve crime scene cases
var ApprovalRoles = []Role{RoleSergeant, RoleCaptain, RoleChief}

// PoliceRanks are the sworn ranks allowed to register crime scenes
var PoliceRanks = []Role{RoleChief, RoleCaptain, RoleSergeant, RoleDetective, RoleOfficer, RolePatrolOfficer}

// Actor is the acting identity passed explicitly to every workflow
// operation. It is never taken from ambient context.
type Actor struct {
	ID    string
	Roles []string
}

// HasRole reports whether the actor carries the given role tag
func (a Actor) HasRole(r Role) bool {
	for _, have := range a.Roles {
		if have == string(r) {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the actor carries at least one of the given tags
func (a Actor) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if a.HasRole(r) {
			return true
		}
	}
	return false
}

// requireRole fails with ErrForbidden unless the actor holds one of the
// given roles. Called before any state guard.
func requireRole(actor Actor, roles ...Role) error {
	if actor.HasAnyRole(roles...) {
		return nil
	}
	return errors.Wrapf(ErrForbidden, "actor %s requires one of %v", actor.ID, roles)
}
