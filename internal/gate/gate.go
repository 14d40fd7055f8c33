// Package gate implements the access decision shared by every
// organization-scoped resolver: a principal passes either because it is a
// global administrator or because it holds a sufficient membership in the
// resource's organization. The gate never queries storage; callers fetch the
// principal's memberships up front and the decision is a pure function over
// that data.
package gate

import (
	"fmt"

	"github.com/google/uuid"
)

// Role is the closed set of roles a user can hold, globally or within an
// organization. Role strings coming out of storage must go through ParseRole
// so an unknown value fails loudly instead of being treated as a regular
// member.
type Role int8

const (
	RoleRegular Role = iota
	RoleAdministrator
)

// String returns the storage representation of the role.
func (r Role) String() string {
	switch r {
	case RoleAdministrator:
		return "administrator"
	default:
		return "regular"
	}
}

// ParseRole converts a storage role string to a Role. Unknown values are an
// error; the repositories treat that as a consistency violation.
func ParseRole(s string) (Role, error) {
	switch s {
	case "administrator":
		return RoleAdministrator, nil
	case "regular":
		return RoleRegular, nil
	default:
		return RoleRegular, fmt.Errorf("gate: unknown role %q", s)
	}
}

// Level is the privilege a field requires within an organization.
type Level int8

const (
	// LevelMember requires any membership in the organization.
	LevelMember Level = iota
	// LevelAdmin requires an administrator membership.
	LevelAdmin
)

// Principal describes the authenticated actor for the duration of one
// request. It is immutable once built by the auth middleware.
type Principal struct {
	UserID      uuid.UUID
	Role        Role
	Memberships map[uuid.UUID]Role
}

// IsGlobalAdministrator reports whether the principal holds the global
// administrator role.
func (p *Principal) IsGlobalAdministrator() bool {
	return p != nil && p.Role == RoleAdministrator
}

// MembershipIn returns the principal's role within the organization, if any.
func (p *Principal) MembershipIn(orgID uuid.UUID) (Role, bool) {
	if p == nil {
		return RoleRegular, false
	}
	role, ok := p.Memberships[orgID]
	return role, ok
}

// CanAccess decides whether the principal may act at the given level within
// the organization. Global administrators pass unconditionally. The decision
// never errors: callers map a false result to the error code appropriate for
// their field. Callers must have rejected unauthenticated requests before
// calling.
func CanAccess(p *Principal, orgID uuid.UUID, level Level) bool {
	if p == nil {
		return false
	}
	if p.IsGlobalAdministrator() {
		return true
	}
	role, ok := p.Memberships[orgID]
	if !ok {
		return false
	}
	switch level {
	case LevelAdmin:
		return role == RoleAdministrator
	default:
		return true
	}
}
