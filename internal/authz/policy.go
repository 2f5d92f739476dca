// Package authz holds the per-operation authorization policies.  A policy
// is a small tagged value rather than route metadata: the router attaches
// role policies to routes, and services evaluate ownership policies once
// they have loaded the resource.
package authz

import "github.com/iliyamo/records-service/internal/model"

// Kind selects how a Policy is evaluated.
type Kind int

const (
	// KindAuthenticated admits any verified identity.
	KindAuthenticated Kind = iota
	// KindRoles admits identities whose role is in Roles.
	KindRoles
	// KindOwnerOrRoles admits the resource owner or any role in Roles.
	KindOwnerOrRoles
)

func (k Kind) String() string {
	switch k {
	case KindAuthenticated:
		return "authenticated"
	case KindRoles:
		return "roles"
	case KindOwnerOrRoles:
		return "owner_or_roles"
	}
	return "unknown"
}

// Subject is the caller as seen by a policy.
type Subject struct {
	UserID uint64
	Role   model.Role
}

// Policy is one authorization rule.
type Policy struct {
	Kind  Kind
	Roles []model.Role
}

func Authenticated() Policy { return Policy{Kind: KindAuthenticated} }

func RequireRoles(roles ...model.Role) Policy {
	return Policy{Kind: KindRoles, Roles: roles}
}

func OwnerOrRoles(roles ...model.Role) Policy {
	return Policy{Kind: KindOwnerOrRoles, Roles: roles}
}

// Common policies.
var (
	AdminOnly    = RequireRoles(model.RoleAdmin)
	OwnerOrAdmin = OwnerOrRoles(model.RoleAdmin)
)

// NeedsOwner reports whether evaluating p requires the resource owner.
func (p Policy) NeedsOwner() bool { return p.Kind == KindOwnerOrRoles }

// Allow evaluates p for s.  ownerID is only consulted by ownership policies.
func (p Policy) Allow(s Subject, ownerID uint64) bool {
	switch p.Kind {
	case KindAuthenticated:
		return s.UserID != 0
	case KindRoles:
		return p.hasRole(s.Role)
	case KindOwnerOrRoles:
		return p.hasRole(s.Role) || (s.UserID != 0 && s.UserID == ownerID)
	}
	return false
}

// IsPrivileged reports whether s passes p on role alone, without ownership.
func (p Policy) IsPrivileged(s Subject) bool { return p.hasRole(s.Role) }

func (p Policy) hasRole(r model.Role) bool {
	for _, allowed := range p.Roles {
		if allowed == r {
			return true
		}
	}
	return false
}
