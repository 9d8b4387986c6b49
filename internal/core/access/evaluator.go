// Package access answers "may this identity do X". Every predicate is pure:
// no I/O, no mutation, and no panics. Route guards, render guards and
// handlers all call through Evaluate so the rules live in one place.
//
// Rule order:
//  1. no identity denies everything
//  2. a global ADMIN is allowed everything, project checks included
//  3. malformed requirements deny
//  4. system roles, permissions, resource/action and project categories are
//     ANDed; the any/all toggles apply only inside a category
//  5. an empty requirement allows any authenticated identity
package access

import (
	"github.com/activity-tracker/tracker-web/internal/core/domain"
)

// Decision is the outcome of an evaluation. Reason is a human-readable
// message suitable for the unauthorized page; it is empty when allowed.
type Decision struct {
	Allowed bool
	Reason  string
}

const (
	ReasonUnauthenticated = "You must be logged in to view this page"
	ReasonAdmin           = "This page requires admin privileges"
	ReasonManager         = "This page requires manager privileges"
	ReasonAdminOrManager  = "This page requires admin or manager privileges"
	ReasonRoles           = "You do not have the required role"
	ReasonPermissions     = "You do not have the required permissions"
	ReasonResource        = "You do not have permission to perform this action"
	ReasonNotMember       = "You are not a member of this project"
	ReasonProjectAdmin    = "This page requires project admin privileges"
	ReasonProjectManager  = "This page requires project manager privileges"
	ReasonProjectMember   = "This page requires project member access"
	ReasonProjectRoles    = "You do not have the required project role"
	ReasonInvalid         = "This page has an invalid access requirement"
)

var allow = Decision{Allowed: true}

func deny(reason string) Decision { return Decision{Reason: reason} }

// Evaluate applies req to id.
func Evaluate(id *domain.Identity, req domain.AuthorizationRequirement) Decision {
	if id == nil {
		return deny(ReasonUnauthenticated)
	}
	if id.IsAdmin() {
		return allow
	}
	if !wellFormed(req) {
		return deny(ReasonInvalid)
	}

	for _, check := range []func(*domain.Identity, domain.AuthorizationRequirement) Decision{
		checkSystemFlags,
		checkSystemRoles,
		checkPermissions,
		checkResource,
		checkProject,
	} {
		if d := check(id, req); !d.Allowed {
			return d
		}
	}
	return allow
}

// Allows is Evaluate reduced to a boolean.
func Allows(id *domain.Identity, req domain.AuthorizationRequirement) bool {
	return Evaluate(id, req).Allowed
}

func wellFormed(req domain.AuthorizationRequirement) bool {
	if (req.Resource == "") != (req.Action == "") {
		return false
	}
	if req.Action != "" && !req.Action.Valid() {
		return false
	}
	if req.ProjectScoped() && req.ProjectID == "" {
		return false
	}
	return true
}

func checkSystemFlags(id *domain.Identity, req domain.AuthorizationRequirement) Decision {
	switch {
	case req.RequireAdmin && !id.IsAdmin():
		return deny(ReasonAdmin)
	case req.RequireManager && !id.IsManager():
		return deny(ReasonManager)
	case req.RequireAdminOrManager && !id.IsAdmin() && !id.IsManager():
		return deny(ReasonAdminOrManager)
	}
	return allow
}

func checkSystemRoles(id *domain.Identity, req domain.AuthorizationRequirement) Decision {
	if len(req.SystemRoles) == 0 {
		return allow
	}
	if matchSet(req.SystemRoles, req.RequireAllRoles, id.HasRole) {
		return allow
	}
	return deny(ReasonRoles)
}

func checkPermissions(id *domain.Identity, req domain.AuthorizationRequirement) Decision {
	if len(req.Permissions) == 0 {
		return allow
	}
	held := make(map[string]struct{}, len(id.Permissions))
	for _, p := range id.Permissions {
		held[p.Name] = struct{}{}
	}
	has := func(name string) bool {
		_, ok := held[name]
		return ok
	}
	if matchSet(req.Permissions, req.RequireAllPermissions, has) {
		return allow
	}
	return deny(ReasonPermissions)
}

func checkResource(id *domain.Identity, req domain.AuthorizationRequirement) Decision {
	if req.Resource == "" {
		return allow
	}
	for _, p := range id.Permissions {
		if p.Resource == req.Resource && p.Action == req.Action {
			return allow
		}
	}
	return deny(ReasonResource)
}

func checkProject(id *domain.Identity, req domain.AuthorizationRequirement) Decision {
	if req.ProjectID == "" {
		return allow
	}
	m, ok := id.Membership(req.ProjectID)
	if !ok {
		return deny(ReasonNotMember)
	}

	switch {
	case req.RequireProjectAdmin && m.Role != domain.ProjectAdmin:
		return deny(ReasonProjectAdmin)
	case req.RequireProjectManager && !roleIn(m.Role, domain.ProjectAdmin, domain.ProjectManager):
		return deny(ReasonProjectManager)
	case req.RequireProjectMember && !roleIn(m.Role, domain.ProjectAdmin, domain.ProjectManager, domain.ProjectMember):
		return deny(ReasonProjectMember)
	}

	if len(req.ProjectRoles) > 0 {
		// A membership carries exactly one role, so "all" only holds when
		// every listed role is that role.
		is := func(r domain.ProjectRole) bool { return r == m.Role }
		if !matchSet(req.ProjectRoles, req.RequireAllProjectRoles, is) {
			return deny(ReasonProjectRoles)
		}
	}
	return allow
}

func matchSet[T any](want []T, all bool, has func(T) bool) bool {
	for _, w := range want {
		ok := has(w)
		if all && !ok {
			return false
		}
		if !all && ok {
			return true
		}
	}
	return all
}

func roleIn(role domain.ProjectRole, allowed ...domain.ProjectRole) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}
