package access

import "github.com/activity-tracker/tracker-web/internal/core/domain"

// HasRole reports whether id holds role.
func HasRole(id *domain.Identity, role string) bool {
	return Allows(id, domain.AuthorizationRequirement{SystemRoles: []string{role}})
}

// HasAnyRole reports whether id holds at least one of roles.
func HasAnyRole(id *domain.Identity, roles ...string) bool {
	return Allows(id, domain.AuthorizationRequirement{SystemRoles: roles})
}

// HasAllRoles reports whether id holds every one of roles.
func HasAllRoles(id *domain.Identity, roles ...string) bool {
	return Allows(id, domain.AuthorizationRequirement{SystemRoles: roles, RequireAllRoles: true})
}

// HasPermission reports whether id holds the named permission.
func HasPermission(id *domain.Identity, name string) bool {
	return Allows(id, domain.AuthorizationRequirement{Permissions: []string{name}})
}

// CanAccess reports whether id may perform action on resource.
func CanAccess(id *domain.Identity, resource string, action domain.Action) bool {
	return Allows(id, domain.AuthorizationRequirement{Resource: resource, Action: action})
}

// ProjectRole resolves id's role in projectID. A global admin is reported as
// PROJECT_ADMIN of every project.
func ProjectRole(id *domain.Identity, projectID domain.ID) (domain.ProjectRole, bool) {
	if id == nil {
		return "", false
	}
	if id.IsAdmin() {
		return domain.ProjectAdmin, true
	}
	m, ok := id.Membership(projectID)
	if !ok {
		return "", false
	}
	return m.Role, true
}

func IsProjectAdmin(id *domain.Identity, projectID domain.ID) bool {
	return Allows(id, domain.AuthorizationRequirement{ProjectID: projectID, RequireProjectAdmin: true})
}

func IsProjectManager(id *domain.Identity, projectID domain.ID) bool {
	return Allows(id, domain.AuthorizationRequirement{ProjectID: projectID, RequireProjectManager: true})
}

func IsProjectMember(id *domain.Identity, projectID domain.ID) bool {
	return Allows(id, domain.AuthorizationRequirement{ProjectID: projectID, RequireProjectMember: true})
}
