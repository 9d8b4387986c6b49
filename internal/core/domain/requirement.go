package domain

// AuthorizationRequirement is the declarative request attached to a guarded
// route or UI fragment. Categories are ANDed; the All* toggles only apply
// inside their own category.
type AuthorizationRequirement struct {
	RequireAdmin          bool
	RequireManager        bool
	RequireAdminOrManager bool

	SystemRoles     []string
	RequireAllRoles bool

	Permissions           []string
	RequireAllPermissions bool

	Resource string
	Action   Action

	ProjectID              ID
	RequireProjectAdmin    bool
	RequireProjectManager  bool
	RequireProjectMember   bool
	ProjectRoles           []ProjectRole
	RequireAllProjectRoles bool
}

// ProjectScoped reports whether any project-level category is present.
func (r AuthorizationRequirement) ProjectScoped() bool {
	return r.RequireProjectAdmin || r.RequireProjectManager || r.RequireProjectMember || len(r.ProjectRoles) > 0
}

// Empty reports whether the requirement only asks for authentication.
func (r AuthorizationRequirement) Empty() bool {
	return !r.RequireAdmin && !r.RequireManager && !r.RequireAdminOrManager &&
		len(r.SystemRoles) == 0 && len(r.Permissions) == 0 &&
		r.Resource == "" && r.Action == "" && !r.ProjectScoped() && r.ProjectID == ""
}
