package access

import (
	"testing"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
)

func member(projectID domain.ID, role domain.ProjectRole) domain.ProjectMembership {
	return domain.ProjectMembership{Project: domain.Project{ID: projectID, Name: "P" + string(projectID)}, Role: role}
}

func userWith(role domain.SystemRole, memberships ...domain.ProjectMembership) *domain.Identity {
	return &domain.Identity{
		ID:                 "7",
		Email:              "user@example.com",
		SystemRole:         role,
		ProjectMemberships: memberships,
	}
}

func TestEvaluate_NoIdentityDeniesEverything(t *testing.T) {
	reqs := []domain.AuthorizationRequirement{
		{},
		{RequireAdmin: true},
		{ProjectID: "1", RequireProjectMember: true},
	}
	for _, req := range reqs {
		if d := Evaluate(nil, req); d.Allowed {
			t.Fatalf("expected deny for nil identity, req=%+v", req)
		}
	}
	if HasRole(nil, "ADMIN") || HasPermission(nil, "x") || IsProjectMember(nil, "1") {
		t.Fatalf("expected predicates to deny nil identity")
	}
}

func TestEvaluate_AdminBypassesEverything(t *testing.T) {
	admin := userWith(domain.RoleAdmin)
	reqs := []domain.AuthorizationRequirement{
		{RequireManager: true},
		{SystemRoles: []string{"AUDITOR", "OTHER"}, RequireAllRoles: true},
		{Permissions: []string{"report:export"}},
		{Resource: "reports", Action: domain.ActionManage},
		{ProjectID: "99", RequireProjectAdmin: true},
		{ProjectID: "99", ProjectRoles: []domain.ProjectRole{domain.ProjectViewer, domain.ProjectMember}, RequireAllProjectRoles: true},
	}
	for _, req := range reqs {
		if d := Evaluate(admin, req); !d.Allowed {
			t.Fatalf("expected admin allowed, req=%+v reason=%q", req, d.Reason)
		}
	}
	if role, ok := ProjectRole(admin, "99"); !ok || role != domain.ProjectAdmin {
		t.Fatalf("expected admin to resolve as PROJECT_ADMIN, got %q %v", role, ok)
	}
}

func TestEvaluate_AdminViaRoleSet(t *testing.T) {
	id := &domain.Identity{SystemRole: domain.RoleUser, Roles: []string{"ADMIN"}}
	if !Allows(id, domain.AuthorizationRequirement{RequireAdmin: true}) {
		t.Fatalf("expected ADMIN in the role set to count")
	}

	lower := &domain.Identity{SystemRole: domain.RoleUser, Roles: []string{"admin"}}
	if lower.IsAdmin() || Allows(lower, domain.AuthorizationRequirement{RequireAdmin: true}) {
		t.Fatalf("role names are case-sensitive")
	}
}

func TestEvaluate_EmptyRequirementAllowsAuthenticated(t *testing.T) {
	if d := Evaluate(userWith(domain.RoleGuest), domain.AuthorizationRequirement{}); !d.Allowed {
		t.Fatalf("expected allow, got %q", d.Reason)
	}
}

func TestEvaluate_SystemFlags(t *testing.T) {
	cases := []struct {
		name   string
		role   domain.SystemRole
		req    domain.AuthorizationRequirement
		allow  bool
		reason string
	}{
		{"user needs admin", domain.RoleUser, domain.AuthorizationRequirement{RequireAdmin: true}, false, ReasonAdmin},
		{"manager needs admin", domain.RoleManager, domain.AuthorizationRequirement{RequireAdmin: true}, false, ReasonAdmin},
		{"manager is manager", domain.RoleManager, domain.AuthorizationRequirement{RequireManager: true}, true, ""},
		{"user needs manager", domain.RoleUser, domain.AuthorizationRequirement{RequireManager: true}, false, ReasonManager},
		{"manager admin-or-manager", domain.RoleManager, domain.AuthorizationRequirement{RequireAdminOrManager: true}, true, ""},
		{"guest admin-or-manager", domain.RoleGuest, domain.AuthorizationRequirement{RequireAdminOrManager: true}, false, ReasonAdminOrManager},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Evaluate(userWith(tc.role), tc.req)
			if d.Allowed != tc.allow {
				t.Fatalf("allowed=%v, want %v", d.Allowed, tc.allow)
			}
			if d.Reason != tc.reason {
				t.Fatalf("reason=%q, want %q", d.Reason, tc.reason)
			}
		})
	}
}

func TestEvaluate_RolesAnyVersusAll(t *testing.T) {
	id := &domain.Identity{SystemRole: domain.RoleUser, Roles: []string{"REVIEWER"}}

	if !HasAnyRole(id, "AUDITOR", "REVIEWER") {
		t.Fatalf("expected any-mode to match one role")
	}
	if HasAllRoles(id, "USER", "AUDITOR") {
		t.Fatalf("expected all-mode to fail when one role is missing")
	}
	if !HasAllRoles(id, "USER", "REVIEWER") {
		t.Fatalf("expected all-mode to match system role plus role set")
	}
	if HasAnyRole(id, "reviewer") {
		t.Fatalf("expected role match to be exact")
	}
	if HasRole(id, "") {
		t.Fatalf("expected empty role never to match")
	}
}

func TestEvaluate_Permissions(t *testing.T) {
	id := userWith(domain.RoleUser)
	id.Permissions = []domain.Permission{
		{Name: "activity:read", Resource: "activity", Action: domain.ActionRead},
		{Name: "report:read", Resource: "reports", Action: domain.ActionRead},
	}

	if !HasPermission(id, "report:read") {
		t.Fatalf("expected permission held")
	}
	if Allows(id, domain.AuthorizationRequirement{Permissions: []string{"report:read", "report:export"}, RequireAllPermissions: true}) {
		t.Fatalf("expected all-mode to deny when one permission missing")
	}
	if !Allows(id, domain.AuthorizationRequirement{Permissions: []string{"report:export", "report:read"}}) {
		t.Fatalf("expected any-mode to allow")
	}

	if !CanAccess(id, "reports", domain.ActionRead) {
		t.Fatalf("expected reports READ allowed")
	}
	if d := Evaluate(id, domain.AuthorizationRequirement{Resource: "reports", Action: domain.ActionDelete}); d.Allowed || d.Reason != ReasonResource {
		t.Fatalf("expected reports DELETE denied with resource reason, got %+v", d)
	}
}

func TestEvaluate_CategoriesAreANDed(t *testing.T) {
	id := userWith(domain.RoleManager)
	id.Permissions = []domain.Permission{{Name: "approve", Resource: "activity", Action: domain.ActionUpdate}}

	req := domain.AuthorizationRequirement{
		RequireManager: true,
		Permissions:    []string{"approve"},
		ProjectID:      "3",
	}
	if d := Evaluate(id, req); d.Allowed || d.Reason != ReasonNotMember {
		t.Fatalf("expected project category to deny, got %+v", d)
	}

	id.ProjectMemberships = []domain.ProjectMembership{member("3", domain.ProjectViewer)}
	if d := Evaluate(id, req); !d.Allowed {
		t.Fatalf("expected allow once every category holds, got %q", d.Reason)
	}
}

func TestEvaluate_ProjectHierarchy(t *testing.T) {
	type want struct{ admin, manager, member bool }
	cases := map[domain.ProjectRole]want{
		domain.ProjectAdmin:   {true, true, true},
		domain.ProjectManager: {false, true, true},
		domain.ProjectMember:  {false, false, true},
		domain.ProjectViewer:  {false, false, false},
	}
	for role, w := range cases {
		t.Run(string(role), func(t *testing.T) {
			id := userWith(domain.RoleUser, member("5", role))
			if got := IsProjectAdmin(id, "5"); got != w.admin {
				t.Fatalf("IsProjectAdmin=%v, want %v", got, w.admin)
			}
			if got := IsProjectManager(id, "5"); got != w.manager {
				t.Fatalf("IsProjectManager=%v, want %v", got, w.manager)
			}
			if got := IsProjectMember(id, "5"); got != w.member {
				t.Fatalf("IsProjectMember=%v, want %v", got, w.member)
			}
		})
	}
}

func TestEvaluate_ProjectMemberRequiredAgainstAnotherProject(t *testing.T) {
	id := userWith(domain.RoleUser, member("5", domain.ProjectMember))

	d := Evaluate(id, domain.AuthorizationRequirement{ProjectID: "6", RequireProjectMember: true})
	if d.Allowed || d.Reason != ReasonNotMember {
		t.Fatalf("expected non-member deny, got %+v", d)
	}
	if _, ok := ProjectRole(id, "6"); ok {
		t.Fatalf("expected no role in project 6")
	}
}

func TestEvaluate_ProjectRolesAllModeNeedsSingleRole(t *testing.T) {
	id := userWith(domain.RoleUser, member("5", domain.ProjectManager))

	anyReq := domain.AuthorizationRequirement{
		ProjectID:    "5",
		ProjectRoles: []domain.ProjectRole{domain.ProjectViewer, domain.ProjectManager},
	}
	if !Allows(id, anyReq) {
		t.Fatalf("expected any-mode to allow")
	}

	allReq := anyReq
	allReq.RequireAllProjectRoles = true
	if d := Evaluate(id, allReq); d.Allowed || d.Reason != ReasonProjectRoles {
		t.Fatalf("expected all-mode with two roles to deny, got %+v", d)
	}

	allReq.ProjectRoles = []domain.ProjectRole{domain.ProjectManager}
	if !Allows(id, allReq) {
		t.Fatalf("expected all-mode with the single held role to allow")
	}
}

func TestEvaluate_DuplicateMembershipFirstWins(t *testing.T) {
	id := userWith(domain.RoleUser, member("5", domain.ProjectViewer), member("5", domain.ProjectAdmin))
	if IsProjectAdmin(id, "5") {
		t.Fatalf("expected the first membership to decide")
	}
}

func TestEvaluate_MalformedRequirementsDeny(t *testing.T) {
	id := userWith(domain.RoleManager, member("5", domain.ProjectAdmin))
	reqs := []domain.AuthorizationRequirement{
		{RequireProjectMember: true},
		{ProjectRoles: []domain.ProjectRole{domain.ProjectAdmin}},
		{Resource: "reports"},
		{Action: domain.ActionRead},
		{Resource: "reports", Action: "FLY"},
	}
	for _, req := range reqs {
		if d := Evaluate(id, req); d.Allowed || d.Reason != ReasonInvalid {
			t.Fatalf("expected invalid deny for %+v, got %+v", req, d)
		}
	}
}

func TestEvaluate_IsPure(t *testing.T) {
	id := userWith(domain.RoleUser, member("5", domain.ProjectMember))
	req := domain.AuthorizationRequirement{ProjectID: "5", RequireProjectManager: true}

	first := Evaluate(id, req)
	for i := 0; i < 10; i++ {
		if got := Evaluate(id, req); got != first {
			t.Fatalf("evaluation changed between calls: %+v vs %+v", first, got)
		}
	}
	if len(id.ProjectMemberships) != 1 || id.ProjectMemberships[0].Role != domain.ProjectMember {
		t.Fatalf("identity was mutated")
	}
}
