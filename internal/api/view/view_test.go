package view

import (
	"bytes"
	"strings"
	"testing"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
	"github.com/activity-tracker/tracker-web/internal/core/ports"
	"github.com/activity-tracker/tracker-web/internal/core/service"
)

func authenticated(id *domain.Identity) service.Snapshot {
	return service.Snapshot{Status: service.StatusAuthenticated, Identity: id}
}

func TestRenderGuard(t *testing.T) {
	user := &domain.Identity{ID: "1", SystemRole: domain.RoleUser}
	admin := &domain.Identity{ID: "2", SystemRole: domain.RoleAdmin}

	tests := []struct {
		name string
		snap service.Snapshot
		req  domain.AuthorizationRequirement
		want Visibility
	}{
		{"pending", service.Snapshot{Status: service.StatusPending}, RequireAdmin, Pending},
		{"unauthenticated", service.Snapshot{Status: service.StatusUnauthenticated}, domain.AuthorizationRequirement{}, Hidden},
		{"user denied admin", authenticated(user), RequireAdmin, Hidden},
		{"user allowed plain", authenticated(user), domain.AuthorizationRequirement{}, Visible},
		{"admin allowed", authenticated(admin), RequireAdmin, Visible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderGuard(tt.snap, tt.req); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestAccess_Can(t *testing.T) {
	manager := &domain.Identity{ID: "3", SystemRole: domain.RoleManager}
	a := NewPage(authenticated(manager), "x", nil).Access

	if !a.Can("approvals") {
		t.Fatalf("expected manager to see approvals")
	}
	if a.Can("admin") {
		t.Fatalf("expected manager not to see admin")
	}
	if a.Can("no-such-thing") {
		t.Fatalf("expected unknown requirement to be denied")
	}
}

func TestAccess_ProjectHelpers(t *testing.T) {
	id := &domain.Identity{
		ID:         "4",
		SystemRole: domain.RoleUser,
		ProjectMemberships: []domain.ProjectMembership{
			{Project: domain.Project{ID: "p1"}, Role: domain.ProjectManager},
		},
	}
	a := NewPage(authenticated(id), "x", nil).Access

	if got := a.ProjectRole("p1"); got != string(domain.ProjectManager) {
		t.Fatalf("expected PROJECT_MANAGER, got %q", got)
	}
	if !a.IsProjectManager("p1") || a.IsProjectAdmin("p1") {
		t.Fatalf("unexpected project predicates for p1")
	}
	if a.IsProjectMember("p2") {
		t.Fatalf("expected no membership in p2")
	}
}

func TestAccess_PendingHidesIdentity(t *testing.T) {
	snap := service.Snapshot{
		Status:   service.StatusPending,
		Identity: &domain.Identity{ID: "5", SystemRole: domain.RoleAdmin},
	}
	a := NewPage(snap, "x", nil).Access

	if !a.Pending() {
		t.Fatalf("expected pending")
	}
	if a.IsAdmin() {
		t.Fatalf("expected pending state not to expose admin")
	}
}

func TestNavigation(t *testing.T) {
	user := Navigation(authenticated(&domain.Identity{ID: "1", SystemRole: domain.RoleUser}))
	if len(user) != 1 || user[0].Href != "/dashboard" {
		t.Fatalf("expected only the dashboard for a user, got %+v", user)
	}

	admin := Navigation(authenticated(&domain.Identity{ID: "2", SystemRole: domain.RoleAdmin}))
	if len(admin) != 4 {
		t.Fatalf("expected every entry for an admin, got %+v", admin)
	}

	if got := Navigation(service.Snapshot{Status: service.StatusPending}); len(got) != 0 {
		t.Fatalf("expected no navigation while pending, got %+v", got)
	}
}

func TestRenderer_RendersEveryPage(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := authenticated(&domain.Identity{ID: "1", Name: "Ana", SystemRole: domain.RoleAdmin})
	pages := map[string]any{
		LoginPage:        LoginForm{Email: "ana@example.com", Error: "Invalid email or password."},
		DashboardPage:    Dashboard{Summary: &ports.DashboardSummary{HoursThisWeek: 12.5}, Recent: []ports.ActivityLog{{Description: "Standup", Hours: 0.5, Status: "DRAFT"}}},
		AdminUsersPage:   AdminUsers{Users: []ports.UserSummary{{Name: "Ana"}}},
		ApprovalsPage:    Approvals{},
		ReportsPage:      Reports{Report: &ports.ReportSummary{From: "2026-01-01", To: "2026-01-31"}},
		ProjectPage:      ProjectView{Project: &ports.ProjectDetail{Project: domain.Project{Name: "Apollo"}}, CanManage: true},
		UnauthorizedPage: Unauthorized{Reason: "This page requires admin privileges"},
		LoadingPage:      Loading{Target: "/dashboard"},
		ErrorPage:        ErrorData{Message: "boom"},
	}

	for name, data := range pages {
		var buf bytes.Buffer
		if err := r.Render(&buf, name, NewPage(snap, "Test", data), nil); err != nil {
			t.Fatalf("render %s: %v", name, err)
		}
		if !strings.Contains(buf.String(), "Activity Tracker") {
			t.Fatalf("render %s: layout missing", name)
		}
	}
}

func TestRenderer_UnknownPage(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Render(&bytes.Buffer{}, "missing.html", nil, nil); err == nil {
		t.Fatalf("expected an error for an unknown page")
	}
}

func TestRenderer_LoadingPageRefreshes(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	page := NewPage(service.Snapshot{Status: service.StatusPending}, "Loading", Loading{Target: "/reports"})
	if err := r.Render(&buf, LoadingPage, page, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `http-equiv="refresh"`) {
		t.Fatalf("expected a meta refresh, got %s", buf.String())
	}
}
