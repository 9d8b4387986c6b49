// Package view renders the server-side pages and decides which fragments of
// them an identity may see.
package view

import (
	"github.com/activity-tracker/tracker-web/internal/core/access"
	"github.com/activity-tracker/tracker-web/internal/core/domain"
	"github.com/activity-tracker/tracker-web/internal/core/service"
)

// Page template names.
const (
	LoginPage        = "login.html"
	DashboardPage    = "dashboard.html"
	AdminUsersPage   = "admin_users.html"
	ApprovalsPage    = "approvals.html"
	ReportsPage      = "reports.html"
	ProjectPage      = "project.html"
	UnauthorizedPage = "unauthorized.html"
	LoadingPage      = "loading.html"
	ErrorPage        = "error.html"
)

// Requirements shared by route guards and templates.
var (
	RequireAdmin    = domain.AuthorizationRequirement{RequireAdmin: true}
	RequireApprover = domain.AuthorizationRequirement{RequireAdminOrManager: true}
	RequireReports  = domain.AuthorizationRequirement{Resource: "reports", Action: domain.ActionRead}
)

var named = map[string]domain.AuthorizationRequirement{
	"admin":     RequireAdmin,
	"approvals": RequireApprover,
	"reports":   RequireReports,
}

// Visibility is the outcome of a render guard.
type Visibility int

const (
	Hidden Visibility = iota
	Visible
	Pending
)

// RenderGuard decides whether a fragment protected by req is shown. While
// the session check is pending the caller should show a loading indicator.
func RenderGuard(snap service.Snapshot, req domain.AuthorizationRequirement) Visibility {
	if snap.Status == service.StatusPending {
		return Pending
	}
	if snap.Status != service.StatusAuthenticated {
		return Hidden
	}
	if access.Allows(snap.Identity, req) {
		return Visible
	}
	return Hidden
}

// Access exposes the access predicates to templates.
type Access struct {
	snap service.Snapshot
}

func (a Access) Pending() bool       { return a.snap.Status == service.StatusPending }
func (a Access) Authenticated() bool { return a.snap.Status == service.StatusAuthenticated }

// Can evaluates one of the named requirements ("admin", "approvals",
// "reports"). Unknown names are denied.
func (a Access) Can(name string) bool {
	req, ok := named[name]
	return ok && RenderGuard(a.snap, req) == Visible
}

func (a Access) identity() *domain.Identity {
	if !a.Authenticated() {
		return nil
	}
	return a.snap.Identity
}

func (a Access) IsAdmin() bool                  { return a.identity().IsAdmin() }
func (a Access) IsManager() bool                { return a.identity().IsManager() }
func (a Access) HasRole(role string) bool       { return access.HasRole(a.identity(), role) }
func (a Access) HasPermission(name string) bool { return access.HasPermission(a.identity(), name) }

func (a Access) CanAccess(resource, action string) bool {
	return access.CanAccess(a.identity(), resource, domain.Action(action))
}

func (a Access) ProjectRole(projectID string) string {
	role, _ := access.ProjectRole(a.identity(), domain.ID(projectID))
	return string(role)
}

func (a Access) IsProjectAdmin(projectID string) bool {
	return access.IsProjectAdmin(a.identity(), domain.ID(projectID))
}

func (a Access) IsProjectManager(projectID string) bool {
	return access.IsProjectManager(a.identity(), domain.ID(projectID))
}

func (a Access) IsProjectMember(projectID string) bool {
	return access.IsProjectMember(a.identity(), domain.ID(projectID))
}

// NavItem is one entry of the top navigation.
type NavItem struct {
	Label string
	Href  string
}

var navigation = []struct {
	item NavItem
	req  domain.AuthorizationRequirement
}{
	{NavItem{"Dashboard", "/dashboard"}, domain.AuthorizationRequirement{}},
	{NavItem{"Approvals", "/approvals"}, RequireApprover},
	{NavItem{"Reports", "/reports"}, RequireReports},
	{NavItem{"Users", "/admin/users"}, RequireAdmin},
}

// Navigation lists the entries snap may see.
func Navigation(snap service.Snapshot) []NavItem {
	var out []NavItem
	for _, n := range navigation {
		if RenderGuard(snap, n.req) == Visible {
			out = append(out, n.item)
		}
	}
	return out
}

// Page is the data handed to every template.
type Page struct {
	Title   string
	Session service.Snapshot
	Access  Access
	Nav     []NavItem
	Flash   string
	Retry   bool
	Data    any
}

func NewPage(snap service.Snapshot, title string, data any) Page {
	return Page{
		Title:   title,
		Session: snap,
		Access:  Access{snap: snap},
		Nav:     Navigation(snap),
		Data:    data,
	}
}

// WithFlash attaches an error banner. retry adds a "try again" link.
func (p Page) WithFlash(msg string, retry bool) Page {
	p.Flash = msg
	p.Retry = retry
	return p
}

// Loading is the data of the loading page.
type Loading struct {
	Target string
}
