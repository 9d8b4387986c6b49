package view

import "github.com/activity-tracker/tracker-web/internal/core/ports"

// LoginForm backs the login page.
type LoginForm struct {
	Email    string
	Redirect string
	Error    string
	Admin    bool
	OAuthURL string
}

type Dashboard struct {
	Summary      *ports.DashboardSummary
	Recent       []ports.ActivityLog
	PendingCount int
}

type AdminUsers struct {
	Users []ports.UserSummary
}

type Approvals struct {
	Logs []ports.ActivityLog
}

type Reports struct {
	Report *ports.ReportSummary
}

// ProjectView backs the project page. Members are listed only when
// CanManage is set.
type ProjectView struct {
	Project   *ports.ProjectDetail
	Role      string
	CanManage bool
}

type Unauthorized struct {
	Reason string
}

type ErrorData struct {
	Message string
}
