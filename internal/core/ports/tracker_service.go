package ports

import (
	"context"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
)

// DashboardSummary is the current user's timesheet overview.
type DashboardSummary struct {
	HoursThisWeek    float64 `json:"hoursThisWeek"`
	EntriesThisWeek  int     `json:"entriesThisWeek"`
	DraftEntries     int     `json:"draftEntries"`
	SubmittedEntries int     `json:"submittedEntries"`
	ApprovedEntries  int     `json:"approvedEntries"`
}

// ActivityLog is one logged activity entry.
type ActivityLog struct {
	ID          domain.ID `json:"id"`
	Date        string    `json:"date"`
	ProjectName string    `json:"projectName"`
	Description string    `json:"description"`
	Hours       float64   `json:"hours"`
	Status      string    `json:"status"`
	UserName    string    `json:"userName,omitempty"`
}

// UserSummary is a row of the admin user list.
type UserSummary struct {
	ID         domain.ID         `json:"id"`
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	SystemRole domain.SystemRole `json:"systemRole"`
	Active     bool              `json:"active"`
}

// ProjectMemberView is a member row of a project page.
type ProjectMemberView struct {
	UserID domain.ID          `json:"userId"`
	Name   string             `json:"name"`
	Role   domain.ProjectRole `json:"role"`
}

// ProjectDetail is the project page payload.
type ProjectDetail struct {
	domain.Project
	Members []ProjectMemberView `json:"members"`
}

// ReportSummary aggregates hours per project.
type ReportSummary struct {
	From     string               `json:"from"`
	To       string               `json:"to"`
	Projects []ProjectHoursReport `json:"projects"`
}

// ProjectHoursReport is one row of the report summary.
type ProjectHoursReport struct {
	ProjectName string  `json:"projectName"`
	Hours       float64 `json:"hours"`
}

// TrackerService is the backend's domain surface consumed by the pages.
// Every call travels through the authenticated client.
type TrackerService interface {
	DashboardSummary(ctx context.Context) (*DashboardSummary, error)
	ActivityLogs(ctx context.Context, limit int) ([]ActivityLog, error)
	PendingApprovals(ctx context.Context) ([]ActivityLog, error)
	Users(ctx context.Context) ([]UserSummary, error)
	Project(ctx context.Context, id domain.ID) (*ProjectDetail, error)
	ReportSummary(ctx context.Context) (*ReportSummary, error)
}
