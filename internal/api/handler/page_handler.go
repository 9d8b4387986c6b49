package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/activity-tracker/tracker-web/internal/api/middleware"
	"github.com/activity-tracker/tracker-web/internal/api/view"
	"github.com/activity-tracker/tracker-web/internal/core/access"
	"github.com/activity-tracker/tracker-web/internal/core/domain"
	"github.com/activity-tracker/tracker-web/internal/core/service"
	"github.com/activity-tracker/tracker-web/internal/infrastructure/apiclient"
)

const recentActivityLimit = 10

// PageHandler renders the guarded pages. Every backend call goes through
// the session's authenticated client.
type PageHandler struct {
	log zerolog.Logger
}

func NewPageHandler(log zerolog.Logger) *PageHandler {
	return &PageHandler{log: log.With().Str("component", "page_handler").Logger()}
}

// Dashboard handles GET /dashboard.
//
// @Summary      Dashboard
// @Tags         pages
// @Produce      html
// @Success      200
// @Failure      302
// @Router       /dashboard [get]
func (h *PageHandler) Dashboard(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	snap := sess.State.Snapshot()

	var data view.Dashboard
	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() error {
		summary, err := sess.Tracker.DashboardSummary(ctx)
		data.Summary = summary
		return err
	})
	g.Go(func() error {
		logs, err := sess.Tracker.ActivityLogs(ctx, recentActivityLimit)
		data.Recent = logs
		return err
	})
	if view.RenderGuard(snap, view.RequireApprover) == view.Visible {
		g.Go(func() error {
			pending, err := sess.Tracker.PendingApprovals(ctx)
			data.PendingCount = len(pending)
			return err
		})
	}
	err = g.Wait()

	return h.render(c, sess, view.DashboardPage, "Dashboard", data, err)
}

// AdminUsers handles GET /admin/users.
//
// @Summary      User administration
// @Tags         pages
// @Produce      html
// @Success      200
// @Failure      302
// @Router       /admin/users [get]
func (h *PageHandler) AdminUsers(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	users, err := sess.Tracker.Users(c.Request().Context())
	return h.render(c, sess, view.AdminUsersPage, "Users", view.AdminUsers{Users: users}, err)
}

// Approvals handles GET /approvals.
//
// @Summary      Pending approvals
// @Tags         pages
// @Produce      html
// @Success      200
// @Failure      302
// @Router       /approvals [get]
func (h *PageHandler) Approvals(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	logs, err := sess.Tracker.PendingApprovals(c.Request().Context())
	return h.render(c, sess, view.ApprovalsPage, "Approvals", view.Approvals{Logs: logs}, err)
}

// Reports handles GET /reports.
//
// @Summary      Reports
// @Tags         pages
// @Produce      html
// @Success      200
// @Failure      302
// @Router       /reports [get]
func (h *PageHandler) Reports(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	report, err := sess.Tracker.ReportSummary(c.Request().Context())
	return h.render(c, sess, view.ReportsPage, "Reports", view.Reports{Report: report}, err)
}

// Project handles GET /projects/:id.
//
// @Summary      Project detail
// @Tags         pages
// @Produce      html
// @Param        id  path  string  true  "Project id"
// @Success      200
// @Failure      302
// @Failure      404
// @Router       /projects/{id} [get]
func (h *PageHandler) Project(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	id := domain.ID(c.Param("id"))
	identity := sess.State.Identity()

	project, err := sess.Tracker.Project(c.Request().Context(), id)
	role, _ := access.ProjectRole(identity, id)
	data := view.ProjectView{
		Project:   project,
		Role:      string(role),
		CanManage: access.IsProjectManager(identity, id),
	}
	title := "Project"
	if project != nil {
		title = project.Name
	}
	return h.render(c, sess, view.ProjectPage, title, data, err)
}

// Unauthorized handles GET /unauthorized.
//
// @Summary      Access denied page
// @Tags         pages
// @Produce      html
// @Param        reason  query  string  false  "Denial reason"
// @Success      403
// @Router       /unauthorized [get]
func (h *PageHandler) Unauthorized(c echo.Context) error {
	snap := service.Snapshot{Status: service.StatusUnauthenticated}
	if sess := middleware.SessionFrom(c); sess != nil {
		snap = sess.State.Snapshot()
	}
	data := view.Unauthorized{Reason: c.QueryParam("reason")}
	return c.Render(http.StatusForbidden, view.UnauthorizedPage, view.NewPage(snap, "Access denied", data))
}

// render writes the page, turning a backend failure into a redirect, an
// error page or an inline banner over whatever data did load.
func (h *PageHandler) render(c echo.Context, sess *service.Session, name, title string, data any, err error) error {
	if err == nil {
		return c.Render(http.StatusOK, name, view.NewPage(sess.State.Snapshot(), title, data))
	}

	if target, ok := authRedirect(c, err); ok {
		return c.Redirect(http.StatusFound, target)
	}

	status := statusFor(err)
	h.log.Warn().Err(err).Str("session_id", sess.ID).Str("page", name).Int("status", status).Msg("backend call failed")

	snap := sess.State.Snapshot()
	if status == http.StatusNotFound {
		page := view.NewPage(snap, "Not found", view.ErrorData{Message: apiclient.UserMessage(err)})
		return c.Render(status, view.ErrorPage, page)
	}
	page := view.NewPage(snap, title, data).WithFlash(apiclient.UserMessage(err), apiclient.IsRetryable(err))
	return c.Render(status, name, page)
}
