package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/activity-tracker/tracker-web/docs"
	"github.com/activity-tracker/tracker-web/internal/api/handler"
	"github.com/activity-tracker/tracker-web/internal/api/middleware"
	"github.com/activity-tracker/tracker-web/internal/api/view"
	"github.com/activity-tracker/tracker-web/internal/core/domain"
	"github.com/activity-tracker/tracker-web/internal/core/service"
	"github.com/activity-tracker/tracker-web/internal/pkg/config"
)

// Deps is what the router needs from main.
type Deps struct {
	Config   *config.Config
	Registry *service.SessionRegistry
	Checks   map[string]handler.Check
	Log      zerolog.Logger

	// Metrics receives the HTTP metrics and backs /metrics. Nil uses the
	// default Prometheus registry.
	Metrics *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) (*echo.Echo, error) {
	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Metrics != nil {
		registerer, gatherer = d.Metrics, d.Metrics
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "tracker",
		Subsystem:  "http",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			p := c.Path()
			return p == "/metrics" || strings.HasPrefix(p, "/health")
		},
	}))
	e.Use(middleware.RequestLogger(d.Log))

	// --- Operational endpoints (no session) ---
	health := handler.NewHealthHandler(d.Checks)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Session-bound routes ---
	cfg := d.Config
	s := e.Group("", middleware.Session(d.Registry, middleware.SessionConfig{
		CookieName: cfg.Session.Cookie,
		Secure:     cfg.Session.CookieSecure,
		TTL:        cfg.Session.TTL,
	}))

	auth := handler.NewAuthHandler(cfg.API.OAuthLoginURL, d.Log)
	pages := handler.NewPageHandler(d.Log)
	sessions := handler.NewSessionHandler(cfg.Session.GuardPendingWait)
	guard := middleware.NewGuard(cfg.Session.GuardPendingWait)

	s.GET("/", func(c echo.Context) error { return c.Redirect(http.StatusFound, "/dashboard") })
	s.GET("/login", auth.LoginPage)
	s.POST("/login", auth.Login, middleware.LoginRateLimit(cfg.Login.RatePerMinute, cfg.Login.Burst))
	s.GET("/auth/callback", auth.OAuthCallback)
	s.POST("/logout", auth.Logout)
	s.GET("/unauthorized", pages.Unauthorized)
	s.GET("/api/session", sessions.Get)

	s.GET("/dashboard", pages.Dashboard, guard.Authenticated())
	s.GET("/admin/users", pages.AdminUsers, guard.Require(view.RequireAdmin))
	s.GET("/approvals", pages.Approvals, guard.Require(view.RequireApprover))
	s.GET("/reports", pages.Reports, guard.Require(view.RequireReports))
	s.GET("/projects/:id", pages.Project, guard.Require(
		domain.AuthorizationRequirement{RequireProjectMember: true},
		middleware.ProjectFromParam("id"),
	))

	return e, nil
}
