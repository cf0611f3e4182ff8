package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hireway/session-gateway/internal/api/handler"
	"github.com/hireway/session-gateway/internal/api/middleware"
	"github.com/hireway/session-gateway/internal/core/domain"
	"github.com/hireway/session-gateway/internal/core/ports"
	"github.com/hireway/session-gateway/internal/core/session"
)

// Deps carries everything the router needs; main wires it together.
type Deps struct {
	Session   *session.Store
	Realtime  handler.RealtimeReader
	Backend   ports.BackendClient
	Tokens    ports.TokenStore
	Redirects ports.RedirectStore
	Mongo     *mongo.Database
	Redis     *redis.Client
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("gateway"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Backend, deps.Tokens, deps.Session, deps.Redirects)
	sessionHandler := handler.NewSessionHandler(deps.Session)
	notificationHandler := handler.NewNotificationHandler(deps.Realtime)

	// --- Auth + session ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout)
	e.GET("/auth/return-to", authHandler.ReturnTo)
	e.GET("/session", sessionHandler.Get)
	e.POST("/session/refresh", sessionHandler.Refresh)

	// --- Notifications (any authenticated role) ---
	notifications := e.Group("/notifications",
		middleware.Guard(deps.Session, deps.Redirects, deps.Log))
	notifications.GET("", notificationHandler.Get)

	// --- Role-gated dashboard subtrees ---
	registerDashboard(e, deps, "/employer-dashboard", domain.RoleEmployer)
	registerDashboard(e, deps, "/jobseeker-dashboard", domain.RoleJobseeker)
	registerDashboard(e, deps, "/admin", domain.RoleAdmin)
	registerDashboard(e, deps, "/moderator", domain.RoleModerator, domain.RoleAdmin)

	// --- Health probes + metrics (no guard) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}

// registerDashboard mounts one guarded subtree. The gateway itself serves
// only an entry probe per subtree; the pages behind it belong to the SPA.
func registerDashboard(e *echo.Echo, deps Deps, prefix string, allowed ...domain.Role) {
	g := e.Group(prefix, middleware.Guard(deps.Session, deps.Redirects, deps.Log, allowed...))
	g.GET("", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"area": prefix,
			"role": string(deps.Session.Snapshot().Role),
		})
	})
}
