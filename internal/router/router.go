package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/records-service/internal/handler"
	"github.com/iliyamo/records-service/internal/metrics"
	"github.com/iliyamo/records-service/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication: the
// health check and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", metrics.Handler())
}

// RegisterAuth registers the /auth routes.  Register, login and refresh are
// rate limited by limit.  Refresh authenticates with the refresh cookie;
// everything else under /auth that needs a session uses the bearer access
// token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, access, refresh middleware.Verifier, limit echo.MiddlewareFunc) {
	g := e.Group("/auth")

	g.POST("/register", a.Register, limit)
	g.POST("/login", a.Login, limit)
	// the cookie is verified before rotation so a forged cookie never reaches the store
	g.POST("/refresh", a.Refresh, limit, middleware.Authenticate(refresh))

	authed := g.Group("", middleware.Authenticate(access))
	authed.POST("/logout", a.Logout)
	authed.GET("/me", a.Me)
	authed.GET("/sessions", a.ListSessions)
	authed.DELETE("/sessions/:id", a.RevokeSession)
}
