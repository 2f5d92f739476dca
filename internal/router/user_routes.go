package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/records-service/internal/authz"
	"github.com/iliyamo/records-service/internal/handler"
	"github.com/iliyamo/records-service/internal/middleware"
)

// RegisterUsers registers /users.  Listing, editing and deleting users is
// admin only.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler, access middleware.Verifier) {
	g := e.Group("/users", middleware.Authenticate(access))
	admin := middleware.Guard(authz.AdminOnly)

	g.GET("", h.List, admin)
	// TODO: restrict to self-or-admin once clients stop resolving other users' profiles through this route.
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update, admin)
	g.DELETE("/:id", h.Delete, admin)
}
