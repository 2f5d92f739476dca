package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/records-service/internal/handler"
	"github.com/iliyamo/records-service/internal/middleware"
)

// RegisterRecords registers /records.  Any authenticated caller may use
// these routes; ownership is decided per record by the service.
func RegisterRecords(e *echo.Echo, h *handler.RecordHandler, access middleware.Verifier) {
	g := e.Group("/records", middleware.Authenticate(access))

	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
