package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/records-service/internal/authz"
	"github.com/iliyamo/records-service/internal/middleware"
	"github.com/iliyamo/records-service/internal/service"
)

// writeError maps service errors to HTTP responses.  Unknown errors are
// logged and reported with a generic message.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": service.ErrConflict.Error()})
	case errors.Is(err, service.ErrAccessDenied):
		return c.JSON(http.StatusForbidden, echo.Map{"error": service.ErrAccessDenied.Error()})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": service.ErrForbidden.Error()})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": service.ErrNotFound.Error()})
	case errors.Is(err, service.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": service.ErrUnauthenticated.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": service.ErrInvalidInput.Error()})
	}
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// actor returns the authenticated caller.  Routes using it sit behind
// Authenticate, so a missing identity is a wiring mistake reported as 401.
func actor(c echo.Context) (authz.Subject, error) {
	sub, ok := middleware.Subject(c)
	if !ok {
		return authz.Subject{}, service.ErrUnauthenticated
	}
	return sub, nil
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
