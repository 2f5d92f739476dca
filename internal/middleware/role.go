package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/records-service/internal/authz"
	"github.com/iliyamo/records-service/internal/model"
)

// Guard returns a middleware that evaluates policy against the identity
// attached by Authenticate.  A request without identity is 401; an
// identity the policy rejects is 403.  Ownership policies cannot be decided
// here because the resource is not loaded yet, so passing one panics at
// route registration.
func Guard(policy authz.Policy) echo.MiddlewareFunc {
	if policy.NeedsOwner() {
		panic("middleware: ownership policies are evaluated by services, not Guard")
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sub, ok := Subject(c)
			if !ok {
				return unauthorized(c)
			}
			if !policy.Allow(sub, 0) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireRole is shorthand for Guard(authz.RequireRoles(roles...)).
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return Guard(authz.RequireRoles(roles...))
}
