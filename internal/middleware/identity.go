package middleware

// identity.go exposes the values Authenticate attaches to the echo context
// so handlers do not depend on the context key names.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/records-service/internal/authz"
	"github.com/iliyamo/records-service/internal/model"
	"github.com/iliyamo/records-service/internal/utils"
)

// Claims returns the verified claims, or nil on unauthenticated routes.
func Claims(c echo.Context) *utils.Claims {
	cl, _ := c.Get(ctxIdentity).(*utils.Claims)
	return cl
}

// Subject returns the caller as an authz subject.  ok is false when no
// identity is attached.
func Subject(c echo.Context) (authz.Subject, bool) {
	uid, ok := c.Get(ctxUserID).(uint64)
	if !ok || uid == 0 {
		return authz.Subject{}, false
	}
	role, _ := c.Get(ctxRole).(model.Role)
	return authz.Subject{UserID: uid, Role: role}, true
}

// RawToken returns the token string Authenticate verified.
func RawToken(c echo.Context) string {
	s, _ := c.Get(ctxRawToken).(string)
	return s
}

// userID returns a printable user identifier for rate-limit keys, or
// "anon" when no user is authenticated.
func userID(c echo.Context) string {
	if cl := Claims(c); cl != nil && cl.Subject != "" {
		return cl.Subject
	}
	return "anon"
}
