package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/records-service/internal/metrics"
	"github.com/iliyamo/records-service/internal/utils"
)

// Context keys set by Authenticate.
const (
	ctxIdentity = "identity"
	ctxUserID   = "user_id"
	ctxRole     = "role"
	ctxRawToken = "raw_token"
)

// RefreshCookieName is the cookie carrying the refresh token.
const RefreshCookieName = "refresh_token"

// Extractor pulls a raw token out of a request.  It returns "" when the
// request carries none.
type Extractor func(c echo.Context) string

// FromBearer reads `Authorization: Bearer <token>`.
func FromBearer() Extractor {
	return func(c echo.Context) string {
		auth := c.Request().Header.Get(echo.HeaderAuthorization)
		if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
			return ""
		}
		return strings.TrimSpace(auth[7:])
	}
}

// FromCookie reads the named cookie.
func FromCookie(name string) Extractor {
	return func(c echo.Context) string {
		ck, err := c.Cookie(name)
		if err != nil {
			return ""
		}
		return ck.Value
	}
}

// Verifier is one token class: where the token comes from and which codec
// (secret) it must verify under.  Access and refresh routes use two
// Verifier values of this one type.
type Verifier struct {
	Class   string // "access" or "refresh", used in metrics labels
	Codec   *utils.TokenCodec
	Extract Extractor
}

// AccessVerifier verifies bearer access tokens.
func AccessVerifier(codec *utils.TokenCodec) Verifier {
	return Verifier{Class: "access", Codec: codec, Extract: FromBearer()}
}

// RefreshVerifier verifies refresh tokens from the refresh cookie.
func RefreshVerifier(codec *utils.TokenCodec) Verifier {
	return Verifier{Class: "refresh", Codec: codec, Extract: FromCookie(RefreshCookieName)}
}

// Authenticate returns a middleware that rejects the request with 401
// unless it carries a token valid for v.  The response never says whether
// the token was missing, expired, forged or malformed.  On success the
// verified claims are attached to the context for downstream handlers.
func Authenticate(v Verifier) echo.MiddlewareFunc {
	if v.Codec == nil || v.Extract == nil {
		panic("middleware: Authenticate needs a codec and an extractor")
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := v.Extract(c)
			if raw == "" {
				metrics.GuardRejections.WithLabelValues(v.Class, "missing").Inc()
				return unauthorized(c)
			}
			claims, err := v.Codec.Verify(raw)
			if err != nil {
				metrics.GuardRejections.WithLabelValues(v.Class, rejectReason(err)).Inc()
				return unauthorized(c)
			}
			uid, _ := claims.UserID() // Verify guarantees a numeric subject
			c.Set(ctxIdentity, claims)
			c.Set(ctxUserID, uid)
			c.Set(ctxRole, claims.Role)
			c.Set(ctxRawToken, raw)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, utils.ErrTokenExpired):
		return "expired"
	case errors.Is(err, utils.ErrTokenInvalidSignature):
		return "signature"
	default:
		return "malformed"
	}
}
