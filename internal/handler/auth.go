package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/records-service/internal/config"
	"github.com/iliyamo/records-service/internal/middleware"
	"github.com/iliyamo/records-service/internal/service"
)

// bcrypt only hashes the first 72 bytes and refuses longer input.
const (
	minPasswordLen = 6
	maxPasswordLen = 72
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Sessions *service.SessionService
}

func NewAuthHandler(cfg config.Config, sessions *service.SessionService) *AuthHandler {
	if sessions == nil {
		panic("nil session service passed to NewAuthHandler")
	}
	return &AuthHandler{Cfg: cfg, Sessions: sessions}
}

// ----- DTOs -----

type registerReq struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type tokenResp struct {
	AccessToken string `json:"access_token"`
}
type sessionResp struct {
	ID        uint64    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func validCredentials(email, password string) bool {
	email = strings.TrimSpace(email)
	return email != "" && strings.Contains(email, "@") &&
		len(password) >= minPasswordLen && len(password) <= maxPasswordLen
}

// Register: create user, return access token, set refresh cookie.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if !validCredentials(req.Email, req.Password) {
		return badRequest(c, "valid email and a password of 6 to 72 bytes required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, err := h.Sessions.Signup(ctx, service.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return writeError(c, err)
	}
	h.setRefreshCookie(c, pair.Refresh.Token)
	return c.JSON(http.StatusCreated, tokenResp{AccessToken: pair.Access.Token})
}

// Login: verify credentials and open another session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if !validCredentials(req.Email, req.Password) {
		return badRequest(c, "valid email and a password of 6 to 72 bytes required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, err := h.Sessions.Signin(ctx, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	h.setRefreshCookie(c, pair.Refresh.Token)
	return c.JSON(http.StatusOK, tokenResp{AccessToken: pair.Access.Token})
}

// Refresh: rotate the refresh cookie.  The route sits behind the refresh
// verifier, which attaches the subject and the raw cookie value.
func (h *AuthHandler) Refresh(c echo.Context) error {
	sub, err := actor(c)
	if err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, err := h.Sessions.Refresh(ctx, sub.UserID, middleware.RawToken(c))
	if err != nil {
		return writeError(c, err)
	}
	h.setRefreshCookie(c, pair.Refresh.Token)
	return c.JSON(http.StatusOK, tokenResp{AccessToken: pair.Access.Token})
}

// Logout: revoke every session of the caller and clear the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	sub, err := actor(c)
	if err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.Logout(ctx, sub.UserID); err != nil {
		return writeError(c, err)
	}
	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out"})
}

// Me: the verified access token claims.
func (h *AuthHandler) Me(c echo.Context) error {
	cl := middleware.Claims(c)
	if cl == nil {
		return writeError(c, service.ErrUnauthenticated)
	}
	uid, _ := cl.UserID()
	out := echo.Map{
		"sub":   uid,
		"email": cl.Email,
		"role":  cl.Role,
	}
	if cl.IssuedAt != nil {
		out["iat"] = cl.IssuedAt.Unix()
	}
	if cl.ExpiresAt != nil {
		out["exp"] = cl.ExpiresAt.Unix()
	}
	return c.JSON(http.StatusOK, out)
}

// ListSessions: the caller's stored refresh tokens, one per device.
func (h *AuthHandler) ListSessions(c echo.Context) error {
	sub, err := actor(c)
	if err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Sessions.Sessions(ctx, sub.UserID)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]sessionResp, 0, len(rows))
	for _, r := range rows {
		out = append(out, sessionResp{ID: r.ID, CreatedAt: r.CreatedAt, ExpiresAt: r.ExpiresAt})
	}
	return c.JSON(http.StatusOK, out)
}

// RevokeSession: end one of the caller's sessions.
func (h *AuthHandler) RevokeSession(c echo.Context) error {
	sub, err := actor(c)
	if err != nil {
		return writeError(c, err)
	}
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.RevokeSession(ctx, sub.UserID, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, raw string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.RefreshCookieName,
		Value:    raw,
		Path:     "/",
		MaxAge:   int(h.Cfg.RefreshTTL / time.Second),
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
