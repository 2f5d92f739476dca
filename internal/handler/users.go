package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/records-service/internal/model"
	"github.com/iliyamo/records-service/internal/service"
)

// UserHandler serves /users.  Role checks are attached on the routes.
type UserHandler struct {
	Users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	if users == nil {
		panic("nil user service passed to NewUserHandler")
	}
	return &UserHandler{Users: users}
}

// userResp never carries the password hash.
type userResp struct {
	ID        uint64     `json:"id"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	FirstName *string    `json:"firstName"`
	LastName  *string    `json:"lastName"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func toUserResp(u model.User) userResp {
	return userResp{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// List handles GET /users (admin).
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResp(u))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /users/:id.  Any authenticated caller may look up any user.
func (h *UserHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Get(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

// Update handles PATCH /users/:id (admin).
func (h *UserHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var body struct {
		Email     *string `json:"email"`
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
		Role      *string `json:"role"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	patch := service.UserPatch{Email: body.Email, FirstName: body.FirstName, LastName: body.LastName}
	if body.Email != nil && !strings.Contains(*body.Email, "@") {
		return badRequest(c, "invalid email")
	}
	if body.Role != nil {
		r := model.Role(strings.ToLower(strings.TrimSpace(*body.Role)))
		if !r.Valid() {
			return badRequest(c, "role must be user or admin")
		}
		patch.Role = &r
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Update(ctx, id, patch)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

// Delete handles DELETE /users/:id (admin).  Records and sessions of the
// user go with it.
func (h *UserHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
