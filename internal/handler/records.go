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

// RecordHandler serves /records.  Ownership rules live in RecordService.
type RecordHandler struct {
	Records *service.RecordService
}

func NewRecordHandler(records *service.RecordService) *RecordHandler {
	if records == nil {
		panic("nil record service passed to NewRecordHandler")
	}
	return &RecordHandler{Records: records}
}

type authorResp struct {
	Email     string  `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

type recordResp struct {
	ID        uint64      `json:"id"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	AuthorID  uint64      `json:"authorId"`
	CreatedAt time.Time   `json:"createdAt"`
	Author    *authorResp `json:"author,omitempty"`
}

func toRecordResp(r model.RecordWithAuthor) recordResp {
	out := recordResp{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		AuthorID:  r.AuthorID,
		CreatedAt: r.CreatedAt,
	}
	if r.Author != nil {
		out.Author = &authorResp{Email: r.Author.Email, FirstName: r.Author.FirstName, LastName: r.Author.LastName}
	}
	return out
}

// Create handles POST /records.
func (h *RecordHandler) Create(c echo.Context) error {
	sub, err := actor(c)
	if err != nil {
		return writeError(c, err)
	}
	var body struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(body.Title) == "" {
		return badRequest(c, "title is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Records.Create(ctx, sub, body.Title, body.Content)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toRecordResp(model.RecordWithAuthor{Record: rec}))
}

// List handles GET /records: every record for admins, own records otherwise.
func (h *RecordHandler) List(c echo.Context) error {
	sub, err := actor(c)
	if err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	recs, err := h.Records.List(ctx, sub)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]recordResp, 0, len(recs))
	for _, r := range recs {
		out = append(out, toRecordResp(r))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /records/:id.
func (h *RecordHandler) Get(c echo.Context) error {
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

	rec, err := h.Records.Get(ctx, sub, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toRecordResp(rec))
}

// Update handles PATCH /records/:id.  Absent fields are left unchanged.
func (h *RecordHandler) Update(c echo.Context) error {
	sub, err := actor(c)
	if err != nil {
		return writeError(c, err)
	}
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var body struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Title != nil && strings.TrimSpace(*body.Title) == "" {
		return badRequest(c, "title cannot be empty")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Records.Update(ctx, sub, id, service.RecordPatch{Title: body.Title, Content: body.Content})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toRecordResp(rec))
}

// Delete handles DELETE /records/:id.
func (h *RecordHandler) Delete(c echo.Context) error {
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

	if err := h.Records.Delete(ctx, sub, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
