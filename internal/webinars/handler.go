package webinars

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aura-webinar/webinar-service/internal/apperr"
	"github.com/aura-webinar/webinar-service/internal/i18n"
	"github.com/aura-webinar/webinar-service/internal/middleware"
	"github.com/aura-webinar/webinar-service/internal/models"
	"github.com/aura-webinar/webinar-service/pkg/response"
)

const (
	formMetadata = "metadata"
	formFile     = "file"
)

// UseCases is the webinar service as seen by the HTTP layer.
type UseCases interface {
	Create(ctx context.Context, caller Caller, cmd CreateCommand, preview *PreviewUpload) (*WebinarResponse, error)
	Update(ctx context.Context, caller Caller, cmd UpdateCommand, preview *PreviewUpload) (*WebinarResponse, error)
	Delete(ctx context.Context, caller Caller, id uuid.UUID) error
	Get(ctx context.Context, caller Caller, id uuid.UUID) (*WebinarResponse, error)
	List(ctx context.Context, caller Caller, q ListQuery) (*ListPage, error)
}

// Handler handles webinar HTTP endpoints.
type Handler struct {
	svc UseCases
}

// NewHandler creates a webinar handler.
func NewHandler(svc UseCases) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the webinar endpoints on g. auth must set the caller identity in the context.
func (h *Handler) RegisterRoutes(g *gin.RouterGroup, auth gin.HandlerFunc) {
	w := g.Group("/webinars", auth)
	managers := middleware.RequireRole(models.RoleMentor, models.RoleAdmin, models.RoleSuperAdmin)
	w.POST("", managers, h.Create)
	w.PUT("", managers, h.Update)
	w.DELETE("/:id", managers, h.Delete)
	w.GET("/list", h.List)
	w.GET("/:id", h.GetByID)
}

func callerFrom(c *gin.Context) (Caller, bool) {
	id, role, ok := middleware.UserFromContext(c)
	if !ok {
		return Caller{}, false
	}
	return Caller{UserID: id, Role: role}, true
}

// bindMultipart decodes the metadata JSON part into dst and returns the optional preview file.
// The returned close func must be called once the request is handled.
func bindMultipart(c *gin.Context, dst any) (*PreviewUpload, func(), error) {
	noop := func() {}
	raw := c.PostForm(formMetadata)
	if raw == "" {
		return nil, noop, apperr.Validation("metadata part is required")
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return nil, noop, apperr.Validation("invalid metadata", err)
	}

	fh, err := c.FormFile(formFile)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, noop, nil
		}
		return nil, noop, apperr.Validation("invalid preview file", err)
	}
	if fh.Size == 0 {
		return nil, noop, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, apperr.Validation("invalid preview file", err)
	}
	return &PreviewUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, func() { f.Close() }, nil
}

// Create handles POST /webinars (multipart: metadata + optional file).
func (h *Handler) Create(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var cmd CreateCommand
	preview, closeFile, err := bindMultipart(c, &cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeFile()

	out, err := h.svc.Create(c.Request.Context(), caller, cmd, preview)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, out)
}

// Update handles PUT /webinars (multipart: metadata with id + optional file).
func (h *Handler) Update(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var cmd UpdateCommand
	preview, closeFile, err := bindMultipart(c, &cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeFile()

	out, err := h.svc.Update(c.Request.Context(), caller, cmd, preview)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

// Delete handles DELETE /webinars/:id.
func (h *Handler) Delete(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), caller, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetByID handles GET /webinars/:id.
func (h *Handler) GetByID(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	out, err := h.svc.Get(c.Request.Context(), caller, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

// List handles GET /webinars/list?category=&lang=&page=&size=. An unknown lang defers to Accept-Language.
func (h *Handler) List(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	lang := c.Query("lang")
	if !i18n.Supported(lang) {
		lang = c.GetHeader("Accept-Language")
	}
	q := ListQuery{
		Category: c.Query("category"),
		Language: lang,
	}
	if s := c.Query("page"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			response.BadRequest(c, "invalid page")
			return
		}
		q.Page = v
	}
	if s := c.Query("size"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			response.BadRequest(c, "invalid size")
			return
		}
		q.Size = v
	}
	out, err := h.svc.List(c.Request.Context(), caller, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}
