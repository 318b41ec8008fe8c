package tags

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"paperless-backend/internal/shared/server/respond"
)

var (
	namePattern  = regexp.MustCompile(`^[a-zA-Z0-9 _-]+$`)
	colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// Handler wires HTTP handlers to the tag repository.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches tag routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/tags", h.create)
	rg.GET("/tags", h.list)
	rg.GET("/tags/:id", h.get)
	rg.PUT("/tags/:id", h.update)
	rg.DELETE("/tags/:id", h.delete)
}

type tagRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

func (r *tagRequest) validate() (Tag, string) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return Tag{}, "name is required"
	}
	if len(name) > 100 {
		return Tag{}, "name must be at most 100 characters"
	}
	if !namePattern.MatchString(name) {
		return Tag{}, "name may only contain letters, numbers, spaces, hyphens, and underscores"
	}

	description := strings.TrimSpace(r.Description)
	if len(description) > 255 {
		return Tag{}, "description must be at most 255 characters"
	}

	color := strings.TrimSpace(r.Color)
	if color == "" {
		color = DefaultColor
	}
	if !colorPattern.MatchString(color) {
		return Tag{}, "color must be a hex value like #007bff"
	}

	return Tag{Name: name, Description: description, Color: color}, ""
}

func (h *Handler) create(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	tag, problem := req.validate()
	if problem != "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", problem, nil)
		return
	}
	tag.CreatedAt = time.Now().UTC()

	if err := h.Repo.Create(c.Request.Context(), &tag); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateName):
			respond.Error(c, http.StatusBadRequest, "duplicate_name", "a tag with this name already exists", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create tag", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, tag)
}

func (h *Handler) list(c *gin.Context) {
	all, err := h.Repo.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list tags", nil)
		return
	}
	if all == nil {
		all = []Tag{}
	}
	respond.JSON(c, http.StatusOK, all)
}

func (h *Handler) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	tag, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "tag not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch tag", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, tag)
}

func (h *Handler) update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	tag, problem := req.validate()
	if problem != "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", problem, nil)
		return
	}
	tag.ID = id

	updated, err := h.Repo.Update(c.Request.Context(), tag)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "tag not found", nil)
		case errors.Is(err, ErrDuplicateName):
			respond.Error(c, http.StatusBadRequest, "duplicate_name", "a tag with this name already exists", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update tag", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, updated)
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.Repo.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "tag not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete tag", nil)
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid tag id", nil)
		return 0, false
	}
	return id, true
}
