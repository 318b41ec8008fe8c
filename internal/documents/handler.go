package documents

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"paperless-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/search", h.search)
	rg.GET("/documents/recent", h.recent)
	rg.GET("/documents/:id", h.get)
	rg.GET("/documents/:id/download", h.download)
	rg.PUT("/documents/:id", h.update)
	rg.DELETE("/documents/:id", h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	if h.Svc.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Svc.MaxUploadBytes)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "file exceeds the upload size limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.Upload(c.Request.Context(), c.PostForm("title"), fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload document", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(doc))
}

func (h *Handler) list(c *gin.Context) {
	docs, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}
	respond.JSON(c, http.StatusOK, toResponses(docs))
}

func (h *Handler) search(c *gin.Context) {
	term := c.Query("query")
	started := time.Now()

	docs, err := h.Svc.Search(c.Request.Context(), term)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to search documents", nil)
		return
	}

	respond.JSON(c, http.StatusOK, SearchResponse{
		Documents:      toResponses(docs),
		TotalCount:     len(docs),
		SearchTerm:     term,
		SearchDuration: time.Since(started).Milliseconds(),
	})
}

func (h *Handler) recent(c *gin.Context) {
	count := 10
	if v := c.Query("count"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			count = parsed
		}
	}

	docs, err := h.Svc.Recent(c.Request.Context(), count)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list recent documents", nil)
		return
	}
	respond.JSON(c, http.StatusOK, toResponses(docs))
}

func (h *Handler) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	doc, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		}
		return
	}

	h.Svc.RecordView(c.Request.Context(), id, c.Request.UserAgent(), c.ClientIP())
	respond.JSON(c, http.StatusOK, toResponse(doc))
}

func (h *Handler) download(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	access := AccessLog{
		UserAgent:  c.Request.UserAgent(),
		IPAddress:  c.ClientIP(),
		ActionType: ActionDownload,
	}

	if url, ok := h.Svc.SignedDownloadURL(c.Request.Context(), id, access); ok {
		c.Redirect(http.StatusTemporaryRedirect, url)
		return
	}

	doc, rc, err := h.Svc.OpenContent(c.Request.Context(), id, access)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to download document", nil)
		}
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	c.DataFromReader(http.StatusOK, doc.FileSize, contentTypeFor(doc.FileType), rc, nil)
}

type updateRequest struct {
	Title  string   `json:"title"`
	TagIDs *[]int64 `json:"tagIds"`
}

func (h *Handler) update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	var tagIDs []int64
	if req.TagIDs != nil {
		tagIDs = *req.TagIDs
		if tagIDs == nil {
			tagIDs = []int64{}
		}
	}

	doc, err := h.Svc.Update(c.Request.Context(), id, req.Title, tagIDs)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update document", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(doc))
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete document", nil)
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid document id", nil)
		return 0, false
	}
	return id, true
}
