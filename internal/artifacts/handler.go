package artifacts

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"empowerher-backend/internal/shared/server/middleware"
	"empowerher-backend/internal/shared/server/respond"
	"empowerher-backend/internal/shared/telemetry"
)

const maxImportBytes = 10 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches draft and library routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/artifacts/draft", h.getDraft)
	rg.PUT("/artifacts/draft", h.putDraft)
	rg.DELETE("/artifacts/draft", h.clearDraft)
	rg.POST("/artifacts/draft/import", h.importDraft)
	rg.POST("/artifacts", h.save)
	rg.GET("/artifacts", h.list)
	rg.GET("/artifacts/:id", h.get)
	rg.DELETE("/artifacts/:id", h.delete)
	rg.POST("/artifacts/:id/export", h.export)
	rg.GET("/artifacts/:id/download", h.download)
}

// RegisterGenerateRoutes attaches routes that call the model.
func (h *Handler) RegisterGenerateRoutes(rg *gin.RouterGroup) {
	rg.POST("/artifacts/draft/generate", h.generate)
}

type draftResponse struct {
	Type         Type       `json:"type"`
	Input        string     `json:"input"`
	Output       string     `json:"output"`
	IsGenerating bool       `json:"isGenerating"`
	LastUpdated  *time.Time `json:"lastUpdated,omitempty"`
	Failed       bool       `json:"failed,omitempty"`
}

func toDraftResponse(d Draft) draftResponse {
	resp := draftResponse{Type: d.Type, Input: d.Input, Output: d.Output, IsGenerating: d.IsGenerating}
	if !d.LastUpdated.IsZero() {
		t := d.LastUpdated
		resp.LastUpdated = &t
	}
	return resp
}

type artifactResponse struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Exported    bool      `json:"exported"`
	CreatedAt   time.Time `json:"createdAt"`
	LastUpdated time.Time `json:"lastUpdated"`
}

func toArtifactResponse(a Artifact) artifactResponse {
	return artifactResponse{
		ID:          a.ID,
		Type:        a.Type,
		Title:       a.Title,
		Content:     a.Content,
		Exported:    a.StorageKey != "",
		CreatedAt:   a.CreatedAt,
		LastUpdated: a.LastUpdated,
	}
}

func (h *Handler) getDraft(c *gin.Context) {
	respond.JSON(c, http.StatusOK, toDraftResponse(h.Svc.Draft(middleware.UserIDFromContext(c))))
}

type putDraftRequest struct {
	Type  *string `json:"type"`
	Input *string `json:"input"`
}

func (h *Handler) putDraft(c *gin.Context) {
	var req putDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)
	d := h.Svc.Draft(userID)
	if req.Type != nil {
		t, err := ParseType(*req.Type)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "type must be one of resume, linkedin, portfolio", nil)
			return
		}
		d, _ = h.Svc.SelectType(userID, t)
	}
	if req.Input != nil {
		d = h.Svc.SetInput(userID, *req.Input)
	}
	respond.JSON(c, http.StatusOK, toDraftResponse(d))
}

func (h *Handler) clearDraft(c *gin.Context) {
	d, err := h.Svc.Clear(middleware.UserIDFromContext(c))
	if errors.Is(err, ErrBusy) {
		respond.Error(c, http.StatusConflict, "busy", "generation in progress", nil)
		return
	}
	respond.JSON(c, http.StatusOK, toDraftResponse(d))
}

func (h *Handler) importDraft(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fh.Size > maxImportBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds 10MB", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImportBytes+1))
	if err != nil || len(data) > maxImportBytes {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	d, err := h.Svc.ImportInput(c.Request.Context(), middleware.UserIDFromContext(c), fh.Filename, fh.Header.Get("Content-Type"), data)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedFile):
			respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_file", "only PDF, DOCX and plain text files are supported", nil)
		case errors.Is(err, ErrEmptyInput):
			respond.Error(c, http.StatusUnprocessableEntity, "empty_file", "no text could be extracted", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to import file", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, toDraftResponse(d))
}

func (h *Handler) generate(c *gin.Context) {
	d, err := h.Svc.Generate(c.Request.Context(), middleware.UserIDFromContext(c))
	switch {
	case err == nil:
		c.Set("stateTransition", "generating->idle")
		respond.JSON(c, http.StatusOK, toDraftResponse(d))
	case errors.Is(err, ErrEmptyInput):
		respond.Error(c, http.StatusBadRequest, "empty_input", "input is required", nil)
	case errors.Is(err, ErrBusy):
		respond.Error(c, http.StatusConflict, "busy", "generation in progress", nil)
	default:
		// The draft is unchanged apart from the cleared busy flag.
		c.Set("stateTransition", "generating->idle")
		resp := toDraftResponse(d)
		resp.Failed = true
		respond.JSON(c, http.StatusOK, resp)
	}
}

type saveRequest struct {
	Title string `json:"title" binding:"max=200"`
}

func (h *Handler) save(c *gin.Context) {
	var req saveRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	a, err := h.Svc.Save(c.Request.Context(), middleware.UserIDFromContext(c), req.Title)
	if err != nil {
		if errors.Is(err, ErrEmptyInput) {
			respond.Error(c, http.StatusBadRequest, "empty_output", "generate content before saving", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save artifact", nil)
		return
	}
	c.Set("artifactId", a.ID)
	respond.JSON(c, http.StatusCreated, toArtifactResponse(a))
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list artifacts", nil)
		return
	}
	out := make([]artifactResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toArtifactResponse(a))
	}
	respond.JSON(c, http.StatusOK, gin.H{"items": out})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set("artifactId", id)
	a, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		h.lookupError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, toArtifactResponse(a))
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set("artifactId", id)
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), id); err != nil {
		h.lookupError(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) export(c *gin.Context) {
	id := c.Param("id")
	c.Set("artifactId", id)
	a, err := h.Svc.Export(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		h.lookupError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, toArtifactResponse(a))
}

func (h *Handler) download(c *gin.Context) {
	id := c.Param("id")
	c.Set("artifactId", id)
	a, rc, err := h.Svc.Open(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		h.lookupError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", `attachment; filename="`+exportName(a)+`"`)
	c.Header("Content-Type", "text/markdown; charset=utf-8")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		telemetry.Warn("artifacts.download_failed", map[string]any{
			"artifact_id": a.ID,
			"error":       err.Error(),
		})
	}
}

func (h *Handler) lookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "artifact not found", nil)
	case errors.Is(err, ErrNoStore):
		respond.Error(c, http.StatusServiceUnavailable, "export_unavailable", "export storage is not configured", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "artifact request failed", nil)
	}
}
