package roadmap

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"empowerher-backend/internal/shared/server/middleware"
	"empowerher-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches read-only roadmap routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/roadmap/status", h.status)
	rg.PATCH("/roadmap/steps/:index", h.setCompleted)
}

// RegisterGenerateRoutes attaches routes that may call the model.
func (h *Handler) RegisterGenerateRoutes(rg *gin.RouterGroup) {
	rg.GET("/roadmap", h.load)
}

type planResponse struct {
	Status         Status     `json:"status"`
	ProfileVersion int64      `json:"profileVersion"`
	Steps          []Step     `json:"steps"`
	GeneratedAt    *time.Time `json:"generatedAt,omitempty"`
}

func toResponse(p Plan) planResponse {
	resp := planResponse{Status: p.Status, ProfileVersion: p.ProfileVersion, Steps: p.Steps}
	if resp.Steps == nil {
		resp.Steps = []Step{}
	}
	if !p.GeneratedAt.IsZero() {
		t := p.GeneratedAt
		resp.GeneratedAt = &t
	}
	return resp
}

func (h *Handler) load(c *gin.Context) {
	plan, err := h.Svc.Load(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load roadmap", nil)
		return
	}
	c.Set("stateTransition", "loading->"+string(plan.Status))
	respond.JSON(c, http.StatusOK, toResponse(plan))
}

func (h *Handler) status(c *gin.Context) {
	plan, err := h.Svc.Peek(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load roadmap", nil)
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(plan))
}

type setCompletedRequest struct {
	Completed *bool `json:"completed"`
}

func (h *Handler) setCompleted(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "index must be an integer", nil)
		return
	}
	var req setCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Completed == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "completed is required", nil)
		return
	}

	plan, err := h.Svc.SetCompleted(c.Request.Context(), middleware.UserIDFromContext(c), index, *req.Completed)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "roadmap not generated yet", nil)
		case errors.Is(err, ErrStepOutOfRange):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update roadmap", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(plan))
}
