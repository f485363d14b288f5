package tips

import (
	"errors"
	"net/http"

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

// RegisterRoutes attaches read routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tips/current", h.current)
}

// RegisterGenerateRoutes attaches routes that call the model.
func (h *Handler) RegisterGenerateRoutes(rg *gin.RouterGroup) {
	rg.POST("/tips/refresh", h.refresh)
}

type refreshResponse struct {
	Tip       Tip  `json:"tip"`
	Refreshed bool `json:"refreshed"`
}

func (h *Handler) current(c *gin.Context) {
	respond.JSON(c, http.StatusOK, h.Svc.Current(middleware.UserIDFromContext(c)))
}

func (h *Handler) refresh(c *gin.Context) {
	tip, err := h.Svc.Refresh(c.Request.Context(), middleware.UserIDFromContext(c))
	switch {
	case err == nil:
		respond.JSON(c, http.StatusOK, refreshResponse{Tip: tip, Refreshed: true})
	case errors.Is(err, ErrBusy):
		respond.Error(c, http.StatusConflict, "busy", "tip refresh in progress", nil)
	case tip.Text != "":
		respond.JSON(c, http.StatusOK, refreshResponse{Tip: tip})
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to refresh tip", nil)
	}
}
