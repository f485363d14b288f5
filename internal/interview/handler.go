package interview

import (
	"errors"
	"net/http"
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

// RegisterRoutes attaches read and start routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/interview", h.get)
	rg.POST("/interview/start", h.start)
}

// RegisterGenerateRoutes attaches routes that call the model.
func (h *Handler) RegisterGenerateRoutes(rg *gin.RouterGroup) {
	rg.POST("/interview/stop", h.stop)
}

type sessionResponse struct {
	State      State      `json:"state"`
	Role       string     `json:"role,omitempty"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	Feedback   *Feedback  `json:"feedback"`
	Failed     bool       `json:"failed,omitempty"`
}

func toResponse(s Session) sessionResponse {
	resp := sessionResponse{State: s.State, Role: s.Role, Difficulty: s.Difficulty, Feedback: s.Feedback}
	if !s.StartedAt.IsZero() {
		t := s.StartedAt
		resp.StartedAt = &t
	}
	return resp
}

type startRequest struct {
	Role       string `json:"role" binding:"required"`
	Difficulty string `json:"difficulty"`
}

type stopRequest struct {
	Transcript string `json:"transcript"`
}

func (h *Handler) get(c *gin.Context) {
	respond.JSON(c, http.StatusOK, toResponse(h.Svc.Get(middleware.UserIDFromContext(c))))
}

func (h *Handler) start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "role is required", nil)
		return
	}
	d, err := ParseDifficulty(req.Difficulty)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "difficulty must be one of beginner, standard, stress", nil)
		return
	}
	sess, err := h.Svc.Start(middleware.UserIDFromContext(c), req.Role, d)
	if err != nil {
		h.stateError(c, err)
		return
	}
	c.Set("stateTransition", "->"+string(StateRecording))
	respond.JSON(c, http.StatusOK, toResponse(sess))
}

func (h *Handler) stop(c *gin.Context) {
	var req stopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	sess, err := h.Svc.Stop(c.Request.Context(), middleware.UserIDFromContext(c), req.Transcript)
	switch {
	case err == nil:
		c.Set("stateTransition", string(StateAnalyzing)+"->"+string(StateFeedback))
		respond.JSON(c, http.StatusOK, toResponse(sess))
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidState):
		h.stateError(c, err)
	case sess.State == StateIdle:
		c.Set("stateTransition", string(StateAnalyzing)+"->"+string(StateIdle))
		resp := toResponse(sess)
		resp.Failed = true
		respond.JSON(c, http.StatusOK, resp)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to analyze answer", nil)
	}
}

func (h *Handler) stateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrInvalidState):
		respond.Error(c, http.StatusConflict, "invalid_state", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "interview request failed", nil)
	}
}
