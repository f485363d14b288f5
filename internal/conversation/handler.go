package conversation

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

// RegisterRoutes attaches session management routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/coach/sessions", h.create)
	rg.GET("/coach/sessions", h.list)
	rg.GET("/coach/sessions/:id", h.get)
	rg.DELETE("/coach/sessions/:id", h.delete)
}

// RegisterGenerateRoutes attaches routes that call the model.
func (h *Handler) RegisterGenerateRoutes(rg *gin.RouterGroup) {
	rg.POST("/coach/sessions/:id/messages", h.submit)
}

type sessionResponse struct {
	ID        string        `json:"id"`
	State     State         `json:"state"`
	CreatedAt time.Time     `json:"createdAt"`
	Messages  []ChatMessage `json:"messages"`
}

func toResponse(s *Session) sessionResponse {
	return sessionResponse{ID: s.ID, State: s.State(), CreatedAt: s.CreatedAt, Messages: s.Messages()}
}

type submitRequest struct {
	Content       string `json:"content"`
	DeepReasoning bool   `json:"deepReasoning"`
}

type submitResponse struct {
	Reply    *ChatMessage  `json:"reply"`
	Dropped  bool          `json:"dropped"`
	State    State         `json:"state"`
	Messages []ChatMessage `json:"messages"`
}

func (h *Handler) create(c *gin.Context) {
	sess, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start session", nil)
		return
	}
	c.Set("sessionId", sess.ID)
	respond.JSON(c, http.StatusCreated, toResponse(sess))
}

func (h *Handler) list(c *gin.Context) {
	sessions := h.Svc.List(middleware.UserIDFromContext(c))
	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toResponse(s))
	}
	respond.JSON(c, http.StatusOK, gin.H{"items": out})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set("sessionId", id)
	sess, err := h.Svc.Get(middleware.UserIDFromContext(c), id)
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(sess))
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set("sessionId", id)
	if err := h.Svc.Delete(middleware.UserIDFromContext(c), id); err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) submit(c *gin.Context) {
	id := c.Param("id")
	c.Set("sessionId", id)
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	userID := middleware.UserIDFromContext(c)
	msg, err := h.Svc.Submit(c.Request.Context(), userID, id, req.Content, req.DeepReasoning)
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		return
	case errors.Is(err, ErrEmptyInput):
		respond.Error(c, http.StatusBadRequest, "empty_input", "content is required", nil)
		return
	case errors.Is(err, ErrBusy):
		respond.Error(c, http.StatusConflict, "busy", "a reply is already pending", nil)
		return
	}

	sess, getErr := h.Svc.Get(userID, id)
	resp := submitResponse{Dropped: err != nil, State: StateIdle, Messages: []ChatMessage{}}
	if getErr == nil {
		resp.State = sess.State()
		resp.Messages = sess.Messages()
	}
	if err == nil {
		resp.Reply = &msg
	}
	c.Set("stateTransition", string(StateAwaitingResponse)+"->"+string(StateIdle))
	respond.JSON(c, http.StatusOK, resp)
}
