package appstate

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"empowerher-backend/internal/profile"
	"empowerher-backend/internal/shared/server/middleware"
	"empowerher-backend/internal/shared/server/respond"
)

// Handler exposes profile and session state.
type Handler struct {
	Store *Store
}

// NewHandler constructs a Handler.
func NewHandler(store *Store) *Handler {
	return &Handler{Store: store}
}

// RegisterRoutes attaches profile and session routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/profile", h.getProfile)
	rg.PUT("/profile", h.putProfile)
	rg.DELETE("/profile", h.deleteProfile)
	rg.GET("/session", h.session)
	rg.POST("/session/login", h.login)
	rg.POST("/session/logout", h.logout)
}

type profileResponse struct {
	Profile *profile.UserProfile `json:"profile"`
	Version int64                `json:"version"`
}

type sessionResponse struct {
	UserID        string               `json:"userId"`
	IsGuest       bool                 `json:"isGuest"`
	Email         string               `json:"email,omitempty"`
	Name          string               `json:"name,omitempty"`
	Picture       string               `json:"picture,omitempty"`
	Authenticated bool                 `json:"authenticated"`
	Profile       *profile.UserProfile `json:"profile"`
	Version       int64                `json:"version"`
}

func (h *Handler) getProfile(c *gin.Context) {
	state, err := h.Store.Snapshot(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load profile", nil)
		return
	}
	respond.JSON(c, http.StatusOK, profileResponse{Profile: state.User, Version: state.Version})
}

func (h *Handler) putProfile(c *gin.Context) {
	var req profile.UserProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.CareerStage = profile.CareerStage(strings.ToLower(strings.TrimSpace(string(req.CareerStage))))

	state, err := h.Store.SetUser(c.Request.Context(), middleware.UserIDFromContext(c), &req)
	if err != nil {
		var verr *profile.ValidationError
		if errors.As(err, &verr) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid profile", gin.H{"fields": verr.Fields})
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save profile", nil)
		return
	}
	respond.JSON(c, http.StatusOK, profileResponse{Profile: state.User, Version: state.Version})
}

func (h *Handler) deleteProfile(c *gin.Context) {
	state, err := h.Store.SetUser(c.Request.Context(), middleware.UserIDFromContext(c), nil)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to clear profile", nil)
		return
	}
	respond.JSON(c, http.StatusOK, profileResponse{Profile: state.User, Version: state.Version})
}

func (h *Handler) session(c *gin.Context) {
	state, err := h.Store.Snapshot(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load session", nil)
		return
	}
	respond.JSON(c, http.StatusOK, h.toSession(c, state))
}

func (h *Handler) login(c *gin.Context) {
	h.setAuthenticated(c, true)
}

func (h *Handler) logout(c *gin.Context) {
	h.setAuthenticated(c, false)
}

func (h *Handler) setAuthenticated(c *gin.Context, v bool) {
	state, err := h.Store.SetAuthenticated(c.Request.Context(), middleware.UserIDFromContext(c), v)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update session", nil)
		return
	}
	respond.JSON(c, http.StatusOK, h.toSession(c, state))
}

func (h *Handler) toSession(c *gin.Context, state State) sessionResponse {
	return sessionResponse{
		UserID:        middleware.UserIDFromContext(c),
		IsGuest:       middleware.IsGuestFromContext(c),
		Email:         middleware.UserEmailFromContext(c),
		Name:          middleware.UserNameFromContext(c),
		Picture:       middleware.UserPictureFromContext(c),
		Authenticated: state.Authenticated,
		Profile:       state.User,
		Version:       state.Version,
	}
}

// RequireAuthenticated blocks dashboard routes while the user is signed out.
func RequireAuthenticated(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := store.Snapshot(c.Request.Context(), middleware.UserIDFromContext(c))
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load session", nil)
			return
		}
		if !state.Authenticated {
			respond.Error(c, http.StatusForbidden, "not_authenticated", "sign in to continue", nil)
			return
		}
		c.Next()
	}
}
