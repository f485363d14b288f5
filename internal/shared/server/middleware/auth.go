package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"empowerher-backend/internal/shared/auth"
	"empowerher-backend/internal/shared/server/respond"
)

const (
	userIDKey      = "userId"
	isGuestKey     = "isGuest"
	userEmailKey   = "userEmail"
	userNameKey    = "userName"
	userPictureKey = "userPicture"

	maxGuestIDLen = 64
)

var publicPaths = map[string]bool{
	"/api/v1/health": true,
	"/metrics":       true,
}

// Auth resolves the caller from a Bearer session token or an X-Guest-Id header.
// Outside production a guestId query parameter is also accepted so plain
// browser links (artifact downloads) work.
func Auth(env string) gin.HandlerFunc {
	queryGuest := env != "production"
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		path := c.Request.URL.Path
		if publicPaths[path] || strings.HasPrefix(path, "/api/v1/auth/google/") {
			c.Next()
			return
		}

		if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				unauthorized(c, "missing or invalid token")
				return
			}
			claims, err := auth.VerifyJWT(strings.TrimSpace(token))
			if err != nil {
				unauthorized(c, "missing or invalid token")
				return
			}
			c.Set(userIDKey, claims.Sub)
			setIfPresent(c, userEmailKey, claims.Email)
			setIfPresent(c, userNameKey, claims.Name)
			setIfPresent(c, userPictureKey, claims.Picture)
			c.Set(isGuestKey, false)
			c.Next()
			return
		}

		guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
		if guestID == "" && queryGuest {
			guestID = strings.TrimSpace(c.Query("guestId"))
		}
		if guestID == "" {
			unauthorized(c, "Missing identity")
			return
		}
		if len(guestID) > maxGuestIDLen || strings.ContainsAny(guestID, " \t/:") {
			unauthorized(c, "invalid guest id")
			return
		}
		c.Set(userIDKey, "guest:"+guestID)
		c.Set(isGuestKey, true)
		c.Next()
	}
}

func unauthorized(c *gin.Context, msg string) {
	respond.Error(c, http.StatusUnauthorized, "unauthorized", msg, nil)
}

func setIfPresent(c *gin.Context, key, value string) {
	if value != "" {
		c.Set(key, value)
	}
}

func contextString(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	return c.GetString(key)
}

// UserIDFromContext returns "google:<sub>" or "guest:<id>".
func UserIDFromContext(c *gin.Context) string { return contextString(c, userIDKey) }

// IsGuestFromContext reports whether the caller identified with a guest id only.
// An unidentified context counts as a guest.
func IsGuestFromContext(c *gin.Context) bool {
	if c == nil {
		return true
	}
	v, ok := c.Get(isGuestKey)
	if !ok {
		return true
	}
	guest, _ := v.(bool)
	return guest
}

func UserEmailFromContext(c *gin.Context) string   { return contextString(c, userEmailKey) }
func UserNameFromContext(c *gin.Context) string    { return contextString(c, userNameKey) }
func UserPictureFromContext(c *gin.Context) string { return contextString(c, userPictureKey) }
