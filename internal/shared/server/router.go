package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"empowerher-backend/internal/appstate"
	"empowerher-backend/internal/artifacts"
	googleauth "empowerher-backend/internal/auth"
	"empowerher-backend/internal/conversation"
	"empowerher-backend/internal/interview"
	"empowerher-backend/internal/roadmap"
	"empowerher-backend/internal/services/health"
	"empowerher-backend/internal/shared/config"
	"empowerher-backend/internal/shared/metrics"
	"empowerher-backend/internal/shared/server/middleware"
	"empowerher-backend/internal/shared/server/respond"
	"empowerher-backend/internal/tips"
)

const generateGroup = "GENERATE"

// RouterDeps are the handlers mounted by NewRouter. Nil handlers are skipped.
type RouterDeps struct {
	Config       config.Config
	Health       *health.Service
	State        *appstate.Store
	StateHandler *appstate.Handler
	Conversation *conversation.Handler
	Roadmap      *roadmap.Handler
	Artifacts    *artifacts.Handler
	Interview    *interview.Handler
	Tips         *tips.Handler
	GoogleAuth   *googleauth.GoogleService
	Limiter      *middleware.RateLimiter
}

// generateRoutes is implemented by handlers whose routes call the model.
type generateRoutes interface {
	RegisterRoutes(rg *gin.RouterGroup)
	RegisterGenerateRoutes(rg *gin.RouterGroup)
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.StateHandler != nil {
		deps.StateHandler.RegisterRoutes(api)
	}

	dashboard := api.Group("")
	if deps.State != nil {
		dashboard.Use(appstate.RequireAuthenticated(deps.State))
	}
	generate := dashboard.Group("", middleware.RateLimit(middleware.RateLimitConfig{
		DefaultGroup: generateGroup,
		Limiter:      deps.Limiter,
		Rules: map[string]middleware.RateLimitRule{
			generateGroup: {Rate: deps.Config.GenerateRateRPS, Burst: deps.Config.GenerateRateBurst},
		},
	}))

	var features []generateRoutes
	if deps.Conversation != nil {
		features = append(features, deps.Conversation)
	}
	if deps.Roadmap != nil {
		features = append(features, deps.Roadmap)
	}
	if deps.Artifacts != nil {
		features = append(features, deps.Artifacts)
	}
	if deps.Interview != nil {
		features = append(features, deps.Interview)
	}
	if deps.Tips != nil {
		features = append(features, deps.Tips)
	}
	for _, h := range features {
		h.RegisterRoutes(dashboard)
		h.RegisterGenerateRoutes(generate)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
