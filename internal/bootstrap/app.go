package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"empowerher-backend/internal/appstate"
	"empowerher-backend/internal/artifacts"
	googleauth "empowerher-backend/internal/auth"
	"empowerher-backend/internal/conversation"
	"empowerher-backend/internal/gateway"
	"empowerher-backend/internal/interview"
	"empowerher-backend/internal/llm"
	"empowerher-backend/internal/llm/gemini"
	"empowerher-backend/internal/llm/openai"
	"empowerher-backend/internal/profile"
	"empowerher-backend/internal/roadmap"
	"empowerher-backend/internal/services/health"
	"empowerher-backend/internal/shared/config"
	"empowerher-backend/internal/shared/server"
	"empowerher-backend/internal/shared/server/middleware"
	"empowerher-backend/internal/shared/storage/db"
	"empowerher-backend/internal/shared/storage/object"
	localstore "empowerher-backend/internal/shared/storage/object/local"
	s3store "empowerher-backend/internal/shared/storage/object/s3"
	"empowerher-backend/internal/tips"
)

// App holds shared dependencies and the router built from them.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.Store
	LLM    llm.Client

	Gateway      *gateway.Gateway
	State        *appstate.Store
	Conversation *conversation.Service
	Roadmap      *roadmap.Service
	Artifacts    *artifacts.Service
	Interview    *interview.Service
	Tips         *tips.Service
	GoogleAuth   *googleauth.GoogleService
}

// Build prepares dependencies and wires routes.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client, err := BuildLLM(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: sqlDB, Store: store, LLM: client}
	app.buildServices()

	app.Router = server.NewRouter(server.RouterDeps{
		Config:       cfg,
		Health:       health.NewService(sqlDB, cfg.LLMProvider, cfg.ObjectStoreType),
		State:        app.State,
		StateHandler: appstate.NewHandler(app.State),
		Conversation: conversation.NewHandler(app.Conversation),
		Roadmap:      roadmap.NewHandler(app.Roadmap),
		Artifacts:    artifacts.NewHandler(app.Artifacts),
		Interview:    interview.NewHandler(app.Interview),
		Tips:         tips.NewHandler(app.Tips),
		GoogleAuth:   app.GoogleAuth,
		Limiter:      middleware.NewRateLimiter(nil),
	})
	return app, nil
}

// BuildLLM returns the provider client selected by LLM_PROVIDER.
func BuildLLM(cfg config.Config) (llm.Client, error) {
	timeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second
	var (
		client llm.Client
		err    error
	)
	switch cfg.LLMProvider {
	case "none":
		log.Printf("bootstrap: LLM_PROVIDER=none; generation calls will fail")
		return llm.PlaceholderClient{}, nil
	case "openai":
		var c *openai.Client
		c, err = openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMFastModel, cfg.LLMCapableModel, timeout)
		client = c
	default:
		var c *gemini.Client
		c, err = gemini.NewClient(cfg.GeminiAPIKey, cfg.LLMFastModel, cfg.LLMCapableModel, timeout)
		client = c
	}
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			log.Printf("bootstrap: %s client unavailable; using placeholder: %v", cfg.LLMProvider, err)
			return llm.PlaceholderClient{}, nil
		}
		return nil, err
	}
	return client, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Shared(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
	}
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			log.Printf("bootstrap: database unavailable; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func (app *App) buildServices() {
	var (
		profileRepo  profile.Repo
		roadmapRepo  roadmap.Repo
		artifactRepo artifacts.Repo
	)
	if app.DB != nil {
		profileRepo = &profile.PGRepo{DB: app.DB}
		roadmapRepo = &roadmap.PGRepo{DB: app.DB}
		artifactRepo = &artifacts.PGRepo{DB: app.DB}
	} else {
		profileRepo = profile.NewMemoryRepo()
		roadmapRepo = roadmap.NewMemoryRepo()
		artifactRepo = artifacts.NewMemoryRepo()
	}

	gw := gateway.New(app.LLM)
	state := appstate.NewStore(profileRepo)

	app.Gateway = gw
	app.State = state
	app.Conversation = conversation.NewService(gw, state)
	app.Roadmap = roadmap.NewService(gw, state, roadmapRepo)
	app.Artifacts = artifacts.NewService(gw, artifactRepo, app.Store)
	app.Interview = interview.NewService(gw, state)
	app.Tips = tips.NewService(gw, state)
	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		state,
	)
}
