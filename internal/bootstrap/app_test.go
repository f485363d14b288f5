package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"empowerher-backend/internal/llm"
	"empowerher-backend/internal/shared/config"
)

func testConfig(t *testing.T) config.Config {
	return config.Config{
		Env:               "dev",
		ObjectStoreType:   "local",
		LocalStoreDir:     t.TempDir(),
		LLMProvider:       "none",
		LLMTimeoutSeconds: 5,
		CORSAllowOrigin:   []string{"http://localhost:5173"},
		GenerateRateRPS:   1,
		GenerateRateBurst: 5,
	}
}

func guestRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-Guest-Id", "g-1")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func TestBuildInMemory(t *testing.T) {
	app, err := Build(context.Background(), testConfig(t))
	require.NoError(t, err)
	assert.Nil(t, app.DB)
	assert.IsType(t, llm.PlaceholderClient{}, app.LLM)

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, guestRequest(http.MethodGet, "/api/v1/session", ""))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"authenticated":true`)
	assert.Contains(t, resp.Body.String(), `"isGuest":true`)
}

func TestDashboardRequiresSignIn(t *testing.T) {
	app, err := Build(context.Background(), testConfig(t))
	require.NoError(t, err)

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, guestRequest(http.MethodGet, "/api/v1/tips/current", ""))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "quantifying your impact")

	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, guestRequest(http.MethodPost, "/api/v1/session/logout", ""))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, guestRequest(http.MethodGet, "/api/v1/tips/current", ""))
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestPlaceholderProviderDegradesQuietly(t *testing.T) {
	app, err := Build(context.Background(), testConfig(t))
	require.NoError(t, err)

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, guestRequest(http.MethodGet, "/api/v1/roadmap", ""))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"failed"`)
	assert.Contains(t, resp.Body.String(), `"steps":[]`)

	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, guestRequest(http.MethodPost, "/api/v1/tips/refresh", ""))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"refreshed":false`)
}

func TestBuildLLMRequiresKeyOutsideDev(t *testing.T) {
	cfg := testConfig(t)
	cfg.Env = "production"
	cfg.LLMProvider = "gemini"
	_, err := BuildLLM(cfg)
	assert.Error(t, err)

	cfg.Env = "dev"
	client, err := BuildLLM(cfg)
	require.NoError(t, err)
	assert.IsType(t, llm.PlaceholderClient{}, client)
}
