package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"empowerher-backend/internal/appstate"
	"empowerher-backend/internal/profile"
)

func TestStateStoreConsumesOnce(t *testing.T) {
	s := newStateStore()
	s.put("abc", time.Now().Add(time.Minute))
	assert.True(t, s.consume("abc"))
	assert.False(t, s.consume("abc"))

	s.put("old", time.Now().Add(-time.Second))
	assert.False(t, s.consume("old"))
}

func TestStateStorePrunesExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newStateStore()
	s.now = func() time.Time { return now }
	s.put("a", now.Add(time.Minute))
	s.put("b", now.Add(time.Minute))

	now = now.Add(2 * time.Minute)
	s.put("c", now.Add(time.Minute))
	assert.Equal(t, 1, s.size())
	assert.True(t, s.consume("c"))
}

func TestFetchUserInfoFallsBackToID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"42","email":"sarah@example.com","name":"Sarah Chen"}`))
	}))
	defer srv.Close()
	prev := userInfoURL
	userInfoURL = srv.URL
	defer func() { userInfoURL = prev }()

	u, err := fetchUserInfo(context.Background(), srv.Client())
	require.NoError(t, err)
	assert.Equal(t, "42", u.Sub)
	assert.Equal(t, "Sarah Chen", u.Name)
}

func TestFetchUserInfoRejectsMissingSubject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"email":"x@example.com"}`))
	}))
	defer srv.Close()
	prev := userInfoURL
	userInfoURL = srv.URL
	defer func() { userInfoURL = prev }()

	_, err := fetchUserInfo(context.Background(), srv.Client())
	assert.Error(t, err)
}

func TestStartWithoutCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewGoogleService("", "", "", "", nil).RegisterRoutes(router.Group("/api/v1"))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestCallbackRejectsUnknownState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewGoogleService("id", "secret", "http://localhost/cb", "http://localhost/ui", nil).RegisterRoutes(router.Group("/api/v1"))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=nope&code=c", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAppendToken(t *testing.T) {
	out, err := appendToken("http://localhost:5173/auth?next=/dashboard", "tok")
	require.NoError(t, err)
	u, err := url.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, "tok", u.Query().Get("token"))
	assert.Equal(t, "/dashboard", u.Query().Get("next"))

	_, err = appendToken("", "tok")
	assert.Error(t, err)
}

func TestSignInAuthenticatesAndSeedsName(t *testing.T) {
	store := appstate.NewStore(profile.NewMemoryRepo())
	svc := NewGoogleService("id", "secret", "http://localhost/cb", "http://localhost/ui", store)
	ctx := context.Background()

	_, err := store.SetAuthenticated(ctx, "google:1", false)
	require.NoError(t, err)

	require.NoError(t, svc.signIn(ctx, "google:1", "Priya Patel"))
	st, err := store.Snapshot(ctx, "google:1")
	require.NoError(t, err)
	assert.True(t, st.Authenticated)
	require.NotNil(t, st.User)
	assert.Equal(t, "Priya Patel", st.User.Name)
	assert.Equal(t, int64(2), st.Version)

	// Later sign-ins leave an edited profile alone.
	require.NoError(t, svc.signIn(ctx, "google:1", "Someone Else"))
	st, err = store.Snapshot(ctx, "google:1")
	require.NoError(t, err)
	assert.Equal(t, "Priya Patel", st.User.Name)
}
