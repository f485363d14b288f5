package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"empowerher-backend/internal/appstate"
	sharedauth "empowerher-backend/internal/shared/auth"
	"empowerher-backend/internal/shared/server/respond"
	"empowerher-backend/internal/shared/telemetry"
)

var userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleService signs users in with Google and hands the UI a session token.
type GoogleService struct {
	oauth      *oauth2.Config
	uiRedirect string
	stateTTL   time.Duration
	states     *stateStore
	appState   *appstate.Store
}

// NewGoogleService builds a GoogleService. Successful sign-ins mark the user
// authenticated in appState.
func NewGoogleService(clientID, clientSecret, redirectURL, uiRedirect string, appState *appstate.Store) *GoogleService {
	return &GoogleService{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		uiRedirect: uiRedirect,
		stateTTL:   5 * time.Minute,
		states:     newStateStore(),
		appState:   appState,
	}
}

func (s *GoogleService) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/google/start", s.start)
	rg.GET("/auth/google/callback", s.callback)
}

func (s *GoogleService) configured() bool {
	return s.oauth.ClientID != "" && s.oauth.ClientSecret != "" && s.oauth.RedirectURL != ""
}

func (s *GoogleService) start(c *gin.Context) {
	if !s.configured() {
		respond.Error(c, http.StatusServiceUnavailable, "auth_not_configured", "Google sign-in is not configured", nil)
		return
	}
	state := uuid.NewString()
	s.states.put(state, time.Now().Add(s.stateTTL))
	c.Redirect(http.StatusFound, s.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

func (s *GoogleService) callback(c *gin.Context) {
	state, code := c.Query("state"), c.Query("code")
	if state == "" || code == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "missing state or code", nil)
		return
	}
	if !s.states.consume(state) {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid or expired state", nil)
		return
	}

	ctx := c.Request.Context()
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		s.fail(c, http.StatusBadRequest, "invalid_request", "failed to exchange code", err)
		return
	}
	info, err := fetchUserInfo(ctx, s.oauth.Client(ctx, token))
	if err != nil {
		s.fail(c, http.StatusBadGateway, "auth_failed", "failed to fetch user profile", err)
		return
	}

	userID := "google:" + info.Sub
	if err := s.signIn(ctx, userID, info.Name); err != nil {
		s.fail(c, http.StatusInternalServerError, "internal_error", "failed to start session", err)
		return
	}
	jwt, err := sharedauth.SignJWT(sharedauth.Claims{
		Sub:     userID,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	})
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "internal_error", "failed to issue token", err)
		return
	}
	target, err := appendToken(s.uiRedirect, jwt)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "internal_error", "failed to redirect", err)
		return
	}
	c.Redirect(http.StatusFound, target)
}

func (s *GoogleService) fail(c *gin.Context, status int, code, msg string, cause error) {
	telemetry.Warn("auth.google_failed", map[string]any{"step": msg, "error": cause.Error()})
	respond.Error(c, status, code, msg, nil)
}

// signIn flips the authenticated flag. A first sign-in replaces the example
// profile's name with the Google display name.
func (s *GoogleService) signIn(ctx context.Context, userID, name string) error {
	if s.appState == nil {
		return nil
	}
	st, err := s.appState.SetAuthenticated(ctx, userID, true)
	if err != nil {
		return err
	}
	if st.Version == 1 && st.User != nil && name != "" && st.User.Name != name {
		p := st.User.Clone()
		p.Name = name
		if _, err := s.appState.SetUser(ctx, userID, p); err != nil {
			return err
		}
	}
	telemetry.Info("auth.signed_in", map[string]any{"user_id": userID})
	return nil
}

type googleUser struct {
	Sub     string `json:"sub"`
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// fetchUserInfo reads the signed-in user. The v2 endpoint reports the subject as "id".
func fetchUserInfo(ctx context.Context, client *http.Client) (googleUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, nil)
	if err != nil {
		return googleUser{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return googleUser{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return googleUser{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var u googleUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return googleUser{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if u.Sub == "" {
		u.Sub = u.ID
	}
	if u.Sub == "" {
		return googleUser{}, errors.New("userinfo has no subject")
	}
	return u, nil
}

func appendToken(rawURL, token string) (string, error) {
	if rawURL == "" {
		return "", errors.New("redirect url required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
