// Package appstate holds the per-user global state every feature reads:
// the current profile and the authenticated flag.
package appstate

import (
	"context"
	"errors"
	"sync"
	"time"

	"empowerher-backend/internal/profile"
	"empowerher-backend/internal/shared/telemetry"
)

// State is a read-only snapshot. User is a copy and may be nil.
type State struct {
	User          *profile.UserProfile
	Authenticated bool
	Version       int64
}

// Store is the single writer of profile state. It is passed explicitly to feature services.
type Store struct {
	repo profile.Repo
	mu   sync.Mutex
	now  func() time.Time
}

// NewStore constructs a Store backed by repo.
func NewStore(repo profile.Repo) *Store {
	return &Store{repo: repo, now: time.Now}
}

// Snapshot returns the user's state, seeding the example profile on first access.
func (s *Store) Snapshot(ctx context.Context, userID string) (State, error) {
	rec, err := s.repo.Get(ctx, userID)
	if err == nil {
		return toState(rec), nil
	}
	if !errors.Is(err, profile.ErrNotFound) {
		return State{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err = s.load(ctx, userID)
	if err != nil {
		return State{}, err
	}
	return toState(rec), nil
}

// SetUser replaces the profile. nil clears it. Every call bumps Version.
func (s *Store) SetUser(ctx context.Context, userID string, p *profile.UserProfile) (State, error) {
	if err := p.Validate(); err != nil {
		return State{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(ctx, userID)
	if err != nil {
		return State{}, err
	}
	rec.Profile = p.Clone()
	rec.Version++
	rec.UpdatedAt = s.now().UTC()
	if err := s.repo.Put(ctx, rec); err != nil {
		return State{}, err
	}
	telemetry.Info("appstate.user_set", map[string]any{
		"user_id":     userID,
		"version":     rec.Version,
		"has_profile": rec.Profile != nil,
	})
	return toState(rec), nil
}

// SetAuthenticated flips the authenticated flag without touching the profile version.
func (s *Store) SetAuthenticated(ctx context.Context, userID string, authenticated bool) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(ctx, userID)
	if err != nil {
		return State{}, err
	}
	if rec.Authenticated == authenticated {
		return toState(rec), nil
	}
	rec.Authenticated = authenticated
	rec.UpdatedAt = s.now().UTC()
	if err := s.repo.Put(ctx, rec); err != nil {
		return State{}, err
	}
	return toState(rec), nil
}

// load must be called with mu held.
func (s *Store) load(ctx context.Context, userID string) (profile.Record, error) {
	rec, err := s.repo.Get(ctx, userID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, profile.ErrNotFound) {
		return profile.Record{}, err
	}
	rec = profile.Record{
		UserID:        userID,
		Profile:       profile.Example(),
		Authenticated: true,
		Version:       1,
		UpdatedAt:     s.now().UTC(),
	}
	if err := s.repo.Put(ctx, rec); err != nil {
		return profile.Record{}, err
	}
	return rec, nil
}

func toState(rec profile.Record) State {
	return State{
		User:          rec.Profile.Clone(),
		Authenticated: rec.Authenticated,
		Version:       rec.Version,
	}
}
