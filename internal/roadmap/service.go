package roadmap

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"empowerher-backend/internal/appstate"
	"empowerher-backend/internal/profile"
	"empowerher-backend/internal/shared/telemetry"
)

// Planner generates steps for a profile. On failure it returns an empty list and an error.
type Planner interface {
	GeneratePlan(ctx context.Context, p *profile.UserProfile) ([]Step, error)
}

// Service generates one plan per profile version and tracks completion locally.
type Service struct {
	Planner Planner
	State   *appstate.Store
	Repo    Repo

	group singleflight.Group
	mu    sync.Mutex
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(planner Planner, state *appstate.Store, repo Repo) *Service {
	return &Service{Planner: planner, State: state, Repo: repo, now: time.Now}
}

// Load returns the plan for the user's current profile version, generating it once if needed.
// A failed plan is regenerated on the next Load. Concurrent loads for the same
// version share a single generation.
func (s *Service) Load(ctx context.Context, userID string) (Plan, error) {
	state, err := s.State.Snapshot(ctx, userID)
	if err != nil {
		return Plan{}, err
	}
	if plan, ok, err := s.current(ctx, userID, state.Version); err != nil || (ok && plan.Status != StatusFailed) {
		return plan, err
	}

	key := userID + ":" + strconv.FormatInt(state.Version, 10)
	v, err, _ := s.group.Do(key, func() (any, error) {
		genCtx := context.WithoutCancel(ctx)
		if plan, ok, err := s.current(genCtx, userID, state.Version); err != nil || (ok && plan.Status != StatusFailed) {
			return plan, err
		}
		return s.generate(genCtx, userID, state)
	})
	if err != nil {
		return Plan{}, err
	}
	return v.(Plan).Clone(), nil
}

// Peek reports the plan without triggering generation. A missing or stale plan reads as loading.
func (s *Service) Peek(ctx context.Context, userID string) (Plan, error) {
	state, err := s.State.Snapshot(ctx, userID)
	if err != nil {
		return Plan{}, err
	}
	plan, ok, err := s.current(ctx, userID, state.Version)
	if err != nil {
		return Plan{}, err
	}
	if !ok {
		return Plan{UserID: userID, ProfileVersion: state.Version, Status: StatusLoading, Steps: []Step{}}, nil
	}
	return plan, nil
}

// SetCompleted marks the step at index. Steps are addressed by position, not week.
func (s *Service) SetCompleted(ctx context.Context, userID string, index int, completed bool) (Plan, error) {
	state, err := s.State.Snapshot(ctx, userID)
	if err != nil {
		return Plan{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok, err := s.current(ctx, userID, state.Version)
	if err != nil {
		return Plan{}, err
	}
	if !ok {
		return Plan{}, ErrNotFound
	}
	if index < 0 || index >= len(plan.Steps) {
		return Plan{}, ErrStepOutOfRange
	}
	plan.Steps[index].Completed = completed
	if err := s.Repo.Put(ctx, plan); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

func (s *Service) current(ctx context.Context, userID string, version int64) (Plan, bool, error) {
	plan, err := s.Repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Plan{}, false, nil
		}
		return Plan{}, false, err
	}
	if plan.ProfileVersion != version {
		return Plan{}, false, nil
	}
	return plan, true, nil
}

func (s *Service) generate(ctx context.Context, userID string, state appstate.State) (Plan, error) {
	steps, genErr := s.Planner.GeneratePlan(ctx, state.User)
	plan := Plan{
		UserID:         userID,
		ProfileVersion: state.Version,
		Status:         StatusReady,
		Steps:          steps,
		GeneratedAt:    s.now().UTC(),
	}
	if genErr != nil {
		plan.Status = StatusFailed
		plan.Steps = []Step{}
		telemetry.Warn("roadmap.generate_failed", map[string]any{
			"user_id":         userID,
			"profile_version": state.Version,
			"error":           genErr.Error(),
		})
	}
	if plan.Steps == nil {
		plan.Steps = []Step{}
	}
	for i := range plan.Steps {
		plan.Steps[i].Completed = false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Repo.Put(ctx, plan); err != nil {
		return Plan{}, err
	}
	telemetry.Info("roadmap.generated", map[string]any{
		"user_id":          userID,
		"profile_version":  state.Version,
		"status":           string(plan.Status),
		"step_count":       len(plan.Steps),
		"state_transition": "loading->" + string(plan.Status),
	})
	return plan, nil
}
