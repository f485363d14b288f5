package roadmap

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Plan
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Plan)}
}

// Get returns a copy of the user's plan.
func (r *MemoryRepo) Get(ctx context.Context, userID string) (Plan, error) {
	if err := ctx.Err(); err != nil {
		return Plan{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	plan, ok := r.data[userID]
	if !ok {
		return Plan{}, ErrNotFound
	}
	return plan.Clone(), nil
}

// Put stores or replaces the user's plan.
func (r *MemoryRepo) Put(ctx context.Context, plan Plan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[plan.UserID] = plan.Clone()
	return nil
}
