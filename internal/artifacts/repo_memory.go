package artifacts

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]map[string]Artifact // userID -> id -> artifact
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]map[string]Artifact)}
}

// Create stores a new artifact.
func (r *MemoryRepo) Create(ctx context.Context, a Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.data[a.UserID] == nil {
		r.data[a.UserID] = make(map[string]Artifact)
	}
	r.data[a.UserID][a.ID] = a
	return nil
}

// Get returns an artifact owned by userID.
func (r *MemoryRepo) Get(ctx context.Context, userID, id string) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.data[userID][id]
	if !ok {
		return Artifact{}, ErrNotFound
	}
	return a, nil
}

// ListByUser returns the user's artifacts, newest first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Artifact, 0, len(r.data[userID]))
	for _, a := range r.data[userID] {
		out = append(out, a)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// SetStorageKey records where the artifact was exported.
func (r *MemoryRepo) SetStorageKey(ctx context.Context, userID, id, key string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.data[userID][id]
	if !ok {
		return ErrNotFound
	}
	a.StorageKey = key
	a.LastUpdated = at
	r.data[userID][id] = a
	return nil
}

// Delete removes an artifact.
func (r *MemoryRepo) Delete(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[userID][id]; !ok {
		return ErrNotFound
	}
	delete(r.data[userID], id)
	return nil
}
