package artifacts

import (
	"context"
	"time"
)

// Repo persists saved artifacts.
type Repo interface {
	Create(ctx context.Context, a Artifact) error
	Get(ctx context.Context, userID, id string) (Artifact, error)
	ListByUser(ctx context.Context, userID string) ([]Artifact, error)
	SetStorageKey(ctx context.Context, userID, id, key string, at time.Time) error
	Delete(ctx context.Context, userID, id string) error
}
