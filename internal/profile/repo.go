package profile

import "context"

// Repo persists one profile record per user.
type Repo interface {
	Get(ctx context.Context, userID string) (Record, error)
	Put(ctx context.Context, rec Record) error
}
