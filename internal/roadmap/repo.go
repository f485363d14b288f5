package roadmap

import "context"

// Repo keeps the latest plan per user.
type Repo interface {
	Get(ctx context.Context, userID string) (Plan, error)
	Put(ctx context.Context, plan Plan) error
}
