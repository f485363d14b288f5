package roadmap

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres. Steps are stored as JSONB.
type PGRepo struct {
	DB *sql.DB
}

// Get returns the user's plan.
func (r *PGRepo) Get(ctx context.Context, userID string) (Plan, error) {
	const query = `
SELECT user_id, profile_version, status, steps, generated_at
FROM roadmaps
WHERE user_id = $1`
	var plan Plan
	var status string
	var raw []byte
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&plan.UserID,
		&plan.ProfileVersion,
		&status,
		&raw,
		&plan.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Plan{}, ErrNotFound
		}
		return Plan{}, err
	}
	plan.Status = Status(status)
	plan.Steps = []Step{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &plan.Steps); err != nil {
			return Plan{}, fmt.Errorf("decode steps: %w", err)
		}
	}
	return plan, nil
}

// Put upserts the user's plan.
func (r *PGRepo) Put(ctx context.Context, plan Plan) error {
	const query = `
INSERT INTO roadmaps (user_id, profile_version, status, steps, generated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE SET
    profile_version = EXCLUDED.profile_version,
    status = EXCLUDED.status,
    steps = EXCLUDED.steps,
    generated_at = EXCLUDED.generated_at`

	steps := plan.Steps
	if steps == nil {
		steps = []Step{}
	}
	raw, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("encode steps: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query, plan.UserID, plan.ProfileVersion, string(plan.Status), raw, plan.GeneratedAt)
	return err
}
