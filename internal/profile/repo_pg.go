package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Get returns the record for userID.
func (r *PGRepo) Get(ctx context.Context, userID string) (Record, error) {
	const query = `
SELECT user_id, profile, authenticated, version, updated_at
FROM user_profiles
WHERE user_id = $1`
	var rec Record
	var raw []byte
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&rec.UserID,
		&raw,
		&rec.Authenticated,
		&rec.Version,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	if len(raw) > 0 && string(raw) != "null" {
		var p UserProfile
		if err := json.Unmarshal(raw, &p); err != nil {
			return Record{}, fmt.Errorf("decode profile: %w", err)
		}
		rec.Profile = &p
	}
	return rec, nil
}

// Put upserts the record.
func (r *PGRepo) Put(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO user_profiles (user_id, profile, authenticated, version, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE SET
    profile = EXCLUDED.profile,
    authenticated = EXCLUDED.authenticated,
    version = EXCLUDED.version,
    updated_at = EXCLUDED.updated_at`

	var profileJSON any
	if rec.Profile != nil {
		raw, err := json.Marshal(rec.Profile)
		if err != nil {
			return fmt.Errorf("encode profile: %w", err)
		}
		profileJSON = raw
	}
	_, err := r.DB.ExecContext(ctx, query, rec.UserID, profileJSON, rec.Authenticated, rec.Version, rec.UpdatedAt)
	return err
}
