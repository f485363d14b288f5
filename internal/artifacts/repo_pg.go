package artifacts

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const artifactColumns = `id, user_id, type, title, content, storage_key, created_at, updated_at`

// Create inserts a new artifact.
func (r *PGRepo) Create(ctx context.Context, a Artifact) error {
	const query = `
INSERT INTO artifacts (id, user_id, type, title, content, storage_key, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var storageKey sql.NullString
	if a.StorageKey != "" {
		storageKey = sql.NullString{String: a.StorageKey, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, query,
		a.ID,
		a.UserID,
		string(a.Type),
		a.Title,
		a.Content,
		storageKey,
		a.CreatedAt,
		a.LastUpdated,
	)
	return err
}

// Get returns an artifact owned by userID.
func (r *PGRepo) Get(ctx context.Context, userID, id string) (Artifact, error) {
	query := `SELECT ` + artifactColumns + ` FROM artifacts WHERE user_id = $1 AND id = $2`
	a, err := scanArtifact(r.DB.QueryRowContext(ctx, query, userID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Artifact{}, ErrNotFound
		}
		return Artifact{}, err
	}
	return a, nil
}

// ListByUser returns the user's artifacts, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Artifact, error) {
	query := `SELECT ` + artifactColumns + ` FROM artifacts WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Artifact{}
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetStorageKey records where the artifact was exported.
func (r *PGRepo) SetStorageKey(ctx context.Context, userID, id, key string, at time.Time) error {
	const query = `UPDATE artifacts SET storage_key = $3, updated_at = $4 WHERE user_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query, userID, id, key, at)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes an artifact.
func (r *PGRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM artifacts WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (Artifact, error) {
	var a Artifact
	var typ string
	var storageKey sql.NullString
	if err := row.Scan(&a.ID, &a.UserID, &typ, &a.Title, &a.Content, &storageKey, &a.CreatedAt, &a.LastUpdated); err != nil {
		return Artifact{}, err
	}
	a.Type = Type(typ)
	if storageKey.Valid {
		a.StorageKey = storageKey.String
	}
	return a, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
