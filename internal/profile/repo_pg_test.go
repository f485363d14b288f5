package profile

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoPutUpsertsProfileJSON(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	rec := Record{UserID: "user-1", Profile: Example(), Authenticated: true, Version: 2, UpdatedAt: now}

	mock.ExpectExec("INSERT INTO user_profiles").
		WithArgs("user-1", sqlmock.AnyArg(), true, int64(2), now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Put(context.Background(), rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetDecodesProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"user_id", "profile", "authenticated", "version", "updated_at"}).
		AddRow("user-1", []byte(Example().Compact()), true, int64(3), now)
	mock.ExpectQuery("SELECT user_id, profile, authenticated, version, updated_at").
		WithArgs("user-1").
		WillReturnRows(rows)

	rec, err := (&PGRepo{DB: db}).Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Profile == nil || rec.Profile.Name != "Sarah Chen" || rec.Version != 3 {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestPGRepoGetNullProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	rows := sqlmock.NewRows([]string{"user_id", "profile", "authenticated", "version", "updated_at"}).
		AddRow("user-1", nil, false, int64(1), time.Now())
	mock.ExpectQuery("SELECT user_id").WithArgs("user-1").WillReturnRows(rows)

	rec, err := (&PGRepo{DB: db}).Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Profile != nil {
		t.Fatalf("expected nil profile, got %+v", rec.Profile)
	}
}

func TestPGRepoGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT user_id").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "profile", "authenticated", "version", "updated_at"}))

	if _, err := (&PGRepo{DB: db}).Get(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
