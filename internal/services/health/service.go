package health

import (
	"context"
	"database/sql"
	"time"
)

const pingTimeout = 2 * time.Second

// Report is the health payload.
type Report struct {
	OK          bool   `json:"ok"`
	Database    string `json:"database"`
	LLMProvider string `json:"llmProvider"`
	ObjectStore string `json:"objectStore"`
}

// Service encapsulates health-related checks.
type Service struct {
	DB          *sql.DB
	LLMProvider string
	ObjectStore string
}

// NewService constructs a new health service. db may be nil for in-memory mode.
func NewService(db *sql.DB, llmProvider, objectStore string) *Service {
	return &Service{DB: db, LLMProvider: llmProvider, ObjectStore: objectStore}
}

// Status reports whether dependencies are reachable. Memory mode is always healthy.
func (s *Service) Status(ctx context.Context) Report {
	r := Report{OK: true, Database: "memory", LLMProvider: s.LLMProvider, ObjectStore: s.ObjectStore}
	if s.DB == nil {
		return r
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		r.OK = false
		r.Database = "unreachable"
		return r
	}
	r.Database = "postgres"
	return r
}
