package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"empowerher-backend/internal/extract"
	"empowerher-backend/internal/shared/storage/object"
	"empowerher-backend/internal/shared/telemetry"
)

// Generator produces content of the given type from free-form input.
type Generator interface {
	GenerateArtifact(ctx context.Context, t Type, input string) (string, error)
}

// Service owns the per-user draft slot and the saved artifact library.
type Service struct {
	Generator Generator
	Repo      Repo
	Store     object.Store

	mu     sync.Mutex
	drafts map[string]*Draft
	now    func() time.Time
}

// NewService constructs a Service. store may be nil, in which case Export is unavailable.
func NewService(gen Generator, repo Repo, store object.Store) *Service {
	return &Service{
		Generator: gen,
		Repo:      repo,
		Store:     store,
		drafts:    make(map[string]*Draft),
		now:       time.Now,
	}
}

// Draft returns a copy of the user's draft. New drafts start on the resume type.
func (s *Service) Draft(userID string) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.slot(userID)
}

// SelectType switches the draft type. Input and output are kept.
func (s *Service) SelectType(userID string, t Type) (Draft, error) {
	if !t.Valid() {
		return Draft{}, fmt.Errorf("%w: %q", ErrInvalidType, t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.slot(userID)
	d.Type = t
	d.LastUpdated = s.now().UTC()
	return *d, nil
}

// SetInput replaces the draft input. Editing is allowed while a generation is in flight;
// the in-flight call keeps the input it started with.
func (s *Service) SetInput(userID, input string) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.slot(userID)
	d.Input = input
	d.LastUpdated = s.now().UTC()
	return *d
}

// Clear empties input and output.
func (s *Service) Clear(userID string) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.slot(userID)
	if d.IsGenerating {
		return *d, ErrBusy
	}
	d.Input = ""
	d.Output = ""
	d.LastUpdated = s.now().UTC()
	return *d, nil
}

// Generate runs the model on the current input. On success the output is replaced;
// on failure the previous output is kept and the error returned. The busy flag is
// always cleared before returning.
func (s *Service) Generate(ctx context.Context, userID string) (Draft, error) {
	s.mu.Lock()
	d := s.slot(userID)
	if strings.TrimSpace(d.Input) == "" {
		snapshot := *d
		s.mu.Unlock()
		return snapshot, ErrEmptyInput
	}
	if d.IsGenerating {
		snapshot := *d
		s.mu.Unlock()
		return snapshot, ErrBusy
	}
	d.IsGenerating = true
	t, input := d.Type, d.Input
	s.mu.Unlock()

	text, genErr := s.Generator.GenerateArtifact(ctx, t, input)

	s.mu.Lock()
	defer s.mu.Unlock()
	d = s.slot(userID)
	d.IsGenerating = false
	if genErr != nil {
		telemetry.Warn("artifacts.generate_failed", map[string]any{
			"user_id": userID,
			"type":    string(t),
			"error":   genErr.Error(),
		})
		return *d, genErr
	}
	d.Output = text
	d.LastUpdated = s.now().UTC()
	telemetry.Info("artifacts.generated", map[string]any{
		"user_id":      userID,
		"type":         string(t),
		"output_chars": len(text),
	})
	return *d, nil
}

// ImportInput extracts text from an uploaded resume into the draft input.
func (s *Service) ImportInput(ctx context.Context, userID, fileName, contentType string, data []byte) (Draft, error) {
	text, err := extract.Text(ctx, data, contentType, fileName)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupported) {
			return Draft{}, fmt.Errorf("%w: %v", ErrUnsupportedFile, err)
		}
		return Draft{}, err
	}
	if strings.TrimSpace(text) == "" {
		return Draft{}, ErrEmptyInput
	}
	return s.SetInput(userID, text), nil
}

// Save persists the current draft output as a new artifact.
func (s *Service) Save(ctx context.Context, userID, title string) (Artifact, error) {
	s.mu.Lock()
	d := *s.slot(userID)
	s.mu.Unlock()

	if strings.TrimSpace(d.Output) == "" {
		return Artifact{}, ErrEmptyInput
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultTitle(d.Type)
	}
	now := s.now().UTC()
	a := Artifact{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        d.Type,
		Title:       title,
		Content:     d.Output,
		CreatedAt:   now,
		LastUpdated: now,
	}
	if err := s.Repo.Create(ctx, a); err != nil {
		return Artifact{}, err
	}
	telemetry.Info("artifacts.saved", map[string]any{
		"user_id":     userID,
		"artifact_id": a.ID,
		"type":        string(a.Type),
	})
	return a, nil
}

// List returns the user's saved artifacts, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Artifact, error) {
	return s.Repo.ListByUser(ctx, userID)
}

// Get returns one saved artifact.
func (s *Service) Get(ctx context.Context, userID, id string) (Artifact, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Artifact{}, ErrNotFound
	}
	return s.Repo.Get(ctx, userID, id)
}

// Delete removes a saved artifact.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	return s.Repo.Delete(ctx, userID, id)
}

// Export writes the artifact body to the object store as markdown and records the key.
func (s *Service) Export(ctx context.Context, userID, id string) (Artifact, error) {
	if s.Store == nil {
		return Artifact{}, ErrNoStore
	}
	a, err := s.Get(ctx, userID, id)
	if err != nil {
		return Artifact{}, err
	}
	obj, err := s.Store.Put(ctx, userID, exportName(a), "text/markdown; charset=utf-8", strings.NewReader(a.Content))
	if err != nil {
		return Artifact{}, fmt.Errorf("export artifact: %w", err)
	}
	now := s.now().UTC()
	if err := s.Repo.SetStorageKey(ctx, userID, a.ID, obj.Key, now); err != nil {
		return Artifact{}, err
	}
	a.StorageKey = obj.Key
	a.LastUpdated = now
	telemetry.Info("artifacts.exported", map[string]any{
		"user_id":     userID,
		"artifact_id": a.ID,
		"size_bytes":  obj.SizeBytes,
	})
	return a, nil
}

// Open streams a previously exported artifact.
func (s *Service) Open(ctx context.Context, userID, id string) (Artifact, io.ReadCloser, error) {
	if s.Store == nil {
		return Artifact{}, nil, ErrNoStore
	}
	a, err := s.Get(ctx, userID, id)
	if err != nil {
		return Artifact{}, nil, err
	}
	if a.StorageKey == "" {
		return Artifact{}, nil, ErrNotFound
	}
	rc, err := s.Store.Open(ctx, a.StorageKey)
	if errors.Is(err, object.ErrNotFound) {
		return Artifact{}, nil, ErrNotFound
	}
	if err != nil {
		return Artifact{}, nil, err
	}
	return a, rc, nil
}

// slot must be called with s.mu held.
func (s *Service) slot(userID string) *Draft {
	d, ok := s.drafts[userID]
	if !ok {
		d = &Draft{Type: TypeResume}
		s.drafts[userID] = d
	}
	return d
}

func defaultTitle(t Type) string {
	switch t {
	case TypeLinkedIn:
		return "LinkedIn Profile"
	case TypePortfolio:
		return "Portfolio"
	default:
		return "Resume"
	}
}

func exportName(a Artifact) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return -1
	}, strings.ToLower(strings.Join(strings.Fields(a.Title), "-")))
	if name == "" {
		name = string(a.Type)
	}
	return name + ".md"
}
