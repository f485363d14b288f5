package conversation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"empowerher-backend/internal/appstate"
	"empowerher-backend/internal/shared/telemetry"
)

// Service is the registry of coaching sessions.
type Service struct {
	Responder Responder
	State     *appstate.Store

	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewService constructs a Service.
func NewService(r Responder, state *appstate.Store) *Service {
	return &Service{
		Responder: r,
		State:     state,
		sessions:  make(map[string]*Session),
		now:       time.Now,
	}
}

// Create opens a session greeted with the user's current profile name.
func (s *Service) Create(ctx context.Context, userID string) (*Session, error) {
	st, err := s.State.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	var name string
	if st.User != nil {
		name = st.User.Name
	}
	sess := newSession(uuid.NewString(), userID, name, s.now)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	telemetry.Info("conversation.created", map[string]any{
		"user_id":    userID,
		"session_id": sess.ID,
	})
	return sess, nil
}

// Get returns a session owned by userID.
func (s *Service) Get(userID, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok || sess.UserID != userID {
		return nil, ErrNotFound
	}
	return sess, nil
}

// List returns the user's sessions, oldest first.
func (s *Service) List(userID string) []*Session {
	s.mu.RLock()
	out := make([]*Session, 0)
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Delete removes a session. A pending reply still settles on the detached session.
func (s *Service) Delete(userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.UserID != userID {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Submit sends text on the session using the user's current profile.
func (s *Service) Submit(ctx context.Context, userID, id, text string, deep bool) (ChatMessage, error) {
	sess, err := s.Get(userID, id)
	if err != nil {
		return ChatMessage{}, err
	}
	st, err := s.State.Snapshot(ctx, userID)
	if err != nil {
		return ChatMessage{}, err
	}

	msg, err := sess.Submit(ctx, s.Responder, st.User, text, deep)
	switch err {
	case nil:
		telemetry.Info("conversation.replied", map[string]any{
			"user_id":          userID,
			"session_id":       id,
			"deep":             deep,
			"state_transition": "awaiting_response->idle",
		})
	case ErrEmptyInput, ErrBusy:
	default:
		telemetry.Warn("conversation.turn_dropped", map[string]any{
			"user_id":          userID,
			"session_id":       id,
			"error":            err.Error(),
			"state_transition": "awaiting_response->idle",
		})
	}
	return msg, err
}
