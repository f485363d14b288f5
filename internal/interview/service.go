package interview

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"empowerher-backend/internal/appstate"
	"empowerher-backend/internal/shared/telemetry"
)

const maxRoleLen = 120

// Analyzer reviews a practice answer.
type Analyzer interface {
	InterviewFeedback(ctx context.Context, a Attempt) (Feedback, error)
}

// Service holds one practice slot per user.
type Service struct {
	Analyzer Analyzer
	State    *appstate.Store

	mu    sync.Mutex
	slots map[string]*Session
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(a Analyzer, state *appstate.Store) *Service {
	return &Service{Analyzer: a, State: state, slots: make(map[string]*Session), now: time.Now}
}

// Get returns a copy of the user's session. A new slot is idle.
func (s *Service) Get(userID string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot(userID).copy()
}

// Start begins recording an answer for role. Previous feedback stays visible until replaced.
func (s *Service) Start(userID, role string, d Difficulty) (Session, error) {
	role = strings.TrimSpace(role)
	if role == "" || len(role) > maxRoleLen {
		return Session{}, fmt.Errorf("%w: role must be 1-%d characters", ErrInvalidInput, maxRoleLen)
	}
	if d == "" {
		d = DifficultyStandard
	}
	if _, err := ParseDifficulty(string(d)); err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.slot(userID)
	if sess.State == StateAnalyzing {
		return sess.copy(), fmt.Errorf("%w: analysis in progress", ErrInvalidState)
	}
	from := sess.State
	sess.State = StateRecording
	sess.Role = role
	sess.Difficulty = d
	sess.StartedAt = s.now().UTC()
	telemetry.Info("interview.started", map[string]any{
		"user_id":          userID,
		"difficulty":       string(d),
		"state_transition": string(from) + "->" + string(StateRecording),
	})
	return sess.copy(), nil
}

// Stop submits the transcript for review. Success moves to feedback; failure
// moves back to idle keeping whatever feedback was there before.
func (s *Service) Stop(ctx context.Context, userID, transcript string) (Session, error) {
	if strings.TrimSpace(transcript) == "" {
		return s.Get(userID), fmt.Errorf("%w: transcript is empty", ErrInvalidInput)
	}
	st, err := s.State.Snapshot(ctx, userID)
	if err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	sess := s.slot(userID)
	if sess.State != StateRecording {
		snapshot := sess.copy()
		s.mu.Unlock()
		return snapshot, fmt.Errorf("%w: not recording", ErrInvalidState)
	}
	sess.State = StateAnalyzing
	attempt := Attempt{Role: sess.Role, Difficulty: sess.Difficulty, Transcript: transcript, Profile: st.User}
	s.mu.Unlock()

	fb, err := s.Analyzer.InterviewFeedback(ctx, attempt)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess = s.slot(userID)
	if err != nil {
		sess.State = StateIdle
		telemetry.Warn("interview.analysis_failed", map[string]any{
			"user_id":          userID,
			"error":            err.Error(),
			"state_transition": string(StateAnalyzing) + "->" + string(StateIdle),
		})
		return sess.copy(), err
	}
	sess.State = StateFeedback
	sess.Feedback = &fb
	telemetry.Info("interview.analyzed", map[string]any{
		"user_id":          userID,
		"score":            fb.Score,
		"state_transition": string(StateAnalyzing) + "->" + string(StateFeedback),
	})
	return sess.copy(), nil
}

// slot must be called with s.mu held.
func (s *Service) slot(userID string) *Session {
	sess, ok := s.slots[userID]
	if !ok {
		sess = &Session{State: StateIdle}
		s.slots[userID] = sess
	}
	return sess
}

func (sess *Session) copy() Session {
	out := *sess
	if sess.Feedback != nil {
		fb := *sess.Feedback
		fb.Strengths = append([]string(nil), fb.Strengths...)
		fb.Improvements = append([]string(nil), fb.Improvements...)
		out.Feedback = &fb
	}
	return out
}
