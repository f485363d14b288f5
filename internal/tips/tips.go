// Package tips keeps the dashboard quick tip for each user.
package tips

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"empowerher-backend/internal/appstate"
	"empowerher-backend/internal/shared/telemetry"
)

// DefaultTip is shown until a refresh succeeds.
const DefaultTip = "Focus on quantifying your impact today. Use numbers to tell your story."

const defaultTopic = "professional woman"

// ErrBusy is returned while a refresh is in flight for the user.
var ErrBusy = errors.New("tip refresh in progress")

// TipSource produces a one-sentence tip about topic.
type TipSource interface {
	QuickTip(ctx context.Context, topic string) (string, error)
}

// Tip is the current dashboard tip.
type Tip struct {
	Text       string     `json:"text"`
	Topic      string     `json:"topic,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
	Refreshing bool       `json:"refreshing"`
}

type slot struct {
	tip  Tip
	busy bool
}

// Service holds the latest tip per user.
type Service struct {
	Source TipSource
	State  *appstate.Store

	mu    sync.Mutex
	slots map[string]*slot
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(src TipSource, state *appstate.Store) *Service {
	return &Service{Source: src, State: state, slots: make(map[string]*slot), now: time.Now}
}

// Current returns the user's tip without calling the model.
func (s *Service) Current(userID string) Tip {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl := s.slot(userID)
	out := sl.tip
	out.Refreshing = sl.busy
	return out
}

// Refresh asks for a new tip about the user's career stage. An empty answer or
// a failure leaves the current tip in place; the error is returned on failure.
func (s *Service) Refresh(ctx context.Context, userID string) (Tip, error) {
	st, err := s.State.Snapshot(ctx, userID)
	if err != nil {
		return Tip{}, err
	}
	topic := defaultTopic
	if st.User != nil && strings.TrimSpace(string(st.User.CareerStage)) != "" {
		topic = string(st.User.CareerStage)
	}

	s.mu.Lock()
	sl := s.slot(userID)
	if sl.busy {
		out := sl.tip
		out.Refreshing = true
		s.mu.Unlock()
		return out, ErrBusy
	}
	sl.busy = true
	s.mu.Unlock()

	text, err := s.Source.QuickTip(ctx, topic)

	s.mu.Lock()
	defer s.mu.Unlock()
	sl = s.slot(userID)
	sl.busy = false
	if err != nil {
		telemetry.Warn("tips.refresh_failed", map[string]any{
			"user_id": userID,
			"topic":   topic,
			"error":   err.Error(),
		})
		return sl.tip, err
	}
	if text = strings.TrimSpace(text); text != "" {
		now := s.now().UTC()
		sl.tip = Tip{Text: text, Topic: topic, UpdatedAt: &now}
	}
	return sl.tip, nil
}

// slot must be called with s.mu held.
func (s *Service) slot(userID string) *slot {
	sl, ok := s.slots[userID]
	if !ok {
		sl = &slot{tip: Tip{Text: DefaultTip}}
		s.slots[userID] = sl
	}
	return sl
}
