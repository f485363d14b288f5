// Package conversation runs coaching dialogues: one append-only message log
// per session with at most one reply in flight.
package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"empowerher-backend/internal/profile"
)

// Role identifies who wrote a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// State is the dialogue phase.
type State string

const (
	StateIdle             State = "idle"
	StateAwaitingResponse State = "awaiting_response"
)

// FallbackReply replaces an empty model reply.
const FallbackReply = "I'm sorry, I'm having a little trouble connecting right now. Can we try again?"

// ChatMessage is one entry in the dialogue log.
type ChatMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Responder produces a coaching reply for message.
type Responder interface {
	Converse(ctx context.Context, message string, p *profile.UserProfile, deep bool) (string, error)
}

// Session is a single dialogue owned by one user.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time

	mu       sync.Mutex
	messages []ChatMessage
	state    State
	now      func() time.Time
}

func newSession(id, userID, name string, now func() time.Time) *Session {
	created := now().UTC()
	return &Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: created,
		state:     StateIdle,
		now:       now,
		messages: []ChatMessage{{
			Role:      RoleModel,
			Content:   Greeting(name),
			Timestamp: created,
		}},
	}
}

// Greeting is the opening coach message for name.
func Greeting(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "there"
	}
	return "Hello " + name + "! I'm your EmpowerHer Coach. How are you feeling about your career journey today? Remember, no challenge is too small for us to tackle together."
}

// Messages returns a copy of the log in append order.
func (s *Session) Messages() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChatMessage(nil), s.messages...)
}

// State returns the current phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Submit appends the user message and waits for the coach reply.
// The user message stays in the log when the reply fails; the failed turn adds nothing else.
// The session is back to idle when Submit returns, whatever the outcome.
func (s *Session) Submit(ctx context.Context, r Responder, p *profile.UserProfile, text string, deep bool) (ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return ChatMessage{}, ErrEmptyInput
	}

	s.mu.Lock()
	if s.state == StateAwaitingResponse {
		s.mu.Unlock()
		return ChatMessage{}, ErrBusy
	}
	s.messages = append(s.messages, ChatMessage{Role: RoleUser, Content: text, Timestamp: s.now().UTC()})
	s.state = StateAwaitingResponse
	s.mu.Unlock()

	reply, err := r.Converse(ctx, text, p, deep)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	if err != nil {
		return ChatMessage{}, err
	}
	if strings.TrimSpace(reply) == "" {
		reply = FallbackReply
	}
	msg := ChatMessage{Role: RoleModel, Content: reply, Timestamp: s.now().UTC()}
	s.messages = append(s.messages, msg)
	return msg, nil
}
