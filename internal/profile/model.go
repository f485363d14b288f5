package profile

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CareerStage is where the user is in her career.
type CareerStage string

const (
	StageEarly    CareerStage = "early"
	StageMid      CareerStage = "mid"
	StageReturner CareerStage = "returner"
	StageSwitcher CareerStage = "switcher"
)

// ParseCareerStage normalizes s into a known stage.
func ParseCareerStage(s string) (CareerStage, error) {
	stage := CareerStage(strings.ToLower(strings.TrimSpace(s)))
	switch stage {
	case StageEarly, StageMid, StageReturner, StageSwitcher:
		return stage, nil
	default:
		return "", fmt.Errorf("%w: career stage %q", ErrInvalidProfile, s)
	}
}

// UserProfile is the context every generation call is personalised with.
type UserProfile struct {
	Name        string      `json:"name" validate:"not_blank,max=120"`
	CareerStage CareerStage `json:"careerStage" validate:"required,oneof=early mid returner switcher"`
	Industry    string      `json:"industry" validate:"max=120"`
	Goals       []string    `json:"goals" validate:"max=20,dive,not_blank,max=300"`
	Bio         string      `json:"bio" validate:"max=2000"`
}

// Clone returns a deep copy. Clone of nil is nil.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	out := *p
	if p.Goals != nil {
		out.Goals = append([]string(nil), p.Goals...)
	}
	return &out
}

// Compact serializes the profile to compact JSON. A nil profile is "null".
func (p *UserProfile) Compact() string {
	if p == nil {
		return "null"
	}
	out := *p
	if out.Goals == nil {
		out.Goals = []string{}
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return "null"
	}
	return string(raw)
}

// Example returns the profile a new session starts with.
func Example() *UserProfile {
	return &UserProfile{
		Name:        "Sarah Chen",
		CareerStage: StageReturner,
		Industry:    "Technology",
		Goals:       []string{"Transition to Product Management", "Negotiate a flexible work schedule"},
		Bio:         "Returning to the workforce after a 3-year career break for caregiving.",
	}
}

// Record is a persisted profile slot for one user. Profile may be nil.
type Record struct {
	UserID        string
	Profile       *UserProfile
	Authenticated bool
	Version       int64
	UpdatedAt     time.Time
}
