package interview

import (
	"fmt"
	"strings"
	"time"

	"empowerher-backend/internal/profile"
)

// Difficulty tunes how hard the practice interviewer pushes.
type Difficulty string

const (
	DifficultyBeginner Difficulty = "beginner"
	DifficultyStandard Difficulty = "standard"
	DifficultyStress   Difficulty = "stress"
)

// ParseDifficulty normalizes s. Empty means standard.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case "":
		return DifficultyStandard, nil
	case DifficultyBeginner, DifficultyStandard, DifficultyStress:
		return d, nil
	}
	return "", fmt.Errorf("%w: difficulty %q", ErrInvalidInput, s)
}

// State is the practice session phase.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateAnalyzing State = "analyzing"
	StateFeedback  State = "feedback"
)

// Feedback is the structured review of one practice answer.
type Feedback struct {
	Score        int      `json:"score"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	KeyInsight   string   `json:"keyInsight"`
}

// Attempt is everything the reviewer sees for one practice answer.
type Attempt struct {
	Role       string
	Difficulty Difficulty
	Transcript string
	Profile    *profile.UserProfile
}

// Session is the single practice slot per user.
type Session struct {
	State      State
	Role       string
	Difficulty Difficulty
	StartedAt  time.Time
	Feedback   *Feedback
}
