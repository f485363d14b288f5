package artifacts

import (
	"fmt"
	"strings"
	"time"
)

// Type is the kind of professional content being drafted.
type Type string

const (
	TypeResume    Type = "resume"
	TypeLinkedIn  Type = "linkedin"
	TypePortfolio Type = "portfolio"
)

// ParseType normalizes s into a known artifact type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

// Valid reports whether t is a known artifact type.
func (t Type) Valid() bool {
	switch t {
	case TypeResume, TypeLinkedIn, TypePortfolio:
		return true
	}
	return false
}

// Artifact is a saved piece of generated content.
type Artifact struct {
	ID          string
	UserID      string
	Type        Type
	Title       string
	Content     string
	StorageKey  string
	CreatedAt   time.Time
	LastUpdated time.Time
}

// Draft is the single editing slot per user.
type Draft struct {
	Type         Type
	Input        string
	Output       string
	IsGenerating bool
	LastUpdated  time.Time
}
