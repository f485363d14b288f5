package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Tier selects between the low-latency model and the high-capability model.
type Tier string

const (
	TierFast    Tier = "fast"
	TierCapable Tier = "capable"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == TierFast || t == TierCapable
}

var (
	// ErrNotImplemented is returned by the placeholder client.
	ErrNotImplemented = errors.New("LLM not implemented")
	// ErrEmptyPrompt is returned when a request has no prompt text.
	ErrEmptyPrompt = errors.New("llm prompt is empty")
	// ErrUnknownTier is returned for tiers other than fast and capable.
	ErrUnknownTier = errors.New("llm tier is unknown")
	// ErrThinkingWithOutputCap is returned when a request sets both a thinking budget and an output cap.
	ErrThinkingWithOutputCap = errors.New("llm thinking budget and max output tokens are mutually exclusive")
)

// Request is one provider-neutral generation call.
type Request struct {
	Tier              Tier
	Prompt            string
	SystemInstruction string
	// Temperature nil leaves the provider default.
	Temperature     *float32
	ThinkingBudget  int
	MaxOutputTokens int
	Schema          *Schema
}

// Validate checks the request before it reaches a provider.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if !r.Tier.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTier, r.Tier)
	}
	if r.ThinkingBudget > 0 && r.MaxOutputTokens > 0 {
		return ErrThinkingWithOutputCap
	}
	return nil
}

// Hash returns a stable digest of the request content, used to correlate log lines.
func (r Request) Hash() string {
	payload, _ := json.Marshal(struct {
		Tier   Tier    `json:"tier"`
		System string  `json:"system"`
		Prompt string  `json:"prompt"`
		Schema *Schema `json:"schema,omitempty"`
	}{r.Tier, r.SystemInstruction, r.Prompt, r.Schema})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:8])
}

// Usage is token accounting reported by the provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response carries the generated text. Text may be empty.
type Response struct {
	Text  string
	Model string
	Usage *Usage
}

// Client abstracts generative model providers.
type Client interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// Temperature returns a pointer suitable for Request.Temperature.
func Temperature(v float32) *float32 {
	return &v
}

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// Generate returns ErrNotImplemented.
func (PlaceholderClient) Generate(ctx context.Context, req Request) (Response, error) {
	_ = ctx
	_ = req
	return Response{}, ErrNotImplemented
}

var _ Client = PlaceholderClient{}
