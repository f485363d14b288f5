package gateway

import (
	"context"
	"strings"

	"empowerher-backend/internal/artifacts"
	"empowerher-backend/internal/llm"
)

// GenerateArtifact drafts professional content of type t from input.
func (g *Gateway) GenerateArtifact(ctx context.Context, t artifacts.Type, input string) (string, error) {
	if !t.Valid() {
		return "", g.fail(OpGenerateArtifact, ReasonInvalidInput, artifacts.ErrInvalidType)
	}
	if strings.TrimSpace(input) == "" {
		return "", g.fail(OpGenerateArtifact, ReasonEmptyInput, nil)
	}

	resp, err := g.call(ctx, OpGenerateArtifact, llm.Request{
		Tier:   llm.TierCapable,
		Prompt: render(llm.PromptArtifact, "TYPE", string(t), "INPUT", input),
	})
	if err != nil {
		return "", err
	}
	g.complete(OpGenerateArtifact)
	return resp.Text, nil
}
