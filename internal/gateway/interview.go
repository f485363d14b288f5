package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"empowerher-backend/internal/interview"
	"empowerher-backend/internal/llm"
)

var feedbackSchema = llm.Object(
	llm.Field{Name: "score", Schema: llm.Number()},
	llm.Field{Name: "strengths", Schema: llm.ArrayOf(llm.String())},
	llm.Field{Name: "improvements", Schema: llm.ArrayOf(llm.String())},
	llm.Field{Name: "keyInsight", Schema: llm.String()},
)

// InterviewFeedback reviews one practice answer.
func (g *Gateway) InterviewFeedback(ctx context.Context, a interview.Attempt) (interview.Feedback, error) {
	if strings.TrimSpace(a.Transcript) == "" {
		return interview.Feedback{}, g.fail(OpInterviewFeedback, ReasonEmptyInput, nil)
	}
	role := strings.TrimSpace(a.Role)
	if role == "" {
		role = "general"
	}
	difficulty := a.Difficulty
	if difficulty == "" {
		difficulty = interview.DifficultyStandard
	}

	resp, err := g.call(ctx, OpInterviewFeedback, llm.Request{
		Tier: llm.TierCapable,
		Prompt: render(llm.PromptInterview,
			"ROLE", role,
			"DIFFICULTY", string(difficulty),
			"PROFILE", a.Profile.Compact(),
			"TRANSCRIPT", a.Transcript,
		),
		SystemInstruction: prompt(llm.PromptInterviewSystem),
		Schema:            feedbackSchema,
	})
	if err != nil {
		return interview.Feedback{}, err
	}

	fb, err := decodeFeedback(resp.Text)
	if err != nil {
		return interview.Feedback{}, g.fail(OpInterviewFeedback, ReasonMalformedOutput, err)
	}
	g.complete(OpInterviewFeedback)
	return fb, nil
}

type rawFeedback struct {
	Score        *float64  `json:"score"`
	Strengths    *[]string `json:"strengths"`
	Improvements *[]string `json:"improvements"`
	KeyInsight   *string   `json:"keyInsight"`
}

func decodeFeedback(text string) (interview.Feedback, error) {
	var raw rawFeedback
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return interview.Feedback{}, fmt.Errorf("decode feedback: %w", err)
	}
	if raw.Score == nil || raw.Strengths == nil || raw.Improvements == nil || raw.KeyInsight == nil {
		return interview.Feedback{}, fmt.Errorf("decode feedback: missing required field")
	}
	if *raw.Score < 0 || *raw.Score > 100 {
		return interview.Feedback{}, fmt.Errorf("decode feedback: score %v out of range", *raw.Score)
	}
	return interview.Feedback{
		Score:        int(*raw.Score + 0.5),
		Strengths:    *raw.Strengths,
		Improvements: *raw.Improvements,
		KeyInsight:   *raw.KeyInsight,
	}, nil
}
