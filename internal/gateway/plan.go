package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"empowerher-backend/internal/llm"
	"empowerher-backend/internal/profile"
	"empowerher-backend/internal/roadmap"
)

var planSchema = llm.ArrayOf(llm.Object(
	llm.Field{Name: "week", Schema: llm.Number()},
	llm.Field{Name: "title", Schema: llm.String()},
	llm.Field{Name: "tasks", Schema: llm.ArrayOf(llm.String())},
))

// GeneratePlan asks for a weekly roadmap. On any failure the returned list is empty and non-nil.
func (g *Gateway) GeneratePlan(ctx context.Context, p *profile.UserProfile) ([]roadmap.Step, error) {
	resp, err := g.call(ctx, OpGeneratePlan, llm.Request{
		Tier:   llm.TierCapable,
		Prompt: render(llm.PromptPlan, "PROFILE", p.Compact()),
		Schema: planSchema,
	})
	if err != nil {
		return []roadmap.Step{}, err
	}

	steps, err := decodePlan(resp.Text)
	if err != nil {
		return []roadmap.Step{}, g.fail(OpGeneratePlan, ReasonMalformedOutput, err)
	}
	g.complete(OpGeneratePlan)
	return steps, nil
}

type rawStep struct {
	Week  *float64  `json:"week"`
	Title *string   `json:"title"`
	Tasks *[]string `json:"tasks"`
}

// decodePlan parses text strictly against planSchema. Empty text is an empty plan.
func decodePlan(text string) ([]roadmap.Step, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []roadmap.Step{}, nil
	}

	dec := json.NewDecoder(strings.NewReader(text))
	var raw []*rawStep
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode plan: trailing data")
	}
	if raw == nil {
		return nil, errors.New("decode plan: not an array")
	}

	steps := make([]roadmap.Step, 0, len(raw))
	for i, r := range raw {
		if r == nil || r.Week == nil || r.Title == nil || r.Tasks == nil {
			return nil, fmt.Errorf("step %d: missing required field", i)
		}
		if *r.Week != math.Trunc(*r.Week) || math.IsInf(*r.Week, 0) {
			return nil, fmt.Errorf("step %d: week %v is not a whole number", i, *r.Week)
		}
		if *r.Week < 1 || *r.Week > math.MaxInt32 {
			return nil, fmt.Errorf("step %d: week %v out of range", i, *r.Week)
		}
		tasks := make([]string, len(*r.Tasks))
		copy(tasks, *r.Tasks)
		steps = append(steps, roadmap.Step{
			Week:      int(*r.Week),
			Title:     *r.Title,
			Tasks:     tasks,
			Completed: false,
		})
	}
	return steps, nil
}
