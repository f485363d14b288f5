// Package gateway turns domain requests into single calls against the generative
// provider. Every operation returns (value, error); callers decide whether to
// surface a failure or drop it.
package gateway

import (
	"context"
	"strings"
	"time"

	"empowerher-backend/internal/llm"
	"empowerher-backend/internal/shared/metrics"
	"empowerher-backend/internal/shared/telemetry"
)

const (
	OpConverse          = "converse"
	OpQuickTip          = "quick_tip"
	OpGeneratePlan      = "generate_plan"
	OpGenerateArtifact  = "generate_artifact"
	OpInterviewFeedback = "interview_feedback"
)

const (
	deepThinkingBudget = 32768
	deepTemperature    = 1.0
	chatTemperature    = 0.7
)

// Gateway is safe for concurrent use. It holds no per-call state.
type Gateway struct {
	client llm.Client
	now    func() time.Time
}

// New constructs a Gateway over client.
func New(client llm.Client) *Gateway {
	if client == nil {
		client = llm.PlaceholderClient{}
	}
	return &Gateway{client: client, now: time.Now}
}

// call performs at most one provider call and records metrics for it.
func (g *Gateway) call(ctx context.Context, op string, req llm.Request) (llm.Response, error) {
	metrics.IncGenerationStarted(op)
	start := g.now()
	resp, err := g.client.Generate(ctx, req)
	elapsed := g.now().Sub(start)
	metrics.ObserveGenerationDurationMs(op, float64(elapsed.Milliseconds()))
	if err != nil {
		return llm.Response{}, g.fail(op, ReasonProvider, err)
	}
	telemetry.Info("gateway.completed", map[string]any{
		"op":          op,
		"model":       resp.Model,
		"prompt_hash": req.Hash(),
		"duration_ms": elapsed.Milliseconds(),
		"empty":       strings.TrimSpace(resp.Text) == "",
	})
	return resp, nil
}

func (g *Gateway) complete(op string) {
	metrics.IncGenerationCompleted(op)
}

// fail counts provider-stage failures. Rejected input never reached the provider and is not counted.
func (g *Gateway) fail(op string, reason Reason, err error) error {
	if reason != ReasonEmptyInput && reason != ReasonInvalidInput {
		metrics.IncGenerationFailed(op)
	}
	fields := map[string]any{"op": op, "reason": string(reason)}
	if err != nil {
		fields["error"] = err.Error()
	}
	telemetry.Warn("gateway.failed", fields)
	return &Failure{Op: op, Reason: reason, Err: err}
}

func render(name string, kv ...string) string {
	out, err := llm.Render(name, kv...)
	if err != nil {
		// Prompt assets are embedded; a miss is a build defect.
		panic(err)
	}
	return out
}

func prompt(name string) string {
	return render(name)
}
