package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"empowerher-backend/internal/artifacts"
	"empowerher-backend/internal/interview"
	"empowerher-backend/internal/llm"
	"empowerher-backend/internal/profile"
	"empowerher-backend/internal/roadmap"
	"empowerher-backend/internal/shared/metrics"
)

type stubClient struct {
	mu    sync.Mutex
	text  string
	err   error
	calls []llm.Request
}

func (s *stubClient) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if s.err != nil {
		return llm.Response{}, s.err
	}
	return llm.Response{Text: s.text, Model: "stub"}, nil
}

func (s *stubClient) last(t *testing.T) llm.Request {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.Len(t, s.calls, 1)
	return s.calls[0]
}

func TestConverseRequestShape(t *testing.T) {
	stub := &stubClient{text: "You can do this."}
	g := New(stub)
	p := &profile.UserProfile{Name: "Ada", CareerStage: profile.StageMid}

	reply, err := g.Converse(context.Background(), "How do I ask for a raise?", p, false)
	require.NoError(t, err)
	assert.Equal(t, "You can do this.", reply)

	req := stub.last(t)
	assert.Equal(t, llm.TierCapable, req.Tier)
	assert.Contains(t, req.SystemInstruction, "EmpowerHer Coach")
	require.NotNil(t, req.Temperature)
	assert.InDelta(t, 0.7, *req.Temperature, 0.0001)
	assert.Zero(t, req.ThinkingBudget)
	assert.Equal(t, `User Profile: `+p.Compact()+`. User Message: How do I ask for a raise?`, req.Prompt)
	assert.NoError(t, req.Validate())
}

func TestConverseDeepReasoning(t *testing.T) {
	stub := &stubClient{text: "ok"}
	_, err := New(stub).Converse(context.Background(), "plan my return", nil, true)
	require.NoError(t, err)

	req := stub.last(t)
	require.NotNil(t, req.Temperature)
	assert.InDelta(t, 1.0, *req.Temperature, 0.0001)
	assert.Equal(t, 32768, req.ThinkingBudget)
	assert.Zero(t, req.MaxOutputTokens)
	assert.True(t, strings.HasPrefix(req.Prompt, "User Profile: null. "))
	assert.NoError(t, req.Validate())
}

func TestConverseEmptyMessageSkipsProvider(t *testing.T) {
	stub := &stubClient{text: "never"}
	_, err := New(stub).Converse(context.Background(), "   ", profile.Example(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Equal(t, ReasonEmptyInput, ReasonOf(err))
	assert.Empty(t, stub.calls)
}

func TestConverseProviderFailure(t *testing.T) {
	cause := errors.New("connection reset")
	stub := &stubClient{err: cause}
	reply, err := New(stub).Converse(context.Background(), "hi", nil, false)
	assert.Empty(t, reply)
	assert.ErrorIs(t, err, ErrProvider)
	assert.ErrorIs(t, err, cause)
	assert.Len(t, stub.calls, 1)
}

func TestConverseEmptyReplyIsNotAnError(t *testing.T) {
	stub := &stubClient{text: ""}
	reply, err := New(stub).Converse(context.Background(), "hi", nil, false)
	require.NoError(t, err)
	assert.Empty(t, reply)
}

func TestQuickTipRequestShape(t *testing.T) {
	stub := &stubClient{text: "Lead with numbers."}
	tip, err := New(stub).QuickTip(context.Background(), "returner")
	require.NoError(t, err)
	assert.Equal(t, "Lead with numbers.", tip)

	req := stub.last(t)
	assert.Equal(t, llm.TierFast, req.Tier)
	assert.Nil(t, req.Schema)
	assert.Nil(t, req.Temperature)
	assert.Contains(t, req.SystemInstruction, "Be brief and impactful")
	assert.Contains(t, req.Prompt, "returner")
}

func TestGeneratePlanEndToEnd(t *testing.T) {
	stub := &stubClient{text: `[{"week":1,"title":"Audit","tasks":["List achievements"]}]`}
	p := &profile.UserProfile{Name: "Sarah", CareerStage: profile.StageReturner, Industry: "Technology"}

	steps, err := New(stub).GeneratePlan(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []roadmap.Step{{Week: 1, Title: "Audit", Tasks: []string{"List achievements"}, Completed: false}}, steps)

	req := stub.last(t)
	assert.Equal(t, llm.TierCapable, req.Tier)
	require.NotNil(t, req.Schema)
	assert.Equal(t, llm.TypeArray, req.Schema.Type)
	assert.ElementsMatch(t, []string{"week", "title", "tasks"}, req.Schema.Items.Required)
	assert.NotContains(t, req.Prompt, "completed")
	assert.Contains(t, req.Prompt, `"careerStage":"returner"`)
}

func TestGeneratePlanPreservesOrderAndResetsCompleted(t *testing.T) {
	stub := &stubClient{text: `[
		{"week":3,"title":"C","tasks":[],"completed":true},
		{"week":1,"title":"A","tasks":["x"]},
		{"week":1,"title":"A again","tasks":["y","z"]}
	]`}
	steps, err := New(stub).GeneratePlan(context.Background(), profile.Example())
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, 3, steps[0].Week)
	assert.Equal(t, "A again", steps[2].Title)
	for _, s := range steps {
		assert.False(t, s.Completed)
	}
}

func TestGeneratePlanEmptyText(t *testing.T) {
	steps, err := New(&stubClient{text: "  "}).GeneratePlan(context.Background(), profile.Example())
	require.NoError(t, err)
	assert.NotNil(t, steps)
	assert.Empty(t, steps)
}

func TestGeneratePlanMalformedOutput(t *testing.T) {
	cases := map[string]string{
		"not json":       "Here is your plan!",
		"object root":    `{"week":1,"title":"A","tasks":[]}`,
		"null":           `null`,
		"missing tasks":  `[{"week":1,"title":"A"}]`,
		"missing week":   `[{"title":"A","tasks":[]}]`,
		"string week":    `[{"week":"1","title":"A","tasks":[]}]`,
		"fraction week":  `[{"week":1.5,"title":"A","tasks":[]}]`,
		"zero week":      `[{"week":0,"title":"A","tasks":[]}]`,
		"negative week":  `[{"week":-3,"title":"A","tasks":[]}]`,
		"huge week":      `[{"week":1e20,"title":"A","tasks":[]}]`,
		"numeric task":   `[{"week":1,"title":"A","tasks":[1]}]`,
		"null element":   `[null]`,
		"trailing data":  `[] []`,
		"truncated json": `[{"week":1,"title":"A","tasks":["x"`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			steps, err := New(&stubClient{text: text}).GeneratePlan(context.Background(), profile.Example())
			assert.NotNil(t, steps)
			assert.Empty(t, steps)
			assert.ErrorIs(t, err, ErrMalformedOutput)
		})
	}
}

func TestGeneratePlanProviderFailure(t *testing.T) {
	stub := &stubClient{err: errors.New("timeout")}
	steps, err := New(stub).GeneratePlan(context.Background(), profile.Example())
	assert.NotNil(t, steps)
	assert.Empty(t, steps)
	assert.ErrorIs(t, err, ErrProvider)
	assert.Len(t, stub.calls, 1)
}

func TestGenerateArtifactTemplate(t *testing.T) {
	for _, typ := range []artifacts.Type{artifacts.TypeResume, artifacts.TypeLinkedIn, artifacts.TypePortfolio} {
		stub := &stubClient{text: "draft"}
		out, err := New(stub).GenerateArtifact(context.Background(), typ, "Led a team of 5")
		require.NoError(t, err)
		assert.Equal(t, "draft", out)

		req := stub.last(t)
		assert.Equal(t, llm.TierCapable, req.Tier)
		assert.Nil(t, req.Schema)
		assert.Contains(t, req.Prompt, "professional "+string(typ)+" content")
		assert.Contains(t, req.Prompt, "Led a team of 5")
		assert.Contains(t, req.Prompt, "Optimize for impact and leadership framing")
	}
}

func TestGenerateArtifactRejectsBadInput(t *testing.T) {
	stub := &stubClient{text: "never"}
	g := New(stub)

	_, err := g.GenerateArtifact(context.Background(), "cover-letter", "text")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, artifacts.ErrInvalidType)
	assert.Equal(t, ReasonInvalidInput, ReasonOf(err))

	_, err = g.GenerateArtifact(context.Background(), artifacts.TypeResume, " \n")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Empty(t, stub.calls)
}

func TestInterviewFeedback(t *testing.T) {
	stub := &stubClient{text: `{"score":82,"strengths":["Clear delivery"],"improvements":["Fewer filler words"],"keyInsight":"Career break framed as leadership."}`}
	fb, err := New(stub).InterviewFeedback(context.Background(), interview.Attempt{
		Role:       "Product Manager",
		Difficulty: interview.DifficultyStress,
		Transcript: "I led the migration...",
		Profile:    profile.Example(),
	})
	require.NoError(t, err)
	assert.Equal(t, 82, fb.Score)
	assert.Equal(t, []string{"Clear delivery"}, fb.Strengths)

	req := stub.last(t)
	require.NotNil(t, req.Schema)
	assert.Equal(t, llm.TypeObject, req.Schema.Type)
	assert.Contains(t, req.Prompt, "Difficulty: stress")
	assert.Contains(t, req.Prompt, "I led the migration...")
}

func TestInterviewFeedbackMalformed(t *testing.T) {
	for _, text := range []string{`{"score":82}`, `{"score":140,"strengths":[],"improvements":[],"keyInsight":""}`, "great job"} {
		_, err := New(&stubClient{text: text}).InterviewFeedback(context.Background(), interview.Attempt{Transcript: "answer"})
		assert.ErrorIs(t, err, ErrMalformedOutput, text)
	}
	_, err := New(&stubClient{}).InterviewFeedback(context.Background(), interview.Attempt{})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestFailureMessage(t *testing.T) {
	err := &Failure{Op: OpQuickTip, Reason: ReasonProvider, Err: errors.New("boom")}
	assert.Equal(t, "gateway quick_tip: provider: boom", err.Error())
	assert.Equal(t, Reason(""), ReasonOf(errors.New("other")))
}

func TestGatewayRecordsMetrics(t *testing.T) {
	_, _ = New(&stubClient{text: "[]"}).GeneratePlan(context.Background(), nil)
	out := metrics.Render()
	assert.Contains(t, out, `generation_started_total{op="generate_plan"}`)
	assert.Contains(t, out, `generation_completed_total{op="generate_plan"}`)
}
