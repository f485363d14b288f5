package metrics

import (
	"strings"
	"testing"
)

func TestRenderPerOperation(t *testing.T) {
	reset()
	t.Cleanup(reset)

	IncGenerationStarted("converse")
	IncGenerationStarted("converse")
	IncGenerationCompleted("converse")
	IncGenerationFailed("converse")
	IncGenerationStarted("plan")
	ObserveGenerationDurationMs("converse", 300)
	ObserveGenerationDurationMs("converse", 70000)

	out := Render()
	for _, want := range []string{
		`generation_started_total{op="converse"} 2`,
		`generation_completed_total{op="converse"} 1`,
		`generation_failed_total{op="converse"} 1`,
		`generation_started_total{op="plan"} 1`,
		`generation_duration_ms_bucket{op="converse",le="250"} 0`,
		`generation_duration_ms_bucket{op="converse",le="500"} 1`,
		`generation_duration_ms_bucket{op="converse",le="60000"} 1`,
		`generation_duration_ms_bucket{op="converse",le="+Inf"} 2`,
		`generation_duration_ms_count{op="converse"} 2`,
		`generation_duration_ms_sum{op="converse"} 70300`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestObserveClampsNegative(t *testing.T) {
	reset()
	t.Cleanup(reset)

	ObserveGenerationDurationMs("tip", -5)
	out := Render()
	if !strings.Contains(out, `generation_duration_ms_sum{op="tip"} 0`) {
		t.Fatalf("expected clamped sum, got:\n%s", out)
	}
}
