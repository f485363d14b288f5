package roadmap

import "time"

// Step is one week of the plan. Completed is tracked locally and never sent to the model.
type Step struct {
	Week      int      `json:"week"`
	Title     string   `json:"title"`
	Tasks     []string `json:"tasks"`
	Completed bool     `json:"completed"`
}

// Status is the loading state of a plan.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	// StatusFailed is a generation failure. Steps is empty, same as a ready plan the model left empty.
	StatusFailed Status = "failed"
)

// Plan is the roadmap generated for one profile version.
type Plan struct {
	UserID         string
	ProfileVersion int64
	Status         Status
	Steps          []Step
	GeneratedAt    time.Time
}

func cloneSteps(steps []Step) []Step {
	out := make([]Step, len(steps))
	for i, s := range steps {
		s.Tasks = append([]string(nil), s.Tasks...)
		out[i] = s
	}
	return out
}

// Clone returns a deep copy of p.
func (p Plan) Clone() Plan {
	p.Steps = cloneSteps(p.Steps)
	return p
}
