package llm

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed prompts/*.txt
var promptFiles embed.FS

// Prompt asset names.
const (
	PromptCoachSystem     = "coach_system"
	PromptConverse        = "converse"
	PromptQuickTipSystem  = "quick_tip_system"
	PromptQuickTip        = "quick_tip"
	PromptPlan            = "plan"
	PromptArtifact        = "artifact"
	PromptInterviewSystem = "interview_system"
	PromptInterview       = "interview"
)

// Prompt returns the embedded prompt text and whether the name was recognized.
func Prompt(name string) (string, bool) {
	raw, err := promptFiles.ReadFile("prompts/" + name + ".txt")
	if err != nil {
		return "", false
	}
	return strings.TrimRight(string(raw), "\r\n"), true
}

// Render fills {{KEY}} placeholders of the named prompt. kv alternates keys and values.
func Render(name string, kv ...string) (string, error) {
	tmpl, ok := Prompt(name)
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	if len(kv)%2 != 0 {
		return "", fmt.Errorf("prompt %q: odd placeholder list", name)
	}
	pairs := make([]string, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		pairs = append(pairs, "{{"+kv[i]+"}}", kv[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl), nil
}
