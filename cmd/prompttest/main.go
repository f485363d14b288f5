package main

// Run one gateway operation against the configured provider:
//   go run ./cmd/prompttest -op plan
//   go run ./cmd/prompttest -op artifact -type linkedin -file resume.pdf

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"empowerher-backend/internal/artifacts"
	"empowerher-backend/internal/bootstrap"
	"empowerher-backend/internal/extract"
	"empowerher-backend/internal/gateway"
	"empowerher-backend/internal/interview"
	"empowerher-backend/internal/profile"
	"empowerher-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	op := flag.String("op", "converse", "Operation: converse, tip, plan, artifact, interview")
	input := flag.String("input", "", "Message, topic, artifact input or interview transcript")
	filePath := flag.String("file", "", "Read input from a PDF, DOCX or text file instead of -input")
	profilePath := flag.String("profile", "", "Path to a profile JSON file (defaults to the example profile)")
	artifactType := flag.String("type", "resume", "Artifact type: resume, linkedin, portfolio")
	role := flag.String("role", "Product Manager", "Interview role")
	difficulty := flag.String("difficulty", "standard", "Interview difficulty: beginner, standard, stress")
	deep := flag.Bool("deep", false, "Use extended reasoning for converse")
	provider := flag.String("provider", cfg.LLMProvider, "LLM provider: gemini, openai, none")
	outPath := flag.String("out", "", "Path to write the output (optional)")
	flag.Parse()

	cfg.LLMProvider = *provider
	cfg.Env = "production"

	text, err := readInput(*input, *filePath)
	if err != nil {
		exitErr(err.Error())
	}
	p, err := readProfile(*profilePath)
	if err != nil {
		exitErr(err.Error())
	}

	client, err := bootstrap.BuildLLM(cfg)
	if err != nil {
		exitErr(err.Error())
	}
	gw := gateway.New(client)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.LLMTimeoutSeconds+10)*time.Second)
	defer cancel()

	var out []byte
	switch strings.TrimSpace(*op) {
	case "converse":
		reply, err := gw.Converse(ctx, text, p, *deep)
		check(err)
		out = []byte(reply)
	case "tip":
		topic := text
		if topic == "" && p != nil {
			topic = string(p.CareerStage)
		}
		tip, err := gw.QuickTip(ctx, topic)
		check(err)
		out = []byte(tip)
	case "plan":
		steps, err := gw.GeneratePlan(ctx, p)
		check(err)
		out, err = prettyJSON(steps)
		check(err)
	case "artifact":
		t, err := artifacts.ParseType(*artifactType)
		check(err)
		content, err := gw.GenerateArtifact(ctx, t, text)
		check(err)
		out = []byte(content)
	case "interview":
		d, err := interview.ParseDifficulty(*difficulty)
		check(err)
		fb, err := gw.InterviewFeedback(ctx, interview.Attempt{Role: *role, Difficulty: d, Transcript: text, Profile: p})
		check(err)
		out, err = prettyJSON(fb)
		check(err)
	default:
		exitErr(fmt.Sprintf("unsupported op: %s", *op))
	}

	if strings.TrimSpace(*outPath) != "" {
		if err := os.WriteFile(*outPath, out, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
		return
	}
	fmt.Println(string(out))
}

func readInput(input, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return input, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input file: %w", err)
	}
	text, err := extract.Text(context.Background(), data, "", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("extract input text: %w", err)
	}
	return text, nil
}

func readProfile(path string) (*profile.UserProfile, error) {
	if strings.TrimSpace(path) == "" {
		return profile.Example(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var p profile.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func check(err error) {
	if err == nil {
		return
	}
	if reason := gateway.ReasonOf(err); reason != "" {
		exitErr(fmt.Sprintf("%s (%s)", err, reason))
	}
	exitErr(err.Error())
}

func prettyJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
