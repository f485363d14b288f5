package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"empowerher-backend/internal/llm"
)

const (
	DefaultFastModel    = "gemini-flash-lite-latest"
	DefaultCapableModel = "gemini-3-pro-preview"
)

var baseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client implements llm.Client on the Generative Language REST API.
type Client struct {
	apiKey       string
	fastModel    string
	capableModel string
	httpClient   *http.Client
}

// NewClient constructs a Gemini client. Empty model names fall back to the defaults.
func NewClient(apiKey, fastModel, capableModel string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(fastModel) == "" {
		fastModel = DefaultFastModel
	}
	if strings.TrimSpace(capableModel) == "" {
		capableModel = DefaultCapableModel
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		apiKey:       apiKey,
		fastModel:    fastModel,
		capableModel: capableModel,
		httpClient:   &http.Client{Timeout: timeout},
	}, nil
}

type part struct {
	Text    string `json:"text,omitempty"`
	Thought bool   `json:"thought,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type generationConfig struct {
	Temperature      *float32        `json:"temperature,omitempty"`
	MaxOutputTokens  int             `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any  `json:"responseSchema,omitempty"`
	ThinkingConfig   *thinkingConfig `json:"thinkingConfig,omitempty"`
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata,omitempty"`
	ModelVersion string `json:"modelVersion"`
	Error        *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Generate performs one generateContent call.
func (c *Client) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	if err := req.Validate(); err != nil {
		return llm.Response{}, err
	}
	model := c.modelFor(req.Tier)

	payload, err := json.Marshal(buildRequest(req))
	if err != nil {
		return llm.Response{}, err
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(baseURL, "/"), model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return llm.Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return llm.Response{}, fmt.Errorf("gemini request timeout: %w", err)
		}
		return llm.Response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Response{}, err
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return llm.Response{}, fmt.Errorf("gemini http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return llm.Response{}, fmt.Errorf("gemini response parse: %w", err)
	}
	if parsed.Error != nil {
		return llm.Response{}, fmt.Errorf("gemini http status %d: %s (%s)", resp.StatusCode, parsed.Error.Message, parsed.Error.Status)
	}
	if resp.StatusCode >= 400 {
		return llm.Response{}, fmt.Errorf("gemini http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return llm.Response{}, fmt.Errorf("gemini prompt blocked: %s", parsed.PromptFeedback.BlockReason)
	}

	out := llm.Response{Model: model, Text: candidateText(parsed)}
	if parsed.ModelVersion != "" {
		out.Model = parsed.ModelVersion
	}
	if u := parsed.UsageMetadata; u != nil {
		out.Usage = &llm.Usage{
			PromptTokens:     u.PromptTokenCount,
			CompletionTokens: u.CandidatesTokenCount,
			TotalTokens:      u.TotalTokenCount,
		}
	}
	logUsage(out.Model, req.Hash(), out.Usage)
	return out, nil
}

func (c *Client) modelFor(tier llm.Tier) string {
	if tier == llm.TierFast {
		return c.fastModel
	}
	return c.capableModel
}

func buildRequest(req llm.Request) generateRequest {
	out := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: req.Prompt}}}},
	}
	if strings.TrimSpace(req.SystemInstruction) != "" {
		out.SystemInstruction = &content{Parts: []part{{Text: req.SystemInstruction}}}
	}

	cfg := generationConfig{
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxOutputTokens,
	}
	if req.ThinkingBudget > 0 {
		cfg.ThinkingConfig = &thinkingConfig{ThinkingBudget: req.ThinkingBudget}
	}
	if req.Schema != nil {
		cfg.ResponseMimeType = "application/json"
		cfg.ResponseSchema = toGeminiSchema(req.Schema)
	}
	if cfg.Temperature != nil || cfg.MaxOutputTokens > 0 || cfg.ThinkingConfig != nil || cfg.ResponseSchema != nil {
		out.GenerationConfig = &cfg
	}
	return out
}

// toGeminiSchema converts to the OpenAPI dialect the API expects (upper-case types).
func toGeminiSchema(s *llm.Schema) map[string]any {
	if s == nil {
		return nil
	}
	out := map[string]any{"type": strings.ToUpper(s.Type)}
	if s.Items != nil {
		out["items"] = toGeminiSchema(s.Items)
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = toGeminiSchema(prop)
		}
		out["properties"] = props
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	if len(s.Order) > 0 {
		out["propertyOrdering"] = s.Order
	}
	return out
}

func candidateText(resp generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

func logUsage(model, promptHash string, usage *llm.Usage) {
	if usage == nil {
		log.Printf("llm response provider=gemini model=%s prompt_hash=%s", model, promptHash)
		return
	}
	log.Printf("llm response provider=gemini model=%s prompt_hash=%s prompt_tokens=%d completion_tokens=%d total_tokens=%d",
		model, promptHash, usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
}

var _ llm.Client = (*Client)(nil)
