package openai

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
	DefaultFastModel    = "gpt-4o-mini"
	DefaultCapableModel = "gpt-5"

	// wrapKey holds array results; json_schema requires an object root.
	wrapKey = "items"
)

var apiURL = "https://api.openai.com/v1/chat/completions"

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	apiKey       string
	fastModel    string
	capableModel string
	httpClient   *http.Client
}

// NewClient constructs a new OpenAI client.
func NewClient(apiKey, fastModel, capableModel string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
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

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchemaFormat struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type responseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *jsonSchemaFormat `json:"json_schema,omitempty"`
}

type chatRequest struct {
	Model               string          `json:"model"`
	Messages            []chatMessage   `json:"messages"`
	Temperature         *float32        `json:"temperature,omitempty"`
	MaxCompletionTokens int             `json:"max_completion_tokens,omitempty"`
	ReasoningEffort     string          `json:"reasoning_effort,omitempty"`
	ResponseFormat      *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate performs one chat completion.
func (c *Client) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	if err := req.Validate(); err != nil {
		return llm.Response{}, err
	}
	model := c.modelFor(req.Tier)
	wrapped := req.Schema != nil && req.Schema.Type == llm.TypeArray

	payload, err := json.Marshal(buildRequest(model, req))
	if err != nil {
		return llm.Response{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return llm.Response{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return llm.Response{}, fmt.Errorf("openai request timeout: %w", err)
		}
		return llm.Response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Response{}, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return llm.Response{}, fmt.Errorf("openai http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return llm.Response{}, fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return llm.Response{}, fmt.Errorf("openai http status %d: %s (%s)", resp.StatusCode, parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode >= 400 {
		return llm.Response{}, fmt.Errorf("openai http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	out := llm.Response{Model: model}
	if parsed.Model != "" {
		out.Model = parsed.Model
	}
	if len(parsed.Choices) > 0 {
		out.Text = parsed.Choices[0].Message.Content
	}
	if wrapped {
		out.Text = unwrapArray(out.Text)
	}
	if u := parsed.Usage; u != nil {
		out.Usage = &llm.Usage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
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

func buildRequest(model string, req llm.Request) chatRequest {
	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(req.SystemInstruction) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemInstruction})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	out := chatRequest{Model: model, Messages: messages}
	if !isGPT5(model) {
		out.Temperature = req.Temperature
	}
	switch {
	case req.ThinkingBudget > 0:
		if isReasoningModel(model) {
			out.ReasoningEffort = "high"
		}
	case req.MaxOutputTokens > 0:
		out.MaxCompletionTokens = req.MaxOutputTokens
	}
	if req.Schema != nil {
		schema := req.Schema
		if schema.Type == llm.TypeArray {
			schema = &llm.Schema{
				Type:       llm.TypeObject,
				Properties: map[string]*llm.Schema{wrapKey: schema},
				Required:   []string{wrapKey},
			}
		}
		out.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaFormat{
				Name:   "result",
				Strict: true,
				Schema: toStrictSchema(schema),
			},
		}
	}
	return out
}

// toStrictSchema adds additionalProperties=false, which strict mode requires on objects.
func toStrictSchema(s *llm.Schema) map[string]any {
	if s == nil {
		return nil
	}
	out := map[string]any{"type": s.Type}
	if s.Items != nil {
		out["items"] = toStrictSchema(s.Items)
	}
	if s.Type == llm.TypeObject {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = toStrictSchema(prop)
		}
		out["properties"] = props
		out["required"] = s.Required
		out["additionalProperties"] = false
	}
	return out
}

func unwrapArray(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return text
	}
	inner, ok := envelope[wrapKey]
	if !ok {
		return text
	}
	return string(inner)
}

func logUsage(model, promptHash string, usage *llm.Usage) {
	if usage == nil {
		log.Printf("llm response provider=openai model=%s prompt_hash=%s", model, promptHash)
		return
	}
	log.Printf("llm response provider=openai model=%s prompt_hash=%s prompt_tokens=%d completion_tokens=%d total_tokens=%d",
		model, promptHash, usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

func isReasoningModel(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	if isGPT5(m) {
		return true
	}
	return len(m) > 1 && m[0] == 'o' && m[1] >= '0' && m[1] <= '9'
}

var _ llm.Client = (*Client)(nil)
