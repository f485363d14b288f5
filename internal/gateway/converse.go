package gateway

import (
	"context"
	"strings"

	"empowerher-backend/internal/llm"
	"empowerher-backend/internal/profile"
)

// Converse sends one coaching message. The reply may be empty; callers substitute a fallback.
func (g *Gateway) Converse(ctx context.Context, message string, p *profile.UserProfile, deep bool) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", g.fail(OpConverse, ReasonEmptyInput, nil)
	}

	req := llm.Request{
		Tier:              llm.TierCapable,
		Prompt:            render(llm.PromptConverse, "PROFILE", p.Compact(), "MESSAGE", message),
		SystemInstruction: prompt(llm.PromptCoachSystem),
		Temperature:       llm.Temperature(chatTemperature),
	}
	if deep {
		req.Temperature = llm.Temperature(deepTemperature)
		req.ThinkingBudget = deepThinkingBudget
		req.MaxOutputTokens = 0
	}

	resp, err := g.call(ctx, OpConverse, req)
	if err != nil {
		return "", err
	}
	g.complete(OpConverse)
	return resp.Text, nil
}

// QuickTip returns a one-sentence tip about topic.
func (g *Gateway) QuickTip(ctx context.Context, topic string) (string, error) {
	if strings.TrimSpace(topic) == "" {
		return "", g.fail(OpQuickTip, ReasonEmptyInput, nil)
	}

	resp, err := g.call(ctx, OpQuickTip, llm.Request{
		Tier:              llm.TierFast,
		Prompt:            render(llm.PromptQuickTip, "TOPIC", topic),
		SystemInstruction: prompt(llm.PromptQuickTipSystem),
	})
	if err != nil {
		return "", err
	}
	g.complete(OpQuickTip)
	return resp.Text, nil
}
