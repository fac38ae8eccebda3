// Package synthesis turns the fused multi-source course data into a
// structured analysis report via an LLM oracle. The oracle runs twice per
// analysis: a first pass over discussions and database reviews that also
// surfaces professor names, then a final pass that folds in the verified
// rating data fetched for those names.
package synthesis

import (
	"context"
	"fmt"

	"github.com/jonathan/course-compass/internal/llm"
	"github.com/jonathan/course-compass/internal/prompts"
)

const promptFile = "synthesis.json"

// Input carries the formatted source material for one synthesis call.
// RatingText is empty on the first pass; a non-empty value selects the
// final-pass prompt.
type Input struct {
	Topic      string
	ThreadText string
	ReviewText string
	RatingText string
}

// Oracle produces a raw report document from fused source text.
type Oracle interface {
	Synthesize(ctx context.Context, in Input) (string, error)
}

// Repairer can attempt to fix a malformed report document.
type Repairer interface {
	RepairJSON(ctx context.Context, raw string) (string, error)
}

// GeminiOracle implements Oracle on the Gemini client.
type GeminiOracle struct {
	client llm.Client
	tier   llm.ModelTier
}

// NewGeminiOracle wraps an LLM client. Synthesis runs on the advanced tier
// unless overridden.
func NewGeminiOracle(client llm.Client, tier llm.ModelTier) *GeminiOracle {
	if tier == "" {
		tier = llm.TierAdvanced
	}
	return &GeminiOracle{client: client, tier: tier}
}

// Synthesize renders the phase-appropriate prompt and asks the model for a
// JSON report.
func (o *GeminiOracle) Synthesize(ctx context.Context, in Input) (string, error) {
	key := "first-pass-analysis"
	if in.RatingText != "" {
		key = "final-synthesis"
	}
	template, err := prompts.Get(promptFile, key)
	if err != nil {
		return "", fmt.Errorf("load synthesis prompt: %w", err)
	}

	prompt := prompts.Format(template, map[string]string{
		"Course":     in.Topic,
		"ThreadText": orPlaceholder(in.ThreadText, "No discussion threads found."),
		"ReviewText": orPlaceholder(in.ReviewText, "No review database entries found."),
		"RatingText": orPlaceholder(in.RatingText, "No professor rating data found."),
	})

	out, err := o.client.GenerateJSON(ctx, prompt, o.tier)
	if err != nil {
		return "", fmt.Errorf("synthesis generation: %w", err)
	}
	return out, nil
}

// RepairJSON asks the model to fix a document that failed to parse. Repair
// runs on the lite tier; it is a syntax fix, not a re-analysis.
func (o *GeminiOracle) RepairJSON(ctx context.Context, raw string) (string, error) {
	template, err := prompts.Get(promptFile, "json-cleanup")
	if err != nil {
		return "", fmt.Errorf("load cleanup prompt: %w", err)
	}
	prompt := prompts.Format(template, map[string]string{"Raw": raw})
	out, err := o.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return "", fmt.Errorf("json cleanup: %w", err)
	}
	return out, nil
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}
