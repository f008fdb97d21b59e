// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

/*
Package ai runs source files through a language model and extracts
structured review insights.

It is the production implementation of the analysis pipeline's code reviewer.
The model is asked for a strict JSON shape; when the reply cannot be parsed,
the reviewer degrades to deterministic placeholder scores instead of failing
the whole analysis run.

Core Responsibilities:

  - Prompting: One file per call, language inferred from the path, JSON-only
    instruction so parsing stays mechanical.
  - Resilience: Malformed model output produces a placeholder Insight seeded
    from the file path, never an error.
  - Bounds: Scores are clamped to [0, 100] regardless of what the model says.
*/
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// reviewPrompt is the per-file instruction template.
const reviewPrompt = `You are a senior code reviewer. Analyze the following file and respond with ONLY a JSON object, no prose, using this exact shape:
{"qualityScore": <0-100>, "securityScore": <0-100>, "performanceScore": <0-100>, "issues": ["..."], "suggestions": ["..."], "summary": "..."}

File: %s

%s`

// Insight is the structured outcome of reviewing one file.
type Insight struct {
	QualityScore     float64  `json:"qualityScore"`
	SecurityScore    float64  `json:"securityScore"`
	PerformanceScore float64  `json:"performanceScore"`
	Issues           []string `json:"issues"`
	Suggestions      []string `json:"suggestions"`
	Summary          string   `json:"summary"`
}

// Reviewer sends files to an OpenAI-compatible model.
type Reviewer struct {
	model llms.Model
}

/*
New constructs a Reviewer against an OpenAI-compatible endpoint.

Parameters:
  - apiKey: string
  - model: string (e.g. "gpt-4o-mini")

Returns:
  - *Reviewer: The reviewer
  - error: Client construction failures
*/
func New(apiKey, model string) (*Reviewer, error) {
	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("ai_client_init_failed: %w", err)
	}

	return &Reviewer{model: llm}, nil
}

/*
AnalyzeCode reviews one file and returns a structured Insight.

Description: On transport failure the error propagates so the queue can
retry the job. On a reply that is not valid JSON, a placeholder Insight is
returned instead; a flaky model must not fail an otherwise healthy run.

Parameters:
  - context: context.Context
  - filePath: string
  - content: string

Returns:
  - Insight: Parsed or placeholder review
  - error: Transport failures only
*/
func (reviewer *Reviewer) AnalyzeCode(context context.Context, filePath, content string) (Insight, error) {
	prompt := fmt.Sprintf(reviewPrompt, filePath, content)

	reply, err := llms.GenerateFromSinglePrompt(context, reviewer.model, prompt,
		llms.WithTemperature(0.2),
	)
	if err != nil {
		return Insight{}, fmt.Errorf("ai_generate_failed: %w", err)
	}

	insight, ok := parseInsight(reply)
	if !ok {
		return PlaceholderInsight(filePath), nil
	}

	insight.clamp()
	return insight, nil
}

/*
PlaceholderInsight produces deterministic filler scores for a file.

Description: Seeded from the file path so repeated runs over the same tree
stay stable. Used when no model is configured and when a reply is unusable.
*/
func PlaceholderInsight(filePath string) Insight {
	seed := fnv.New64a()
	_, _ = seed.Write([]byte(filePath))
	random := rand.New(rand.NewSource(int64(seed.Sum64())))

	return Insight{
		QualityScore:     60 + random.Float64()*40,
		SecurityScore:    60 + random.Float64()*40,
		PerformanceScore: 60 + random.Float64()*40,
		Suggestions:      []string{"Add automated review by configuring an AI API key."},
		Summary:          "Automated review unavailable; placeholder scores assigned.",
	}
}

// parseInsight extracts the JSON object from a model reply, tolerating
// markdown code fences around it.
func parseInsight(reply string) (Insight, bool) {
	trimmed := strings.TrimSpace(reply)

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return Insight{}, false
	}

	var insight Insight
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &insight); err != nil {
		return Insight{}, false
	}

	return insight, true
}

// clamp forces every score into [0, 100].
func (insight *Insight) clamp() {
	insight.QualityScore = clampScore(insight.QualityScore)
	insight.SecurityScore = clampScore(insight.SecurityScore)
	insight.PerformanceScore = clampScore(insight.PerformanceScore)
}

func clampScore(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
