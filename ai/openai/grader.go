// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/membench/ai"
	"github.com/poiesic/membench/config"
	"github.com/poiesic/membench/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Grader implements ai.Grader using an OpenAI-compatible chat API.
// Grading always runs at temperature zero with JSON mode enabled.
type Grader struct {
	client llms.Model
	logger *slog.Logger
}

// verdictPayload matches the JSON structure the judge model is asked for.
type verdictPayload struct {
	Verdict   string `json:"verdict"`
	Reasoning string `json:"reasoning"`
}

func newGrader(cfg config.ModelConfig, apiKey string) (*Grader, error) {
	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(apiKey),
		openai.WithModel(cfg.GraderModel),
	)
	if err != nil {
		return nil, err
	}

	return &Grader{
		client: client,
		logger: slog.Default().With("component", "openai-grader"),
	}, nil
}

// NewGrader creates a grading service.
//
// Returns ai.Grader interface to enforce abstraction.
func NewGrader(cfg config.ModelConfig, apiKey string) (ai.Grader, error) {
	return newGrader(cfg, apiKey)
}

// Grade compares the hypothesis to the gold answer. Malformed JSON from the
// judge is re-asked up to 3 times before the grading attempt fails.
func (g *Grader) Grade(ctx context.Context, question, goldAnswer, hypothesis string) (*core.Grade, error) {
	var user strings.Builder
	user.WriteString("QUESTION: ")
	user.WriteString(question)
	user.WriteString("\nGOLD ANSWER: ")
	user.WriteString(goldAnswer)
	user.WriteString("\nHYPOTHESIS: ")
	user.WriteString(hypothesis)

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(graderSystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(user.String()),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := g.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			return nil, err
		}

		if len(response.Choices) < 1 {
			return nil, ErrNoChoices
		}

		grade, err := parseGradeResponse(response.Choices[0].Content)
		if err != nil {
			lastErr = err
			g.logger.Warn("error parsing judge response",
				"attempt", attempt+1,
				"response", response.Choices[0].Content,
				"err", err)
			continue
		}

		return grade, nil
	}

	g.logger.Error("failed to parse judge response after retries", "err", lastErr)
	return nil, lastErr
}

// parseGradeResponse turns judge output into a Grade. It tolerates markdown
// code fences and case differences in the verdict.
func parseGradeResponse(text string) (*core.Grade, error) {
	// Strip markdown code fences if present
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var payload verdictPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, err
	}

	switch strings.ToUpper(strings.TrimSpace(payload.Verdict)) {
	case string(core.VerdictCorrect):
		return &core.Grade{Verdict: core.VerdictCorrect, Reasoning: payload.Reasoning}, nil
	case string(core.VerdictIncorrect), "WRONG":
		return &core.Grade{Verdict: core.VerdictIncorrect, Reasoning: payload.Reasoning}, nil
	default:
		return nil, fmt.Errorf("unrecognized verdict %q", payload.Verdict)
	}
}
