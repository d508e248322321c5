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
	"errors"
	"log/slog"
	"strings"

	"github.com/poiesic/membench/ai"
	"github.com/poiesic/membench/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrNoChoices is returned when the model produces an empty response.
var ErrNoChoices = errors.New("no choices returned from model")

// Responder implements ai.Responder using an OpenAI-compatible chat API.
type Responder struct {
	client      llms.Model
	temperature float64
	logger      *slog.Logger
}

func newResponder(cfg config.ModelConfig, apiKey string) (*Responder, error) {
	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(apiKey),
		openai.WithModel(cfg.ResponseModel),
	)
	if err != nil {
		return nil, err
	}

	return &Responder{
		client:      client,
		temperature: cfg.Temperature,
		logger:      slog.Default().With("component", "openai-responder"),
	}, nil
}

// NewResponder creates a response-generation service.
//
// Returns ai.Responder interface to enforce abstraction.
func NewResponder(cfg config.ModelConfig, apiKey string) (ai.Responder, error) {
	return newResponder(cfg, apiKey)
}

// Respond answers the question using the retrieved memory context.
func (r *Responder) Respond(ctx context.Context, question, memoryContext string) (string, error) {
	var user strings.Builder
	user.WriteString("MEMORY CONTEXT:\n")
	if memoryContext == "" {
		user.WriteString("(no context retrieved)\n")
	} else {
		user.WriteString(memoryContext)
		user.WriteString("\n")
	}
	user.WriteString("\nQUESTION: ")
	user.WriteString(question)

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(responderSystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(user.String()),
			},
		},
	}

	response, err := r.client.GenerateContent(ctx, content, llms.WithTemperature(r.temperature))
	if err != nil {
		return "", err
	}

	if len(response.Choices) < 1 {
		return "", ErrNoChoices
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}
