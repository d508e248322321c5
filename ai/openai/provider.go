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
	"log/slog"

	"github.com/poiesic/membench/ai"
	"github.com/poiesic/membench/config"
)

// Provider implements ai.Provider using OpenAI-compatible chat APIs.
// It manages responder and grader instances sharing one endpoint.
type Provider struct {
	responder *Responder
	grader    *Grader
	logger    *slog.Logger
}

// NewProvider creates model services from the model configuration and API
// key. Returns ai.Provider to keep callers decoupled from this package.
func NewProvider(cfg config.ModelConfig, apiKey string) (ai.Provider, error) {
	responder, err := newResponder(cfg, apiKey)
	if err != nil {
		return nil, err
	}

	grader, err := newGrader(cfg, apiKey)
	if err != nil {
		return nil, err
	}

	return &Provider{
		responder: responder,
		grader:    grader,
		logger:    slog.Default().With("component", "openai-provider"),
	}, nil
}

// Responder returns the response-generation service.
func (p *Provider) Responder() ai.Responder {
	return p.responder
}

// Grader returns the grading service.
func (p *Provider) Grader() ai.Grader {
	return p.grader
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
