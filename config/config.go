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


package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EdgeRerankers enumerates the reranking strategies the memory service
// accepts for edge retrieval.
var EdgeRerankers = []string{
	"rrf",
	"mmr",
	"cross_encoder",
	"node_distance",
	"episode_mentions",
}

// IngestionConfig controls transcript chunking and submission.
type IngestionConfig struct {
	// Concurrency is the number of units submitted in flight at once.
	Concurrency int `yaml:"concurrency"`

	// MaxChunkChars is the character budget for a single chunk.
	MaxChunkChars int `yaml:"max_chunk_chars"`

	// ChunkOverlapChars is how many characters of trailing content are
	// repeated at the start of the next chunk.
	ChunkOverlapChars int `yaml:"chunk_overlap_chars"`

	// MaxChunksPerRequest caps how many chunks go into one network
	// submission. Independent of the character budget.
	MaxChunksPerRequest int `yaml:"max_chunks_per_request"`
}

// EvaluationConfig controls the question-answering loop.
type EvaluationConfig struct {
	// Concurrency is the number of questions evaluated in flight at once.
	Concurrency int `yaml:"concurrency"`

	// ContextTokenBudget caps the assembled context given to the
	// response model, measured in tokens.
	ContextTokenBudget int `yaml:"context_token_budget"`
}

// RetrievalConfig caps what the memory service returns per question.
type RetrievalConfig struct {
	// EdgeLimit is the maximum number of graph edges (facts) retrieved.
	// Must be in [1, 100].
	EdgeLimit int `yaml:"edge_limit"`

	// EdgeReranker selects the service-side reranking strategy.
	// Must be one of EdgeRerankers.
	EdgeReranker string `yaml:"edge_reranker"`

	// NodeLimit is the maximum number of entity nodes retrieved.
	NodeLimit int `yaml:"node_limit"`

	// EpisodeLimit is the maximum number of episodes retrieved.
	EpisodeLimit int `yaml:"episode_limit"`
}

// ModelConfig selects the models used for response generation and grading.
type ModelConfig struct {
	// ResponseModel answers benchmark questions.
	ResponseModel string `yaml:"response_model"`

	// GraderModel judges hypotheses against gold answers.
	GraderModel string `yaml:"grader_model"`

	// Temperature applies to response generation only; grading always
	// runs at temperature zero. Must be in [0.0, 2.0].
	Temperature float64 `yaml:"temperature"`

	// BaseURL is the OpenAI-compatible endpoint serving both models.
	BaseURL string `yaml:"base_url"`
}

// RetryConfig is the single retry policy applied to every external call.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

// Config is the full benchmark configuration. It is constructed once at
// process start, validated, and passed read-only into every pipeline stage.
type Config struct {
	Ingestion  IngestionConfig  `yaml:"ingestion"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Models     ModelConfig      `yaml:"models"`
	Retry      RetryConfig      `yaml:"retry"`

	// CallTimeout bounds each individual network call. A timed-out call
	// takes the same retry path as any other transient failure.
	CallTimeout time.Duration `yaml:"call_timeout"`

	// OutputDir is where run directories are created.
	OutputDir string `yaml:"output_dir"`
}

// Default returns a Config with sensible defaults for the hosted memory
// service and OpenAI-compatible model endpoints.
func Default() *Config {
	return &Config{
		Ingestion: IngestionConfig{
			Concurrency:         4,
			MaxChunkChars:       6000,
			ChunkOverlapChars:   400,
			MaxChunksPerRequest: 10,
		},
		Evaluation: EvaluationConfig{
			Concurrency:        4,
			ContextTokenBudget: 4096,
		},
		Retrieval: RetrievalConfig{
			EdgeLimit:    20,
			EdgeReranker: "rrf",
			NodeLimit:    10,
			EpisodeLimit: 5,
		},
		Models: ModelConfig{
			ResponseModel: "gpt-4o-mini",
			GraderModel:   "gpt-4o",
			Temperature:   0.0,
			BaseURL:       "https://api.openai.com/v1",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
		},
		CallTimeout: 60 * time.Second,
		OutputDir:   "experiments",
	}
}

// Load reads a Config from a YAML file. Unknown fields are rejected so
// typos surface immediately instead of silently falling back to defaults.
// A present but unparsable config file is a fatal error; there is no safe
// default to fall back to.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save serializes the Config to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// Validate checks that every numeric field is inside its allowed range.
// Invalid values fail validation rather than being clamped.
func (c *Config) Validate() error {
	if c.Ingestion.Concurrency < 1 {
		return fmt.Errorf("%w: ingestion.concurrency must be at least 1", ErrInvalidConfig)
	}
	if c.Ingestion.MaxChunkChars < 1 {
		return fmt.Errorf("%w: ingestion.max_chunk_chars must be at least 1", ErrInvalidConfig)
	}
	if c.Ingestion.ChunkOverlapChars < 0 {
		return fmt.Errorf("%w: ingestion.chunk_overlap_chars cannot be negative", ErrInvalidConfig)
	}
	if c.Ingestion.ChunkOverlapChars >= c.Ingestion.MaxChunkChars {
		return fmt.Errorf("%w: ingestion.chunk_overlap_chars must be smaller than max_chunk_chars", ErrInvalidConfig)
	}
	if c.Ingestion.MaxChunksPerRequest < 1 {
		return fmt.Errorf("%w: ingestion.max_chunks_per_request must be at least 1", ErrInvalidConfig)
	}

	if c.Evaluation.Concurrency < 1 {
		return fmt.Errorf("%w: evaluation.concurrency must be at least 1", ErrInvalidConfig)
	}
	if c.Evaluation.ContextTokenBudget < 1 {
		return fmt.Errorf("%w: evaluation.context_token_budget must be at least 1", ErrInvalidConfig)
	}

	if c.Retrieval.EdgeLimit < 1 || c.Retrieval.EdgeLimit > 100 {
		return fmt.Errorf("%w: retrieval.edge_limit must be between 1 and 100", ErrInvalidConfig)
	}
	if !validReranker(c.Retrieval.EdgeReranker) {
		return fmt.Errorf("%w: retrieval.edge_reranker %q is not one of %v", ErrInvalidConfig, c.Retrieval.EdgeReranker, EdgeRerankers)
	}
	if c.Retrieval.NodeLimit < 0 {
		return fmt.Errorf("%w: retrieval.node_limit cannot be negative", ErrInvalidConfig)
	}
	if c.Retrieval.EpisodeLimit < 0 {
		return fmt.Errorf("%w: retrieval.episode_limit cannot be negative", ErrInvalidConfig)
	}

	if c.Models.ResponseModel == "" {
		return fmt.Errorf("%w: models.response_model is required", ErrInvalidConfig)
	}
	if c.Models.GraderModel == "" {
		return fmt.Errorf("%w: models.grader_model is required", ErrInvalidConfig)
	}
	if c.Models.Temperature < 0.0 || c.Models.Temperature > 2.0 {
		return fmt.Errorf("%w: models.temperature must be between 0.0 and 2.0", ErrInvalidConfig)
	}
	if c.Models.BaseURL == "" {
		return fmt.Errorf("%w: models.base_url is required", ErrInvalidConfig)
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: retry.max_attempts must be at least 1", ErrInvalidConfig)
	}
	if c.Retry.BaseDelay < 0 {
		return fmt.Errorf("%w: retry.base_delay cannot be negative", ErrInvalidConfig)
	}

	if c.CallTimeout <= 0 {
		return fmt.Errorf("%w: call_timeout must be positive", ErrInvalidConfig)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir is required", ErrInvalidConfig)
	}

	return nil
}

func validReranker(name string) bool {
	for _, r := range EdgeRerankers {
		if name == r {
			return true
		}
	}
	return false
}
