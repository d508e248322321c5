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


// Package evaluate runs the benchmark question-answering loop: retrieve
// context from the memory service, generate an answer, grade it against the
// gold answer.
package evaluate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/membench/ai"
	"github.com/poiesic/membench/config"
	"github.com/poiesic/membench/core"
	"github.com/poiesic/membench/memory"
	"github.com/poiesic/membench/retry"
)

// Pipeline evaluates benchmark questions under a bounded concurrency cap.
// All questions share a single worker pool of the configured size.
type Pipeline struct {
	svc     memory.Service
	models  ai.Provider
	cfg     *config.Config
	pool    *ants.Pool
	policy  retry.Policy
	builder *ContextBuilder
	logger  *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithContextBuilder overrides the token-budgeted context builder.
func WithContextBuilder(builder *ContextBuilder) Option {
	return func(p *Pipeline) error {
		p.builder = builder
		return nil
	}
}

// NewPipeline creates an evaluation pipeline.
func NewPipeline(svc memory.Service, models ai.Provider, cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if svc == nil {
		return nil, ErrServiceRequired
	}
	if models == nil {
		return nil, ErrProviderRequired
	}
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	pool, err := ants.NewPool(cfg.Evaluation.Concurrency)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		svc:    svc,
		models: models,
		cfg:    cfg,
		pool:   pool,
		policy: retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			Retryable:   memory.IsTransient,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	if p.builder == nil {
		p.builder = NewContextBuilder(cfg.Models.ResponseModel, cfg.Evaluation.ContextTokenBudget)
	}

	return p, nil
}

// Evaluate processes every question and returns one result per question.
// The output order is completion order, not submission order; it is stable
// within a run but only best-effort across runs, so consumers diff on
// question IDs rather than positions. A failed question yields a result
// with its Failure field set instead of aborting the batch.
func (p *Pipeline) Evaluate(ctx context.Context, questions []core.Question) ([]core.EvaluationResult, error) {
	p.logger.Info("starting evaluation",
		"questions", len(questions),
		"concurrency", p.cfg.Evaluation.Concurrency)

	results := make([]core.EvaluationResult, 0, len(questions))

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, q := range questions {
		q := q
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()

			result := p.evaluateQuestion(ctx, q)
			if result.Failed() {
				p.logger.Warn("question failed", "question", q.ID, "failure", result.Failure)
			} else {
				p.logger.Debug("question evaluated",
					"question", q.ID,
					"correct", result.Grade.Correct(),
					"total", result.TotalDuration)
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			results = append(results, core.EvaluationResult{
				QuestionID: q.ID,
				UserID:     q.UserID,
				Category:   q.Category,
				Question:   q.Text,
				GoldAnswer: q.GoldAnswer,
				Failure:    fmt.Sprintf("%v: %v", ErrResponseFailed, submitErr),
			})
			mu.Unlock()
		}
	}

	wg.Wait()

	failed := 0
	for i := range results {
		if results[i].Failed() {
			failed++
		}
	}
	p.logger.Info("evaluation complete", "results", len(results), "failed", failed)

	return results, nil
}

// evaluateQuestion runs the retrieve, respond, grade sequence for one
// question. Every network call is bounded by the configured timeout and
// wrapped in the shared retry policy.
func (p *Pipeline) evaluateQuestion(ctx context.Context, q core.Question) core.EvaluationResult {
	result := core.EvaluationResult{
		QuestionID: q.ID,
		UserID:     q.UserID,
		Category:   q.Category,
		Question:   q.Text,
		GoldAnswer: q.GoldAnswer,
	}

	limits := memory.RetrievalLimits{
		Edges:    p.cfg.Retrieval.EdgeLimit,
		Nodes:    p.cfg.Retrieval.NodeLimit,
		Episodes: p.cfg.Retrieval.EpisodeLimit,
		Reranker: p.cfg.Retrieval.EdgeReranker,
	}

	var mctx *memory.Context
	retrievalStart := time.Now()
	err := p.policy.Do(ctx, func() error {
		callCtx, cancel := p.callContext(ctx)
		defer cancel()
		var retrieveErr error
		mctx, retrieveErr = p.svc.RetrieveContext(callCtx, q.UserID, q.Text, limits)
		return retrieveErr
	})
	result.RetrievalDuration = time.Since(retrievalStart)
	if err != nil {
		result.Failure = fmt.Sprintf("%v: %v", ErrRetrievalFailed, err)
		result.TotalDuration = result.RetrievalDuration
		return result
	}

	contextText, tokens := p.builder.Build(mctx)
	result.Context = contextText
	result.ContextTokens = tokens
	result.ContextChars = len(contextText)

	var hypothesis string
	responseStart := time.Now()
	err = p.policy.Do(ctx, func() error {
		callCtx, cancel := p.callContext(ctx)
		defer cancel()
		var respondErr error
		hypothesis, respondErr = p.models.Responder().Respond(callCtx, q.Text, contextText)
		return respondErr
	})
	result.ResponseDuration = time.Since(responseStart)
	result.TotalDuration = result.RetrievalDuration + result.ResponseDuration
	if err != nil {
		result.Failure = fmt.Sprintf("%v: %v", ErrResponseFailed, err)
		return result
	}
	result.Hypothesis = hypothesis

	// Grading runs under the same timeout policy, but its duration is
	// not part of the reported total.
	var grade *core.Grade
	err = p.policy.Do(ctx, func() error {
		callCtx, cancel := p.callContext(ctx)
		defer cancel()
		var gradeErr error
		grade, gradeErr = p.models.Grader().Grade(callCtx, q.Text, q.GoldAnswer, hypothesis)
		return gradeErr
	})
	if err != nil {
		result.Failure = fmt.Sprintf("%v: %v", ErrGradingFailed, err)
		return result
	}
	result.Grade = grade

	return result
}

func (p *Pipeline) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.cfg.CallTimeout)
}

// Release releases the worker pool. The pipeline should not be used after
// calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
