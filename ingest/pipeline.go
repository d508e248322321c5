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


package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/membench/checkpoint"
	"github.com/poiesic/membench/config"
	"github.com/poiesic/membench/core"
	"github.com/poiesic/membench/memory"
	"github.com/poiesic/membench/retry"
)

// Pipeline submits transcript units to the memory service under a bounded
// concurrency cap, recording completions in the checkpoint store so a
// resumed run processes exactly the units that have not completed yet.
type Pipeline struct {
	svc      memory.Service
	store    *checkpoint.Store
	cfg      *config.Config
	pool     *ants.Pool
	policy   retry.Policy
	logger   *slog.Logger
	progress io.Writer
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

// WithProgressWriter sets where progress lines are written.
// A nil writer disables progress reporting.
func WithProgressWriter(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// NewPipeline creates an ingestion pipeline. The worker pool size comes
// from the ingestion concurrency setting.
func NewPipeline(svc memory.Service, store *checkpoint.Store, cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if svc == nil {
		return nil, ErrServiceRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	pool, err := ants.NewPool(cfg.Ingestion.Concurrency)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		svc:   svc,
		store: store,
		cfg:   cfg,
		pool:  pool,
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

	return p, nil
}

// Report summarizes one ingestion pass.
type Report struct {
	Total     int // Units derived from the transcripts
	Skipped   int // Units already checkpointed from a previous run
	Succeeded int // Units submitted and checkpointed this pass
	Failed    int // Units that exhausted retries
}

// Ingest submits every pending unit. Units already marked done are skipped.
// A unit is marked done only after all of its chunk batches have been
// accepted; a permanently failed unit is counted and logged but does not
// abort the remaining units.
func (p *Pipeline) Ingest(ctx context.Context, transcripts []core.Transcript) (*Report, error) {
	units := BuildUnits(transcripts, p.cfg.Ingestion)

	report := &Report{Total: len(units)}

	var pending []core.Unit
	for _, unit := range units {
		if p.store.IsDone(unit.ID) {
			report.Skipped++
			continue
		}
		pending = append(pending, unit)
	}

	p.logger.Info("starting ingestion",
		"units", report.Total,
		"pending", len(pending),
		"skipped", report.Skipped,
		"concurrency", p.cfg.Ingestion.Concurrency)

	tracker := newProgressTracker(p.progress, len(pending), 1)

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, unit := range pending {
		unit := unit
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			defer tracker.Increment(1)

			if err := p.submitUnit(ctx, unit); err != nil {
				p.logger.Error("unit permanently failed", "unit", unit.ID, "err", err)
				mu.Lock()
				report.Failed++
				mu.Unlock()
				return
			}

			if err := p.store.MarkDone(unit.ID); err != nil {
				// The submission landed; the unit will simply be
				// re-submitted on the next run.
				p.logger.Warn("failed to checkpoint unit", "unit", unit.ID, "err", err)
			}

			mu.Lock()
			report.Succeeded++
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			report.Failed++
			mu.Unlock()
			p.logger.Error("failed to schedule unit", "unit", unit.ID, "err", submitErr)
		}
	}

	wg.Wait()
	tracker.Finish()

	p.logger.Info("ingestion complete",
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"skipped", report.Skipped)

	return report, nil
}

// submitUnit sends the unit's chunk batches in order. Each batch gets the
// full retry budget; the first batch that exhausts it fails the unit.
func (p *Pipeline) submitUnit(ctx context.Context, unit core.Unit) error {
	batches := batchChunks(unit.Chunks, p.cfg.Ingestion.MaxChunksPerRequest)
	for i, batch := range batches {
		err := p.policy.Do(ctx, func() error {
			callCtx, cancel := p.callContext(ctx)
			defer cancel()
			return p.svc.AddConversation(callCtx, unit.UserID, unit.ID, batch)
		})
		if err != nil {
			return fmt.Errorf("%w: batch %d/%d: %w", ErrUnitFailed, i+1, len(batches), err)
		}
	}
	return nil
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
