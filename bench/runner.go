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


// Package bench orchestrates full benchmark runs: ingestion, evaluation,
// aggregation, and persistence of the run directory and archive record.
package bench

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/membench/ai"
	"github.com/poiesic/membench/checkpoint"
	"github.com/poiesic/membench/config"
	"github.com/poiesic/membench/core"
	"github.com/poiesic/membench/evaluate"
	"github.com/poiesic/membench/ingest"
	"github.com/poiesic/membench/memory"
	"github.com/poiesic/membench/results"
	"github.com/poiesic/membench/stats"
	"github.com/poiesic/membench/storage"
)

// ErrNothingSucceeded indicates a run where every attempted operation
// failed. Partial success is not an error; it is reported in the summary.
var ErrNothingSucceeded = errors.New("no operation succeeded")

// ErrServiceRequired indicates the runner was built without a memory service.
var ErrServiceRequired = errors.New("memory service is required")

// ErrConfigRequired indicates the runner was built without a configuration.
var ErrConfigRequired = errors.New("config is required")

// Runner wires the pipelines together for one benchmark run.
type Runner struct {
	cfg          *config.Config
	svc          memory.Service
	models       ai.Provider
	store        *checkpoint.Store
	archive      storage.RunRepository
	logger       *slog.Logger
	out          io.Writer
	progress     io.Writer
	configSource string
	datasetName  string
}

// Option configures a Runner.
type Option func(*Runner) error

// WithProvider sets the model provider. Required for evaluation; a runner
// without one can only ingest.
func WithProvider(models ai.Provider) Option {
	return func(r *Runner) error {
		r.models = models
		return nil
	}
}

// WithCheckpointStore sets the ingestion checkpoint store. Required for
// ingestion; a runner without one can only evaluate.
func WithCheckpointStore(store *checkpoint.Store) Option {
	return func(r *Runner) error {
		r.store = store
		return nil
	}
}

// WithArchive sets the run archive. Archive failures are logged, never
// fatal; the run directory on disk remains the artifact of record.
func WithArchive(archive storage.RunRepository) Option {
	return func(r *Runner) error {
		r.archive = archive
		return nil
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithOutput sets where the human-readable summary is written.
// A nil writer disables it.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) error {
		r.out = w
		return nil
	}
}

// WithProgressWriter sets where ingestion progress lines are written.
func WithProgressWriter(w io.Writer) Option {
	return func(r *Runner) error {
		r.progress = w
		return nil
	}
}

// WithConfigSource records the path of the loaded config file so the run
// directory snapshots its exact bytes.
func WithConfigSource(path string) Option {
	return func(r *Runner) error {
		r.configSource = path
		return nil
	}
}

// WithDatasetName records the dataset identifier in the archive entry.
func WithDatasetName(name string) Option {
	return func(r *Runner) error {
		r.datasetName = name
		return nil
	}
}

// NewRunner creates a benchmark runner.
func NewRunner(svc memory.Service, cfg *config.Config, opts ...Option) (*Runner, error) {
	if svc == nil {
		return nil, ErrServiceRequired
	}
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	r := &Runner{
		cfg:    cfg,
		svc:    svc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Outcome is the result of one benchmark run.
type Outcome struct {
	RunID     string
	Dir       string
	Ingestion *ingest.Report
	Results   []core.EvaluationResult
	Metrics   stats.Metrics
	Latency   stats.LatencyStats
	Tokens    stats.TokenStats
}

// Succeeded reports whether anything in the run worked. A run where every
// attempted unit and every attempted question failed is a total failure;
// everything above that is partial success.
func (o *Outcome) Succeeded() bool {
	if o.Ingestion != nil && o.Ingestion.Succeeded+o.Ingestion.Skipped > 0 {
		return true
	}
	for i := range o.Results {
		if !o.Results[i].Failed() {
			return true
		}
	}
	// A run that attempted nothing at all did not fail.
	ingestAttempted := o.Ingestion != nil && o.Ingestion.Total > 0
	return !ingestAttempted && len(o.Results) == 0
}

// Ingest runs only the ingestion phase.
func (r *Runner) Ingest(ctx context.Context, transcripts []core.Transcript) (*ingest.Report, error) {
	if r.store == nil {
		return nil, ingest.ErrStoreRequired
	}

	pipeline, err := ingest.NewPipeline(r.svc, r.store, r.cfg,
		ingest.WithLogger(r.logger),
		ingest.WithProgressWriter(r.progress))
	if err != nil {
		return nil, err
	}
	defer pipeline.Release()

	return pipeline.Ingest(ctx, transcripts)
}

// Evaluate runs only the evaluation phase and persists the run directory.
func (r *Runner) Evaluate(ctx context.Context, questions []core.Question) (*Outcome, error) {
	outcome, startedAt, err := r.evaluate(ctx, questions)
	if err != nil {
		return nil, err
	}

	r.finalize(ctx, outcome, startedAt)
	return outcome, nil
}

// evaluate runs the evaluation pipeline and persists the run directory,
// leaving archiving and summary output to the caller so a full run can
// attach its ingestion report first.
func (r *Runner) evaluate(ctx context.Context, questions []core.Question) (*Outcome, time.Time, error) {
	if r.models == nil {
		return nil, time.Time{}, evaluate.ErrProviderRequired
	}

	startedAt := time.Now()

	pipeline, err := evaluate.NewPipeline(r.svc, r.models, r.cfg,
		evaluate.WithLogger(r.logger))
	if err != nil {
		return nil, startedAt, err
	}
	defer pipeline.Release()

	evalResults, err := pipeline.Evaluate(ctx, questions)
	if err != nil {
		return nil, startedAt, err
	}

	outcome := &Outcome{
		RunID:   uuid.NewString(),
		Results: evalResults,
	}
	outcome.Metrics, outcome.Latency, outcome.Tokens = stats.Aggregate(evalResults)

	dir, err := results.SaveRun(r.cfg, outcome.Metrics, outcome.Latency, outcome.Tokens, evalResults, r.configSource)
	if err != nil {
		return nil, startedAt, err
	}
	outcome.Dir = dir

	return outcome, startedAt, nil
}

// finalize archives the completed outcome and prints the summary.
func (r *Runner) finalize(ctx context.Context, o *Outcome, startedAt time.Time) {
	r.archiveRun(ctx, o, startedAt)
	r.printSummary(o)
}

// Run executes ingestion followed by evaluation. Ingestion failures do not
// block evaluation: questions whose context never landed simply grade as
// they grade.
func (r *Runner) Run(ctx context.Context, transcripts []core.Transcript, questions []core.Question) (*Outcome, error) {
	report, err := r.Ingest(ctx, transcripts)
	if err != nil {
		return nil, err
	}

	outcome, startedAt, err := r.evaluate(ctx, questions)
	if err != nil {
		return nil, err
	}
	outcome.Ingestion = report
	r.finalize(ctx, outcome, startedAt)

	if !outcome.Succeeded() {
		return outcome, ErrNothingSucceeded
	}
	return outcome, nil
}

// archiveRun records the run in the archive repository, when one is
// configured.
func (r *Runner) archiveRun(ctx context.Context, o *Outcome, startedAt time.Time) {
	if r.archive == nil {
		return
	}

	summary := &core.RunSummary{
		ID:        o.RunID,
		StartedAt: startedAt,
		Dataset:   r.datasetName,
		Dir:       o.Dir,
		Total:     o.Metrics.Total,
		Graded:    o.Metrics.Graded,
		Correct:   o.Metrics.Correct,
		Excluded:  o.Metrics.Excluded,
		Accuracy:  o.Metrics.Accuracy,
	}
	if err := r.archive.SaveRun(ctx, summary); err != nil {
		r.logger.Warn("failed to archive run", "run", o.RunID, "err", err)
	}
}
