package ingest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/membench/checkpoint"
	"github.com/poiesic/membench/config"
	"github.com/poiesic/membench/core"
	"github.com/poiesic/membench/memory/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Ingestion.Concurrency = 2
	cfg.Ingestion.MaxChunkChars = 200
	cfg.Ingestion.ChunkOverlapChars = 40
	cfg.Ingestion.MaxChunksPerRequest = 2
	cfg.Retry.MaxAttempts = 3
	cfg.Retry.BaseDelay = 5 * time.Millisecond
	cfg.CallTimeout = time.Second
	return cfg
}

func testStore(t *testing.T) *checkpoint.Store {
	t.Helper()
	store := checkpoint.NewStore(filepath.Join(t.TempDir(), "checkpoint.json"), nil)
	require.NoError(t, store.Load())
	return store
}

func testTranscripts(n int) []core.Transcript {
	var transcripts []core.Transcript
	for i := 0; i < n; i++ {
		transcripts = append(transcripts, core.Transcript{
			ID:     string(rune('a' + i)),
			UserID: "user1",
			Sessions: []core.Session{
				{Index: 1, Turns: []core.Turn{
					{Speaker: "Ana", Text: "how was the trip"},
					{Speaker: "Bo", Text: "pretty good, lots of hiking"},
				}},
			},
		})
	}
	return transcripts
}

func TestIngestAllUnits(t *testing.T) {
	svc := mock.NewService()
	store := testStore(t)

	p, err := NewPipeline(svc, store, testConfig())
	require.NoError(t, err)
	defer p.Release()

	report, err := p.Ingest(context.Background(), testTranscripts(3))
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.Len(t, svc.SubmittedUnits(), 3)
	assert.Len(t, store.Done(), 3)
}

func TestIngestSkipsCheckpointedUnits(t *testing.T) {
	svc := mock.NewService()
	store := testStore(t)
	cfg := testConfig()
	transcripts := testTranscripts(3)

	units := BuildUnits(transcripts, cfg.Ingestion)
	require.Len(t, units, 3)
	require.NoError(t, store.MarkDone(units[0].ID))

	p, err := NewPipeline(svc, store, cfg)
	require.NoError(t, err)
	defer p.Release()

	report, err := p.Ingest(context.Background(), transcripts)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 2, report.Succeeded)
	assert.Len(t, svc.SubmittedUnits(), 2, "checkpointed unit must not be resubmitted")
}

func TestIngestRetriesTransientFailures(t *testing.T) {
	svc := mock.NewService()
	store := testStore(t)
	cfg := testConfig()
	transcripts := testTranscripts(1)

	units := BuildUnits(transcripts, cfg.Ingestion)
	require.Len(t, units, 1)
	svc.FailUnits[units[0].ID] = 2 // fail twice, then succeed

	p, err := NewPipeline(svc, store, cfg)
	require.NoError(t, err)
	defer p.Release()

	report, err := p.Ingest(context.Background(), transcripts)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.True(t, store.IsDone(units[0].ID))
}

func TestIngestPermanentFailureDoesNotAbort(t *testing.T) {
	svc := mock.NewService()
	store := testStore(t)
	cfg := testConfig()
	transcripts := testTranscripts(3)

	units := BuildUnits(transcripts, cfg.Ingestion)
	require.Len(t, units, 3)
	svc.FailUnits[units[1].ID] = 1000 // beyond any retry budget

	p, err := NewPipeline(svc, store, cfg)
	require.NoError(t, err)
	defer p.Release()

	report, err := p.Ingest(context.Background(), transcripts)
	require.NoError(t, err, "a failed unit must not abort the run")

	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.False(t, store.IsDone(units[1].ID), "failed unit must not be checkpointed")
	assert.True(t, store.IsDone(units[0].ID))
	assert.True(t, store.IsDone(units[2].ID))
}

func TestIngestResumeProcessesOnlyRemainder(t *testing.T) {
	svc := mock.NewService()
	store := testStore(t)
	cfg := testConfig()
	transcripts := testTranscripts(3)

	units := BuildUnits(transcripts, cfg.Ingestion)
	svc.FailUnits[units[2].ID] = 1000

	p, err := NewPipeline(svc, store, cfg)
	require.NoError(t, err)
	report, err := p.Ingest(context.Background(), transcripts)
	p.Release()
	require.NoError(t, err)
	require.Equal(t, 2, report.Succeeded)
	require.Equal(t, 1, report.Failed)

	// Second pass: the failure is gone; only the missing unit is submitted.
	delete(svc.FailUnits, units[2].ID)
	before := svc.AddCalls()

	p, err = NewPipeline(svc, store, cfg)
	require.NoError(t, err)
	defer p.Release()

	report, err = p.Ingest(context.Background(), transcripts)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, before+1, svc.AddCalls(), "resume must submit exactly the pending unit")
	assert.Len(t, store.Done(), 3)
}

func TestIngestBatchesLargeUnits(t *testing.T) {
	svc := mock.NewService()
	store := testStore(t)
	cfg := testConfig()
	cfg.Ingestion.MaxChunkChars = 80
	cfg.Ingestion.ChunkOverlapChars = 10
	cfg.Ingestion.MaxChunksPerRequest = 1

	transcripts := testTranscripts(1)
	units := BuildUnits(transcripts, cfg.Ingestion)
	require.Len(t, units, 1)
	require.Greater(t, len(units[0].Chunks), 1)

	p, err := NewPipeline(svc, store, cfg)
	require.NoError(t, err)
	defer p.Release()

	report, err := p.Ingest(context.Background(), transcripts)
	require.NoError(t, err)
	require.Equal(t, 1, report.Succeeded)

	assert.Equal(t, len(units[0].Chunks), svc.AddCalls(),
		"one chunk per request means one call per chunk")
	assert.Len(t, svc.Submissions()[units[0].ID], len(units[0].Chunks))
}
