package results

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/membench/config"
	"github.com/poiesic/membench/core"
	"github.com/poiesic/membench/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() []core.EvaluationResult {
	return []core.EvaluationResult{
		{
			QuestionID: "q1",
			UserID:     "user1",
			Question:   "where does alice live",
			GoldAnswer: "Paris",
			Hypothesis: "She lives in Paris",
			Grade:      &core.Grade{Verdict: core.VerdictCorrect},
		},
		{
			QuestionID: "q2",
			UserID:     "user1",
			Question:   "what does bob paint",
			GoldAnswer: "landscapes",
			Failure:    "retrieval failed: boom",
		},
	}
}

func TestSaveRunWritesArtifacts(t *testing.T) {
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()

	results := sampleResults()
	metrics, latency, tokens := stats.Aggregate(results)

	dir, err := SaveRun(cfg, metrics, latency, tokens, results, "")
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.True(t, len(filepath.Base(dir)) >= len("run_20060102_150405"))

	data, err := os.ReadFile(filepath.Join(dir, "results.json"))
	require.NoError(t, err)

	var doc struct {
		Config  *config.Config          `json:"config"`
		Metrics map[string]any          `json:"metrics"`
		Results []core.EvaluationResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, cfg.Retrieval, doc.Config.Retrieval)
	assert.Equal(t, float64(2), doc.Metrics["total"])
	assert.Equal(t, float64(1), doc.Metrics["graded"])
	assert.Equal(t, float64(1), doc.Metrics["excluded"])
	require.Len(t, doc.Results, 2)
	assert.Equal(t, "q1", doc.Results[0].QuestionID)
	assert.Equal(t, "retrieval failed: boom", doc.Results[1].Failure)

	// The run used in-memory defaults, so the snapshot is a fresh
	// serialization that round-trips through the config loader.
	snapshot, err := config.Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, cfg, snapshot)
}

func TestSaveRunSnapshotsSourceVerbatim(t *testing.T) {
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()

	source := filepath.Join(t.TempDir(), "config.yaml")
	content := "# experiment three, higher edge limit\nretrieval:\n  edge_limit: 50\n"
	require.NoError(t, os.WriteFile(source, []byte(content), 0644))

	metrics, latency, tokens := stats.Aggregate(nil)
	dir, err := SaveRun(cfg, metrics, latency, tokens, nil, source)
	require.NoError(t, err)

	snapshot, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, content, string(snapshot), "snapshot must preserve the source bytes, comments included")
}

func TestSaveRunEmptyResultsIsValidJSON(t *testing.T) {
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()

	metrics, latency, tokens := stats.Aggregate(nil)
	dir, err := SaveRun(cfg, metrics, latency, tokens, nil, "")
	require.NoError(t, err, "an empty run must still produce a valid artifact")

	data, err := os.ReadFile(filepath.Join(dir, "results.json"))
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestCreateRunDirSameSecondCollision(t *testing.T) {
	outputDir := t.TempDir()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	first, err := createRunDir(outputDir, now)
	require.NoError(t, err)

	second, err := createRunDir(outputDir, now)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "same-second runs must get distinct directories")
	assert.DirExists(t, first)
	assert.DirExists(t, second)
}
