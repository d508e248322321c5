package badger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/membench/core"
	"github.com/poiesic/membench/storage"
)

func TestRunRepositoryBasics(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()

	summary := &core.RunSummary{
		ID:        "run-1",
		StartedAt: time.Now().UTC().Truncate(time.Microsecond),
		Dataset:   "locomo",
		Dir:       "experiments/run_20260828_120000",
		Total:     10,
		Graded:    9,
		Correct:   7,
		Excluded:  1,
		Accuracy:  7.0 / 9.0,
	}

	if err := repo.SaveRun(ctx, summary); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}

	retrieved, err := repo.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}

	if retrieved.Dataset != "locomo" {
		t.Fatalf("Expected dataset 'locomo', got '%s'", retrieved.Dataset)
	}
	if retrieved.Correct != 7 {
		t.Fatalf("Expected 7 correct, got %d", retrieved.Correct)
	}
	if !retrieved.StartedAt.Equal(summary.StartedAt) {
		t.Fatalf("Expected start time %v, got %v", summary.StartedAt, retrieved.StartedAt)
	}
}

func TestRunRepositoryNotFound(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	_, err = repo.GetRun(context.Background(), "missing")
	if !errors.Is(err, storage.ErrRunNotFound) {
		t.Fatalf("Expected ErrRunNotFound, got %v", err)
	}
}

func TestRunRepositoryListNewestFirst(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	for i := 0; i < 5; i++ {
		summary := &core.RunSummary{
			ID:        fmt.Sprintf("run-%d", i),
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := repo.SaveRun(ctx, summary); err != nil {
			t.Fatalf("Failed to save run %d: %v", i, err)
		}
	}

	runs, err := repo.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 5 {
		t.Fatalf("Expected 5 runs, got %d", len(runs))
	}
	for i := 0; i < 4; i++ {
		if runs[i].StartedAt.Before(runs[i+1].StartedAt) {
			t.Fatalf("Runs out of order at %d: %v before %v", i, runs[i].StartedAt, runs[i+1].StartedAt)
		}
	}
	if runs[0].ID != "run-4" {
		t.Fatalf("Expected newest run first, got '%s'", runs[0].ID)
	}

	limited, err := repo.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("Failed to list limited runs: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(limited))
	}
	if limited[0].ID != "run-4" || limited[1].ID != "run-3" {
		t.Fatalf("Unexpected limited order: %s, %s", limited[0].ID, limited[1].ID)
	}
}

func TestRunRepositoryOverwriteByID(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()
	started := time.Now().UTC().Truncate(time.Microsecond)

	first := &core.RunSummary{ID: "run-1", StartedAt: started, Correct: 1}
	if err := repo.SaveRun(ctx, first); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}

	second := &core.RunSummary{ID: "run-1", StartedAt: started, Correct: 2}
	if err := repo.SaveRun(ctx, second); err != nil {
		t.Fatalf("Failed to re-save run: %v", err)
	}

	retrieved, err := repo.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if retrieved.Correct != 2 {
		t.Fatalf("Expected latest write to win, got %d", retrieved.Correct)
	}
}

func TestNewRunRepositoryRequiresBackend(t *testing.T) {
	_, err := NewRunRepository(nil)
	if !errors.Is(err, storage.ErrBackendRequired) {
		t.Fatalf("Expected ErrBackendRequired, got %v", err)
	}
}
