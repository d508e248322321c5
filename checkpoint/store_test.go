package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/poiesic/membench/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "checkpoint.json"), nil)
	require.NoError(t, store.Load(), "a missing checkpoint file is a normal first run")
	assert.Empty(t, store.Done())
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0644))

	store := NewStore(path, nil)
	require.NoError(t, store.Load(), "a corrupt checkpoint must not block resumption")
	assert.Empty(t, store.Done())
}

func TestMarkDonePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")

	store := NewStore(path, nil)
	require.NoError(t, store.Load())
	require.NoError(t, store.MarkDone("unit-a"))
	require.NoError(t, store.MarkDone("unit-b"))

	assert.True(t, store.IsDone("unit-a"))
	assert.True(t, store.IsDone("unit-b"))
	assert.False(t, store.IsDone("unit-c"))

	// A fresh store reading the same file sees the same completions.
	reloaded := NewStore(path, nil)
	require.NoError(t, reloaded.Load())
	assert.True(t, reloaded.IsDone("unit-a"))
	assert.True(t, reloaded.IsDone("unit-b"))
	assert.False(t, reloaded.IsDone("unit-c"))
}

func TestMarkDoneIdempotent(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "checkpoint.json"), nil)
	require.NoError(t, store.Load())

	require.NoError(t, store.MarkDone("unit-a"))
	require.NoError(t, store.MarkDone("unit-a"))

	assert.Len(t, store.Done(), 1)
}

func TestConcurrentMarkDoneNoLostUpdates(t *testing.T) {
	const workers = 32
	path := filepath.Join(t.TempDir(), "checkpoint.json")

	store := NewStore(path, nil)
	require.NoError(t, store.Load())

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.MarkDone(core.UnitID(fmt.Sprintf("unit-%03d", i)))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "worker %d", i)
	}

	// Every completion survives in memory and on disk.
	assert.Len(t, store.Done(), workers)

	reloaded := NewStore(path, nil)
	require.NoError(t, reloaded.Load())
	assert.Len(t, reloaded.Done(), workers)
	for i := 0; i < workers; i++ {
		assert.True(t, reloaded.IsDone(core.UnitID(fmt.Sprintf("unit-%03d", i))))
	}
}

func TestFlushLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "checkpoint.json"), nil)
	require.NoError(t, store.Load())
	require.NoError(t, store.MarkDone("unit-a"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "checkpoint.json", entries[0].Name())
}
