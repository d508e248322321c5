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


// Package checkpoint tracks which ingestion units have completed, persisted
// as a JSON file keyed by unit ID.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/poiesic/membench/core"
)

// Store is the completion ledger for ingestion units. A unit marked done is
// never reprocessed on a resumed run.
//
// MarkDone is safe to call from concurrent ingestion tasks: completions
// accumulate in memory under a mutex, and every flush serializes the full
// mapping to a temporary file followed by an atomic rename, so a partial
// write is never observable by a subsequent Load.
type Store struct {
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	done map[core.UnitID]bool
}

// NewStore creates a store backed by the given file path. Call Load before
// first use.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:   path,
		logger: logger.With("component", "checkpoint"),
		done:   make(map[core.UnitID]bool),
	}
}

// Load reads the checkpoint file. A missing file is a normal first run and
// yields an empty mapping. A corrupt file also yields an empty mapping so
// resumption is never blocked, but it is logged as a warning rather than
// silently eaten.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.done = make(map[core.UnitID]bool)
			return nil
		}
		return fmt.Errorf("failed to read checkpoint file %s: %w", s.path, err)
	}

	loaded := make(map[core.UnitID]bool)
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.logger.Warn("checkpoint file is corrupt, starting from an empty checkpoint",
			"path", s.path, "err", err)
		s.done = make(map[core.UnitID]bool)
		return nil
	}

	s.done = loaded
	return nil
}

// IsDone reports whether the unit has completed ingestion.
func (s *Store) IsDone(id core.UnitID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done[id]
}

// MarkDone records the unit as complete and persists the full mapping.
// Previously marked units always survive the write; duplicate calls are
// idempotent.
func (s *Store) MarkDone(id core.UnitID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.done[id] = true
	return s.flushLocked()
}

// Done returns a snapshot of the completed unit IDs.
func (s *Store) Done() map[core.UnitID]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[core.UnitID]bool, len(s.done))
	for id, v := range s.done {
		out[id] = v
	}
	return out
}

// flushLocked serializes the mapping to a temp file in the checkpoint's
// directory and atomically replaces the checkpoint file. Must be called
// with the mutex held.
func (s *Store) flushLocked() error {
	data, err := json.MarshalIndent(s.done, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize checkpoint: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	// Temp file must live on the same filesystem for the rename to be
	// atomic.
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp checkpoint file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp checkpoint file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp checkpoint file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	return nil
}
