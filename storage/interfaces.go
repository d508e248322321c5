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


// Package storage defines persistence interfaces for the local run archive.
// The archive is an index of past benchmark runs; the run directories
// themselves remain the source of truth.
package storage

import (
	"context"

	"github.com/poiesic/membench/core"
)

// RunRepository archives benchmark run summaries.
// Implementations must be safe for concurrent use.
type RunRepository interface {
	// SaveRun archives a run summary. Saving an existing ID overwrites it.
	SaveRun(ctx context.Context, summary *core.RunSummary) error

	// GetRun retrieves a run summary by ID.
	// Returns ErrRunNotFound when no such run exists.
	GetRun(ctx context.Context, id string) (*core.RunSummary, error)

	// ListRuns returns archived runs, newest first, up to limit.
	// A non-positive limit returns all runs.
	ListRuns(ctx context.Context, limit int) ([]*core.RunSummary, error)

	// Close releases resources held by the repository.
	Close() error
}
