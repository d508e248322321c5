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


package badger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/membench/core"
	"github.com/poiesic/membench/storage"
)

// RunRepository implements storage.RunRepository for BadgerDB.
// Values are stored as JSON so the archive stays inspectable with standard
// tooling.
type RunRepository struct {
	backend *Backend
}

var _ storage.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository.
func NewRunRepository(backend *Backend) (*RunRepository, error) {
	if backend == nil {
		return nil, storage.ErrBackendRequired
	}
	return &RunRepository{backend: backend}, nil
}

// SaveRun archives a run summary.
func (r *RunRepository) SaveRun(ctx context.Context, summary *core.RunSummary) error {
	value, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to serialize run summary: %w", err)
	}

	key := makeRunKey(summary.StartedAt, summary.ID)
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(key, value); err != nil {
			return err
		}
		if err := tx.Set(makeRunIDKey(summary.ID), key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetRun retrieves a run summary by ID.
func (r *RunRepository) GetRun(ctx context.Context, id string) (*core.RunSummary, error) {
	var summary *core.RunSummary
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeRunIDKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrRunNotFound
			}
			return err
		}

		var primaryKey []byte
		if err := item.Value(func(val []byte) error {
			primaryKey = append([]byte(nil), val...)
			return nil
		}); err != nil {
			return err
		}

		item, err = tx.Get(primaryKey)
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrRunNotFound
			}
			return err
		}

		return item.Value(func(val []byte) error {
			summary = &core.RunSummary{}
			return json.Unmarshal(val, summary)
		})
	}, false)

	return summary, err
}

// ListRuns returns archived runs, newest first.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]*core.RunSummary, error) {
	var summaries []*core.RunSummary
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := tx.NewIterator(opts)
		defer it.Close()

		prefix := runKeyPrefix()
		// Reverse iteration starts past the last key under the prefix.
		seek := append(append([]byte(nil), prefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(summaries) >= limit {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				summary := &core.RunSummary{}
				if err := json.Unmarshal(val, summary); err != nil {
					return err
				}
				summaries = append(summaries, summary)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	return summaries, err
}

// Close releases the repository. The backend is owned by the caller and is
// closed separately.
func (r *RunRepository) Close() error {
	return nil
}
