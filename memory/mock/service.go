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


// Package mock provides a test double for the memory service.
package mock

import (
	"context"
	"sync"

	"github.com/poiesic/membench/core"
	"github.com/poiesic/membench/memory"
)

// Service is an in-memory test double for memory.Service.
// It records submissions, serves canned contexts, and can inject failures.
// Safe for concurrent use.
type Service struct {
	mu sync.Mutex

	// AddConversationFunc is called by AddConversation if set.
	AddConversationFunc func(ctx context.Context, userID string, unitID core.UnitID, chunks []core.Chunk) error

	// RetrieveContextFunc is called by RetrieveContext if set.
	RetrieveContextFunc func(ctx context.Context, userID, query string, limits memory.RetrievalLimits) (*memory.Context, error)

	// Contexts maps user ID to the canned retrieval result.
	Contexts map[string]*memory.Context

	// FailUnits maps unit IDs to a number of times AddConversation
	// should fail before succeeding. Use a large count for permanent
	// failure.
	FailUnits map[core.UnitID]int

	submissions map[core.UnitID][]core.Chunk
	addCalls    int
	retrieves   int
}

var _ memory.Service = (*Service)(nil)

// NewService creates a mock with empty canned data.
func NewService() *Service {
	return &Service{
		Contexts:    make(map[string]*memory.Context),
		FailUnits:   make(map[core.UnitID]int),
		submissions: make(map[core.UnitID][]core.Chunk),
	}
}

// AddConversation records the submission, honoring injected failures.
func (s *Service) AddConversation(ctx context.Context, userID string, unitID core.UnitID, chunks []core.Chunk) error {
	if s.AddConversationFunc != nil {
		return s.AddConversationFunc(ctx, userID, unitID, chunks)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.addCalls++

	if remaining, ok := s.FailUnits[unitID]; ok && remaining > 0 {
		s.FailUnits[unitID] = remaining - 1
		return memory.ErrTransient
	}

	s.submissions[unitID] = append(s.submissions[unitID], chunks...)
	return nil
}

// RetrieveContext serves the canned context for the user, or an empty one.
func (s *Service) RetrieveContext(ctx context.Context, userID, query string, limits memory.RetrievalLimits) (*memory.Context, error) {
	if s.RetrieveContextFunc != nil {
		return s.RetrieveContextFunc(ctx, userID, query, limits)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.retrieves++

	if c, ok := s.Contexts[userID]; ok {
		return c, nil
	}
	return &memory.Context{}, nil
}

// Submissions returns a copy of the chunks recorded per unit.
func (s *Service) Submissions() map[core.UnitID][]core.Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[core.UnitID][]core.Chunk, len(s.submissions))
	for id, chunks := range s.submissions {
		out[id] = append([]core.Chunk(nil), chunks...)
	}
	return out
}

// SubmittedUnits returns the IDs of units that were successfully submitted.
func (s *Service) SubmittedUnits() []core.UnitID {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]core.UnitID, 0, len(s.submissions))
	for id := range s.submissions {
		ids = append(ids, id)
	}
	return ids
}

// AddCalls returns how many times AddConversation was invoked.
func (s *Service) AddCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addCalls
}

// RetrieveCalls returns how many times RetrieveContext was invoked.
func (s *Service) RetrieveCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retrieves
}
