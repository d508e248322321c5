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


package memory

import (
	"context"

	"github.com/poiesic/membench/core"
)

// RetrievalLimits caps what the memory service returns for one query.
type RetrievalLimits struct {
	Edges    int
	Nodes    int
	Episodes int

	// Reranker selects the service-side edge reranking strategy.
	Reranker string
}

// Context is the retrieved knowledge-graph content for one question.
// Within each slice, entries arrive in the service's relevance-rank order.
type Context struct {
	// Facts are edge predicates ("Alice adopted a dog in May 2023").
	Facts []string

	// Entities are node summaries ("Alice: software engineer in Boston").
	Entities []string

	// Episodes are raw source snippets the graph was built from.
	Episodes []string
}

// Empty reports whether retrieval produced no content at all.
func (c *Context) Empty() bool {
	return c == nil || len(c.Facts)+len(c.Entities)+len(c.Episodes) == 0
}

// Service is the hosted knowledge-graph memory service, consumed strictly
// through request/response contracts. Implementations must be safe for
// concurrent use.
type Service interface {
	// AddConversation submits one unit's chunks to the service. The
	// service may receive the same unit more than once across resumed
	// runs; it deduplicates on its side, so duplicate submissions are
	// tolerated and lost ones are not.
	AddConversation(ctx context.Context, userID string, unitID core.UnitID, chunks []core.Chunk) error

	// RetrieveContext returns graph content relevant to the query,
	// scoped to the user and bounded by the limits.
	RetrieveContext(ctx context.Context, userID, query string, limits RetrievalLimits) (*Context, error)
}
