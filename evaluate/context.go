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


package evaluate

import (
	"log/slog"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/poiesic/membench/memory"
)

// ContextBuilder assembles retrieved graph content into the text block
// handed to the response model, bounded by a token budget.
//
// Content is laid out in retrieval-rank order: facts, then entities, then
// episodes, each in the order the memory service returned them. When the
// budget is hit, assembly stops at the last whole line that fits, so
// truncation always drops the lowest-ranked tail.
type ContextBuilder struct {
	count  func(text string) int
	budget int
}

// NewContextBuilder creates a builder counting tokens with the tiktoken
// encoding for the model. When no encoding is available it falls back to a
// conservative len/4 estimate.
func NewContextBuilder(model string, budget int) *ContextBuilder {
	count := func(text string) int { return len(text) / 4 }

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		slog.Warn("no tiktoken encoding available, using len/4 token estimate", "model", model, "err", err)
	} else {
		count = func(text string) int { return len(enc.Encode(text, nil, nil)) }
	}

	return &ContextBuilder{count: count, budget: budget}
}

// Build assembles the context string and returns it with its realized token
// count.
func (b *ContextBuilder) Build(mctx *memory.Context) (string, int) {
	if mctx.Empty() {
		return "", 0
	}

	var lines []string
	appendSection := func(header string, items []string) {
		if len(items) == 0 {
			return
		}
		lines = append(lines, header)
		for _, item := range items {
			lines = append(lines, "- "+item)
		}
	}
	appendSection("FACTS:", mctx.Facts)
	appendSection("ENTITIES:", mctx.Entities)
	appendSection("EPISODES:", mctx.Episodes)

	var sb strings.Builder
	used := 0
	for _, line := range lines {
		cost := b.count(line + "\n")
		if used+cost > b.budget {
			break
		}
		sb.WriteString(line)
		sb.WriteString("\n")
		used += cost
	}

	return sb.String(), used
}
