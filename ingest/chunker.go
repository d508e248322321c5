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


package ingest

import (
	"strings"

	"github.com/poiesic/membench/core"
)

// RenderTurn formats a dialogue turn the way it is submitted to the memory
// service. Chunking operates on these rendered strings, so chunk boundaries
// fall between turns, never inside one.
func RenderTurn(t core.Turn) string {
	if t.Speaker == "" {
		return t.Text + "\n"
	}
	return t.Speaker + ": " + t.Text + "\n"
}

// SessionContent renders a whole session. Unit IDs are derived from this
// string, and concatenating a session's chunks with overlap removed must
// reproduce it exactly.
func SessionContent(s core.Session) string {
	var b strings.Builder
	for _, turn := range s.Turns {
		b.WriteString(RenderTurn(turn))
	}
	return b.String()
}

// SplitSession breaks a session into chunks of at most maxChars characters,
// with up to overlapChars characters of the previous chunk's tail repeated
// at the start of the next chunk. Budgets are measured in characters
// (runes); Chunk.Overlap records the duplicated prefix in bytes.
//
// Chunks are built at turn granularity. The overlap prefix is made of whole
// trailing turns when possible, falling back to a raw character tail when
// the last turn alone exceeds the overlap budget. A single turn larger than
// maxChars is hard-split on character boundaries as a documented fallback.
func SplitSession(s core.Session, maxChars, overlapChars int) []core.Chunk {
	var chunks []core.Chunk

	var cur strings.Builder // new content of the chunk being built
	var curTurns []string   // rendered turns inside cur
	curLen := 0             // rune length of cur
	overlap := ""           // prefix duplicated from the previous chunk
	overlapLen := 0         // rune length of overlap

	emit := func(content string, prefixBytes int) {
		chunks = append(chunks, core.Chunk{
			Index:   len(chunks),
			Content: content,
			Overlap: prefixBytes,
		})
	}

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		content := overlap + cur.String()
		emit(content, len(overlap))
		overlap, overlapLen = tailOverlap(curTurns, content, overlapChars)
		cur.Reset()
		curTurns = nil
		curLen = 0
	}

	for _, turn := range s.Turns {
		rendered := RenderTurn(turn)
		rlen := runeLen(rendered)

		if rlen > maxChars {
			flush()
			overlap, overlapLen = hardSplit(&chunks, rendered, overlap, maxChars, overlapChars)
			continue
		}

		if curLen > 0 && overlapLen+curLen+rlen > maxChars {
			flush()
		}

		if curLen == 0 && overlapLen+rlen > maxChars {
			// Shrink the overlap so the turn still fits the budget.
			overlap = tailRunes(overlap, maxChars-rlen)
			overlapLen = runeLen(overlap)
		}

		cur.WriteString(rendered)
		curTurns = append(curTurns, rendered)
		curLen += rlen
	}

	flush()
	return chunks
}

// hardSplit emits budget-sized chunks for a single oversized rendered turn
// and returns the trailing overlap for whatever comes next.
func hardSplit(chunks *[]core.Chunk, rendered, overlap string, maxChars, overlapChars int) (string, int) {
	r := []rune(rendered)
	pos := 0
	for pos < len(r) {
		avail := maxChars - runeLen(overlap)
		if avail < 1 {
			overlap = tailRunes(overlap, maxChars-1)
			avail = maxChars - runeLen(overlap)
		}
		take := len(r) - pos
		if take > avail {
			take = avail
		}

		piece := string(r[pos : pos+take])
		*chunks = append(*chunks, core.Chunk{
			Index:   len(*chunks),
			Content: overlap + piece,
			Overlap: len(overlap),
		})

		tailStart := pos + take - overlapChars
		if tailStart < pos {
			tailStart = pos
		}
		overlap = string(r[tailStart : pos+take])
		pos += take
	}
	return overlap, runeLen(overlap)
}

// tailOverlap picks the overlap prefix for the next chunk: whole trailing
// turns fitting the overlap budget, else a raw character tail of the chunk.
func tailOverlap(turns []string, content string, overlapChars int) (string, int) {
	if overlapChars <= 0 {
		return "", 0
	}

	total := 0
	start := len(turns)
	for i := len(turns) - 1; i >= 0; i-- {
		tl := runeLen(turns[i])
		if total+tl > overlapChars {
			break
		}
		total += tl
		start = i
	}

	if start == len(turns) {
		tail := tailRunes(content, overlapChars)
		return tail, runeLen(tail)
	}

	overlap := strings.Join(turns[start:], "")
	return overlap, runeLen(overlap)
}

// tailRunes returns the trailing n runes of s (all of s when shorter).
func tailRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func runeLen(s string) int {
	return len([]rune(s))
}
