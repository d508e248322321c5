package ingest

import (
	"github.com/poiesic/membench/config"
	"github.com/poiesic/membench/core"
)

// BuildUnits derives the ingestion units for a set of transcripts: one unit
// per session, with a content-derived ID that is stable across runs. Empty
// sessions produce no unit.
func BuildUnits(transcripts []core.Transcript, cfg config.IngestionConfig) []core.Unit {
	var units []core.Unit
	for _, t := range transcripts {
		for _, s := range t.Sessions {
			content := SessionContent(s)
			if content == "" {
				continue
			}

			chunks := SplitSession(s, cfg.MaxChunkChars, cfg.ChunkOverlapChars)
			if len(chunks) == 0 {
				continue
			}

			units = append(units, core.Unit{
				ID:           core.UnitIDFor(t.ID, s.Index, content),
				UserID:       t.UserID,
				TranscriptID: t.ID,
				Session:      s.Index,
				Chunks:       chunks,
			})
		}
	}
	return units
}

// batchChunks groups chunks into batches of at most max items per network
// submission. This cap is independent of the chunk character budget.
func batchChunks(chunks []core.Chunk, max int) [][]core.Chunk {
	if max < 1 {
		max = 1
	}
	var batches [][]core.Chunk
	for start := 0; start < len(chunks); start += max {
		end := start + max
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, chunks[start:end])
	}
	return batches
}
