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


// Package dataset loads long-context QA benchmark datasets into domain
// types: conversation transcripts for ingestion and held-out questions for
// evaluation.
package dataset

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/poiesic/membench/core"
)

// LOCOMO sample structure. Sessions live under dynamic "session_N" keys of
// the conversation object, with an optional "session_N_date_time" label.
type locomoSample struct {
	SampleID     string                     `json:"sample_id"`
	Conversation map[string]json.RawMessage `json:"conversation"`
	QA           []locomoQA                 `json:"qa"`
}

type locomoTurn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

type locomoQA struct {
	Question string `json:"question"`
	Answer   any    `json:"answer"`
	Category any    `json:"category"`
}

// LoadLOCOMO reads a LOCOMO dataset file.
//
// Each sample becomes one transcript with its sessions in order, scoped to
// a per-sample user so memories from different samples never mix. QA pairs
// without an answer (adversarial entries) are skipped.
func LoadLOCOMO(path string) ([]core.Transcript, []core.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read dataset file %s: %w", path, err)
	}

	var samples []locomoSample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, nil, fmt.Errorf("failed to parse LOCOMO dataset %s: %w", path, err)
	}

	var transcripts []core.Transcript
	var questions []core.Question

	for _, sample := range samples {
		if sample.SampleID == "" {
			continue
		}
		userID := "locomo_" + sample.SampleID

		transcript := core.Transcript{
			ID:     sample.SampleID,
			UserID: userID,
		}

		for i := 1; ; i++ {
			raw, ok := sample.Conversation[fmt.Sprintf("session_%d", i)]
			if !ok {
				break
			}

			var turns []locomoTurn
			if err := json.Unmarshal(raw, &turns); err != nil {
				return nil, nil, fmt.Errorf("failed to parse session %d of sample %s: %w", i, sample.SampleID, err)
			}

			session := core.Session{Index: i}
			if label, ok := sample.Conversation[fmt.Sprintf("session_%d_date_time", i)]; ok {
				var t string
				if err := json.Unmarshal(label, &t); err == nil {
					session.Time = t
				}
			}
			for _, turn := range turns {
				session.Turns = append(session.Turns, core.Turn{
					Speaker: turn.Speaker,
					Text:    turn.Text,
				})
			}
			transcript.Sessions = append(transcript.Sessions, session)
		}

		if err := core.ValidateTranscript(&transcript); err != nil {
			slog.Warn("skipping invalid LOCOMO sample", "sample", sample.SampleID, "err", err)
			continue
		}
		transcripts = append(transcripts, transcript)

		for i, qa := range sample.QA {
			q := core.Question{
				ID:         fmt.Sprintf("%s_q%03d", sample.SampleID, i+1),
				UserID:     userID,
				Text:       qa.Question,
				GoldAnswer: scalarString(qa.Answer),
				Category:   scalarString(qa.Category),
			}
			if err := core.ValidateQuestion(&q); err != nil {
				slog.Debug("skipping unanswerable LOCOMO question", "question", q.ID, "err", err)
				continue
			}
			questions = append(questions, q)
		}
	}

	return transcripts, questions, nil
}

// scalarString renders a JSON scalar (string or number) as text. LOCOMO
// answers and categories mix both.
func scalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
