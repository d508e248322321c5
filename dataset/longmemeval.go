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


package dataset

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/poiesic/membench/core"
)

// LongMemEval item structure. Each question carries its own haystack of
// chat sessions, so every item gets a dedicated user and transcript.
type lmeItem struct {
	QuestionID       string      `json:"question_id"`
	QuestionType     string      `json:"question_type"`
	Question         string      `json:"question"`
	Answer           any         `json:"answer"`
	QuestionDate     string      `json:"question_date"`
	HaystackDates    []string    `json:"haystack_dates"`
	HaystackSessions [][]lmeTurn `json:"haystack_sessions"`
}

type lmeTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LoadLongMemEval reads a LongMemEval dataset file.
func LoadLongMemEval(path string) ([]core.Transcript, []core.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read dataset file %s: %w", path, err)
	}

	var items []lmeItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, nil, fmt.Errorf("failed to parse LongMemEval dataset %s: %w", path, err)
	}

	var transcripts []core.Transcript
	var questions []core.Question

	for _, item := range items {
		if item.QuestionID == "" {
			continue
		}
		userID := "lme_" + item.QuestionID

		transcript := core.Transcript{
			ID:     item.QuestionID,
			UserID: userID,
		}
		for i, sessionTurns := range item.HaystackSessions {
			session := core.Session{Index: i + 1}
			if i < len(item.HaystackDates) {
				session.Time = item.HaystackDates[i]
			}
			for _, turn := range sessionTurns {
				session.Turns = append(session.Turns, core.Turn{
					Speaker: turn.Role,
					Text:    turn.Content,
				})
			}
			transcript.Sessions = append(transcript.Sessions, session)
		}

		if err := core.ValidateTranscript(&transcript); err != nil {
			slog.Warn("skipping invalid LongMemEval item", "question", item.QuestionID, "err", err)
			continue
		}

		q := core.Question{
			ID:         item.QuestionID,
			UserID:     userID,
			Text:       item.Question,
			GoldAnswer: scalarString(item.Answer),
			Category:   item.QuestionType,
		}
		if err := core.ValidateQuestion(&q); err != nil {
			slog.Warn("skipping invalid LongMemEval question", "question", item.QuestionID, "err", err)
			continue
		}

		transcripts = append(transcripts, transcript)
		questions = append(questions, q)
	}

	return transcripts, questions, nil
}
