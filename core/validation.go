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


package core

import "fmt"

// ValidateTranscript validates a Transcript according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - UserID must not be empty
//   - At least one session must be present
//
// Turn content is NOT validated here: datasets legitimately contain empty
// turns, and the chunker simply produces nothing for them.
func ValidateTranscript(t *Transcript) error {
	if t == nil {
		return fmt.Errorf("%w: transcript is nil", ErrInvalidTranscript)
	}

	if t.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTranscript, ErrEmptyTranscriptID)
	}

	if t.UserID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTranscript, ErrEmptyUserID)
	}

	if len(t.Sessions) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTranscript, ErrNoSessions)
	}

	return nil
}

// ValidateQuestion validates a Question according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - UserID must not be empty
//   - Text must not be empty
//   - GoldAnswer must not be empty
func ValidateQuestion(q *Question) error {
	if q == nil {
		return fmt.Errorf("%w: question is nil", ErrInvalidQuestion)
	}

	if q.ID == "" {
		return fmt.Errorf("%w: question id cannot be empty", ErrInvalidQuestion)
	}

	if q.UserID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQuestion, ErrEmptyUserID)
	}

	if q.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQuestion, ErrEmptyQuestionText)
	}

	if q.GoldAnswer == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQuestion, ErrEmptyGoldAnswer)
	}

	return nil
}
