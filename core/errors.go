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

import "errors"

// Domain validation errors
var (
	// ErrInvalidTranscript indicates a Transcript failed validation.
	ErrInvalidTranscript = errors.New("invalid transcript")

	// ErrInvalidQuestion indicates a Question failed validation.
	ErrInvalidQuestion = errors.New("invalid question")

	// ErrEmptyTranscriptID indicates the transcript ID field is empty.
	ErrEmptyTranscriptID = errors.New("transcript id cannot be empty")

	// ErrEmptyUserID indicates the user ID field is empty.
	ErrEmptyUserID = errors.New("user id cannot be empty")

	// ErrNoSessions indicates a transcript carries no sessions.
	ErrNoSessions = errors.New("transcript has no sessions")

	// ErrEmptyQuestionText indicates the question text field is empty.
	ErrEmptyQuestionText = errors.New("question text cannot be empty")

	// ErrEmptyGoldAnswer indicates the gold answer field is empty.
	ErrEmptyGoldAnswer = errors.New("gold answer cannot be empty")
)
