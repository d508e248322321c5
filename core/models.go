package core

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// UnitID identifies one ingestible piece of conversation data.
// IDs are derived from content so they are stable across runs and usable
// as checkpoint keys.
type UnitID string

// UnitIDFor generates a deterministic UnitID from a transcript ID, session
// index, and session content using BLAKE2b hashing. Identical input always
// produces the identical ID.
func UnitIDFor(transcriptID string, session int, content string) UnitID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(content))
	sum := h.Sum(nil)
	return UnitID(fmt.Sprintf("%s-s%03d-%s", transcriptID, session, hex.EncodeToString(sum)))
}

// Turn is a single dialogue turn in a conversation transcript.
type Turn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Session is an ordered sequence of dialogue turns that took place in one
// sitting. Sessions are the unit of ingestion and checkpointing.
type Session struct {
	Index int    `json:"index"`
	Time  string `json:"time,omitempty"` // Original session timestamp label, if the dataset provides one
	Turns []Turn `json:"turns"`
}

// Transcript is one source conversation from a benchmark dataset.
type Transcript struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Sessions []Session `json:"sessions"`
}

// Chunk is a size-bounded slice of session content. Overlap records how many
// leading bytes of Content duplicate the tail of the previous chunk, so the
// original content can be reconstructed exactly.
type Chunk struct {
	Index   int    `json:"index"`
	Content string `json:"content"`
	Overlap int    `json:"overlap"`
}

// Unit is one checkpointable piece of ingestion work: a session broken into
// ordered chunks.
type Unit struct {
	ID           UnitID  `json:"id"`
	UserID       string  `json:"user_id"`
	TranscriptID string  `json:"transcript_id"`
	Session      int     `json:"session"`
	Chunks       []Chunk `json:"chunks"`
}

// Question is a held-out benchmark question with its gold answer.
type Question struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Text       string `json:"text"`
	GoldAnswer string `json:"gold_answer"`
	Category   string `json:"category,omitempty"`
}

// Verdict is the judge's correctness classification.
type Verdict string

const (
	VerdictCorrect   Verdict = "CORRECT"
	VerdictIncorrect Verdict = "INCORRECT"
)

// Grade is the judge output for one question.
type Grade struct {
	Verdict   Verdict `json:"verdict"`
	Reasoning string  `json:"reasoning,omitempty"`
}

// Correct reports whether the judge accepted the hypothesis.
func (g *Grade) Correct() bool {
	return g != nil && g.Verdict == VerdictCorrect
}

// EvaluationResult is one graded benchmark question. It is produced once by
// the evaluation pipeline and immutable thereafter.
type EvaluationResult struct {
	QuestionID string `json:"question_id"`
	UserID     string `json:"user_id"`
	Category   string `json:"category,omitempty"`

	Question   string `json:"question"`
	GoldAnswer string `json:"gold_answer"`
	Hypothesis string `json:"hypothesis,omitempty"`

	Context       string `json:"context,omitempty"`
	ContextTokens int    `json:"context_tokens"`
	ContextChars  int    `json:"context_chars"`

	RetrievalDuration time.Duration `json:"retrieval_duration"`
	ResponseDuration  time.Duration `json:"response_duration"`
	// TotalDuration is retrieval plus response time. Grading time is
	// deliberately excluded from the reported total.
	TotalDuration time.Duration `json:"total_duration"`

	Grade *Grade `json:"grade,omitempty"`
	// Failure holds a stage-prefixed error description when the question
	// could not be evaluated. Failed results carry no grade and are
	// excluded from accuracy.
	Failure string `json:"failure,omitempty"`
}

// Graded reports whether the result carries a judge verdict.
func (r *EvaluationResult) Graded() bool {
	return r.Grade != nil
}

// Failed reports whether evaluation of this question permanently failed.
func (r *EvaluationResult) Failed() bool {
	return r.Failure != ""
}

// RunSummary is the archived record of one benchmark run.
type RunSummary struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Dataset   string    `json:"dataset,omitempty"`
	Dir       string    `json:"dir"`

	Total    int     `json:"total"`
	Graded   int     `json:"graded"`
	Correct  int     `json:"correct"`
	Excluded int     `json:"excluded"`
	Accuracy float64 `json:"accuracy"`
}
