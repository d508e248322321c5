package ai

import (
	"context"

	"github.com/poiesic/membench/core"
)

// Responder generates answers to benchmark questions from retrieved context.
// Implementations must be thread-safe for concurrent use.
type Responder interface {
	// Respond answers the question using only the provided context.
	// Returns the generated hypothesis text.
	Respond(ctx context.Context, question, memoryContext string) (string, error)
}

// Grader judges a generated hypothesis against the gold answer.
// Implementations must be thread-safe for concurrent use.
type Grader interface {
	// Grade compares the hypothesis to the gold answer and returns a
	// verdict with free-text reasoning. Grading failures are distinct
	// from response-generation failures in the caller's error handling.
	Grade(ctx context.Context, question, goldAnswer, hypothesis string) (*core.Grade, error)
}

// Provider aggregates the model services for convenient initialization and
// lifecycle management.
type Provider interface {
	// Responder returns the response-generation service.
	Responder() Responder

	// Grader returns the grading service.
	Grader() Grader

	// Close releases resources held by the provider and its services.
	Close() error
}
