package evaluate

import "errors"

// Per-question failure stages. A failed question yields a result entry
// marked with one of these, never an aborted batch.
var (
	// ErrRetrievalFailed marks a question whose context retrieval
	// exhausted retries.
	ErrRetrievalFailed = errors.New("retrieval failed")

	// ErrResponseFailed marks a question whose response generation
	// exhausted retries.
	ErrResponseFailed = errors.New("response generation failed")

	// ErrGradingFailed marks a question that was answered but could not
	// be graded. Distinct from response failures: the hypothesis is kept.
	ErrGradingFailed = errors.New("grading failed")

	// ErrServiceRequired is returned when a memory service is not provided.
	ErrServiceRequired = errors.New("memory service required")

	// ErrProviderRequired is returned when a model provider is not provided.
	ErrProviderRequired = errors.New("model provider required")

	// ErrConfigRequired is returned when a configuration is not provided.
	ErrConfigRequired = errors.New("config required")
)
