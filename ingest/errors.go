package ingest

import "errors"

var (
	// ErrServiceRequired is returned when a memory service is not provided.
	ErrServiceRequired = errors.New("memory service required")

	// ErrStoreRequired is returned when a checkpoint store is not provided.
	ErrStoreRequired = errors.New("checkpoint store required")

	// ErrConfigRequired is returned when a configuration is not provided.
	ErrConfigRequired = errors.New("config required")

	// ErrUnitFailed marks a unit that permanently failed after exhausting
	// retries. It is recorded and counted, never propagated to abort the
	// run.
	ErrUnitFailed = errors.New("unit failed")
)
