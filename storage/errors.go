package storage

import "errors"

var (
	// ErrRunNotFound indicates no archived run exists for the ID.
	ErrRunNotFound = errors.New("run not found")

	// ErrBackendRequired is returned when a repository is created
	// without a backend.
	ErrBackendRequired = errors.New("backend required")
)
