package config

import "errors"

var (
	// ErrInvalidConfig indicates a configuration value is out of range
	// or missing. Configuration errors are fatal and surface before any
	// benchmark work starts.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMissingCredential indicates a required credential environment
	// variable is not set.
	ErrMissingCredential = errors.New("missing credential")
)
