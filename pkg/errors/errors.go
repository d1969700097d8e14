package errors

import "errors"

var (
	// Argument errors
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidConfig   = errors.New("invalid config")

	// Storage errors
	ErrAllocationFailure = errors.New("entry allocation failed")
	ErrInconsistent      = errors.New("cache structure inconsistent")

	// Lookup outcomes
	ErrNotFound = errors.New("key not found")
	ErrMiss     = errors.New("cache miss")

	// Lifecycle errors
	ErrDestroyed = errors.New("cache destroyed")
)

