package models

import "errors"

// Error categories shared across the stores. Concrete errors wrap one of
// these, so callers classify failures with errors.Is without depending on
// store-specific names.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
	ErrPersistence  = errors.New("persistence failure")
)
