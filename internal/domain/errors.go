package domain

import "errors"

var (
	// ErrInvalidInput marks request parameters that cannot be scored
	ErrInvalidInput = errors.New("invalid input")

	// ErrDataUnavailable is returned when the historical dataset cannot be read
	ErrDataUnavailable = errors.New("historical dataset unavailable")

	// ErrModelUnavailable is returned when no trained classifier can answer
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrSchemaMismatch is returned when a feature vector does not match the trained schema
	ErrSchemaMismatch = errors.New("feature schema mismatch")
)
