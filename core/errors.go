package core

import "errors"

var (
	// ErrMalformedTLE is returned when TLE lines fail format checks before
	// they reach SGP4.
	ErrMalformedTLE = errors.New("malformed TLE")
	// ErrPropagationFailed is returned when SGP4 produces a non-physical state
	// (NaN output, decayed orbit).
	ErrPropagationFailed = errors.New("propagation failed")
	// ErrInvalidAltitudeRange is returned when an altitude bound cannot be
	// mapped to a positive orbital period.
	ErrInvalidAltitudeRange = errors.New("invalid altitude range")
)
