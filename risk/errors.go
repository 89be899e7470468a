package risk

import "errors"

var (
	// ErrNonPositiveShellVolume is returned when the altitude bounds enclose
	// no volume.
	ErrNonPositiveShellVolume = errors.New("invalid altitude range, shell volume is zero or negative")
	// ErrNonPositiveCorridorRadius is returned for a launch corridor radius <= 0.
	ErrNonPositiveCorridorRadius = errors.New("launch corridor radius must be positive")
	// ErrInvalidParameter covers negative or non-finite model inputs.
	ErrInvalidParameter = errors.New("invalid risk model parameter")
)
