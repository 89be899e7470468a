package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidTrackedObject = errors.New("invalid tracked object")
	ErrMissingTLE           = errors.New("missing TLE line")
)

// TrackedObject is a catalogued orbiting object (payload, rocket body or
// debris) identified by its NORAD catalog number.
//
// Values are treated as immutable once built; they are passed by value and
// never mutated by the risk engine.
type TrackedObject struct {
	Name          string `json:"name"`
	CatalogNumber int    `json:"number"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2"`
}

// NewTrackedObject builds a TrackedObject and fails fast when either TLE line
// is absent so that bad records never reach the propagator.
func NewTrackedObject(name string, catalogNumber int, line1, line2 string) (TrackedObject, error) {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)
	if line1 == "" {
		return TrackedObject{}, fmt.Errorf("%w: line1 is required (catalog %d)", ErrMissingTLE, catalogNumber)
	}
	if line2 == "" {
		return TrackedObject{}, fmt.Errorf("%w: line2 is required (catalog %d)", ErrMissingTLE, catalogNumber)
	}
	if catalogNumber <= 0 {
		return TrackedObject{}, fmt.Errorf("%w: catalog number must be positive, got %d", ErrInvalidTrackedObject, catalogNumber)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "UNKNOWN"
	}
	return TrackedObject{
		Name:          name,
		CatalogNumber: catalogNumber,
		Line1:         line1,
		Line2:         line2,
	}, nil
}

// Validate reports whether the object still carries both TLE lines. Objects
// decoded from a persisted snapshot go through this instead of the constructor.
func (o TrackedObject) Validate() error {
	_, err := NewTrackedObject(o.Name, o.CatalogNumber, o.Line1, o.Line2)
	return err
}
