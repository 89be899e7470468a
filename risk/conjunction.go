package risk

import (
	"errors"
	"fmt"
	"math"
)

// ConjunctionParams describes a launch whose corridor was crossed by a
// counted number of objects.
type ConjunctionParams struct {
	Conjunctions    int
	CorridorRadiusM float64
	RocketAreaM2    float64
	TotalLossCost   float64
}

// Validate checks the parameters without computing anything.
func (p ConjunctionParams) Validate() error {
	if p.Conjunctions < 0 {
		return fmt.Errorf("%w: conjunction count must be non-negative, got %d", ErrInvalidParameter, p.Conjunctions)
	}
	if err := checkFinite("corridor radius", p.CorridorRadiusM); err != nil {
		return err
	}
	if p.CorridorRadiusM <= 0 {
		return fmt.Errorf("%w: got %g m", ErrNonPositiveCorridorRadius, p.CorridorRadiusM)
	}
	return errors.Join(
		checkNonNegative("rocket cross-section", p.RocketAreaM2),
		checkNonNegative("total loss cost", p.TotalLossCost),
	)
}

// PerConjunctionProbability is the chance one object crossing the corridor
// hits the rocket: the rocket's share of the corridor cross-section, capped
// at 1.
func PerConjunctionProbability(rocketAreaM2, corridorRadiusM float64) float64 {
	return math.Min(rocketAreaM2/(math.Pi*corridorRadiusM*corridorRadiusM), 1)
}

// ConjunctionRisk treats each conjunction as an independent trial and
// returns 1 - (1-p)^N as the collision probability.
func ConjunctionRisk(p ConjunctionParams) (Report, error) {
	if err := p.Validate(); err != nil {
		return Report{}, err
	}
	one := PerConjunctionProbability(p.RocketAreaM2, p.CorridorRadiusM)

	var prob float64
	switch {
	case p.Conjunctions == 0 || one == 0:
		prob = 0
	case one >= 1:
		prob = 1
	default:
		prob = -math.Expm1(float64(p.Conjunctions) * math.Log1p(-one))
	}
	return newReport(prob, p.TotalLossCost, p.Conjunctions), nil
}
