package risk

import (
	"errors"
	"fmt"
	"math"
)

const (
	// EarthRadiusKm is the mean Earth radius used for shell volumes.
	EarthRadiusKm = 6371.0
	// SecondsPerYear is a 365-day year.
	SecondsPerYear = 31536000.0

	m2PerKm2 = 1e6
)

// ShellParams describes a spacecraft dwelling in a spherical shell of
// uniformly distributed debris.
type ShellParams struct {
	ObjectCount         int
	LowerAltitudeKm     float64
	UpperAltitudeKm     float64
	RelativeVelocityKmS float64
	EffectiveAreaM2     float64
	MissionYears        float64
	SpacecraftCost      float64 // full replacement cost
	LostRevenue         float64 // revenue lost on destruction
}

// Validate checks the parameters without computing anything.
func (p ShellParams) Validate() error {
	if p.ObjectCount < 0 {
		return fmt.Errorf("%w: object count must be non-negative, got %d", ErrInvalidParameter, p.ObjectCount)
	}
	return errors.Join(
		checkFinite("lower altitude", p.LowerAltitudeKm),
		checkFinite("upper altitude", p.UpperAltitudeKm),
		checkNonNegative("relative velocity", p.RelativeVelocityKmS),
		checkNonNegative("effective area", p.EffectiveAreaM2),
		checkNonNegative("mission duration", p.MissionYears),
		checkNonNegative("spacecraft cost", p.SpacecraftCost),
		checkNonNegative("lost revenue", p.LostRevenue),
	)
}

// ShellVolumeKm3 is the volume between the two altitudes.
func ShellVolumeKm3(lowerAltitudeKm, upperAltitudeKm float64) float64 {
	rUpper := EarthRadiusKm + upperAltitudeKm
	rLower := EarthRadiusKm + lowerAltitudeKm
	return 4.0 / 3.0 * math.Pi * (rUpper*rUpper*rUpper - rLower*rLower*rLower)
}

// ShellRisk estimates mission collision risk with a Poisson model: the
// expected number of collisions is density x relative velocity x area x
// duration, and the probability of at least one is 1 - exp(-expected).
func ShellRisk(p ShellParams) (Report, error) {
	if err := p.Validate(); err != nil {
		return Report{}, err
	}
	volume := ShellVolumeKm3(p.LowerAltitudeKm, p.UpperAltitudeKm)
	if !(volume > 0) {
		return Report{}, fmt.Errorf("%w: [%g, %g] km", ErrNonPositiveShellVolume, p.LowerAltitudeKm, p.UpperAltitudeKm)
	}

	density := float64(p.ObjectCount) / volume
	areaKm2 := p.EffectiveAreaM2 / m2PerKm2
	seconds := p.MissionYears * SecondsPerYear

	expected := density * p.RelativeVelocityKmS * areaKm2 * seconds
	prob := -math.Expm1(-expected)

	return newReport(prob, p.SpacecraftCost+p.LostRevenue, p.ObjectCount), nil
}
