package core

import (
	"fmt"
	"math"
	"time"

	"github.com/signalsfoundry/orbital-risk/model"
)

// fakeOrbit is a scripted object for fakePropagator: it either fails or
// reports fixed elements and moves linearly from Position at Epoch.
type fakeOrbit struct {
	MeanMotion  float64
	Inclination float64
	Position    Vec3
	Velocity    Vec3
	Epoch       time.Time
	Err         error
}

// fakePropagator resolves objects by line1 and converts geodetic points on
// a non-rotating sphere, which keeps trajectory geometry easy to reason about.
type fakePropagator struct {
	orbits map[string]fakeOrbit
	calls  int
}

func newFakePropagator() *fakePropagator {
	return &fakePropagator{orbits: make(map[string]fakeOrbit)}
}

func (f *fakePropagator) add(catalog int, o fakeOrbit) model.TrackedObject {
	line1 := fmt.Sprintf("fake-%d", catalog)
	f.orbits[line1] = o
	return model.TrackedObject{
		Name:          fmt.Sprintf("OBJ %d", catalog),
		CatalogNumber: catalog,
		Line1:         line1,
		Line2:         "fake",
	}
}

func (f *fakePropagator) Propagate(line1, _ string, at time.Time) (Propagation, error) {
	f.calls++
	o, ok := f.orbits[line1]
	if !ok {
		return Propagation{}, fmt.Errorf("%w: unknown object %q", ErrMalformedTLE, line1)
	}
	if o.Err != nil {
		return Propagation{}, o.Err
	}
	dt := 0.0
	if !o.Epoch.IsZero() {
		dt = at.Sub(o.Epoch).Seconds()
	}
	return Propagation{
		State: StateVector{
			Position: o.Position.Add(o.Velocity.Scale(dt)),
			Velocity: o.Velocity,
			Epoch:    at,
		},
		MeanMotionRevPerDay: o.MeanMotion,
		InclinationDeg:      o.Inclination,
	}, nil
}

func (f *fakePropagator) GeodeticToInertial(latDeg, lonDeg, altKm float64, _ time.Time) Vec3 {
	lat := deg2rad(latDeg)
	lon := deg2rad(lonDeg)
	r := MeanRadiusKm + altKm
	return Vec3{
		X: r * math.Cos(lat) * math.Cos(lon),
		Y: r * math.Cos(lat) * math.Sin(lon),
		Z: r * math.Sin(lat),
	}
}

func mustMeanMotion(altKm float64) float64 {
	mm, err := MeanMotionForAltitude(altKm)
	if err != nil {
		panic(err)
	}
	return mm
}
