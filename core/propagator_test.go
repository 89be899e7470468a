package core

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/orbital-risk/model"
)

// ISS sample TLE (epoch 2021-10-02).
const (
	issLine1 = "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
	issLine2 = "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"
)

var issEpoch = time.Date(2021, 10, 2, 14, 11, 0, 0, time.UTC)

// We don't assert exact orbital values (those belong to go-satellite);
// we check the state is physically plausible and the line-2 elements are
// passed through.
func TestSGP4Propagator_ISS(t *testing.T) {
	p := NewSGP4Propagator()

	res, err := p.Propagate(issLine1, issLine2, issEpoch)
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}

	r := res.State.Position.Norm()
	if r < 6600 || r > 6900 {
		t.Fatalf("ISS radius = %.1f km, want LEO range", r)
	}
	v := res.State.Velocity.Norm()
	if v < 7.4 || v > 7.9 {
		t.Fatalf("ISS speed = %.3f km/s, want ~7.66", v)
	}
	if math.Abs(res.MeanMotionRevPerDay-15.49370953) > 1e-9 {
		t.Fatalf("mean motion = %v", res.MeanMotionRevPerDay)
	}
	if math.Abs(res.InclinationDeg-51.6459) > 1e-9 {
		t.Fatalf("inclination = %v", res.InclinationDeg)
	}
	if !res.State.Epoch.Equal(issEpoch) {
		t.Fatalf("epoch = %v, want %v", res.State.Epoch, issEpoch)
	}
}

func TestSGP4Propagator_ChangesOverTime(t *testing.T) {
	p := NewSGP4Propagator()

	first, err := p.Propagate(issLine1, issLine2, issEpoch)
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	second, err := p.Propagate(issLine1, issLine2, issEpoch.Add(5*time.Minute))
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	if first.State.Position == second.State.Position {
		t.Fatalf("expected orbital position to change over time, got %+v at both times", first.State.Position)
	}
}

func TestSGP4Propagator_SubSecondCorrection(t *testing.T) {
	p := NewSGP4Propagator()

	base, err := p.Propagate(issLine1, issLine2, issEpoch)
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	half, err := p.Propagate(issLine1, issLine2, issEpoch.Add(500*time.Millisecond))
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	moved := half.State.Position.DistanceTo(base.State.Position)
	want := base.State.Velocity.Norm() * 0.5
	if math.Abs(moved-want) > 1e-6 {
		t.Fatalf("half-second displacement = %v km, want %v km", moved, want)
	}
}

func TestSGP4Propagator_MalformedTLE(t *testing.T) {
	p := NewSGP4Propagator()

	tests := []struct {
		name         string
		line1, line2 string
	}{
		{name: "empty", line1: "", line2: ""},
		{name: "short line1", line1: issLine1[:60], line2: issLine2},
		{name: "swapped lines", line1: issLine2, line2: issLine1},
		{name: "garbage mean motion", line1: issLine1, line2: issLine2[:52] + "15.4937XXXX" + issLine2[63:]},
		{name: "alpha catalog number", line1: "1 A5544" + issLine1[7:], line2: issLine2},
		{name: "space in eccentricity", line1: issLine1, line2: withByte(issLine2, 26, ' ')},
		{name: "space in epoch year", line1: withByte(issLine1, 18, ' '), line2: issLine2},
		{name: "leading space in epoch day", line1: withByte(issLine1, 20, ' '), line2: issLine2},
		{name: "three spaces in inclination", line1: issLine1, line2: issLine2[:8] + "  5 1.64" + issLine2[16:]},
		{name: "infinite inclination", line1: issLine1, line2: issLine2[:8] + "Infinity" + issLine2[16:]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Propagate(tt.line1, tt.line2, issEpoch)
			if !errors.Is(err, ErrMalformedTLE) {
				t.Fatalf("err = %v, want ErrMalformedTLE", err)
			}
		})
	}
}

func withByte(s string, i int, b byte) string {
	out := []byte(s)
	out[i] = b
	return string(out)
}

func TestSGP4Propagator_CachesElementSets(t *testing.T) {
	p := NewSGP4Propagator(WithMaxCachedElements(1))

	if _, err := p.Propagate(issLine1, issLine2, issEpoch); err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	if len(p.elements) != 1 {
		t.Fatalf("cached element sets = %d, want 1", len(p.elements))
	}
	if _, err := p.Propagate(issLine1+" ", issLine2, issEpoch); err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	if len(p.elements) != 1 {
		t.Fatalf("whitespace variant should hit the cache, have %d entries", len(p.elements))
	}
}

func TestGeodeticToInertial(t *testing.T) {
	at := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	eq := GeodeticToInertial(0, 0, 0, at)
	if math.Abs(eq.Norm()-EquatorialRadiusKm) > 1e-6 {
		t.Fatalf("equator radius = %v, want %v", eq.Norm(), EquatorialRadiusKm)
	}
	if math.Abs(eq.Z) > 1e-9 {
		t.Fatalf("equator point has z = %v", eq.Z)
	}

	pole := GeodeticToInertial(90, 0, 0, at)
	if math.Abs(pole.Norm()-6356.752) > 1e-2 {
		t.Fatalf("polar radius = %v, want ~6356.752", pole.Norm())
	}

	high := GeodeticToInertial(0, 0, 400, at)
	if math.Abs(high.Norm()-(EquatorialRadiusKm+400)) > 1e-6 {
		t.Fatalf("altitude not applied: %v", high.Norm())
	}

	// Earth rotates under a fixed geodetic point: an hour later the inertial
	// position has moved roughly 15 degrees of longitude.
	later := GeodeticToInertial(0, 0, 0, at.Add(time.Hour))
	angle := math.Acos(eq.Unit().Dot(later.Unit())) * 180 / math.Pi
	if math.Abs(angle-15.04) > 0.05 {
		t.Fatalf("rotation after one hour = %v deg, want ~15.04", angle)
	}
}

func TestAnalyze_SkipsTLEsTheLibraryCannotParse(t *testing.T) {
	good := model.TrackedObject{Name: "ISS (ZARYA)", CatalogNumber: 25544, Line1: issLine1, Line2: issLine2}
	spacedEcc := model.TrackedObject{Name: "SPACED ECC", CatalogNumber: 90001, Line1: issLine1, Line2: withByte(issLine2, 26, ' ')}
	spacedYear := model.TrackedObject{Name: "SPACED YEAR", CatalogNumber: 90002, Line1: withByte(issLine1, 18, ' '), Line2: issLine2}

	a := NewCongestionAnalyzer(NewSGP4Propagator(), WithAnalyzerClock(func() time.Time { return issEpoch }))
	res := a.Analyze(context.Background(), []model.TrackedObject{spacedEcc, good, spacedYear}, CongestionBounds{
		MinAltitudeKm:  0,
		MaxAltitudeKm:  2000,
		MinInclination: 0,
		MaxInclination: 180,
	})
	if len(res.Objects) != 1 || res.Objects[0].CatalogNumber != 25544 {
		t.Fatalf("objects = %+v, want only the ISS", res.Objects)
	}
	if len(res.Skipped) != 2 {
		t.Fatalf("skipped = %+v, want 2", res.Skipped)
	}
	for _, sk := range res.Skipped {
		if !errors.Is(sk.Reason, ErrMalformedTLE) {
			t.Fatalf("skip reason = %v, want ErrMalformedTLE", sk.Reason)
		}
	}
}
