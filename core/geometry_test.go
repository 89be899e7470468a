package core

import (
	"errors"
	"math"
	"testing"
)

func TestVec3Algebra(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: -2, Y: 0.5, Z: 4}

	if got := a.Add(b).Sub(b); got != a {
		t.Fatalf("Add/Sub round trip = %+v, want %+v", got, a)
	}
	if got := a.Dot(b); got != -2+1+12 {
		t.Fatalf("Dot = %v, want 11", got)
	}
	c := a.Cross(b)
	if math.Abs(c.Dot(a)) > 1e-12 || math.Abs(c.Dot(b)) > 1e-12 {
		t.Fatalf("cross product %+v is not orthogonal to its operands", c)
	}
	if n := (Vec3{X: 3, Y: 4}).Unit().Norm(); math.Abs(n-1) > 1e-12 {
		t.Fatalf("Unit norm = %v, want 1", n)
	}
	if got := (Vec3{}).Unit(); got != (Vec3{}) {
		t.Fatalf("Unit of zero vector = %+v", got)
	}
}

func TestLocalFrameIsOrthonormal(t *testing.T) {
	for _, pos := range []Vec3{
		{X: 7000},
		{X: 3000, Y: -4000, Z: 4500},
		{Z: 6500}, // pole
	} {
		e, n, u := localFrame(pos)
		for name, v := range map[string]Vec3{"east": e, "north": n, "up": u} {
			if math.Abs(v.Norm()-1) > 1e-9 {
				t.Fatalf("%s at %+v has norm %v", name, pos, v.Norm())
			}
		}
		if math.Abs(e.Dot(n)) > 1e-9 || math.Abs(e.Dot(u)) > 1e-9 || math.Abs(n.Dot(u)) > 1e-9 {
			t.Fatalf("frame at %+v is not orthogonal", pos)
		}
	}
}

func TestLocalFrameNorthPointsToPole(t *testing.T) {
	_, north, _ := localFrame(Vec3{X: 7000})
	if north.Z < 0.999 {
		t.Fatalf("north on the equator should be +Z, got %+v", north)
	}
}

func TestDestinationPoint(t *testing.T) {
	// Quarter of the circumference due east along the equator.
	quarter := math.Pi * MeanRadiusKm / 2
	lat, lon := DestinationPoint(0, 0, quarter, 90)
	if math.Abs(lat) > 1e-9 || math.Abs(lon-90) > 1e-9 {
		t.Fatalf("DestinationPoint east = (%v, %v), want (0, 90)", lat, lon)
	}

	lat, lon = DestinationPoint(10, 20, 0, 45)
	if math.Abs(lat-10) > 1e-12 || math.Abs(lon-20) > 1e-12 {
		t.Fatalf("zero distance moved the point to (%v, %v)", lat, lon)
	}

	lat, _ = DestinationPoint(0, 0, quarter, 0)
	if math.Abs(lat-90) > 1e-9 {
		t.Fatalf("DestinationPoint north lat = %v, want 90", lat)
	}
}

func TestMeanMotionForAltitude(t *testing.T) {
	low, err := MeanMotionForAltitude(400)
	if err != nil {
		t.Fatalf("MeanMotionForAltitude(400): %v", err)
	}
	high, err := MeanMotionForAltitude(800)
	if err != nil {
		t.Fatalf("MeanMotionForAltitude(800): %v", err)
	}
	if !(low > high) {
		t.Fatalf("mean motion should fall with altitude: n(400)=%v n(800)=%v", low, high)
	}
	// ISS-like orbit is about 15.5 rev/day.
	if low < 15.4 || low > 15.6 {
		t.Fatalf("n(400) = %v, want ~15.5", low)
	}
	if _, err := MeanMotionForAltitude(-1); !errors.Is(err, ErrInvalidAltitudeRange) {
		t.Fatalf("negative altitude err = %v", err)
	}
}
