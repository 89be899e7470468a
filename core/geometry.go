package core

import "math"

const (
	// MuEarthKm3S2 is Earth's standard gravitational parameter (km^3/s^2).
	MuEarthKm3S2 = 398600.4418
	// EquatorialRadiusKm is the WGS-84 equatorial radius used for orbital
	// altitude conversions.
	EquatorialRadiusKm = 6378.137
	// MeanRadiusKm is the mean Earth radius used for great-circle
	// navigation over the surface.
	MeanRadiusKm = 6371.0
	// OmegaEarthRadS is Earth's rotation rate in rad/s.
	OmegaEarthRadS = 7.292115146706979e-5
)

// Vec3 is a Cartesian vector. Positions are in kilometres and velocities in
// kilometres per second unless stated otherwise.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns v multiplied by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns v × other.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Unit returns v scaled to length one. The zero vector is returned unchanged.
func (v Vec3) Unit() Vec3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// IsFinite reports whether every component is a finite number.
func (v Vec3) IsFinite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// localFrame returns the (east, north, up) unit vectors at an inertial
// position. At the poles, where east is undefined, the inertial X axis is
// used as a stand-in so the basis stays orthonormal.
func localFrame(pos Vec3) (east, north, up Vec3) {
	up = pos.Unit()
	east = Vec3{Z: 1}.Cross(up)
	if east.Norm() < 1e-12 {
		east = Vec3{X: 1}
	}
	east = east.Unit()
	north = up.Cross(east)
	return east, north, up
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }

// DestinationPoint advances (lat, lon) by distanceKm along the initial bearing
// using the spherical direct formula over a sphere of MeanRadiusKm. Bearings
// are measured clockwise from north (0 = north, 90 = east). All angles are
// in degrees.
func DestinationPoint(latDeg, lonDeg, distanceKm, bearingDeg float64) (float64, float64) {
	lat1 := deg2rad(latDeg)
	lon1 := deg2rad(lonDeg)
	brg := deg2rad(bearingDeg)
	delta := distanceKm / MeanRadiusKm

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(brg))
	lon2 := lon1 + math.Atan2(
		math.Sin(brg)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2),
	)
	return rad2deg(lat2), rad2deg(lon2)
}

// MeanMotionForAltitude converts a circular-orbit altitude to mean motion in
// revolutions per day via Kepler's third law. Higher altitudes give lower
// mean motion.
func MeanMotionForAltitude(altitudeKm float64) (float64, error) {
	if altitudeKm < 0 {
		return 0, ErrInvalidAltitudeRange
	}
	r := EquatorialRadiusKm + altitudeKm
	period := 2 * math.Pi * math.Sqrt(r*r*r/MuEarthKm3S2)
	if !(period > 0) {
		return 0, ErrInvalidAltitudeRange
	}
	return 86400.0 / period, nil
}

// CircularSpeed is the circular orbital speed (km/s) at radius rKm.
func CircularSpeed(rKm float64) float64 {
	if rKm <= 0 {
		return 0
	}
	return math.Sqrt(MuEarthKm3S2 / rKm)
}
