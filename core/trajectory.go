package core

import (
	"math"
	"time"

	"github.com/signalsfoundry/orbital-risk/model"
)

// TrajectoryStepSeconds is the fixed sampling and integration step for both
// trajectory generators.
const TrajectoryStepSeconds = 10.0

// ReferenceMaxAscentSeconds caps simulated flight in Reference.
const ReferenceMaxAscentSeconds = 1500.0

// MaxKinematicPoints bounds the length of a kinematic trajectory.
const MaxKinematicPoints = 100_000

const (
	// kinematicHorizontalSpeedKmS is the assumed average downrange speed.
	kinematicHorizontalSpeedKmS = 4.0

	// Physics ascent parameters.
	referenceBurnSeconds  = 600.0
	referenceThrustMargin = 1.8
	referenceUpComponent  = 0.35
)

// TrajectoryPoint is one timestamped inertial state on an ascent path.
type TrajectoryPoint struct {
	Epoch    time.Time
	Position Vec3
	Velocity Vec3
}

// State returns the point as a StateVector.
func (p TrajectoryPoint) State() StateVector {
	return StateVector{Position: p.Position, Velocity: p.Velocity, Epoch: p.Epoch}
}

// ReferenceTrajectory is the physics-integrated ascent path together with
// the parameters the integrator settled on.
type ReferenceTrajectory struct {
	Points          []TrajectoryPoint
	AzimuthDeg      float64
	AzimuthFallback bool // inclination unreachable from the site latitude
	Converged       bool // reached target altitude and speed before the cap
	SurfaceRadiusKm float64
}

// Duration is the simulated time span of the path.
func (r ReferenceTrajectory) Duration() time.Duration {
	if len(r.Points) < 2 {
		return 0
	}
	return r.Points[len(r.Points)-1].Epoch.Sub(r.Points[0].Epoch)
}

// LengthKm is the polyline length of the path.
func (r ReferenceTrajectory) LengthKm() float64 {
	var total float64
	for i := 1; i < len(r.Points); i++ {
		total += r.Points[i].Position.DistanceTo(r.Points[i-1].Position)
	}
	return total
}

// FinalAltitudeKm is the altitude above the launch pad radius at the last point.
func (r ReferenceTrajectory) FinalAltitudeKm() float64 {
	if len(r.Points) == 0 {
		return 0
	}
	return r.Points[len(r.Points)-1].Position.Norm() - r.SurfaceRadiusKm
}

// TrajectoryGenerator builds launch-vehicle ascent paths in the propagator's
// inertial frame.
type TrajectoryGenerator struct {
	prop Propagator
}

// NewTrajectoryGenerator constructs a generator that resolves geodetic points
// through prop.
func NewTrajectoryGenerator(prop Propagator) *TrajectoryGenerator {
	return &TrajectoryGenerator{prop: prop}
}

// Kinematic interpolates a timed ascent from the launch site: altitude and
// downrange distance both grow linearly with elapsed fraction of the ascent,
// along a great circle heading due east for prograde targets and due north
// otherwise. Velocities are forward differences between consecutive points.
//
// A non-positive ascent time, or one needing more than MaxKinematicPoints
// points, yields an empty trajectory.
func (g *TrajectoryGenerator) Kinematic(site model.LaunchSite, targetAltitudeKm, ascentTimeS, inclinationDeg float64, epoch time.Time) []TrajectoryPoint {
	if !(ascentTimeS > 0) || math.IsInf(ascentTimeS, 0) {
		return nil
	}
	steps := math.Ceil(ascentTimeS / TrajectoryStepSeconds)
	if steps+1 > MaxKinematicPoints {
		return nil
	}
	n := int(steps) + 1
	if n < 2 {
		return nil
	}

	azimuth := 0.0
	if inclinationDeg < 90 {
		azimuth = 90.0
	}
	downrange := kinematicHorizontalSpeedKmS * ascentTimeS

	points := make([]TrajectoryPoint, n)
	for i := range points {
		elapsed := float64(i) * TrajectoryStepSeconds
		progress := math.Min(elapsed/ascentTimeS, 1)

		lat, lon := DestinationPoint(site.LatitudeDeg, site.LongitudeDeg, progress*downrange, azimuth)
		at := epoch.Add(secondsToDuration(elapsed))
		points[i] = TrajectoryPoint{
			Epoch:    at,
			Position: g.prop.GeodeticToInertial(lat, lon, progress*targetAltitudeKm, at),
		}
	}

	for i := 0; i < n-1; i++ {
		points[i].Velocity = points[i+1].Position.Sub(points[i].Position).Scale(1 / TrajectoryStepSeconds)
	}
	points[n-1].Velocity = points[n-2].Velocity
	return points
}

// Reference integrates a simplified powered ascent from the rotating pad and
// returns the resulting path. now only anchors the geodetic transform.
//
// The thrust direction is fixed in the local (east, north, up) frame and its
// magnitude is sized once from the deficit to circular speed at the target
// radius. Integration is explicit Euler at TrajectoryStepSeconds and stops
// when both target altitude and circular speed are reached, or after
// ReferenceMaxAscentSeconds of simulated flight. The vehicle is held on the
// surface while thrust cannot yet overcome gravity.
func (g *TrajectoryGenerator) Reference(site model.LaunchSite, targetAltitudeKm, inclinationDeg float64, now time.Time) ReferenceTrajectory {
	pos := g.prop.GeodeticToInertial(site.LatitudeDeg, site.LongitudeDeg, 0, now)
	surface := pos.Norm()
	vel := Vec3{Z: OmegaEarthRadS}.Cross(pos)

	targetRadius := surface + targetAltitudeKm
	targetSpeed := CircularSpeed(targetRadius)

	azimuth, fallback := launchAzimuth(site.LatitudeDeg, inclinationDeg)
	az := deg2rad(azimuth)
	dir := Vec3{X: math.Sin(az), Y: math.Cos(az), Z: referenceUpComponent}.Unit()
	accel := (targetSpeed - vel.Norm()) / referenceBurnSeconds * referenceThrustMargin

	ref := ReferenceTrajectory{
		AzimuthDeg:      azimuth,
		AzimuthFallback: fallback,
		SurfaceRadiusKm: surface,
		Points:          []TrajectoryPoint{{Epoch: now, Position: pos, Velocity: vel}},
	}

	for elapsed := 0.0; elapsed < ReferenceMaxAscentSeconds; {
		east, north, up := localFrame(pos)
		r := pos.Norm()

		thrust := east.Scale(dir.X).Add(north.Scale(dir.Y)).Add(up.Scale(dir.Z)).Scale(accel)
		gravity := up.Scale(-MuEarthKm3S2 / (r * r))

		vel = vel.Add(thrust.Add(gravity).Scale(TrajectoryStepSeconds))
		pos = pos.Add(vel.Scale(TrajectoryStepSeconds))

		if pos.Norm() < surface {
			up = pos.Unit()
			pos = up.Scale(surface)
			if radial := vel.Dot(up); radial < 0 {
				vel = vel.Sub(up.Scale(radial))
			}
		}

		elapsed += TrajectoryStepSeconds
		ref.Points = append(ref.Points, TrajectoryPoint{
			Epoch:    now.Add(secondsToDuration(elapsed)),
			Position: pos,
			Velocity: vel,
		})

		if pos.Norm()-surface >= targetAltitudeKm && vel.Norm() >= targetSpeed {
			ref.Converged = true
			break
		}
	}
	return ref
}

// launchAzimuth solves cos(az) = cos(incl)/cos(lat). Rounding noise around
// |ratio| = 1 is clamped; a ratio clearly outside [-1, 1] means the target
// inclination is unreachable from lat and the azimuth falls back to 0.
func launchAzimuth(latDeg, inclinationDeg float64) (float64, bool) {
	cosLat := math.Cos(deg2rad(latDeg))
	if math.Abs(cosLat) < 1e-12 {
		return 0, true
	}
	ratio := math.Cos(deg2rad(inclinationDeg)) / cosLat
	if math.IsNaN(ratio) || math.Abs(ratio) > 1+1e-9 {
		return 0, true
	}
	ratio = math.Max(-1, math.Min(1, ratio))
	return rad2deg(math.Acos(ratio)), false
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
