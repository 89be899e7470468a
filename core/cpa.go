package core

// relativeSpeedEpsilon (km/s) below which two bodies are treated as moving
// together and their separation as constant.
const relativeSpeedEpsilon = 1e-9

// CPAResult is the closest point of approach between two bodies.
// TimeToCPA is in seconds relative to the shared epoch and is negative when
// the approach already happened.
type CPAResult struct {
	TimeToCPA  float64
	DistanceKm float64
}

// ClosestApproach solves for the closest point of approach of two bodies
// extrapolated linearly from a shared epoch.
//
// Both trajectories are treated as straight lines, so the result is only
// meaningful over intervals short enough that orbital curvature can be
// ignored. Callers reject results outside the window they care about.
func ClosestApproach(posA, velA, posB, velB Vec3) CPAResult {
	dp := posB.Sub(posA)
	dv := velB.Sub(velA)

	dv2 := dv.Dot(dv)
	if dv2 < relativeSpeedEpsilon*relativeSpeedEpsilon {
		return CPAResult{TimeToCPA: 0, DistanceKm: dp.Norm()}
	}
	t := -dp.Dot(dv) / dv2
	return CPAResult{
		TimeToCPA:  t,
		DistanceKm: dp.Add(dv.Scale(t)).Norm(),
	}
}

// ClosestApproachStates is ClosestApproach over two state vectors. The
// epochs are assumed equal.
func ClosestApproachStates(a, b StateVector) CPAResult {
	return ClosestApproach(a.Position, a.Velocity, b.Position, b.Velocity)
}
