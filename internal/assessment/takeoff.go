package assessment

import (
	"context"
	"errors"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/orbital-risk/core"
	"github.com/signalsfoundry/orbital-risk/internal/logging"
	"github.com/signalsfoundry/orbital-risk/model"
	"github.com/signalsfoundry/orbital-risk/risk"
)

// ErrTrajectoryUnavailable is returned when no usable ascent path could be
// generated for an otherwise valid request.
var ErrTrajectoryUnavailable = errors.New("failed to generate trajectory")

// TakeoffRequest asks for the collision risk of one launch.
type TakeoffRequest struct {
	Site             model.LaunchSite
	TargetAltitudeKm float64
	InclinationDeg   float64
	RocketAreaM2     float64
	TotalLossCost    float64
	CorridorRadiusM  float64   // zero uses the configured default
	AscentTimeS      float64   // zero sizes the ascent from the reference trajectory
	LaunchEpoch      time.Time // zero means now
}

// CorridorSummary describes the physics-integrated reference ascent.
type CorridorSummary struct {
	Points          int
	LengthKm        float64
	DurationS       float64
	FinalAltitudeKm float64
	AzimuthDeg      float64
	AzimuthFallback bool
	Converged       bool
}

// TakeoffAssessment is the conjunction-model result for one launch.
type TakeoffAssessment struct {
	ID              string
	Report          risk.Report
	Conjunctions    []core.Conjunction
	Corridor        CorridorSummary
	AscentTimeS     float64
	CorridorRadiusM float64
	Candidates      int
	Skipped         int
}

func (r TakeoffRequest) validate() error {
	if err := r.Site.Validate(); err != nil {
		return invalid(err)
	}
	if !finite(r.TargetAltitudeKm) || r.TargetAltitudeKm <= 0 {
		return invalidf("altitude must be a positive number of km, got %v", r.TargetAltitudeKm)
	}
	if !finite(r.InclinationDeg) || r.InclinationDeg < 0 || r.InclinationDeg > 180 {
		return invalidf("inclination must be within [0, 180], got %v", r.InclinationDeg)
	}
	if !finite(r.CorridorRadiusM) || r.CorridorRadiusM < 0 {
		return invalidf("corridor radius must be positive, got %v", r.CorridorRadiusM)
	}
	if !finite(r.AscentTimeS) || r.AscentTimeS < 0 {
		return invalidf("ascent time must be non-negative, got %v", r.AscentTimeS)
	}
	return nil
}

// TakeoffRisk sweeps the ascent against catalog objects that can reach the
// target altitude and applies the conjunction-count model.
//
// The reference ascent sizes the flight time when the request leaves it
// unset. Candidates are prefiltered to orbits between the ground and the
// target altitude plus the configured margin.
func (s *Service) TakeoffRisk(ctx context.Context, req TakeoffRequest) (res TakeoffAssessment, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, KindTakeoff,
		attribute.Float64("launch.latitude_deg", req.Site.LatitudeDeg),
		attribute.Float64("launch.longitude_deg", req.Site.LongitudeDeg),
		attribute.Float64("launch.target_altitude_km", req.TargetAltitudeKm),
		attribute.Float64("launch.inclination_deg", req.InclinationDeg),
	)
	defer func() { endSpan(span, err) }()

	if err := req.validate(); err != nil {
		return TakeoffAssessment{}, err
	}
	if req.AscentTimeS > s.settings.MaxAscentTimeS {
		return TakeoffAssessment{}, invalidf("ascent time must not exceed %v s, got %v", s.settings.MaxAscentTimeS, req.AscentTimeS)
	}
	radiusM := req.CorridorRadiusM
	if radiusM == 0 {
		radiusM = s.settings.DefaultCorridorRadiusM
	}
	params := risk.ConjunctionParams{
		CorridorRadiusM: radiusM,
		RocketAreaM2:    req.RocketAreaM2,
		TotalLossCost:   req.TotalLossCost,
	}
	if err := params.Validate(); err != nil {
		return TakeoffAssessment{}, invalid(err)
	}
	now := s.clock.Now()
	epoch := req.LaunchEpoch
	if epoch.IsZero() {
		epoch = now
	}

	ref := s.generator.Reference(req.Site, req.TargetAltitudeKm, req.InclinationDeg, now)
	if len(ref.Points) < 2 {
		return TakeoffAssessment{}, ErrTrajectoryUnavailable
	}
	if ref.AzimuthFallback {
		logging.Annotate(ctx, s.log).Warn(ctx, "target inclination unreachable from launch latitude; heading due north",
			logging.Float("latitude_deg", req.Site.LatitudeDeg),
			logging.Float("inclination_deg", req.InclinationDeg),
		)
	}
	ascent := req.AscentTimeS
	if ascent == 0 {
		ascent = float64(len(ref.Points)) * core.TrajectoryStepSeconds
	}

	objects := s.trackedObjects(ctx, span)
	candidates := s.analyzer.Analyze(ctx, objects, core.CongestionBounds{
		MinAltitudeKm:  0,
		MaxAltitudeKm:  req.TargetAltitudeKm + s.settings.CandidateMarginKm,
		MinInclination: 0,
		MaxInclination: 180,
	})
	s.metrics.AddSkipped("prefilter", len(candidates.Skipped))

	path := s.generator.Kinematic(req.Site, req.TargetAltitudeKm, ascent, req.InclinationDeg, epoch)
	if len(path) < 2 {
		return TakeoffAssessment{}, ErrTrajectoryUnavailable
	}
	sweep := s.detector.Detect(ctx, path, candidates.Objects, radiusM/1000)
	s.metrics.AddSkipped("sweep", len(sweep.Skipped))
	s.metrics.AddConjunctions(len(sweep.Conjunctions))

	params.Conjunctions = len(sweep.Conjunctions)
	report, err := risk.ConjunctionRisk(params)
	if err != nil {
		return TakeoffAssessment{}, invalid(err)
	}

	span.SetAttributes(
		attribute.Int("takeoff.candidates", len(candidates.Objects)),
		attribute.Int("takeoff.trajectory_points", len(path)),
		attribute.Int("takeoff.conjunctions", report.Count),
		attribute.String("risk.class", string(report.Class)),
	)
	elapsed := time.Since(start)
	s.metrics.ObserveAssessment(KindTakeoff, string(report.Class), elapsed)
	logging.Annotate(ctx, s.log).Info(ctx, "takeoff risk assessed",
		logging.Float("ascent_time_s", ascent),
		logging.Int("candidates", len(candidates.Objects)),
		logging.Int("conjunctions", report.Count),
		logging.Float("collision_probability", report.CollisionProbability),
		logging.String("risk_class", string(report.Class)),
		logging.Duration("elapsed", elapsed),
	)

	conjunctions := sweep.Conjunctions
	if conjunctions == nil {
		conjunctions = []core.Conjunction{}
	}
	return TakeoffAssessment{
		ID:           assessmentID(ctx),
		Report:       report,
		Conjunctions: conjunctions,
		Corridor: CorridorSummary{
			Points:          len(ref.Points),
			LengthKm:        ref.LengthKm(),
			DurationS:       ref.Duration().Seconds(),
			FinalAltitudeKm: ref.FinalAltitudeKm(),
			AzimuthDeg:      ref.AzimuthDeg,
			AzimuthFallback: ref.AzimuthFallback,
			Converged:       ref.Converged,
		},
		AscentTimeS:     ascent,
		CorridorRadiusM: radiusM,
		Candidates:      len(candidates.Objects),
		Skipped:         len(candidates.Skipped) + len(sweep.Skipped),
	}, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
