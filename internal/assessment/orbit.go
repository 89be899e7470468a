package assessment

import (
	"context"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/orbital-risk/core"
	"github.com/signalsfoundry/orbital-risk/internal/logging"
	"github.com/signalsfoundry/orbital-risk/risk"
)

// OrbitRequest asks for the collision risk of dwelling at HeightKm.
type OrbitRequest struct {
	HeightKm            float64
	EffectiveAreaM2     float64
	MissionYears        float64
	SpacecraftCost      float64
	LostRevenue         float64
	RelativeVelocityKmS float64 // zero uses the configured default
}

// OrbitAssessment is the shell-model result for one orbit request.
type OrbitAssessment struct {
	ID              string
	Report          risk.Report
	LowerAltitudeKm float64
	UpperAltitudeKm float64
	Skipped         int
}

func (r OrbitRequest) validate() error {
	if math.IsNaN(r.HeightKm) || math.IsInf(r.HeightKm, 0) || r.HeightKm < 0 {
		return invalidf("height must be a finite non-negative altitude, got %v", r.HeightKm)
	}
	if r.RelativeVelocityKmS < 0 || math.IsNaN(r.RelativeVelocityKmS) {
		return invalidf("relative velocity must be non-negative, got %v", r.RelativeVelocityKmS)
	}
	return nil
}

// OrbitRisk counts catalog objects in the shell around the requested height
// and applies the shell density model.
func (s *Service) OrbitRisk(ctx context.Context, req OrbitRequest) (res OrbitAssessment, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, KindOrbit, attribute.Float64("orbit.height_km", req.HeightKm))
	defer func() { endSpan(span, err) }()

	if err := req.validate(); err != nil {
		return OrbitAssessment{}, err
	}
	vRel := req.RelativeVelocityKmS
	if vRel == 0 {
		vRel = s.settings.DefaultRelativeVelocityKmS
	}
	lower := req.HeightKm - s.settings.ShellHalfWidthKm
	upper := req.HeightKm + s.settings.ShellHalfWidthKm

	params := risk.ShellParams{
		LowerAltitudeKm:     lower,
		UpperAltitudeKm:     upper,
		RelativeVelocityKmS: vRel,
		EffectiveAreaM2:     req.EffectiveAreaM2,
		MissionYears:        req.MissionYears,
		SpacecraftCost:      req.SpacecraftCost,
		LostRevenue:         req.LostRevenue,
	}
	if err := params.Validate(); err != nil {
		return OrbitAssessment{}, invalid(err)
	}

	objects := s.trackedObjects(ctx, span)
	shell := s.analyzer.Analyze(ctx, objects, core.CongestionBounds{
		MinAltitudeKm:  lower,
		MaxAltitudeKm:  upper,
		MinInclination: 0,
		MaxInclination: 180,
	})
	s.metrics.AddSkipped(KindOrbit, len(shell.Skipped))

	params.ObjectCount = len(shell.Objects)
	report, err := risk.ShellRisk(params)
	if err != nil {
		return OrbitAssessment{}, invalid(err)
	}

	span.SetAttributes(
		attribute.Int("orbit.objects_in_shell", report.Count),
		attribute.String("risk.class", string(report.Class)),
	)
	elapsed := time.Since(start)
	s.metrics.ObserveAssessment(KindOrbit, string(report.Class), elapsed)
	logging.Annotate(ctx, s.log).Info(ctx, "orbit risk assessed",
		logging.Float("height_km", req.HeightKm),
		logging.Int("objects_in_shell", report.Count),
		logging.Float("collision_probability", report.CollisionProbability),
		logging.String("risk_class", string(report.Class)),
		logging.Duration("elapsed", elapsed),
	)

	return OrbitAssessment{
		ID:              assessmentID(ctx),
		Report:          report,
		LowerAltitudeKm: lower,
		UpperAltitudeKm: upper,
		Skipped:         len(shell.Skipped),
	}, nil
}
