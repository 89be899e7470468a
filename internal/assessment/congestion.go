package assessment

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/orbital-risk/core"
)

// CongestionRequest bounds the region to map. Inclination bounds are in
// degrees; callers wanting every orbit pass 0 and 180.
type CongestionRequest struct {
	MinAltitudeKm     float64
	MaxAltitudeKm     float64
	MinInclinationDeg float64
	MaxInclinationDeg float64
}

// Cell is one populated congestion cell.
type Cell struct {
	MeanMotionBin     float64
	InclinationBin    int
	Count             int
	AvgInclinationDeg float64
	AvgMeanMotion     float64
}

// CongestionAssessment is the density map of one region, cells ordered by
// mean motion then inclination.
type CongestionAssessment struct {
	ID            string
	Cells         []Cell
	ObjectCount   int
	Skipped       int
	MinMeanMotion float64
	MaxMeanMotion float64
}

// Congestion maps catalog density inside the requested bounds. An inverted
// altitude range is not an error; it yields an empty map.
func (s *Service) Congestion(ctx context.Context, req CongestionRequest) (res CongestionAssessment, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, KindCongestion,
		attribute.Float64("congestion.min_altitude_km", req.MinAltitudeKm),
		attribute.Float64("congestion.max_altitude_km", req.MaxAltitudeKm),
	)
	defer func() { endSpan(span, err) }()

	for _, v := range []float64{req.MinAltitudeKm, req.MaxAltitudeKm, req.MinInclinationDeg, req.MaxInclinationDeg} {
		if !finite(v) {
			return CongestionAssessment{}, invalidf("bounds must be finite numbers")
		}
	}

	objects := s.trackedObjects(ctx, span)
	result := s.analyzer.Analyze(ctx, objects, core.CongestionBounds{
		MinAltitudeKm:  req.MinAltitudeKm,
		MaxAltitudeKm:  req.MaxAltitudeKm,
		MinInclination: req.MinInclinationDeg,
		MaxInclination: req.MaxInclinationDeg,
	})
	s.metrics.AddSkipped(KindCongestion, len(result.Skipped))

	cells := make([]Cell, 0, len(result.Cells))
	for _, k := range result.Cells.SortedKeys() {
		c := result.Cells[k]
		cells = append(cells, Cell{
			MeanMotionBin:     k.MeanMotionBin,
			InclinationBin:    k.InclinationBin,
			Count:             c.Count,
			AvgInclinationDeg: c.AvgInclination,
			AvgMeanMotion:     c.AvgMeanMotion,
		})
	}

	span.SetAttributes(
		attribute.Int("congestion.objects", len(result.Objects)),
		attribute.Int("congestion.cells", len(cells)),
	)
	s.metrics.ObserveAssessment(KindCongestion, "", time.Since(start))

	return CongestionAssessment{
		ID:            assessmentID(ctx),
		Cells:         cells,
		ObjectCount:   len(result.Objects),
		Skipped:       len(result.Skipped),
		MinMeanMotion: result.MinMeanMotion,
		MaxMeanMotion: result.MaxMeanMotion,
	}, nil
}
