package core

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/signalsfoundry/orbital-risk/internal/logging"
	"github.com/signalsfoundry/orbital-risk/model"
)

// CellKey identifies an orbital-density cell: mean motion rounded to 0.1
// rev/day and inclination rounded to whole degrees.
type CellKey struct {
	MeanMotionBin  float64
	InclinationBin int
}

// CongestionCell aggregates the objects that fall into one cell.
type CongestionCell struct {
	Count          int
	AvgInclination float64
	AvgMeanMotion  float64
}

// Add folds one object into the running means. Each update sees the true
// running count; the means are never recomputed from scratch.
func (c *CongestionCell) Add(inclinationDeg, meanMotion float64) {
	c.Count++
	n := float64(c.Count)
	c.AvgInclination += (inclinationDeg - c.AvgInclination) / n
	c.AvgMeanMotion += (meanMotion - c.AvgMeanMotion) / n
}

// CongestionMap is the per-call density map.
type CongestionMap map[CellKey]*CongestionCell

// SortedKeys returns the keys ordered by mean motion then inclination.
func (m CongestionMap) SortedKeys() []CellKey {
	keys := make([]CellKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].MeanMotionBin != keys[j].MeanMotionBin {
			return keys[i].MeanMotionBin < keys[j].MeanMotionBin
		}
		return keys[i].InclinationBin < keys[j].InclinationBin
	})
	return keys
}

// SkippedObject records a catalog entry that contributed nothing because it
// could not be propagated.
type SkippedObject struct {
	CatalogNumber int
	Name          string
	Reason        error
}

// CongestionBounds are inclusive altitude (km) and inclination (deg) limits.
type CongestionBounds struct {
	MinAltitudeKm  float64
	MaxAltitudeKm  float64
	MinInclination float64
	MaxInclination float64
}

// CongestionResult is the output of one analysis.
type CongestionResult struct {
	Cells   CongestionMap
	Objects []model.TrackedObject
	Skipped []SkippedObject

	// Mean-motion window derived from the altitude bounds (rev/day).
	MinMeanMotion float64
	MaxMeanMotion float64
}

// CongestionAnalyzer buckets catalog objects into orbital-density cells.
type CongestionAnalyzer struct {
	prop  Propagator
	log   logging.Logger
	clock func() time.Time
}

// AnalyzerOption configures a CongestionAnalyzer.
type AnalyzerOption func(*CongestionAnalyzer)

// WithAnalyzerLogger sets the logger used for skip and summary messages.
func WithAnalyzerLogger(l logging.Logger) AnalyzerOption {
	return func(a *CongestionAnalyzer) {
		if l != nil {
			a.log = l
		}
	}
}

// WithAnalyzerClock sets the instant source used when propagating objects.
func WithAnalyzerClock(now func() time.Time) AnalyzerOption {
	return func(a *CongestionAnalyzer) {
		if now != nil {
			a.clock = now
		}
	}
}

// NewCongestionAnalyzer constructs an analyzer over the given propagator.
func NewCongestionAnalyzer(prop Propagator, opts ...AnalyzerOption) *CongestionAnalyzer {
	a := &CongestionAnalyzer{
		prop:  prop,
		log:   logging.Noop(),
		clock: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Analyze filters objects by altitude and inclination and folds the accepted
// ones into a congestion map.
//
// The altitude bounds become a mean-motion window on a circular-orbit
// assumption: the lower altitude gives the upper mean-motion bound. An
// invalid altitude range (negative, or lower above upper) yields an empty
// result rather than an error.
func (a *CongestionAnalyzer) Analyze(ctx context.Context, objects []model.TrackedObject, b CongestionBounds) CongestionResult {
	res := CongestionResult{Cells: make(CongestionMap)}

	maxMM, errLo := MeanMotionForAltitude(b.MinAltitudeKm)
	minMM, errHi := MeanMotionForAltitude(b.MaxAltitudeKm)
	if errLo != nil || errHi != nil || b.MinAltitudeKm > b.MaxAltitudeKm {
		a.log.Warn(ctx, "invalid altitude range; returning empty congestion map",
			logging.Float("min_altitude_km", b.MinAltitudeKm),
			logging.Float("max_altitude_km", b.MaxAltitudeKm),
		)
		return res
	}
	res.MinMeanMotion, res.MaxMeanMotion = minMM, maxMM

	a.log.Debug(ctx, "mean motion filter",
		logging.Float("min_rev_per_day", minMM),
		logging.Float("max_rev_per_day", maxMM),
	)

	at := a.clock()
	for _, obj := range objects {
		if obj.Line1 == "" || obj.Line2 == "" {
			res.Skipped = append(res.Skipped, SkippedObject{
				CatalogNumber: obj.CatalogNumber,
				Name:          obj.Name,
				Reason:        fmt.Errorf("%w (catalog %d)", model.ErrMissingTLE, obj.CatalogNumber),
			})
			continue
		}

		p, err := a.prop.Propagate(obj.Line1, obj.Line2, at)
		if err != nil {
			a.log.Debug(ctx, "skipping object",
				logging.CatalogNumber(obj.CatalogNumber),
				logging.String("name", obj.Name),
				logging.Err(err),
			)
			res.Skipped = append(res.Skipped, SkippedObject{
				CatalogNumber: obj.CatalogNumber,
				Name:          obj.Name,
				Reason:        err,
			})
			continue
		}

		mm := p.MeanMotionRevPerDay
		incl := p.InclinationDeg
		if mm < minMM || mm > maxMM {
			continue
		}
		if incl < b.MinInclination || incl > b.MaxInclination {
			continue
		}

		res.Objects = append(res.Objects, obj)
		key := CellKey{
			MeanMotionBin:  math.RoundToEven(mm*10) / 10,
			InclinationBin: int(math.RoundToEven(incl)),
		}
		cell, ok := res.Cells[key]
		if !ok {
			cell = &CongestionCell{}
			res.Cells[key] = cell
		}
		cell.Add(incl, mm)
	}

	a.log.Info(ctx, "congestion analysis complete",
		logging.Int("input", len(objects)),
		logging.Int("accepted", len(res.Objects)),
		logging.Int("skipped", len(res.Skipped)),
		logging.Int("cells", len(res.Cells)),
	)
	return res
}
