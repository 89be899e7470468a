package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/signalsfoundry/orbital-risk/internal/logging"
	"github.com/signalsfoundry/orbital-risk/model"
)

// Conjunction is a dangerous approach between the ascending vehicle and one
// catalog object.
type Conjunction struct {
	CatalogNumber   int
	Name            string
	Epoch           time.Time // trajectory point the approach was found from
	TimeToCPA       float64   // seconds after Epoch
	DistanceKm      float64
	TrajectoryIndex int
}

// SweepResult is the outcome of one conjunction sweep. Conjunctions are
// ordered by increasing miss distance.
type SweepResult struct {
	Conjunctions []Conjunction
	Skipped      []SkippedObject
	Checked      int // objects that propagated at every point
}

// ConjunctionDetector sweeps a trajectory against catalog objects with the
// CPA solver.
type ConjunctionDetector struct {
	prop   Propagator
	log    logging.Logger
	window float64
}

// DetectorOption configures a ConjunctionDetector.
type DetectorOption func(*ConjunctionDetector)

// WithDetectorLogger sets the logger used for skip and summary messages.
func WithDetectorLogger(l logging.Logger) DetectorOption {
	return func(d *ConjunctionDetector) {
		if l != nil {
			d.log = l
		}
	}
}

// WithWindow sets how far ahead of each trajectory point (seconds) a closest
// approach is attributed to that point. It should match the trajectory step.
func WithWindow(seconds float64) DetectorOption {
	return func(d *ConjunctionDetector) {
		if seconds > 0 {
			d.window = seconds
		}
	}
}

// NewConjunctionDetector constructs a detector over prop.
func NewConjunctionDetector(prop Propagator, opts ...DetectorOption) *ConjunctionDetector {
	d := &ConjunctionDetector{
		prop:   prop,
		log:    logging.Noop(),
		window: TrajectoryStepSeconds,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Detect pairs every trajectory point with every object propagated to the
// point's epoch. A pair is a conjunction when the linear closest approach
// falls inside [0, window] seconds and within radiusKm. Each object
// contributes at most one conjunction, its closest.
//
// An object that fails to propagate at any point is skipped entirely.
func (d *ConjunctionDetector) Detect(ctx context.Context, trajectory []TrajectoryPoint, objects []model.TrackedObject, radiusKm float64) SweepResult {
	var res SweepResult
	if len(trajectory) == 0 || !(radiusKm > 0) {
		return res
	}

	for _, obj := range objects {
		if obj.Line1 == "" || obj.Line2 == "" {
			res.Skipped = append(res.Skipped, SkippedObject{
				CatalogNumber: obj.CatalogNumber,
				Name:          obj.Name,
				Reason:        fmt.Errorf("%w (catalog %d)", model.ErrMissingTLE, obj.CatalogNumber),
			})
			continue
		}

		best, found, err := d.closestFor(obj, trajectory, radiusKm)
		if err != nil {
			d.log.Debug(ctx, "skipping object in conjunction sweep",
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
		res.Checked++
		if found {
			res.Conjunctions = append(res.Conjunctions, best)
		}
	}

	sort.SliceStable(res.Conjunctions, func(i, j int) bool {
		return res.Conjunctions[i].DistanceKm < res.Conjunctions[j].DistanceKm
	})

	d.log.Info(ctx, "conjunction sweep complete",
		logging.Int("points", len(trajectory)),
		logging.Int("objects", len(objects)),
		logging.Int("checked", res.Checked),
		logging.Int("skipped", len(res.Skipped)),
		logging.Int("conjunctions", len(res.Conjunctions)),
		logging.Float("radius_km", radiusKm),
	)
	return res
}

func (d *ConjunctionDetector) closestFor(obj model.TrackedObject, trajectory []TrajectoryPoint, radiusKm float64) (Conjunction, bool, error) {
	var (
		best  Conjunction
		found bool
	)
	for i, pt := range trajectory {
		p, err := d.prop.Propagate(obj.Line1, obj.Line2, pt.Epoch)
		if err != nil {
			return Conjunction{}, false, err
		}
		cpa := ClosestApproachStates(pt.State(), p.State)
		// Written positively so NaN results never qualify.
		if !(cpa.TimeToCPA >= 0 && cpa.TimeToCPA <= d.window && cpa.DistanceKm <= radiusKm) {
			continue
		}
		if !found || cpa.DistanceKm < best.DistanceKm {
			best = Conjunction{
				CatalogNumber:   obj.CatalogNumber,
				Name:            obj.Name,
				Epoch:           pt.Epoch,
				TimeToCPA:       cpa.TimeToCPA,
				DistanceKm:      cpa.DistanceKm,
				TrajectoryIndex: i,
			}
			found = true
		}
	}
	return best, found, nil
}
