package core

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/orbital-risk/model"
)

// straightTrajectory moves along +x at 1 km/s with a point every 10 s.
func straightTrajectory(epoch time.Time, n int) []TrajectoryPoint {
	pts := make([]TrajectoryPoint, n)
	for i := range pts {
		t := float64(i) * 10
		pts[i] = TrajectoryPoint{
			Epoch:    epoch.Add(time.Duration(i) * 10 * time.Second),
			Position: Vec3{X: t},
			Velocity: Vec3{X: 1},
		}
	}
	return pts
}

func TestDetect_FindsCrossingInsideWindow(t *testing.T) {
	prop := newFakePropagator()
	crossing := prop.add(100, fakeOrbit{
		Position: Vec3{X: 55, Y: -55, Z: 0.5},
		Velocity: Vec3{Y: 1},
		Epoch:    launchEpoch,
	})
	traj := straightTrajectory(launchEpoch, 11)

	res := NewConjunctionDetector(prop).Detect(context.Background(), traj, []model.TrackedObject{crossing}, 1)
	if len(res.Conjunctions) != 1 {
		t.Fatalf("got %d conjunctions, want 1", len(res.Conjunctions))
	}
	c := res.Conjunctions[0]
	if c.CatalogNumber != 100 || c.TrajectoryIndex != 5 {
		t.Fatalf("conjunction = %+v, want catalog 100 at point 5", c)
	}
	if diff := c.DistanceKm - 0.5; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("distance = %v, want 0.5", c.DistanceKm)
	}
	if diff := c.TimeToCPA - 5; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("time to CPA = %v, want 5", c.TimeToCPA)
	}
	if res.Checked != 1 || len(res.Skipped) != 0 {
		t.Fatalf("checked=%d skipped=%v", res.Checked, res.Skipped)
	}
}

func TestDetect_RespectsRadius(t *testing.T) {
	prop := newFakePropagator()
	crossing := prop.add(100, fakeOrbit{
		Position: Vec3{X: 55, Y: -55, Z: 0.5},
		Velocity: Vec3{Y: 1},
		Epoch:    launchEpoch,
	})
	traj := straightTrajectory(launchEpoch, 11)

	res := NewConjunctionDetector(prop).Detect(context.Background(), traj, []model.TrackedObject{crossing}, 0.4)
	if len(res.Conjunctions) != 0 {
		t.Fatalf("miss distance 0.5 km should not count inside a 0.4 km corridor: %+v", res.Conjunctions)
	}
}

func TestDetect_OneConjunctionPerObject(t *testing.T) {
	prop := newFakePropagator()
	escort := prop.add(1, fakeOrbit{
		Position: Vec3{Y: 0.3},
		Velocity: Vec3{X: 1},
		Epoch:    launchEpoch,
	})
	crossing := prop.add(2, fakeOrbit{
		Position: Vec3{X: 55, Y: -55, Z: 0.5},
		Velocity: Vec3{Y: 1},
		Epoch:    launchEpoch,
	})
	traj := straightTrajectory(launchEpoch, 11)

	res := NewConjunctionDetector(prop).Detect(context.Background(), traj, []model.TrackedObject{crossing, escort}, 1)
	if len(res.Conjunctions) != 2 {
		t.Fatalf("got %d conjunctions, want one per object: %+v", len(res.Conjunctions), res.Conjunctions)
	}
	if res.Conjunctions[0].CatalogNumber != 1 || res.Conjunctions[1].CatalogNumber != 2 {
		t.Fatalf("conjunctions not ordered by distance: %+v", res.Conjunctions)
	}
	if res.Conjunctions[0].TrajectoryIndex != 0 {
		t.Fatalf("escort should be recorded at its first closest point, got %d", res.Conjunctions[0].TrajectoryIndex)
	}
}

func TestDetect_SkipsFailingObjects(t *testing.T) {
	prop := newFakePropagator()
	far := prop.add(1, fakeOrbit{
		Position: Vec3{X: 55, Y: -55, Z: 100},
		Velocity: Vec3{Y: 1},
		Epoch:    launchEpoch,
	})
	broken := prop.add(2, fakeOrbit{Err: ErrPropagationFailed})
	noLines := model.TrackedObject{Name: "EMPTY", CatalogNumber: 3}

	res := NewConjunctionDetector(prop).Detect(context.Background(),
		straightTrajectory(launchEpoch, 11), []model.TrackedObject{far, broken, noLines}, 25)

	if len(res.Conjunctions) != 0 {
		t.Fatalf("unexpected conjunctions: %+v", res.Conjunctions)
	}
	if res.Checked != 1 {
		t.Fatalf("checked = %d, want 1", res.Checked)
	}
	if len(res.Skipped) != 2 || !errors.Is(res.Skipped[0].Reason, ErrPropagationFailed) || !errors.Is(res.Skipped[1].Reason, model.ErrMissingTLE) {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
}

func TestDetect_EmptyInputs(t *testing.T) {
	prop := newFakePropagator()
	obj := prop.add(1, fakeOrbit{Velocity: Vec3{X: 1}, Epoch: launchEpoch})
	d := NewConjunctionDetector(prop)

	if res := d.Detect(context.Background(), nil, []model.TrackedObject{obj}, 25); len(res.Conjunctions) != 0 || res.Checked != 0 {
		t.Fatalf("empty trajectory should yield nothing: %+v", res)
	}
	if res := d.Detect(context.Background(), straightTrajectory(launchEpoch, 3), nil, 25); len(res.Conjunctions) != 0 {
		t.Fatalf("empty catalog should yield nothing: %+v", res)
	}
	if res := d.Detect(context.Background(), straightTrajectory(launchEpoch, 3), []model.TrackedObject{obj}, 0); len(res.Conjunctions) != 0 {
		t.Fatalf("non-positive radius should yield nothing: %+v", res)
	}
}

func TestWithWindowWidensAttribution(t *testing.T) {
	prop := newFakePropagator()
	crossing := prop.add(100, fakeOrbit{
		Position: Vec3{X: 55, Y: -55, Z: 0.5},
		Velocity: Vec3{Y: 1},
		Epoch:    launchEpoch,
	})
	// Only the first point: the crossing is 55 s ahead.
	traj := straightTrajectory(launchEpoch, 1)

	if res := NewConjunctionDetector(prop).Detect(context.Background(), traj, []model.TrackedObject{crossing}, 1); len(res.Conjunctions) != 0 {
		t.Fatalf("default window should not reach 55 s ahead")
	}
	res := NewConjunctionDetector(prop, WithWindow(60)).Detect(context.Background(), traj, []model.TrackedObject{crossing}, 1)
	if len(res.Conjunctions) != 1 {
		t.Fatalf("60 s window should catch the crossing")
	}
}

func TestDetect_NonFiniteTrajectoryFindsNothing(t *testing.T) {
	prop := newFakePropagator()
	var objs []model.TrackedObject
	for i := 0; i < 5; i++ {
		objs = append(objs, prop.add(200+i, fakeOrbit{
			Position: Vec3{X: 30000 + float64(i)*30000},
			Velocity: Vec3{Y: 7},
			Epoch:    launchEpoch,
		}))
	}
	traj := straightTrajectory(launchEpoch, 4)
	for i := range traj {
		traj[i].Position = Vec3{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
		traj[i].Velocity = Vec3{X: math.NaN()}
	}

	res := NewConjunctionDetector(prop).Detect(context.Background(), traj, objs, 25)
	if len(res.Conjunctions) != 0 {
		t.Fatalf("NaN geometry produced %d conjunctions: %+v", len(res.Conjunctions), res.Conjunctions)
	}
}
