package assessment

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/signalsfoundry/orbital-risk/core"
	"github.com/signalsfoundry/orbital-risk/model"
)

// stubObject is a scripted catalog entry: fixed elements and straight-line
// motion from Position at the fake's epoch.
type stubObject struct {
	MeanMotion  float64
	Inclination float64
	Position    core.Vec3
	Velocity    core.Vec3
	Err         error
}

type stubPropagator struct {
	epoch   time.Time
	objects map[string]stubObject
}

func newStubPropagator(epoch time.Time) *stubPropagator {
	return &stubPropagator{epoch: epoch, objects: make(map[string]stubObject)}
}

func (p *stubPropagator) add(catalog int, o stubObject) model.TrackedObject {
	line1 := fmt.Sprintf("stub-%d", catalog)
	p.objects[line1] = o
	return model.TrackedObject{
		Name:          fmt.Sprintf("OBJ %d", catalog),
		CatalogNumber: catalog,
		Line1:         line1,
		Line2:         "stub",
	}
}

func (p *stubPropagator) Propagate(line1, _ string, at time.Time) (core.Propagation, error) {
	o, ok := p.objects[line1]
	if !ok {
		return core.Propagation{}, fmt.Errorf("%w: unknown object %q", core.ErrMalformedTLE, line1)
	}
	if o.Err != nil {
		return core.Propagation{}, o.Err
	}
	dt := at.Sub(p.epoch).Seconds()
	return core.Propagation{
		State: core.StateVector{
			Position: o.Position.Add(o.Velocity.Scale(dt)),
			Velocity: o.Velocity,
			Epoch:    at,
		},
		MeanMotionRevPerDay: o.MeanMotion,
		InclinationDeg:      o.Inclination,
	}, nil
}

// GeodeticToInertial places points on a non-rotating sphere.
func (p *stubPropagator) GeodeticToInertial(latDeg, lonDeg, altKm float64, _ time.Time) core.Vec3 {
	lat := latDeg * math.Pi / 180
	lon := lonDeg * math.Pi / 180
	r := core.MeanRadiusKm + altKm
	return core.Vec3{
		X: r * math.Cos(lat) * math.Cos(lon),
		Y: r * math.Cos(lat) * math.Sin(lon),
		Z: r * math.Sin(lat),
	}
}

type stubLister struct {
	objects []model.TrackedObject
	err     error
	calls   int
}

func (l *stubLister) ListTrackedObjects(context.Context) ([]model.TrackedObject, error) {
	l.calls++
	return l.objects, l.err
}

type recordingMetrics struct {
	mu           sync.Mutex
	assessments  map[string]string
	skipped      map[string]int
	conjunctions int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{assessments: map[string]string{}, skipped: map[string]int{}}
}

func (m *recordingMetrics) ObserveAssessment(kind, riskClass string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assessments[kind] = riskClass
}

func (m *recordingMetrics) AddSkipped(stage string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skipped[stage] += n
}

func (m *recordingMetrics) AddConjunctions(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conjunctions += n
}

func meanMotion(altKm float64) float64 {
	mm, err := core.MeanMotionForAltitude(altKm)
	if err != nil {
		panic(err)
	}
	return mm
}
