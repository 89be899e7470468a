// Package assessment runs risk assessments against the live catalog: on-orbit
// shell risk, launch corridor risk and orbital congestion maps.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/orbital-risk/core"
	"github.com/signalsfoundry/orbital-risk/internal/catalog"
	"github.com/signalsfoundry/orbital-risk/internal/logging"
	"github.com/signalsfoundry/orbital-risk/model"
	"github.com/signalsfoundry/orbital-risk/timectrl"
)

const tracerName = "github.com/signalsfoundry/orbital-risk/internal/assessment"

// Assessment kinds, used as metric labels.
const (
	KindOrbit      = "orbit"
	KindTakeoff    = "takeoff"
	KindCongestion = "congestion"
)

// ErrInvalidRequest wraps every caller-side validation failure.
var ErrInvalidRequest = errors.New("invalid request")

// Metrics receives assessment observations. *observability.RiskCollector
// satisfies it.
type Metrics interface {
	ObserveAssessment(kind, riskClass string, elapsed time.Duration)
	AddSkipped(stage string, n int)
	AddConjunctions(n int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveAssessment(string, string, time.Duration) {}
func (noopMetrics) AddSkipped(string, int)                          {}
func (noopMetrics) AddConjunctions(int)                             {}

// Settings are the tunable defaults applied to requests that omit them.
type Settings struct {
	ShellHalfWidthKm           float64
	DefaultRelativeVelocityKmS float64
	DefaultCorridorRadiusM     float64
	CandidateMarginKm          float64
	ConjunctionStepS           float64
	// MaxAscentTimeS bounds requested ascent times; the sweep cost grows
	// linearly with it.
	MaxAscentTimeS float64
}

// DefaultSettings returns the stock assessment defaults.
func DefaultSettings() Settings {
	return Settings{
		ShellHalfWidthKm:           50,
		DefaultRelativeVelocityKmS: 12.5,
		DefaultCorridorRadiusM:     25000,
		CandidateMarginKm:          200,
		ConjunctionStepS:           core.TrajectoryStepSeconds,
		MaxAscentTimeS:             4 * core.ReferenceMaxAscentSeconds,
	}
}

// Service runs assessments over the tracked-object catalog.
type Service struct {
	catalog  catalog.Lister
	prop     core.Propagator
	settings Settings
	clock    timectrl.Clock
	log      logging.Logger
	metrics  Metrics
	tracer   trace.Tracer

	analyzer  *core.CongestionAnalyzer
	generator *core.TrajectoryGenerator
	detector  *core.ConjunctionDetector
}

// Option configures a Service.
type Option func(*Service)

// WithSettings overrides DefaultSettings. Zero fields keep their default.
func WithSettings(st Settings) Option {
	return func(s *Service) {
		def := s.settings
		if st.ShellHalfWidthKm > 0 {
			def.ShellHalfWidthKm = st.ShellHalfWidthKm
		}
		if st.DefaultRelativeVelocityKmS > 0 {
			def.DefaultRelativeVelocityKmS = st.DefaultRelativeVelocityKmS
		}
		if st.DefaultCorridorRadiusM > 0 {
			def.DefaultCorridorRadiusM = st.DefaultCorridorRadiusM
		}
		if st.CandidateMarginKm > 0 {
			def.CandidateMarginKm = st.CandidateMarginKm
		}
		if st.ConjunctionStepS > 0 {
			def.ConjunctionStepS = st.ConjunctionStepS
		}
		if st.MaxAscentTimeS > 0 {
			def.MaxAscentTimeS = st.MaxAscentTimeS
		}
		s.settings = def
	}
}

// WithClock sets the time source for propagation instants.
func WithClock(c timectrl.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewService wires the assessment pipelines over a catalog and propagator.
func NewService(lister catalog.Lister, prop core.Propagator, opts ...Option) *Service {
	s := &Service{
		catalog:  lister,
		prop:     prop,
		settings: DefaultSettings(),
		clock:    timectrl.SystemClock{},
		log:      logging.Noop(),
		metrics:  noopMetrics{},
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.analyzer = core.NewCongestionAnalyzer(prop,
		core.WithAnalyzerLogger(s.log),
		core.WithAnalyzerClock(s.clock.Now),
	)
	s.generator = core.NewTrajectoryGenerator(prop)
	s.detector = core.NewConjunctionDetector(prop,
		core.WithDetectorLogger(s.log),
		core.WithWindow(s.settings.ConjunctionStepS),
	)
	return s
}

// Settings returns the effective defaults.
func (s *Service) Settings() Settings { return s.settings }

// trackedObjects lists the catalog, degrading to whatever the collaborator
// returned (possibly nothing) when it reports an error.
func (s *Service) trackedObjects(ctx context.Context, span trace.Span) []model.TrackedObject {
	objs, err := s.catalog.ListTrackedObjects(ctx)
	if err != nil {
		logging.Annotate(ctx, s.log).Warn(ctx, "catalog unavailable; assessing against partial catalog",
			logging.Int("objects", len(objs)),
			logging.Err(err),
		)
		span.AddEvent("catalog.degraded", trace.WithAttributes(attribute.String("error", err.Error())))
	}
	span.SetAttributes(attribute.Int("catalog.objects", len(objs)))
	return objs
}

// startSpan opens the assessment scope: a fresh assessment ID on ctx and a
// span carrying it.
func (s *Service) startSpan(ctx context.Context, kind string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, a := logging.ContextWithAssessment(ctx, kind)
	attrs = append(attrs,
		attribute.String("assessment.kind", kind),
		attribute.String("assessment.id", a.ID),
	)
	if reqID := logging.RequestIDFromContext(ctx); reqID != "" {
		attrs = append(attrs, attribute.String("request_id", reqID))
	}
	return s.tracer.Start(ctx, "assessment."+kind, trace.WithAttributes(attrs...))
}

func assessmentID(ctx context.Context) string {
	a, _ := logging.AssessmentFromContext(ctx)
	return a.ID
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
}
