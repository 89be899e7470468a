package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const namespace = "orbitrisk"

var latencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

// RiskCollector bundles Prometheus metrics for the risk service and provides
// helpers to wire them into HTTP handlers, gRPC servers and the catalog.
type RiskCollector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
	RPCRequests   *prometheus.CounterVec

	Assessments         *prometheus.CounterVec
	AssessmentDurations *prometheus.HistogramVec

	CatalogObjects       prometheus.Gauge
	CatalogRefreshes     *prometheus.CounterVec
	ObjectsSkipped       *prometheus.CounterVec
	ConjunctionsDetected prometheus.Counter
}

// NewRiskCollector registers the service metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
// Registering twice against the same registry reuses the existing collectors.
func NewRiskCollector(reg prometheus.Registerer) (*RiskCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &RiskCollector{gatherer: gatherer}
	var err error

	if c.HTTPRequests, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of handled HTTP requests, labeled by route pattern, method, and status code.",
	}, []string{"route", "method", "code"}), "http_requests_total"); err != nil {
		return nil, err
	}
	if c.HTTPDurations, err = registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   latencyBuckets,
	}, []string{"route", "method"}), "http_request_duration_seconds"); err != nil {
		return nil, err
	}
	if c.RPCRequests, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "grpc_requests_total",
		Help:      "Total number of handled gRPC calls, labeled by service, method, and gRPC status code.",
	}, []string{"service", "method", "code"}), "grpc_requests_total"); err != nil {
		return nil, err
	}
	if c.Assessments, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assessments_total",
		Help:      "Completed risk assessments, labeled by kind and resulting risk class.",
	}, []string{"kind", "risk_class"}), "assessments_total"); err != nil {
		return nil, err
	}
	if c.AssessmentDurations, err = registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "assessment_duration_seconds",
		Help:      "Time spent computing a risk assessment, including catalog access.",
		Buckets:   latencyBuckets,
	}, []string{"kind"}), "assessment_duration_seconds"); err != nil {
		return nil, err
	}
	if c.CatalogObjects, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_objects",
		Help:      "Number of tracked objects in the current catalog snapshot.",
	}), "catalog_objects"); err != nil {
		return nil, err
	}
	if c.CatalogRefreshes, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_refreshes_total",
		Help:      "Catalog refresh attempts by outcome (fetched, store, stale, failed).",
	}, []string{"result"}), "catalog_refreshes_total"); err != nil {
		return nil, err
	}
	if c.ObjectsSkipped, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "objects_skipped_total",
		Help:      "Catalog objects excluded because they could not be propagated, by pipeline stage.",
	}, []string{"stage"}), "objects_skipped_total"); err != nil {
		return nil, err
	}
	if c.ConjunctionsDetected, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "conjunctions_detected_total",
		Help:      "Dangerous conjunctions found by launch corridor sweeps.",
	}), "conjunctions_detected_total"); err != nil {
		return nil, err
	}
	return c, nil
}

// UnaryServerInterceptor records request counts for unary RPCs.
func (c *RiskCollector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if c == nil || c.RPCRequests == nil {
			return resp, err
		}

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		service, method := SplitMethod(fullMethod)
		c.RPCRequests.WithLabelValues(service, method, status.Code(err).String()).Inc()
		return resp, err
	}
}

// Middleware records request counts and durations for chi routes. The route
// label is the matched pattern, not the raw path, to keep cardinality bounded.
func (c *RiskCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		if c == nil {
			return
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		if c.HTTPRequests != nil {
			c.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(code)).Inc()
		}
		if c.HTTPDurations != nil {
			c.HTTPDurations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler exposes a ready-to-use /metrics handler.
func (c *RiskCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveAssessment records one completed assessment.
func (c *RiskCollector) ObserveAssessment(kind, riskClass string, elapsed time.Duration) {
	if c == nil {
		return
	}
	if riskClass != "" && c.Assessments != nil {
		c.Assessments.WithLabelValues(kind, riskClass).Inc()
	}
	if c.AssessmentDurations != nil {
		c.AssessmentDurations.WithLabelValues(kind).Observe(elapsed.Seconds())
	}
}

// AddSkipped counts objects dropped at a pipeline stage.
func (c *RiskCollector) AddSkipped(stage string, n int) {
	if c == nil || c.ObjectsSkipped == nil || n <= 0 {
		return
	}
	c.ObjectsSkipped.WithLabelValues(stage).Add(float64(n))
}

// AddConjunctions counts detected conjunctions.
func (c *RiskCollector) AddConjunctions(n int) {
	if c == nil || c.ConjunctionsDetected == nil || n <= 0 {
		return
	}
	c.ConjunctionsDetected.Add(float64(n))
}

// SetCatalogObjects sets the catalog size gauge.
func (c *RiskCollector) SetCatalogObjects(n int) {
	if c == nil || c.CatalogObjects == nil {
		return
	}
	c.CatalogObjects.Set(float64(n))
}

// RecordCatalogRefresh counts a refresh outcome. It satisfies
// catalog.RefreshRecorder.
func (c *RiskCollector) RecordCatalogRefresh(result string) {
	if c == nil || c.CatalogRefreshes == nil {
		return
	}
	c.CatalogRefreshes.WithLabelValues(result).Inc()
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	if fullMethod == "" {
		return "unknown", "unknown"
	}
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service := parts[len(parts)-2]
	method := parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
