// Package api serves risk assessments over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/signalsfoundry/orbital-risk/internal/assessment"
	"github.com/signalsfoundry/orbital-risk/internal/logging"
	"github.com/signalsfoundry/orbital-risk/model"
)

// Service is the assessment surface the handlers need.
type Service interface {
	OrbitRisk(ctx context.Context, req assessment.OrbitRequest) (assessment.OrbitAssessment, error)
	TakeoffRisk(ctx context.Context, req assessment.TakeoffRequest) (assessment.TakeoffAssessment, error)
	Congestion(ctx context.Context, req assessment.CongestionRequest) (assessment.CongestionAssessment, error)
}

// Handler wires the /api endpoints to an assessment service.
type Handler struct {
	service Service
	log     logging.Logger
}

// New constructs a Handler. A nil logger discards output.
func New(service Service, log logging.Logger) *Handler {
	if log == nil {
		log = logging.Noop()
	}
	return &Handler{service: service, log: log}
}

// Register mounts the endpoints on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/health", h.HandleHealth)
	r.Get("/api/orbit_risk", h.HandleOrbitRisk)
	r.Get("/api/takeoff_risk", h.HandleTakeoffRisk)
	r.Get("/api/congestion", h.HandleCongestion)
}

// NewRouter builds the full HTTP router: panic recovery, request-scoped
// logging, the optional instrumentation middleware, then the endpoints.
func NewRouter(h *Handler, instrument func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)
	if instrument != nil {
		r.Use(instrument)
	}
	h.Register(r)
	return r
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Request-ID"); id != "" {
			r = r.WithContext(logging.ContextWithRequestID(r.Context(), id))
		}
		ctx, log := logging.WithRequestLogger(r.Context(), h.log)
		w.Header().Set("X-Request-ID", logging.RequestIDFromContext(ctx))

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		log.Debug(ctx, "http request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Duration("elapsed", time.Since(start)),
		)
	})
}

// HandleHealth handles GET /api/health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// HandleOrbitRisk handles GET /api/orbit_risk.
func (h *Handler) HandleOrbitRisk(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	req := assessment.OrbitRequest{
		HeightKm:            q.required("height"),
		EffectiveAreaM2:     q.required("A_effective"),
		MissionYears:        q.required("T_years"),
		SpacecraftCost:      q.required("C_full"),
		LostRevenue:         q.required("D_lost"),
		RelativeVelocityKmS: q.optional("V_rel", 0),
	}
	if err := q.err(); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.service.OrbitRisk(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrbitResponse(res))
}

// HandleTakeoffRisk handles GET /api/takeoff_risk.
func (h *Handler) HandleTakeoffRisk(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	req := assessment.TakeoffRequest{
		Site: model.LaunchSite{
			LatitudeDeg:  q.required("lat"),
			LongitudeDeg: q.required("lon"),
		},
		TargetAltitudeKm: q.required("altitude"),
		InclinationDeg:   q.required("inclination"),
		RocketAreaM2:     q.required("A_rocket"),
		TotalLossCost:    q.required("C_total_loss"),
		CorridorRadiusM:  q.optional("radius_m", 0),
		AscentTimeS:      q.optional("ascent_time_s", 0),
		LaunchEpoch:      q.optionalTime("launch_time"),
	}
	if err := q.err(); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.service.TakeoffRisk(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTakeoffResponse(res))
}

// HandleCongestion handles GET /api/congestion.
func (h *Handler) HandleCongestion(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	req := assessment.CongestionRequest{
		MinAltitudeKm:     q.required("min_altitude"),
		MaxAltitudeKm:     q.required("max_altitude"),
		MinInclinationDeg: q.optional("min_inclination", 0),
		MaxInclinationDeg: q.optional("max_inclination", 180),
	}
	if err := q.err(); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.service.Congestion(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCongestionResponse(res))
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if errors.Is(err, assessment.ErrInvalidRequest) {
		h.log.Info(ctx, "rejected request", logging.String("path", r.URL.Path), logging.Err(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	h.log.Error(ctx, "request failed", logging.String("path", r.URL.Path), logging.Err(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "an internal error occurred"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
