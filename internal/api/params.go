package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/orbital-risk/internal/assessment"
)

// query collects parameter errors so a handler reports every bad field at
// once.
type query struct {
	values url.Values
	errs   []error
}

func newQuery(r *http.Request) *query {
	return &query{values: r.URL.Query()}
}

func (q *query) required(name string) float64 {
	raw := strings.TrimSpace(q.values.Get(name))
	if raw == "" {
		q.errs = append(q.errs, fmt.Errorf("missing parameter %s", name))
		return 0
	}
	return q.parse(name, raw)
}

func (q *query) optional(name string, def float64) float64 {
	raw := strings.TrimSpace(q.values.Get(name))
	if raw == "" {
		return def
	}
	return q.parse(name, raw)
}

func (q *query) optionalTime(name string) time.Time {
	raw := strings.TrimSpace(q.values.Get(name))
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		q.errs = append(q.errs, fmt.Errorf("parameter %s must be an RFC 3339 timestamp", name))
		return time.Time{}
	}
	return t.UTC()
}

func (q *query) parse(name, raw string) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		q.errs = append(q.errs, fmt.Errorf("parameter %s must be numeric, got %q", name, raw))
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		q.errs = append(q.errs, fmt.Errorf("parameter %s must be finite, got %q", name, raw))
		return 0
	}
	return v
}

func (q *query) err() error {
	if len(q.errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", assessment.ErrInvalidRequest, errors.Join(q.errs...))
}
