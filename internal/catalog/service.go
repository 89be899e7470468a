package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/orbital-risk/internal/logging"
	"github.com/signalsfoundry/orbital-risk/kb"
	"github.com/signalsfoundry/orbital-risk/model"
	"github.com/signalsfoundry/orbital-risk/timectrl"
)

// DefaultCacheWindow is how long a downloaded catalog is served before a
// refetch.
const DefaultCacheWindow = 4 * time.Hour

// ErrAllGroupsFailed is returned when no group could be downloaded and no
// earlier snapshot exists to fall back on.
var ErrAllGroupsFailed = errors.New("all catalog groups failed to download")

// Refresh outcomes reported to a RefreshRecorder.
const (
	RefreshFetched   = "fetched"
	RefreshFromStore = "store"
	RefreshStale     = "stale"
	RefreshFailed    = "failed"
)

// RefreshRecorder observes catalog refresh outcomes.
type RefreshRecorder interface {
	RecordCatalogRefresh(result string)
}

type noopRecorder struct{}

func (noopRecorder) RecordCatalogRefresh(string) {}

// Lister is the catalog collaborator used by the risk engine.
type Lister interface {
	ListTrackedObjects(ctx context.Context) ([]model.TrackedObject, error)
}

// Service serves the tracked-object catalog, refetching it from the
// configured groups no more often than the cache window allows.
type Service struct {
	fetcher     *Fetcher
	groups      []Group
	store       SnapshotStore
	kb          *kb.KnowledgeBase
	clock       timectrl.Clock
	window      time.Duration
	concurrency int
	log         logging.Logger
	recorder    RefreshRecorder

	refreshMu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithGroups overrides DefaultGroups.
func WithGroups(groups []Group) Option {
	return func(s *Service) {
		if len(groups) > 0 {
			s.groups = groups
		}
	}
}

// WithStore sets the snapshot persistence backend.
func WithStore(store SnapshotStore) Option {
	return func(s *Service) { s.store = store }
}

// WithKnowledgeBase sets the in-memory catalog holder.
func WithKnowledgeBase(k *kb.KnowledgeBase) Option {
	return func(s *Service) {
		if k != nil {
			s.kb = k
		}
	}
}

// WithClock sets the clock used for cache freshness.
func WithClock(c timectrl.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithCacheWindow sets the freshness window.
func WithCacheWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithFetchConcurrency bounds simultaneous group downloads.
func WithFetchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
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

// WithRefreshRecorder reports refresh outcomes, typically to metrics.
func WithRefreshRecorder(r RefreshRecorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewService constructs a catalog service around fetcher.
func NewService(fetcher *Fetcher, opts ...Option) *Service {
	s := &Service{
		fetcher:     fetcher,
		groups:      DefaultGroups(),
		kb:          kb.NewKnowledgeBase(),
		clock:       timectrl.SystemClock{},
		window:      DefaultCacheWindow,
		concurrency: 2,
		log:         logging.Noop(),
		recorder:    noopRecorder{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// KnowledgeBase exposes the in-memory catalog, for subscribers.
func (s *Service) KnowledgeBase() *kb.KnowledgeBase { return s.kb }

// ListTrackedObjects returns the catalog, ordered by catalog number. It
// serves the in-memory copy while fresh, then a fresh persisted snapshot,
// and otherwise downloads. When every download fails it falls back to
// whatever older data it has; an error is returned only if there is none.
func (s *Service) ListTrackedObjects(ctx context.Context) ([]model.TrackedObject, error) {
	if s.fresh() {
		return s.kb.List(), nil
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// Another caller may have refreshed while we waited.
	if s.fresh() {
		return s.kb.List(), nil
	}
	if s.loadFromStore(ctx, true) {
		return s.kb.List(), nil
	}
	if err := s.refreshLocked(ctx); err != nil {
		if s.kb.Len() > 0 || s.loadFromStore(ctx, false) {
			s.log.Warn(ctx, "catalog download failed; serving stale snapshot",
				logging.Err(err),
				logging.Duration("age", s.clock.Now().Sub(s.kb.UpdatedAt())),
			)
			s.recorder.RecordCatalogRefresh(RefreshStale)
			return s.kb.List(), nil
		}
		return []model.TrackedObject{}, err
	}
	return s.kb.List(), nil
}

// Refresh downloads the catalog now regardless of the cache window.
func (s *Service) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *Service) fresh() bool {
	updated := s.kb.UpdatedAt()
	return !updated.IsZero() && s.clock.Now().Sub(updated) < s.window
}

// loadFromStore fills the KB from the persisted snapshot. With requireFresh
// it only accepts a snapshot inside the cache window.
func (s *Service) loadFromStore(ctx context.Context, requireFresh bool) bool {
	if s.store == nil {
		return false
	}
	snap, err := s.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			s.log.Warn(ctx, "catalog snapshot unreadable", logging.Err(err))
		}
		return false
	}
	if requireFresh && snap.Age(s.clock.Now()) >= s.window {
		return false
	}
	if len(snap.Data) == 0 && !requireFresh {
		return false
	}
	dropped := s.kb.Replace(snap.Data, snap.Timestamp)
	s.log.Info(ctx, "catalog loaded from snapshot",
		logging.Int("objects", s.kb.Len()),
		logging.Int("dropped", dropped),
		logging.Bool("fresh", requireFresh),
	)
	if requireFresh {
		s.recorder.RecordCatalogRefresh(RefreshFromStore)
	}
	return true
}

type groupResult struct {
	objects []model.TrackedObject
	skipped int
	err     error
}

func (s *Service) refreshLocked(ctx context.Context) error {
	ctx, span := otel.Tracer("orbital-risk/catalog").Start(ctx, "catalog.refresh")
	defer span.End()

	start := s.clock.Now()
	results := make([]groupResult, len(s.groups))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, grp := range s.groups {
		g.Go(func() error {
			results[i] = s.fetchGroup(ctx, grp)
			return nil
		})
	}
	_ = g.Wait()

	var (
		merged  []model.TrackedObject
		failed  int
		skipped int
	)
	for i, res := range results {
		if res.err != nil {
			failed++
			s.log.Error(ctx, "catalog group download failed",
				logging.String("group", s.groups[i].Name),
				logging.Err(res.err),
			)
			continue
		}
		skipped += res.skipped
		merged = append(merged, res.objects...)
	}
	span.SetAttributes(
		attribute.Int("catalog.groups", len(s.groups)),
		attribute.Int("catalog.groups_failed", failed),
	)

	if len(s.groups) > 0 && failed == len(s.groups) {
		s.recorder.RecordCatalogRefresh(RefreshFailed)
		span.SetStatus(codes.Error, "all groups failed")
		return fmt.Errorf("%w (%d groups)", ErrAllGroupsFailed, failed)
	}

	unique := Dedupe(merged)
	s.kb.Replace(unique, start)
	span.SetAttributes(attribute.Int("catalog.objects", len(unique)))

	if s.store != nil {
		if err := s.store.Save(ctx, Snapshot{Timestamp: start, Data: unique}); err != nil {
			s.log.Warn(ctx, "catalog snapshot not persisted", logging.Err(err))
		}
	}
	s.recorder.RecordCatalogRefresh(RefreshFetched)
	s.log.Info(ctx, "catalog refreshed",
		logging.Int("objects", len(unique)),
		logging.Int("groups", len(s.groups)),
		logging.Int("groups_failed", failed),
		logging.Int("records_skipped", skipped),
		logging.Duration("elapsed", s.clock.Now().Sub(start)),
	)
	return nil
}

func (s *Service) fetchGroup(ctx context.Context, grp Group) groupResult {
	body, err := s.fetcher.Fetch(ctx, grp.URL)
	if err != nil {
		return groupResult{err: err}
	}
	objs, skipped, err := Parse(ctx, bytes.NewReader(body), s.log.With(logging.String("group", grp.Name)))
	if err != nil {
		return groupResult{err: err}
	}
	s.log.Debug(ctx, "catalog group downloaded",
		logging.String("group", grp.Name),
		logging.Int("objects", len(objs)),
		logging.Int("skipped", skipped),
	)
	return groupResult{objects: objs, skipped: skipped}
}
