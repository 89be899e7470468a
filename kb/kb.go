package kb

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/signalsfoundry/orbital-risk/model"
)

// EventType indicates what kind of change happened in the KB.
type EventType int

const (
	// EventCatalogReplaced fires after a whole catalog snapshot is swapped in.
	EventCatalogReplaced EventType = iota
	// EventObjectUpdated fires after a single object is inserted or replaced.
	EventObjectUpdated
)

// Event is emitted to subscribers when something interesting happens.
type Event struct {
	Type      EventType
	Count     int                 // catalog size after the change
	UpdatedAt time.Time           // snapshot time of the catalog
	Object    model.TrackedObject // set for EventObjectUpdated
}

// KnowledgeBase is an in-memory, thread-safe store of tracked objects keyed
// by catalog number.
type KnowledgeBase struct {
	mu sync.RWMutex

	objects   map[int]model.TrackedObject
	updatedAt time.Time

	nextSub int
	subs    map[int]func(Event)
}

// NewKnowledgeBase constructs an empty KB.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		objects: make(map[int]model.TrackedObject),
		subs:    make(map[int]func(Event)),
	}
}

// Replace swaps the whole catalog for objs. Later entries with a repeated
// catalog number win. Invalid objects are dropped and counted in the
// returned value.
func (kb *KnowledgeBase) Replace(objs []model.TrackedObject, updatedAt time.Time) (dropped int) {
	next := make(map[int]model.TrackedObject, len(objs))
	for _, o := range objs {
		if o.Validate() != nil {
			dropped++
			continue
		}
		next[o.CatalogNumber] = o
	}

	kb.mu.Lock()
	kb.objects = next
	kb.updatedAt = updatedAt
	event := Event{Type: EventCatalogReplaced, Count: len(next), UpdatedAt: updatedAt}
	subs := kb.subscribersLocked()
	kb.mu.Unlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	for _, sub := range subs {
		sub(event)
	}
	return dropped
}

// Upsert inserts or replaces a single object.
func (kb *KnowledgeBase) Upsert(o model.TrackedObject) error {
	if err := o.Validate(); err != nil {
		return fmt.Errorf("upsert catalog %d: %w", o.CatalogNumber, err)
	}

	kb.mu.Lock()
	kb.objects[o.CatalogNumber] = o
	event := Event{Type: EventObjectUpdated, Count: len(kb.objects), UpdatedAt: kb.updatedAt, Object: o}
	subs := kb.subscribersLocked()
	kb.mu.Unlock()

	for _, sub := range subs {
		sub(event)
	}
	return nil
}

// Get returns the object with the given catalog number.
func (kb *KnowledgeBase) Get(catalogNumber int) (model.TrackedObject, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	o, ok := kb.objects[catalogNumber]
	return o, ok
}

// List returns a snapshot of all objects ordered by catalog number.
func (kb *KnowledgeBase) List() []model.TrackedObject {
	kb.mu.RLock()
	res := make([]model.TrackedObject, 0, len(kb.objects))
	for _, o := range kb.objects {
		res = append(res, o)
	}
	kb.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool { return res[i].CatalogNumber < res[j].CatalogNumber })
	return res
}

// Len returns the number of stored objects.
func (kb *KnowledgeBase) Len() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.objects)
}

// UpdatedAt returns the snapshot time passed to the last Replace, or the
// zero time if the KB was never filled.
func (kb *KnowledgeBase) UpdatedAt() time.Time {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.updatedAt
}

// Subscribe registers a callback for KB events. It returns an unsubscribe function.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) (unsubscribe func()) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	id := kb.nextSub
	kb.nextSub++
	kb.subs[id] = fn

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		delete(kb.subs, id)
	}
}

func (kb *KnowledgeBase) subscribersLocked() []func(Event) {
	ids := make([]int, 0, len(kb.subs))
	for id := range kb.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, kb.subs[id])
	}
	return subs
}
