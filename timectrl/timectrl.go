package timectrl

import (
	"context"
	"sync"
	"time"
)

// Clock is an interface for reading the current instant. Components that
// propagate orbits or stamp snapshots depend on it rather than time.Now so
// tests can pin the epoch.
type Clock interface {
	Now() time.Time
}

// SystemClock reads wall-clock UTC time.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock returns a settable instant. Safe for concurrent use.
type FixedClock struct {
	mu sync.RWMutex
	t  time.Time
}

// NewFixedClock returns a clock pinned at t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t}
}

// Now implements Clock.
func (c *FixedClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.t
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// Listener is invoked on every tick with the tick instant.
type Listener func(ctx context.Context, at time.Time)

// TimeController fires registered listeners every Tick until its context is
// cancelled. It drives periodic work such as catalog refreshes.
type TimeController struct {
	mu    sync.RWMutex
	Tick  time.Duration
	clock Clock

	// lastTick is the instant of the most recent tick, or the start time
	// before the first one.
	lastTick time.Time
	ticks    int

	listeners []Listener
}

// NewTimeController constructs a controller reading time from clock. A nil
// clock means SystemClock.
func NewTimeController(clock Clock, tick time.Duration) *TimeController {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TimeController{
		Tick:     tick,
		clock:    clock,
		lastTick: clock.Now(),
	}
}

// Now returns the clock's current instant. Implements Clock.
func (tc *TimeController) Now() time.Time {
	return tc.clock.Now()
}

// LastTick returns the instant of the most recent tick.
func (tc *TimeController) LastTick() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.lastTick
}

// Ticks returns how many ticks have fired.
func (tc *TimeController) Ticks() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.ticks
}

// AddListener registers a callback invoked on every tick.
func (tc *TimeController) AddListener(fn Listener) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}

// Start runs the controller in a separate goroutine until ctx is done.
// It returns a channel that is closed when the controller finishes.
func (tc *TimeController) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		tc.Run(ctx)
	}()
	return done
}

// Run blocks, firing listeners on every tick, until ctx is done. Listeners
// run sequentially on the controller goroutine; a slow listener delays the
// next tick rather than overlapping with it.
func (tc *TimeController) Run(ctx context.Context) {
	if tc.Tick <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(tc.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		now := tc.clock.Now()
		tc.mu.Lock()
		tc.lastTick = now
		tc.ticks++
		listeners := append([]Listener(nil), tc.listeners...)
		tc.mu.Unlock()

		for _, fn := range listeners {
			fn(ctx, now)
		}
	}
}
