// Package gate serializes cannons through the single-lane bridge.
package gate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/heliraid/heliraid/pkg/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/semaphore"
)

// Free is the holder value when nobody is on the lane.
const Free = -1

// Observer is called after every acquire and before every release, while the
// caller still owns the gate.
type Observer func(holder int, acquired bool)

// Gate is a FIFO mutual-exclusion lock over the lane. It is acquired right
// before a cannon would enter, held across tick sleeps, and released once the
// cannon has fully left.
type Gate struct {
	sem *semaphore.Weighted
	pub core.Publisher

	mu        sync.Mutex
	holder    int
	observers []Observer

	acquisitions metric.Int64Counter
	wait         metric.Float64Histogram
}

// New creates an open gate.
func New(pub core.Publisher) (*Gate, error) {
	if pub == nil {
		pub = core.Discard
	}
	g := &Gate{
		sem:    semaphore.NewWeighted(1),
		pub:    pub,
		holder: Free,
	}

	m := meter()

	var err error
	g.acquisitions, err = m.Int64Counter(
		"gate.acquisitions",
		metric.WithDescription("Lane crossings granted"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating acquisitions counter: %w", err)
	}

	g.wait, err = m.Float64Histogram(
		"gate.wait",
		metric.WithDescription("Time spent waiting for the lane"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating wait histogram: %w", err)
	}

	return g, nil
}

// Observe registers fn for every acquire and release. Register observers
// before any task starts.
func (g *Gate) Observe(fn Observer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.observers = append(g.observers, fn)
}

// Acquire blocks until holder owns the lane or ctx is done.
func (g *Gate) Acquire(ctx context.Context, holder int) error {
	start := time.Now()
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	g.mu.Lock()
	g.holder = holder
	observers := g.observers
	g.mu.Unlock()

	attrs := metric.WithAttributes(attribute.Int("cannon", holder))
	g.acquisitions.Add(ctx, 1, attrs)
	g.wait.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)

	for _, fn := range observers {
		fn(holder, true)
	}
	g.pub.Publish(core.EventGateAcquire, holder, nil)
	return nil
}

// Release frees the lane. Releasing a gate the caller does not hold is a
// programming error and panics.
func (g *Gate) Release(holder int) {
	g.mu.Lock()
	if g.holder != holder {
		current := g.holder
		g.mu.Unlock()
		panic(fmt.Sprintf("gate: cannon %d released a lane held by %d", holder, current))
	}
	observers := g.observers
	g.mu.Unlock()

	for _, fn := range observers {
		fn(holder, false)
	}
	g.pub.Publish(core.EventGateRelease, holder, nil)

	g.mu.Lock()
	g.holder = Free
	g.mu.Unlock()
	g.sem.Release(1)
}

// Holder returns the cannon on the lane, or Free.
func (g *Gate) Holder() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.holder
}
