package missile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heliraid/heliraid/internal/arena"
	"github.com/heliraid/heliraid/pkg/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Dependencies holds what the flight scheduler touches.
type Dependencies struct {
	Store     *arena.Store
	Logger    *slog.Logger
	Publisher core.Publisher
}

// Flight moves every active missile of every cannon once per tick. It
// replaces a task per projectile with one task over all pools.
type Flight struct {
	deps Dependencies
	tick time.Duration

	expired metric.Int64Counter
}

// NewFlight creates the scheduler.
func NewFlight(tick time.Duration, deps Dependencies) (*Flight, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Publisher == nil {
		deps.Publisher = core.Discard
	}

	expired, err := meter().Int64Counter(
		"missiles.expired",
		metric.WithDescription("Missiles that left the arena or hit a building"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating expired counter: %w", err)
	}

	return &Flight{deps: deps, tick: tick, expired: expired}, nil
}

// Advance runs one tick over all pools and returns the missiles that
// expired during it.
func (f *Flight) Advance(ctx context.Context) []core.MissileRef {
	sc := f.deps.Store.Scenario()

	var gone []core.MissileRef
	f.deps.Store.Update(func(w *arena.World) {
		for ci := range w.Cannons {
			pool := w.Cannons[ci].Pool
			for i := range pool {
				m := &pool[i]
				if !m.Active {
					continue
				}
				Step(m)
				if sc.MissileGone(m.Rect) {
					m.Active = false
					gone = append(gone, core.MissileRef{Cannon: ci, Slot: i})
				}
			}
		}
	})

	for _, ref := range gone {
		f.expired.Add(ctx, 1, metric.WithAttributes(attribute.Int("cannon", ref.Cannon)))
		f.deps.Publisher.Publish(core.EventMissileExpired, ref.Cannon, map[string]any{"slot": ref.Slot, "reason": "out"})
	}
	return gone
}

// Run ticks until ctx is done, then grounds every missile still flying.
func (f *Flight) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			n := f.Shutdown()
			f.deps.Logger.Debug("Flight scheduler stopped", "grounded", n)
			return nil
		case <-ticker.C:
			f.Advance(ctx)
		}
	}
}

// Shutdown expires every active missile and returns how many there were.
func (f *Flight) Shutdown() int {
	n := 0
	f.deps.Store.Update(func(w *arena.World) {
		for ci := range w.Cannons {
			pool := w.Cannons[ci].Pool
			for i := range pool {
				if pool[i].Active {
					pool[i].Active = false
					n++
				}
			}
		}
	})
	return n
}
