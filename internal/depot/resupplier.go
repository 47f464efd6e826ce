package depot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/heliraid/heliraid/internal/arena"
	"github.com/heliraid/heliraid/internal/collision"
	"github.com/heliraid/heliraid/pkg/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ReloadMode selects how a magazine is refilled.
type ReloadMode string

const (
	ReloadInstant     ReloadMode = "instant"
	ReloadIncremental ReloadMode = "incremental"
)

// ParseReloadMode accepts "instant" or "incremental".
func ParseReloadMode(s string) (ReloadMode, error) {
	switch ReloadMode(s) {
	case ReloadInstant, ReloadIncremental:
		return ReloadMode(s), nil
	default:
		return "", fmt.Errorf("unknown reload mode: %q", s)
	}
}

// Config controls reload timing.
type Config struct {
	Mode  ReloadMode
	Slice time.Duration // per round in incremental mode
}

// Dependencies holds what the resupplier touches.
type Dependencies struct {
	Store     *arena.Store
	Depot     *Depot
	Registry  *collision.Registry
	Logger    *slog.Logger
	Publisher core.Publisher
}

// Resupplier reloads one cannon each time it reports an empty magazine.
type Resupplier struct {
	cfg  Config
	deps Dependencies

	reloads metric.Int64Counter
}

// NewResupplier creates the producer side for deps.Depot.
func NewResupplier(cfg Config, deps Dependencies) (*Resupplier, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Publisher == nil {
		deps.Publisher = core.Discard
	}

	reloads, err := meter().Int64Counter(
		"depot.reloads",
		metric.WithDescription("Completed magazine reloads"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating reloads counter: %w", err)
	}

	return &Resupplier{cfg: cfg, deps: deps, reloads: reloads}, nil
}

// Run waits for empty signals until ctx is done.
func (r *Resupplier) Run(ctx context.Context) error {
	logger := r.deps.Logger.With("cannon", r.deps.Depot.Cannon())
	for {
		if err := r.deps.Depot.AwaitEmpty(ctx); err != nil {
			return ignoreCancel(err)
		}
		logger.Debug("Magazine empty, reloading", "mode", r.cfg.Mode)

		start := time.Now()
		if err := r.Reload(ctx); err != nil {
			return ignoreCancel(err)
		}
		r.deps.Depot.SignalFull()
		logger.Debug("Magazine full", "duration", time.Since(start))
	}
}

// Reload refills the magazine if it is still empty, then reclaims the
// missile pool: any missile still in flight is expired, the active count
// drops to zero and the collision registry forgets the cannon's entries.
func (r *Resupplier) Reload(ctx context.Context) error {
	id := r.deps.Depot.Cannon()

	var needed bool
	r.deps.Store.Update(func(w *arena.World) {
		c := w.Cannon(id)
		needed = c.Ammo == 0
		if needed {
			c.Phase = core.PhaseReloading
		}
	})
	if !needed {
		return nil
	}

	switch r.cfg.Mode {
	case ReloadIncremental:
		for {
			if err := sleep(ctx, r.cfg.Slice); err != nil {
				return err
			}
			var done bool
			r.deps.Store.Update(func(w *arena.World) {
				c := w.Cannon(id)
				if c.Ammo < c.Capacity {
					c.Ammo++
				}
				c.CheckInvariants()
				done = c.Ammo == c.Capacity
			})
			if done {
				break
			}
		}
	default:
		r.deps.Store.Update(func(w *arena.World) {
			c := w.Cannon(id)
			c.Ammo = c.Capacity
		})
	}

	var reclaimed []int
	r.deps.Store.Update(func(w *arena.World) {
		c := w.Cannon(id)
		for i := range c.Pool {
			if c.Pool[i].Active {
				c.Pool[i].Active = false
				reclaimed = append(reclaimed, i)
			}
		}
		c.NumActive = 0
		c.Reloads++
		c.CheckInvariants()
	})
	for _, slot := range reclaimed {
		r.deps.Publisher.Publish(core.EventMissileExpired, id, map[string]any{"slot": slot, "reason": "reclaimed"})
	}
	r.deps.Registry.RemoveOwner(id)

	r.reloads.Add(ctx, 1, metric.WithAttributes(attribute.Int("cannon", id)))
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
