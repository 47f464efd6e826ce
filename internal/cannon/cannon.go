// Package cannon runs the behavior loop of one autonomous cannon: patrol and
// fire while armed, retreat across the lane to the depot when empty, wait for
// the reload, and cross back.
package cannon

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/heliraid/heliraid/internal/arena"
	"github.com/heliraid/heliraid/internal/clock"
	"github.com/heliraid/heliraid/internal/collision"
	"github.com/heliraid/heliraid/internal/depot"
	"github.com/heliraid/heliraid/internal/gate"
	"github.com/heliraid/heliraid/internal/missile"
	"github.com/heliraid/heliraid/pkg/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Config holds per-cannon tuning.
type Config struct {
	Speed        int
	MissileSpeed int
	ArcDegrees   int
	MinCooldown  time.Duration
	MaxCooldown  time.Duration
	Tick         time.Duration
}

// Dependencies holds all collaborators of a behavior task.
type Dependencies struct {
	Store     *arena.Store
	Gate      *gate.Gate
	Depot     *depot.Depot
	Registry  *collision.Registry
	Clock     clock.Clock
	Rand      *rand.Rand
	Logger    *slog.Logger
	Publisher core.Publisher
}

// Behavior drives one cannon. Only its own goroutine calls Step.
type Behavior struct {
	id     int
	cfg    Config
	deps   Dependencies
	logger *slog.Logger

	// crossing is true while this cannon holds the lane.
	crossing bool

	fired   metric.Int64Counter
	skipped metric.Int64Counter
	attrs   metric.MeasurementOption
}

// New creates the behavior for the cannon whose depot is deps.Depot.
func New(cfg Config, deps Dependencies) (*Behavior, error) {
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Publisher == nil {
		deps.Publisher = core.Discard
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(deps.Depot.Cannon())))
	}

	id := deps.Depot.Cannon()
	b := &Behavior{
		id:     id,
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger.With("cannon", id),
		attrs:  metric.WithAttributes(attribute.Int("cannon", id)),
	}

	m := meter()
	var err error
	b.fired, err = m.Int64Counter(
		"missiles.fired",
		metric.WithDescription("Missiles launched"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fired counter: %w", err)
	}
	b.skipped, err = m.Int64Counter(
		"missiles.skipped",
		metric.WithDescription("Shots skipped because the missile pool was full"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating skipped counter: %w", err)
	}

	return b, nil
}

// ID returns the cannon id.
func (b *Behavior) ID() int { return b.id }

// Crossing reports whether the cannon currently holds the lane.
func (b *Behavior) Crossing() bool { return b.crossing }

// Start takes the initial magazine token and arms the first cooldown.
func (b *Behavior) Start() {
	b.deps.Depot.Claim()
	now := b.deps.Clock.Now()
	b.deps.Store.Update(func(w *arena.World) {
		c := w.Cannon(b.id)
		c.LastShot = now
		c.NextCooldown = b.sampleCooldown()
		if c.Velocity == 0 {
			c.Velocity = b.cfg.Speed
		}
	})
}

// Run ticks the behavior until ctx is done.
func (b *Behavior) Run(ctx context.Context) error {
	b.Start()
	defer b.leaveLane()

	ticker := time.NewTicker(b.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := b.Step(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

// Step performs one tick. It may block on the lane or on the depot.
func (b *Behavior) Step(ctx context.Context) error {
	sc := b.deps.Store.Scenario()

	var x, w, ammo int
	b.deps.Store.Read(func(wd *arena.World) {
		c := wd.Cannon(b.id)
		x, w, ammo = c.Rect.X, c.Rect.W, c.Ammo
	})

	switch {
	case ammo == 0 && !b.crossing && sc.AtDepot(x, w):
		return b.resupply(ctx)
	case ammo == 0:
		return b.move(ctx, -1, core.PhaseRetreating)
	case b.crossing || x < sc.PatrolMin():
		return b.move(ctx, 1, core.PhasePatrol)
	default:
		b.patrol()
		return nil
	}
}

// move steps one speed unit in dir, taking the lane before the step that
// would enter it and giving it back on the step that clears it.
func (b *Behavior) move(ctx context.Context, dir int, settled core.Phase) error {
	sc := b.deps.Store.Scenario()
	step := dir * b.cfg.Speed

	var x, w int
	b.deps.Store.Read(func(wd *arena.World) {
		c := wd.Cannon(b.id)
		x, w = c.Rect.X, c.Rect.W
	})
	next := max(x+step, 0)

	if !b.crossing && sc.OverlapsLane(next, w) {
		if err := b.deps.Gate.Acquire(ctx, b.id); err != nil {
			return err
		}
		b.crossing = true
		b.logger.Debug("Entering lane", "x", x, "direction", dir)
	}

	cleared := b.crossing && !sc.OverlapsLane(next, w)
	phase := settled
	if b.crossing && !cleared {
		phase = core.PhaseCrossing
	}

	b.deps.Store.Update(func(wd *arena.World) {
		c := wd.Cannon(b.id)
		c.Rect.X = next
		c.Velocity = step
		c.Phase = phase
	})

	if cleared {
		b.deps.Gate.Release(b.id)
		b.crossing = false
		b.logger.Debug("Left lane", "x", next)
	}
	return nil
}

// patrol fires when the cooldown has elapsed and moves, turning at the
// patrol bounds so an armed cannon never enters the lane on its own.
func (b *Behavior) patrol() {
	sc := b.deps.Store.Scenario()
	now := b.deps.Clock.Now()

	var (
		shot    bool
		skipped bool
		slot    int
		deg     int
		ammo    int
	)
	b.deps.Store.Update(func(w *arena.World) {
		c := w.Cannon(b.id)
		c.Phase = core.PhasePatrol

		if now.Sub(c.LastShot) >= c.NextCooldown {
			deg = b.deps.Rand.IntN(max(b.cfg.ArcDegrees, 1))
			slot, shot = missile.Launch(c, missile.Radians(deg), b.cfg.MissileSpeed)
			if shot {
				c.Ammo--
			} else {
				skipped = true
			}
			c.LastShot = now
			c.NextCooldown = b.sampleCooldown()
		}

		v := c.Velocity
		if v == 0 {
			v = b.cfg.Speed
		}
		if v < 0 && c.Rect.X+v < sc.PatrolMin() {
			v = -v
		}
		if v > 0 && c.Rect.Right()+v > sc.PatrolMax() {
			v = -v
		}
		c.Rect.X += v
		c.Velocity = v

		c.CheckInvariants()
		ammo = c.Ammo
	})

	switch {
	case shot:
		b.deps.Registry.Add(core.MissileRef{Cannon: b.id, Slot: slot})
		b.fired.Add(context.Background(), 1, b.attrs)
		b.deps.Publisher.Publish(core.EventMissileFired, b.id, map[string]any{"slot": slot, "angle": deg, "ammo": ammo})
	case skipped:
		b.skipped.Add(context.Background(), 1, b.attrs)
		b.deps.Publisher.Publish(core.EventMissileSkipped, b.id, map[string]any{"ammo": ammo})
		b.logger.Warn("Missile pool exhausted, shot skipped", "ammo", ammo)
	}
}

// resupply parks the cannon, signals the depot and waits for the reload.
func (b *Behavior) resupply(ctx context.Context) error {
	b.deps.Store.Update(func(w *arena.World) {
		c := w.Cannon(b.id)
		c.Phase = core.PhaseAtDepot
		c.Velocity = 0
	})

	b.logger.Debug("At depot, waiting for reload")
	b.deps.Depot.SignalEmpty()
	if err := b.deps.Depot.AwaitFull(ctx); err != nil {
		return err
	}

	now := b.deps.Clock.Now()
	b.deps.Store.Update(func(w *arena.World) {
		c := w.Cannon(b.id)
		c.Velocity = b.cfg.Speed
		c.LastShot = now
		c.NextCooldown = b.sampleCooldown()
	})
	return nil
}

// leaveLane frees the lane if the task stops while crossing.
func (b *Behavior) leaveLane() {
	if b.crossing {
		b.deps.Gate.Release(b.id)
		b.crossing = false
	}
}

func (b *Behavior) sampleCooldown() time.Duration {
	lo, hi := b.cfg.MinCooldown, b.cfg.MaxCooldown
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(b.deps.Rand.Int64N(int64(hi-lo)+1))
}
