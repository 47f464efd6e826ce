// Package session wires every unit of one rescue run together and owns
// their lifecycle: one goroutine per cannon behavior and resupplier, one
// missile scheduler and one helicopter task, all stopped together when
// the outcome is decided or the caller cancels.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/heliraid/heliraid/internal/arena"
	"github.com/heliraid/heliraid/internal/cannon"
	"github.com/heliraid/heliraid/internal/clock"
	"github.com/heliraid/heliraid/internal/collision"
	"github.com/heliraid/heliraid/internal/depot"
	"github.com/heliraid/heliraid/internal/gate"
	"github.com/heliraid/heliraid/internal/input"
	"github.com/heliraid/heliraid/internal/missile"
	"github.com/heliraid/heliraid/internal/objective"
	"github.com/heliraid/heliraid/internal/player"
	"github.com/heliraid/heliraid/pkg/core"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrTaskPanic wraps a panic recovered from a unit goroutine.
	ErrTaskPanic = errors.New("session task panicked")
	// ErrStarted is returned by a second call to Run.
	ErrStarted = errors.New("session already started")
)

// Dependencies holds the collaborators shared by every unit.
type Dependencies struct {
	Input     input.Source
	Logger    *slog.Logger
	Publisher core.Publisher
	Clock     clock.Clock
}

// Session is one run of the arena.
type Session struct {
	cfg    Config
	deps   Dependencies
	logger *slog.Logger

	store    *arena.Store
	obj      *objective.State
	registry *collision.Registry
	gate     *gate.Gate

	behaviors   []*cannon.Behavior
	resuppliers []*depot.Resupplier
	flight      *missile.Flight
	player      *player.Task

	started atomic.Bool
}

// New validates cfg and builds the arena with every unit ready to run.
func New(cfg Config, deps Dependencies) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Publisher == nil {
		deps.Publisher = core.Discard
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Input == nil {
		deps.Input = input.Fixed{}
	}

	sc := arena.DefaultScenario()
	cannons := make([]core.Cannon, cfg.Cannons)
	for i := range cannons {
		r := sc.CannonStart(i, cfg.Cannons)
		if r.X < sc.PatrolMin() || r.Right() > sc.PatrolMax() {
			return nil, fmt.Errorf("%w: cannon %d spawns outside the patrol zone", ErrInvalidConfig, i)
		}
		cannons[i] = core.Cannon{
			ID:       i,
			Rect:     r,
			Velocity: cfg.CannonSpeed,
			Ammo:     cfg.startAmmo(),
			Capacity: cfg.Capacity,
			Pool:     make([]core.Missile, cfg.Capacity),
			Phase:    core.PhasePatrol,
		}
	}
	heli := core.Helicopter{Rect: sc.HelicopterStart(), Speed: cfg.HelicopterSpeed}

	s := &Session{
		cfg:      cfg,
		deps:     deps,
		logger:   deps.Logger.With("component", "session"),
		obj:      objective.New(cfg.Hostages),
		registry: collision.NewRegistry(),
	}
	s.store = arena.NewStore(sc, cannons, heli, s.obj)

	var err error
	if s.gate, err = gate.New(deps.Publisher); err != nil {
		return nil, fmt.Errorf("creating lane gate: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	for i := range cannons {
		d := depot.New(i, deps.Publisher)

		r, err := depot.NewResupplier(depot.Config{Mode: cfg.ReloadMode, Slice: cfg.ReloadSlice}, depot.Dependencies{
			Store:     s.store,
			Depot:     d,
			Registry:  s.registry,
			Logger:    deps.Logger,
			Publisher: deps.Publisher,
		})
		if err != nil {
			return nil, fmt.Errorf("creating resupplier %d: %w", i, err)
		}

		b, err := cannon.New(cannon.Config{
			Speed:        cfg.CannonSpeed,
			MissileSpeed: cfg.MissileSpeed,
			ArcDegrees:   cfg.MissileArcDegrees,
			MinCooldown:  cfg.MinCooldown,
			MaxCooldown:  cfg.MaxCooldown,
			Tick:         cfg.Tick,
		}, cannon.Dependencies{
			Store:     s.store,
			Gate:      s.gate,
			Depot:     d,
			Registry:  s.registry,
			Clock:     deps.Clock,
			Rand:      rand.New(rand.NewPCG(seed, uint64(i))),
			Logger:    deps.Logger,
			Publisher: deps.Publisher,
		})
		if err != nil {
			return nil, fmt.Errorf("creating cannon %d: %w", i, err)
		}

		s.resuppliers = append(s.resuppliers, r)
		s.behaviors = append(s.behaviors, b)
	}

	s.flight, err = missile.NewFlight(cfg.Tick, missile.Dependencies{
		Store:     s.store,
		Logger:    deps.Logger,
		Publisher: deps.Publisher,
	})
	if err != nil {
		return nil, fmt.Errorf("creating flight scheduler: %w", err)
	}

	s.player = player.New(player.Config{Speed: cfg.HelicopterSpeed, Tick: cfg.Tick}, player.Dependencies{
		Store:     s.store,
		Registry:  s.registry,
		Input:     deps.Input,
		Logger:    deps.Logger,
		Publisher: deps.Publisher,
	})

	return s, nil
}

// Config returns the resolved configuration.
func (s *Session) Config() Config { return s.cfg }

// Store returns the world store.
func (s *Session) Store() *arena.Store { return s.store }

// Snapshot returns a consistent copy of the world for drawing.
func (s *Session) Snapshot() core.Snapshot { return s.store.Snapshot() }

// Gate returns the lane gate.
func (s *Session) Gate() *gate.Gate { return s.gate }

// Objective returns the hostage counters and outcome.
func (s *Session) Objective() *objective.State { return s.obj }

// Run starts every unit and blocks until they have all stopped. It returns
// nil when the session ends with an outcome or ctx is cancelled, and the
// first unit failure otherwise. A session runs at most once.
func (s *Session) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	s.logger.Info("Session started",
		"cannons", s.cfg.Cannons,
		"hostages", s.cfg.Hostages,
		"capacity", s.cfg.Capacity,
		"reloadMode", string(s.cfg.ReloadMode),
	)
	start := time.Now()

	g.Go(func() error {
		select {
		case <-s.obj.Done():
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	for i, b := range s.behaviors {
		g.Go(s.guard(fmt.Sprintf("cannon-%d", i), func() error { return b.Run(ctx) }))
	}
	for i, r := range s.resuppliers {
		g.Go(s.guard(fmt.Sprintf("resupplier-%d", i), func() error { return r.Run(ctx) }))
	}
	g.Go(s.guard("flight", func() error { return s.flight.Run(ctx) }))
	g.Go(s.guard("helicopter", func() error { return s.player.Run(ctx) }))

	err := g.Wait()
	// A cannon may fire on its last tick after the scheduler stopped.
	s.flight.Shutdown()

	snap := s.Snapshot()
	s.logger.Info("Session stopped",
		"outcome", snap.Outcome.String(),
		"rescued", snap.Rescued,
		"duration", time.Since(start),
	)
	if err != nil {
		s.logger.Error("Session failed", "error", err)
		return err
	}
	return nil
}

// guard turns a panic in fn into an error so the group cancels its peers
// instead of taking the process down.
func (s *Session) guard(name string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Task panicked", "task", name, "panic", r, "stack", string(debug.Stack()))
				err = fmt.Errorf("%w: %s: %v", ErrTaskPanic, name, r)
			}
		}()
		return fn()
	}
}
