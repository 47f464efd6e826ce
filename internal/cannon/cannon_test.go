package cannon

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/heliraid/heliraid/internal/arena"
	"github.com/heliraid/heliraid/internal/clock"
	"github.com/heliraid/heliraid/internal/collision"
	"github.com/heliraid/heliraid/internal/depot"
	"github.com/heliraid/heliraid/internal/gate"
	"github.com/heliraid/heliraid/internal/objective"
	"github.com/heliraid/heliraid/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Publish(kind string, _ int, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind)
}

func (r *recorder) count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, k := range r.events {
		if k == kind {
			n++
		}
	}
	return n
}

type fixture struct {
	store    *arena.Store
	gate     *gate.Gate
	depot    *depot.Depot
	registry *collision.Registry
	clock    *clock.Mock
	rec      *recorder
	behavior *Behavior
}

var testConfig = Config{
	Speed:        2,
	MissileSpeed: 5,
	ArcDegrees:   120,
	MinCooldown:  100 * time.Millisecond,
	MaxCooldown:  100 * time.Millisecond,
	Tick:         time.Millisecond,
}

func newFixture(t *testing.T, x, ammo, capacity int) *fixture {
	t.Helper()
	sc := arena.DefaultScenario()
	c := core.Cannon{
		ID:       0,
		Rect:     core.Rect{X: x, Y: sc.Ground.Y - arena.CannonHeight, W: arena.CannonWidth, H: arena.CannonHeight},
		Ammo:     ammo,
		Capacity: capacity,
		Pool:     make([]core.Missile, capacity),
	}

	f := &fixture{
		store:    arena.NewStore(sc, []core.Cannon{c}, core.Helicopter{Rect: sc.HelicopterStart()}, objective.New(1)),
		registry: collision.NewRegistry(),
		clock:    clock.NewMock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		rec:      &recorder{},
	}

	var err error
	f.gate, err = gate.New(f.rec)
	require.NoError(t, err)
	f.depot = depot.New(0, f.rec)

	f.behavior, err = New(testConfig, Dependencies{
		Store:     f.store,
		Gate:      f.gate,
		Depot:     f.depot,
		Registry:  f.registry,
		Clock:     f.clock,
		Rand:      rand.New(rand.NewPCG(1, 2)),
		Publisher: f.rec,
	})
	require.NoError(t, err)
	f.behavior.Start()
	return f
}

func (f *fixture) cannon() core.Cannon {
	var c core.Cannon
	f.store.Read(func(w *arena.World) { c = *w.Cannon(0) })
	return c
}

func (f *fixture) startResupplier(t *testing.T, ctx context.Context) {
	t.Helper()
	r, err := depot.NewResupplier(depot.Config{Mode: depot.ReloadInstant}, depot.Dependencies{
		Store:     f.store,
		Depot:     f.depot,
		Registry:  f.registry,
		Publisher: f.rec,
	})
	require.NoError(t, err)
	go r.Run(ctx)
}

func TestStep_FiresAfterCooldown(t *testing.T) {
	f := newFixture(t, 500, 3, 3)
	ctx := context.Background()

	require.NoError(t, f.behavior.Step(ctx))
	assert.Equal(t, 3, f.cannon().Ammo, "cooldown not elapsed")

	f.clock.Advance(100 * time.Millisecond)
	require.NoError(t, f.behavior.Step(ctx))

	c := f.cannon()
	assert.Equal(t, 2, c.Ammo)
	assert.Equal(t, 1, c.NumActive)
	assert.True(t, c.Pool[0].Active)
	assert.Equal(t, 1, f.registry.Len())
	assert.Equal(t, 1, f.rec.count(core.EventMissileFired))

	// Timer was reset by the shot.
	require.NoError(t, f.behavior.Step(ctx))
	assert.Equal(t, 2, f.cannon().Ammo)
}

func TestStep_PoolExhaustedSkipsShotAndKeepsAmmo(t *testing.T) {
	f := newFixture(t, 500, 2, 2)
	f.store.Update(func(w *arena.World) { w.Cannon(0).NumActive = 2 })

	f.clock.Advance(time.Second)
	require.NoError(t, f.behavior.Step(context.Background()))

	c := f.cannon()
	assert.Equal(t, 2, c.Ammo)
	assert.Equal(t, 0, f.registry.Len())
	assert.Equal(t, 1, f.rec.count(core.EventMissileSkipped))
}

func TestStep_PatrolTurnsAtBounds(t *testing.T) {
	sc := arena.DefaultScenario()

	f := newFixture(t, 329, 1, 1)
	f.store.Update(func(w *arena.World) { w.Cannon(0).Velocity = -2 })
	for i := 0; i < 10; i++ {
		require.NoError(t, f.behavior.Step(context.Background()))
		c := f.cannon()
		assert.GreaterOrEqual(t, c.Rect.X, sc.PatrolMin())
		assert.False(t, sc.OverlapsLane(c.Rect.X, c.Rect.W))
	}
	assert.Greater(t, f.cannon().Velocity, 0)

	f = newFixture(t, 821, 1, 1)
	for i := 0; i < 10; i++ {
		require.NoError(t, f.behavior.Step(context.Background()))
		assert.LessOrEqual(t, f.cannon().Rect.Right(), sc.PatrolMax())
	}
	assert.Less(t, f.cannon().Velocity, 0)
}

func TestStep_EmptyCannonRetreatsThroughLaneAndReloads(t *testing.T) {
	sc := arena.DefaultScenario()
	f := newFixture(t, 425, 0, 3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.startResupplier(t, ctx)

	sawCrossing := false
	for i := 0; i < 400 && f.cannon().Ammo == 0; i++ {
		require.NoError(t, f.behavior.Step(ctx))

		c := f.cannon()
		overlaps := sc.OverlapsLane(c.Rect.X, c.Rect.W)
		assert.Equal(t, overlaps, f.behavior.Crossing(), "x=%d", c.Rect.X)
		if overlaps {
			sawCrossing = true
			assert.Equal(t, 0, f.gate.Holder())
			assert.Equal(t, core.PhaseCrossing, c.Phase)
			assert.Less(t, c.Velocity, 0, "an empty cannon only moves toward the depot")
		} else {
			assert.Equal(t, gate.Free, f.gate.Holder())
		}
	}

	c := f.cannon()
	assert.True(t, sawCrossing)
	assert.Equal(t, 3, c.Ammo)
	assert.True(t, sc.AtDepot(c.Rect.X, c.Rect.W))
	assert.Equal(t, 1, f.rec.count(core.EventDepotEmpty))
	assert.Equal(t, 1, f.rec.count(core.EventDepotFull))
	assert.Equal(t, 1, f.rec.count(core.EventGateAcquire))
	assert.Equal(t, 1, f.rec.count(core.EventGateRelease))
}

func TestStep_ArmedCannonCrossesBackToPatrol(t *testing.T) {
	sc := arena.DefaultScenario()
	f := newFixture(t, 40, 3, 3)
	f.clock.Set(f.clock.Now().Add(-time.Hour)) // keep the cooldown from elapsing
	ctx := context.Background()

	for i := 0; i < 400 && f.cannon().Rect.X < sc.PatrolMin(); i++ {
		require.NoError(t, f.behavior.Step(ctx))
		c := f.cannon()
		if sc.OverlapsLane(c.Rect.X, c.Rect.W) {
			assert.Equal(t, 0, f.gate.Holder())
			assert.Greater(t, c.Velocity, 0)
		}
		assert.Equal(t, 3, c.Ammo, "no firing while crossing")
	}

	c := f.cannon()
	assert.GreaterOrEqual(t, c.Rect.X, sc.PatrolMin())
	assert.False(t, f.behavior.Crossing())
	assert.Equal(t, gate.Free, f.gate.Holder())
	assert.Equal(t, core.PhasePatrol, c.Phase)
}

func TestStep_WaitsForLaneHeldByAnotherCannon(t *testing.T) {
	f := newFixture(t, 75, 3, 3)
	ctx := context.Background()

	require.NoError(t, f.gate.Acquire(ctx, 9))

	stepped := make(chan error, 1)
	go func() { stepped <- f.behavior.Step(ctx) }()

	select {
	case <-stepped:
		t.Fatal("cannon entered a lane held by another cannon")
	case <-time.After(30 * time.Millisecond):
	}
	assert.Equal(t, 75, f.cannon().Rect.X)

	f.gate.Release(9)
	require.NoError(t, <-stepped)
	assert.Equal(t, 77, f.cannon().Rect.X)
	assert.Equal(t, 0, f.gate.Holder())
}

func TestRun_StopsOnCancelAndFreesLane(t *testing.T) {
	f := newFixture(t, 300, 0, 3)
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- f.behavior.Run(ctx) }()

	require.Eventually(t, func() bool { return f.gate.Holder() == 0 }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-errc)
	assert.Equal(t, gate.Free, f.gate.Holder())
}

func TestRun_CancelWhileWaitingAtDepot(t *testing.T) {
	f := newFixture(t, 10, 0, 3)
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- f.behavior.Run(ctx) }()

	require.Eventually(t, func() bool { return f.cannon().Phase == core.PhaseAtDepot }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-errc)
}

func TestSampleCooldown_StaysInRange(t *testing.T) {
	f := newFixture(t, 500, 1, 1)
	f.behavior.cfg.MinCooldown = 500 * time.Millisecond
	f.behavior.cfg.MaxCooldown = time.Second

	for i := 0; i < 1000; i++ {
		d := f.behavior.sampleCooldown()
		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
		assert.LessOrEqual(t, d, time.Second)
	}
}
