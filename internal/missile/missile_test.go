package missile

import (
	"context"
	"math"
	"testing"

	"github.com/heliraid/heliraid/internal/arena"
	"github.com/heliraid/heliraid/internal/objective"
	"github.com/heliraid/heliraid/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCannon(capacity int) core.Cannon {
	return core.Cannon{
		ID:       0,
		Rect:     core.Rect{X: 425, Y: 550, W: arena.CannonWidth, H: arena.CannonHeight},
		Ammo:     capacity,
		Capacity: capacity,
		Pool:     make([]core.Missile, capacity),
	}
}

func TestLaunch_CentersOnMuzzle(t *testing.T) {
	c := newCannon(3)

	slot, ok := Launch(&c, Radians(90), 5)
	require.True(t, ok)
	assert.Equal(t, 0, slot)

	m := c.Pool[0]
	assert.True(t, m.Active)
	assert.Equal(t, core.Rect{X: 425 + (100-5)/2, Y: 550, W: 5, H: 15}, m.Rect)
	assert.Equal(t, 0, m.DX)
	assert.Equal(t, 5, m.DY)
	assert.Equal(t, 1, c.NumActive)
}

func TestLaunch_PoolExhausted(t *testing.T) {
	c := newCannon(2)

	_, ok := Launch(&c, 0, 5)
	require.True(t, ok)
	slot, ok := Launch(&c, 0, 5)
	require.True(t, ok)
	assert.Equal(t, 1, slot)

	_, ok = Launch(&c, 0, 5)
	assert.False(t, ok)
	assert.Equal(t, 2, c.NumActive)
}

func TestStep_TrajectoryIsDeterministic(t *testing.T) {
	for _, deg := range []int{0, 1, 30, 45, 60, 89, 90, 100, 119} {
		c := newCannon(1)
		_, ok := Launch(&c, Radians(deg), 5)
		require.True(t, ok)

		m := c.Pool[0]
		start := m.Rect
		dx := int(5 * math.Cos(Radians(deg)))
		dy := int(5 * math.Sin(Radians(deg)))

		const n = 37
		for i := 0; i < n; i++ {
			Step(&m)
		}
		assert.Equal(t, start.X+n*dx, m.Rect.X, "deg=%d", deg)
		assert.Equal(t, start.Y-n*dy, m.Rect.Y, "deg=%d", deg)
	}
}

func TestStep_ShallowAngleTruncates(t *testing.T) {
	// 5*sin(10°) is under one pixel, so the missile never climbs.
	c := newCannon(1)
	Launch(&c, Radians(10), 5)
	m := c.Pool[0]
	y := m.Rect.Y
	for i := 0; i < 10; i++ {
		Step(&m)
	}
	assert.Equal(t, y, m.Rect.Y)
	assert.Equal(t, 4, m.DX)
}

func newFlight(t *testing.T, cannons ...core.Cannon) (*Flight, *arena.Store) {
	t.Helper()
	sc := arena.DefaultScenario()
	store := arena.NewStore(sc, cannons, core.Helicopter{Rect: sc.HelicopterStart()}, objective.New(1))
	f, err := NewFlight(0, Dependencies{Store: store})
	require.NoError(t, err)
	return f, store
}

func TestFlight_HorizontalMissileExpiresPastRightEdge(t *testing.T) {
	c := newCannon(1)
	Launch(&c, 0, 5)
	c.Pool[0].Rect.X = 500
	c.Pool[0].Rect.Y = 100 // above both rooftops

	f, store := newFlight(t, c)
	ctx := context.Background()

	for i := 1; i <= 120; i++ {
		gone := f.Advance(ctx)
		require.Empty(t, gone, "tick %d", i)
	}
	store.Read(func(w *arena.World) {
		assert.Equal(t, 1100, w.Cannons[0].Pool[0].Rect.X)
		assert.True(t, w.Cannons[0].Pool[0].Active)
	})

	gone := f.Advance(ctx)
	assert.Equal(t, []core.MissileRef{{Cannon: 0, Slot: 0}}, gone)
	store.Read(func(w *arena.World) {
		assert.False(t, w.Cannons[0].Pool[0].Active)
		assert.Equal(t, 1, w.Cannons[0].NumActive, "slot stays taken until reload")
	})

	assert.Empty(t, f.Advance(ctx), "expired missiles are not moved again")
}

func TestFlight_MissileHittingBuildingExpires(t *testing.T) {
	c := newCannon(1)
	Launch(&c, 0, 5)
	c.Pool[0].Rect.X = 921
	c.Pool[0].Rect.Y = 400

	f, _ := newFlight(t, c)
	assert.Len(t, f.Advance(context.Background()), 1)
}

func TestFlight_PublishesExpiry(t *testing.T) {
	c := newCannon(1)
	Launch(&c, Radians(90), 5)
	c.Pool[0].Rect.Y = 3

	var got []string
	sc := arena.DefaultScenario()
	store := arena.NewStore(sc, []core.Cannon{c}, core.Helicopter{}, objective.New(1))
	f, err := NewFlight(0, Dependencies{
		Store: store,
		Publisher: core.PublisherFunc(func(kind string, source int, attrs map[string]any) {
			got = append(got, kind)
			assert.Equal(t, 0, source)
			assert.Equal(t, 0, attrs["slot"])
		}),
	})
	require.NoError(t, err)

	f.Advance(context.Background())
	assert.Equal(t, []string{core.EventMissileExpired}, got)
}

func TestFlight_ShutdownGroundsEverything(t *testing.T) {
	a := newCannon(3)
	Launch(&a, Radians(45), 5)
	Launch(&a, Radians(60), 5)
	b := newCannon(2)
	b.ID = 1
	Launch(&b, Radians(90), 5)

	f, store := newFlight(t, a, b)
	assert.Equal(t, 3, f.Shutdown())

	snap := store.Snapshot()
	assert.Empty(t, snap.Missiles)
}

func TestFlight_RunStopsOnCancel(t *testing.T) {
	c := newCannon(1)
	Launch(&c, Radians(90), 1)

	sc := arena.DefaultScenario()
	store := arena.NewStore(sc, []core.Cannon{c}, core.Helicopter{}, objective.New(1))
	f, err := NewFlight(1_000_000, Dependencies{Store: store})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, f.Run(ctx))
	assert.Empty(t, store.Snapshot().Missiles)
}
