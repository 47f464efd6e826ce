package arena

import (
	"sync"

	"github.com/heliraid/heliraid/internal/objective"
	"github.com/heliraid/heliraid/pkg/core"
)

// World is the mutable entity state. It is only reachable through Store.
type World struct {
	Cannons    []core.Cannon
	Helicopter core.Helicopter
	Tick       uint64
}

// Cannon returns a pointer to cannon id, or nil.
func (w *World) Cannon(id int) *core.Cannon {
	if id < 0 || id >= len(w.Cannons) {
		return nil
	}
	return &w.Cannons[id]
}

// Missile resolves a reference to its pool slot, or nil.
func (w *World) Missile(ref core.MissileRef) *core.Missile {
	c := w.Cannon(ref.Cannon)
	if c == nil || ref.Slot < 0 || ref.Slot >= len(c.Pool) {
		return nil
	}
	return &c.Pool[ref.Slot]
}

// Store guards the world with a single RWMutex. Writers hold the lock for
// one tick's mutation and never across a sleep or a semaphore wait.
type Store struct {
	scenario  Scenario
	objective *objective.State

	mu    sync.RWMutex
	world World
}

// NewStore takes ownership of the given entities.
func NewStore(sc Scenario, cannons []core.Cannon, heli core.Helicopter, obj *objective.State) *Store {
	return &Store{
		scenario:  sc,
		objective: obj,
		world: World{
			Cannons:    cannons,
			Helicopter: heli,
		},
	}
}

// Scenario returns the level geometry. It never changes, so no lock is taken.
func (s *Store) Scenario() Scenario { return s.scenario }

// Objective returns the hostage and outcome state.
func (s *Store) Objective() *objective.State { return s.objective }

// Update runs fn with exclusive access to the world.
func (s *Store) Update(fn func(w *World)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.world)
}

// Read runs fn with shared access to the world. fn must not mutate it.
func (s *Store) Read(fn func(w *World)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.world)
}

// Snapshot copies everything the presentation layer draws. Hostage counters
// are only changed under the write lock, so they agree with the positions.
func (s *Store) Snapshot() core.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := core.Snapshot{
		Tick:       s.world.Tick,
		Cannons:    make([]core.CannonView, 0, len(s.world.Cannons)),
		Helicopter: s.world.Helicopter,
		Captured:   s.objective.Captured(),
		Rescued:    s.objective.Rescued(),
		Total:      s.objective.Total(),
		Outcome:    s.objective.Outcome(),
	}
	for i := range s.world.Cannons {
		c := &s.world.Cannons[i]
		snap.Cannons = append(snap.Cannons, core.CannonView{
			ID:       c.ID,
			Rect:     c.Rect,
			Ammo:     c.Ammo,
			Capacity: c.Capacity,
			Phase:    c.Phase,
		})
		for j := range c.Pool {
			if c.Pool[j].Active {
				snap.Missiles = append(snap.Missiles, c.Pool[j].Rect)
			}
		}
	}
	return snap
}
