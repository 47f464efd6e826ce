// pkg/core/snapshot.go
package core

// CannonView is the presentation copy of a cannon.
type CannonView struct {
	ID       int
	Rect     Rect
	Ammo     int
	Capacity int
	Phase    Phase
}

// AmmoFrame maps the remaining ammunition onto frames 0..9.
func (c CannonView) AmmoFrame() int {
	if c.Capacity <= 0 {
		return 0
	}
	return c.Ammo * 9 / c.Capacity
}

// Snapshot is a consistent copy of the arena taken under one read lock.
type Snapshot struct {
	Tick       uint64
	Cannons    []CannonView
	Missiles   []Rect
	Helicopter Helicopter
	Captured   int
	Rescued    int
	Total      int
	Outcome    Outcome
}
