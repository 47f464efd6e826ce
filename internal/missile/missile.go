// Package missile launches projectiles from cannon pools and flies every
// active one from a single scheduler.
package missile

import (
	"math"

	"github.com/heliraid/heliraid/internal/arena"
	"github.com/heliraid/heliraid/pkg/core"
)

// Launch places a missile in the next free slot of c's pool, centred on the
// muzzle, and returns its slot. ok is false when the pool is exhausted.
// The caller must hold the store's write lock.
func Launch(c *core.Cannon, angle float64, speed int) (slot int, ok bool) {
	if c.NumActive >= len(c.Pool) {
		return 0, false
	}
	slot = c.NumActive
	c.Pool[slot] = core.Missile{
		Rect: core.Rect{
			X: c.Rect.X + (c.Rect.W-arena.MissileWidth)/2,
			Y: c.Rect.Y,
			W: arena.MissileWidth,
			H: arena.MissileHeight,
		},
		Speed:  speed,
		Angle:  angle,
		DX:     int(float64(speed) * math.Cos(angle)),
		DY:     int(float64(speed) * math.Sin(angle)),
		Active: true,
		Owner:  c.ID,
		Slot:   slot,
	}
	c.NumActive++
	return slot, true
}

// Step advances m by one tick. The per-tick displacement is truncated toward
// zero, so a shallow missile may never climb.
func Step(m *core.Missile) {
	m.Rect = m.Rect.Translate(m.DX, -m.DY)
}

// Radians converts whole degrees.
func Radians(deg int) float64 {
	return float64(deg) * math.Pi / 180
}
