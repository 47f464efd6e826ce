// pkg/core/entities.go
package core

import (
	"fmt"
	"time"
)

// Phase is the behavior state of a cannon.
type Phase int32

const (
	PhasePatrol Phase = iota
	PhaseCrossing
	PhaseRetreating
	PhaseAtDepot
	PhaseReloading
)

func (p Phase) String() string {
	switch p {
	case PhasePatrol:
		return "patrol"
	case PhaseCrossing:
		return "crossing"
	case PhaseRetreating:
		return "retreating"
	case PhaseAtDepot:
		return "at_depot"
	case PhaseReloading:
		return "reloading"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

// Movement is the horizontal direction the helicopter moved on its last tick.
// It only drives presentation.
type Movement int32

const (
	MovementNone Movement = iota
	MovementLeft
	MovementRight
)

func (m Movement) String() string {
	switch m {
	case MovementLeft:
		return "left"
	case MovementRight:
		return "right"
	default:
		return "none"
	}
}

// Outcome is the terminal state of a session.
type Outcome int32

const (
	OutcomeRunning Outcome = iota
	OutcomeDefeat
	OutcomeVictory
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRunning:
		return "running"
	case OutcomeDefeat:
		return "defeat"
	case OutcomeVictory:
		return "victory"
	default:
		return fmt.Sprintf("outcome(%d)", int32(o))
	}
}

// Terminal reports whether the outcome ends the session.
func (o Outcome) Terminal() bool { return o != OutcomeRunning }

// Missile is a projectile slot in a cannon's pool.
// DX and DY are the per-tick displacement fixed at launch.
type Missile struct {
	Rect   Rect
	Speed  int
	Angle  float64 // radians, counter-clockwise from +X
	DX, DY int
	Active bool
	Owner  int
	Slot   int
}

// MissileRef identifies a missile by owner and pool slot.
type MissileRef struct {
	Cannon int
	Slot   int
}

// Cannon is an autonomous ground unit.
type Cannon struct {
	ID           int
	Rect         Rect
	Velocity     int
	LastShot     time.Time
	NextCooldown time.Duration
	Ammo         int
	Capacity     int
	NumActive    int
	Pool         []Missile
	Phase        Phase
	Reloads      int
}

// CheckInvariants panics when ammunition or pool accounting is out of range.
func (c *Cannon) CheckInvariants() {
	if c.Ammo < 0 || c.Ammo > c.Capacity {
		panic(fmt.Sprintf("cannon %d: ammunition %d outside [0, %d]", c.ID, c.Ammo, c.Capacity))
	}
	if c.NumActive < 0 || c.NumActive > len(c.Pool) {
		panic(fmt.Sprintf("cannon %d: %d active missiles outside [0, %d]", c.ID, c.NumActive, len(c.Pool)))
	}
}

// Helicopter is the player-controlled unit.
type Helicopter struct {
	Rect      Rect
	Speed     int
	Carrying  bool
	Movement  Movement
	Destroyed bool
}
