// Package input turns keyboard events into the directional state the
// helicopter task polls once per tick.
package input

import (
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/heliraid/heliraid/internal/clock"
)

// State is the set of directions held during a tick. Axes are independent,
// so diagonals are allowed.
type State struct {
	Left, Right, Up, Down bool
}

// Source is polled by the helicopter task.
type Source interface {
	Directions() State
}

// Fixed always reports the same state.
type Fixed State

// Directions returns the fixed state.
func (f Fixed) Directions() State { return State(f) }

// DefaultHold is how long a key counts as held after its last press or
// auto-repeat. Terminals report presses only, never releases.
const DefaultHold = 120 * time.Millisecond

type direction int

const (
	left direction = iota
	right
	up
	down
	numDirections
)

// Keys tracks arrow and WASD presses from tcell and reports a key as held
// until Hold has passed without a repeat.
type Keys struct {
	Hold  time.Duration
	clock clock.Clock

	mu   sync.Mutex
	last [numDirections]time.Time
}

// NewKeys creates a tracker. A nil clock uses the wall clock.
func NewKeys(c clock.Clock) *Keys {
	if c == nil {
		c = clock.Real{}
	}
	return &Keys{Hold: DefaultHold, clock: c}
}

// HandleKey records a key event and reports whether it was a movement key.
func (k *Keys) HandleKey(ev *tcell.EventKey) bool {
	d, ok := keyDirection(ev)
	if !ok {
		return false
	}
	k.mu.Lock()
	k.last[d] = k.clock.Now()
	k.mu.Unlock()
	return true
}

// Release forgets every held key.
func (k *Keys) Release() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.last = [numDirections]time.Time{}
}

// Directions reports the keys pressed within the hold window.
func (k *Keys) Directions() State {
	now := k.clock.Now()
	k.mu.Lock()
	defer k.mu.Unlock()
	held := func(d direction) bool {
		t := k.last[d]
		return !t.IsZero() && now.Sub(t) <= k.Hold
	}
	return State{
		Left:  held(left),
		Right: held(right),
		Up:    held(up),
		Down:  held(down),
	}
}

func keyDirection(ev *tcell.EventKey) (direction, bool) {
	switch ev.Key() {
	case tcell.KeyLeft:
		return left, true
	case tcell.KeyRight:
		return right, true
	case tcell.KeyUp:
		return up, true
	case tcell.KeyDown:
		return down, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'a', 'A', 'h':
			return left, true
		case 'd', 'D', 'l':
			return right, true
		case 'w', 'W', 'k':
			return up, true
		case 's', 'S', 'j':
			return down, true
		}
	}
	return 0, false
}
