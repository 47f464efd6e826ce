// Package objective tracks hostage counters and the session outcome.
package objective

import (
	"sync"
	"sync/atomic"

	"github.com/heliraid/heliraid/pkg/core"
)

// State holds the hostage counters and the outcome flag.
// The outcome moves from Running to a terminal value exactly once; after
// that no counter changes.
type State struct {
	total    int32
	captured atomic.Int32
	rescued  atomic.Int32
	outcome  atomic.Int32

	done     chan struct{}
	doneOnce sync.Once
}

// New creates a state with total hostages waiting on the left rooftop.
func New(total int) *State {
	s := &State{
		total: int32(total),
		done:  make(chan struct{}),
	}
	s.captured.Store(int32(total))
	return s
}

// Total returns the number of hostages in play.
func (s *State) Total() int { return int(s.total) }

// Captured returns hostages still waiting for pickup.
func (s *State) Captured() int { return int(s.captured.Load()) }

// Rescued returns hostages delivered to the right rooftop.
func (s *State) Rescued() int { return int(s.rescued.Load()) }

// Outcome returns the current outcome.
func (s *State) Outcome() core.Outcome { return core.Outcome(s.outcome.Load()) }

// Done is closed once the outcome becomes terminal.
func (s *State) Done() <-chan struct{} { return s.done }

// Finish sets a terminal outcome. Only the first caller wins.
func (s *State) Finish(o core.Outcome) bool {
	if !o.Terminal() {
		return false
	}
	if !s.outcome.CompareAndSwap(int32(core.OutcomeRunning), int32(o)) {
		return false
	}
	s.doneOnce.Do(func() { close(s.done) })
	return true
}

// Pickup moves one hostage from the rooftop onto the helicopter.
// Returns false when none remain or the session is over.
func (s *State) Pickup() bool {
	for {
		if s.Outcome().Terminal() {
			return false
		}
		n := s.captured.Load()
		if n <= 0 {
			return false
		}
		if s.captured.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

// Rescue delivers the carried hostage. Reaching the total ends the session
// in victory.
func (s *State) Rescue() bool {
	for {
		if s.Outcome().Terminal() {
			return false
		}
		n := s.rescued.Load()
		if n >= s.total {
			return false
		}
		if s.rescued.CompareAndSwap(n, n+1) {
			if n+1 == s.total {
				s.Finish(core.OutcomeVictory)
			}
			return true
		}
	}
}
