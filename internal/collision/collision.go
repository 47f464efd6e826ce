// Package collision holds the missile registry the helicopter checks against
// and the stateless hit tests used by the evaluator.
package collision

import (
	"github.com/heliraid/heliraid/internal/queue"
	"github.com/heliraid/heliraid/pkg/core"
)

// Registry lists the missiles the helicopter can collide with. Cannons append
// on launch and the resupplier drops a cannon's entries on reload; the
// helicopter task reads it every tick.
type Registry struct {
	refs *queue.Queue[core.MissileRef]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{refs: queue.New[core.MissileRef]()}
}

// Add registers a freshly launched missile.
func (r *Registry) Add(ref core.MissileRef) {
	r.refs.Push(ref)
}

// RemoveOwner drops every entry launched by cannon and returns the count.
func (r *Registry) RemoveOwner(cannon int) int {
	return r.refs.RemoveFunc(func(ref core.MissileRef) bool { return ref.Cannon == cannon })
}

// Refs returns a copy of the current entries.
func (r *Registry) Refs() []core.MissileRef {
	return r.refs.Items()
}

// Len returns the number of registered entries, active or not.
func (r *Registry) Len() int {
	return r.refs.Len()
}

// HitsAny reports whether box intersects any of the obstacles.
func HitsAny(box core.Rect, obstacles ...core.Rect) bool {
	for _, o := range obstacles {
		if box.Intersects(o) {
			return true
		}
	}
	return false
}
