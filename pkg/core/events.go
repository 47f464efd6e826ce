// pkg/core/events.go
package core

// Simulation event kinds. Each is published once per occurrence.
const (
	EventGateAcquire    = "gate.acquire"
	EventGateRelease    = "gate.release"
	EventDepotEmpty     = "depot.empty"
	EventDepotFull      = "depot.full"
	EventMissileFired   = "missile.fired"
	EventMissileExpired = "missile.expired"
	EventMissileSkipped = "missile.skipped"
	EventHostagePickup  = "hostage.pickup"
	EventHostageRescue  = "hostage.rescue"
	EventPlayerDestroy  = "player.destroyed"
	EventVictory        = "session.victory"
	EventDefeat         = "session.defeat"
)

// EventKinds lists every kind above in a stable order.
var EventKinds = []string{
	EventGateAcquire,
	EventGateRelease,
	EventDepotEmpty,
	EventDepotFull,
	EventMissileFired,
	EventMissileExpired,
	EventMissileSkipped,
	EventHostagePickup,
	EventHostageRescue,
	EventPlayerDestroy,
	EventVictory,
	EventDefeat,
}

// NoSource marks an event that is not tied to a cannon.
const NoSource = -1

// Publisher receives simulation events. Publish must not block the caller
// for longer than a queue hand-off.
type Publisher interface {
	Publish(kind string, source int, attrs map[string]any)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(kind string, source int, attrs map[string]any)

// Publish calls f.
func (f PublisherFunc) Publish(kind string, source int, attrs map[string]any) {
	f(kind, source, attrs)
}

// Discard is a Publisher that drops everything.
var Discard Publisher = PublisherFunc(func(string, int, map[string]any) {})
