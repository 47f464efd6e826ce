package worker

import (
	"fmt"

	"github.com/heliraid/heliraid/internal/dispatcher"
	"github.com/heliraid/heliraid/internal/storage"
	"github.com/heliraid/heliraid/pkg/core"
)

// Queue sizes per event kind. Missile traffic dominates a session.
var bufferSizes = map[string]int{
	core.EventMissileFired:   5000,
	core.EventMissileExpired: 5000,
	core.EventMissileSkipped: 1000,
}

const defaultBufferSize = 500

// RegisterHandlers registers the journal handler for every event kind.
// Outcome events are journaled synchronously so they are stored before the
// session tears down; everything else is buffered.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	for _, kind := range core.EventKinds {
		switch kind {
		case core.EventVictory, core.EventDefeat, core.EventPlayerDestroy:
			d.Register(kind, m.handleEvent, dispatcher.Logged())
		default:
			size, ok := bufferSizes[kind]
			if !ok {
				size = defaultBufferSize
			}
			d.Register(kind, m.handleEvent, dispatcher.Buffered(size), dispatcher.Logged())
		}
	}
}

func (m *Manager) handleEvent(e dispatcher.Event) error {
	err := m.backend.Record(storage.Record{
		Seq:       e.Seq,
		Kind:      e.Kind,
		Source:    e.Source,
		Attrs:     e.Attrs,
		Timestamp: e.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to journal %s: %w", e.Kind, err)
	}
	return nil
}
