// Package player runs the helicopter: it applies the polled input once per
// tick and then evaluates collisions, pickups and drop-offs against the
// same world state, under the same write lock.
package player

import (
	"context"
	"log/slog"
	"time"

	"github.com/heliraid/heliraid/internal/arena"
	"github.com/heliraid/heliraid/internal/collision"
	"github.com/heliraid/heliraid/internal/input"
	"github.com/heliraid/heliraid/pkg/core"
)

// Config holds helicopter tuning.
type Config struct {
	Speed int
	Tick  time.Duration
}

// Dependencies holds all collaborators of the helicopter task.
type Dependencies struct {
	Store     *arena.Store
	Registry  *collision.Registry
	Input     input.Source
	Logger    *slog.Logger
	Publisher core.Publisher
}

// Task moves the helicopter and judges the outcome.
type Task struct {
	cfg    Config
	deps   Dependencies
	logger *slog.Logger
}

type event struct {
	kind  string
	attrs map[string]any
}

// New creates the helicopter task.
func New(cfg Config, deps Dependencies) *Task {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Publisher == nil {
		deps.Publisher = core.Discard
	}
	if deps.Input == nil {
		deps.Input = input.Fixed{}
	}
	return &Task{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger.With("unit", "helicopter"),
	}
}

// Run ticks until ctx is done or the session reaches an outcome.
func (t *Task) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if t.Step().Terminal() {
				return nil
			}
		}
	}
}

// Step applies one tick of input and returns the resulting outcome. Once
// the outcome is terminal the world is left untouched.
func (t *Task) Step() core.Outcome {
	in := t.deps.Input.Directions()
	refs := t.deps.Registry.Refs()
	obj := t.deps.Store.Objective()
	sc := t.deps.Store.Scenario()

	var events []event
	t.deps.Store.Update(func(w *arena.World) {
		if obj.Outcome().Terminal() {
			return
		}
		w.Tick++

		h := &w.Helicopter
		t.steer(h, in)

		if cause := t.hit(w, sc, refs); cause != "" {
			h.Destroyed = true
			if obj.Finish(core.OutcomeDefeat) {
				attrs := map[string]any{"cause": cause, "x": h.Rect.X, "y": h.Rect.Y}
				events = append(events,
					event{core.EventPlayerDestroy, attrs},
					event{core.EventDefeat, map[string]any{"rescued": obj.Rescued(), "total": obj.Total()}},
				)
			}
			return
		}

		if !h.Carrying && sc.InPickupZone(h.Rect) && obj.Pickup() {
			h.Carrying = true
			events = append(events, event{core.EventHostagePickup, map[string]any{"captured": obj.Captured()}})
		}
		if h.Carrying && sc.InDropZone(h.Rect) && obj.Rescue() {
			h.Carrying = false
			events = append(events, event{core.EventHostageRescue, map[string]any{"rescued": obj.Rescued()}})
			if obj.Outcome() == core.OutcomeVictory {
				events = append(events, event{core.EventVictory, map[string]any{"rescued": obj.Rescued(), "total": obj.Total()}})
			}
		}
	})

	for _, e := range events {
		t.deps.Publisher.Publish(e.kind, core.NoSource, e.attrs)
		switch e.kind {
		case core.EventPlayerDestroy:
			t.logger.Info("Helicopter destroyed", "cause", e.attrs["cause"])
		case core.EventVictory:
			t.logger.Info("All hostages rescued")
		default:
			t.logger.Debug("Hostage event", "kind", e.kind)
		}
	}
	return obj.Outcome()
}

func (t *Task) steer(h *core.Helicopter, in input.State) {
	speed := h.Speed
	if speed == 0 {
		speed = t.cfg.Speed
	}

	var dx, dy int
	h.Movement = core.MovementNone
	if in.Left {
		dx -= speed
		h.Movement = core.MovementLeft
	}
	if in.Right {
		dx += speed
		h.Movement = core.MovementRight
	}
	if in.Left && in.Right {
		h.Movement = core.MovementNone
	}
	if in.Up {
		dy -= speed
	}
	if in.Down {
		dy += speed
	}
	h.Rect = h.Rect.Translate(dx, dy)
}

// hit returns what the helicopter collided with, or "".
func (t *Task) hit(w *arena.World, sc arena.Scenario, refs []core.MissileRef) string {
	box := w.Helicopter.Rect
	if sc.OutOfBounds(box, arena.BoundsTolerance) {
		return "bounds"
	}
	if collision.HitsAny(box, sc.Obstacles()...) {
		return "scenery"
	}
	for i := range w.Cannons {
		if box.Intersects(w.Cannons[i].Rect) {
			return "cannon"
		}
	}
	for _, ref := range refs {
		if m := w.Missile(ref); m != nil && m.Active && box.Intersects(m.Rect) {
			return "missile"
		}
	}
	return ""
}
