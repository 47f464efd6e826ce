package render

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/heliraid/heliraid/internal/arena"
	"github.com/heliraid/heliraid/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 110x36 maps ten pixels to a column and twenty to a row, below the status line.
func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	t.Cleanup(screen.Fini)
	screen.SetSize(110, 36)
	return screen
}

func runeAt(s tcell.Screen, x, y int) rune {
	r, _, _, _ := s.GetContent(x, y)
	return r
}

func row(s tcell.Screen, y int) string {
	w, _ := s.Size()
	var b strings.Builder
	for x := range w {
		b.WriteRune(runeAt(s, x, y))
	}
	return b.String()
}

func snapshot() core.Snapshot {
	return core.Snapshot{
		Tick: 42,
		Cannons: []core.CannonView{
			{ID: 0, Rect: core.Rect{X: 500, Y: 550, W: 100, H: 50}, Ammo: 5, Capacity: 10},
		},
		Missiles: []core.Rect{{X: 700, Y: 200, W: 5, H: 15}},
		Helicopter: core.Helicopter{
			Rect:     core.Rect{X: 400, Y: 300, W: 150, H: 75},
			Movement: core.MovementRight,
		},
		Captured: 3,
		Rescued:  2,
		Total:    5,
	}
}

func TestDraw_Scenery(t *testing.T) {
	screen := newScreen(t)
	New(screen, arena.DefaultScenario()).Draw(snapshot())

	assert.Equal(t, RuneGround, runeAt(screen, 50, 33))
	assert.Equal(t, RuneBridge, runeAt(screen, 20, 33))
	assert.Equal(t, RuneBuilding, runeAt(screen, 5, 20))
	assert.Equal(t, RuneBuilding, runeAt(screen, 100, 20))
}

func TestDraw_Units(t *testing.T) {
	screen := newScreen(t)
	New(screen, arena.DefaultScenario()).Draw(snapshot())

	assert.Equal(t, '4', runeAt(screen, 50, 28), "ammo frame on the cannon")
	assert.Equal(t, RuneCannon, runeAt(screen, 55, 29))
	assert.Equal(t, RuneMissile, runeAt(screen, 70, 11))
	assert.Equal(t, RuneHelicopter, runeAt(screen, 45, 16))
	assert.Equal(t, '>', runeAt(screen, 54, 17))
}

func TestDraw_Hostages(t *testing.T) {
	screen := newScreen(t)
	New(screen, arena.DefaultScenario()).Draw(snapshot())

	roof := row(screen, 15)
	assert.Equal(t, "ooo", roof[:3], "waiting on the left roof")
	assert.Equal(t, 5, strings.Count(roof, "o"))
	assert.Equal(t, RuneHostage, runeAt(screen, 92, 15))
	assert.Equal(t, RuneHostage, runeAt(screen, 93, 15))
	assert.NotEqual(t, RuneHostage, runeAt(screen, 94, 15))
}

func TestDraw_Status(t *testing.T) {
	screen := newScreen(t)
	New(screen, arena.DefaultScenario()).Draw(snapshot())

	status := row(screen, 0)
	assert.Contains(t, status, "waiting 3")
	assert.Contains(t, status, "rescued 2/5")
	assert.Contains(t, status, "c0 5/10 patrol")
}

func TestDraw_OutcomeBanner(t *testing.T) {
	tests := []struct {
		name    string
		outcome core.Outcome
		want    string
	}{
		{"running", core.OutcomeRunning, ""},
		{"victory", core.OutcomeVictory, "ALL HOSTAGES RESCUED"},
		{"defeat", core.OutcomeDefeat, "HELICOPTER LOST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			screen := newScreen(t)
			snap := snapshot()
			snap.Outcome = tt.outcome
			New(screen, arena.DefaultScenario()).Draw(snap)

			banner := row(screen, 18)
			if tt.want == "" {
				assert.NotContains(t, banner, "press q")
				return
			}
			assert.Contains(t, banner, tt.want)
		})
	}
}

func TestDraw_Wreck(t *testing.T) {
	screen := newScreen(t)
	snap := snapshot()
	snap.Helicopter.Destroyed = true
	New(screen, arena.DefaultScenario()).Draw(snap)

	assert.Equal(t, RuneWreck, runeAt(screen, 45, 16))
	assert.Equal(t, RuneWreck, runeAt(screen, 54, 17))
}

func TestDraw_TinyScreen(t *testing.T) {
	screen := newScreen(t)
	screen.SetSize(1, 1)
	assert.NotPanics(t, func() {
		New(screen, arena.DefaultScenario()).Draw(snapshot())
	})
}
