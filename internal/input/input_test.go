package input

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/heliraid/heliraid/internal/clock"
	"github.com/stretchr/testify/assert"
)

func TestFixed(t *testing.T) {
	f := Fixed{Left: true, Up: true}
	assert.Equal(t, State{Left: true, Up: true}, f.Directions())
}

func TestKeys_HoldWindow(t *testing.T) {
	c := clock.NewMock(time.Unix(0, 0))
	k := NewKeys(c)

	assert.True(t, k.HandleKey(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone)))
	assert.Equal(t, State{Left: true}, k.Directions())

	c.Advance(DefaultHold)
	assert.True(t, k.Directions().Left, "still inside the window")

	c.Advance(time.Millisecond)
	assert.Equal(t, State{}, k.Directions())
}

func TestKeys_Diagonal(t *testing.T) {
	c := clock.NewMock(time.Unix(0, 0))
	k := NewKeys(c)

	k.HandleKey(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone))
	k.HandleKey(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone))
	assert.Equal(t, State{Right: true, Up: true}, k.Directions())

	k.Release()
	assert.Equal(t, State{}, k.Directions())
}

func TestKeys_Runes(t *testing.T) {
	k := NewKeys(clock.NewMock(time.Unix(0, 0)))

	tests := []struct {
		r    rune
		want State
	}{
		{'a', State{Left: true}},
		{'d', State{Right: true}},
		{'w', State{Up: true}},
		{'s', State{Down: true}},
	}
	for _, tt := range tests {
		k.Release()
		assert.True(t, k.HandleKey(tcell.NewEventKey(tcell.KeyRune, tt.r, tcell.ModNone)))
		assert.Equal(t, tt.want, k.Directions(), "rune %q", tt.r)
	}

	assert.False(t, k.HandleKey(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)))
	assert.False(t, k.HandleKey(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)))
}
