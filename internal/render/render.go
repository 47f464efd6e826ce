// Package render draws arena snapshots onto a terminal screen, scaling the
// pixel geometry down to cells.
package render

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/heliraid/heliraid/internal/arena"
	"github.com/heliraid/heliraid/pkg/core"
)

// Cell runes. Tests look for these.
const (
	RuneGround     = '▒'
	RuneBuilding   = '█'
	RuneBridge     = '='
	RuneCannon     = '▄'
	RuneMissile    = '|'
	RuneHelicopter = '#'
	RuneWreck      = 'X'
	RuneHostage    = 'o'
)

var (
	styleGround     = tcell.StyleDefault.Foreground(tcell.ColorOlive)
	styleBuilding   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleBridge     = tcell.StyleDefault.Foreground(tcell.ColorSaddleBrown)
	styleCannon     = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleMissile    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleHelicopter = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	styleWreck      = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleHostage    = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleStatus     = tcell.StyleDefault.Reverse(true)
	styleVictory    = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorGreen).Bold(true)
	styleDefeat     = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorRed).Bold(true)
)

// Renderer draws onto one screen.
type Renderer struct {
	screen tcell.Screen
	sc     arena.Scenario

	cols, rows int
}

// New creates a renderer for sc.
func New(screen tcell.Screen, sc arena.Scenario) *Renderer {
	return &Renderer{screen: screen, sc: sc}
}

// Draw clears the screen, draws snap and shows it.
func (r *Renderer) Draw(snap core.Snapshot) {
	r.screen.Clear()
	r.cols, r.rows = r.screen.Size()
	if r.cols <= 0 || r.rows <= 1 {
		return
	}

	r.fill(r.sc.Ground, RuneGround, styleGround)
	r.fill(r.sc.Bridge, RuneBridge, styleBridge)
	for _, b := range r.sc.Buildings() {
		r.fill(b, RuneBuilding, styleBuilding)
	}

	r.drawHostages(r.sc.LeftBuilding, snap.Captured)
	r.drawHostages(r.sc.RightBuilding, snap.Rescued)

	for _, c := range snap.Cannons {
		r.drawCannon(c)
	}
	for _, m := range snap.Missiles {
		x, y := r.cell(m.X+m.W/2, m.Y)
		r.set(x, y, RuneMissile, styleMissile)
	}
	r.drawHelicopter(snap.Helicopter)

	r.drawStatus(snap)
	r.drawBanner(snap.Outcome)

	r.screen.Show()
}

// cell maps an arena pixel to a screen cell. Row 0 is the status line.
func (r *Renderer) cell(px, py int) (int, int) {
	return px * r.cols / r.sc.Width, 1 + py*(r.rows-1)/r.sc.Height
}

func (r *Renderer) set(x, y int, ch rune, st tcell.Style) {
	if x < 0 || x >= r.cols || y < 1 || y >= r.rows {
		return
	}
	r.screen.SetContent(x, y, ch, nil, st)
}

// fill covers every cell the rect touches, at least one.
func (r *Renderer) fill(rect core.Rect, ch rune, st tcell.Style) {
	x0, y0 := r.cell(rect.X, rect.Y)
	x1, y1 := r.cell(rect.Right(), rect.Bottom())
	x1, y1 = max(x1, x0+1), max(y1, y0+1)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			r.set(x, y, ch, st)
		}
	}
}

func (r *Renderer) drawCannon(c core.CannonView) {
	r.fill(c.Rect, RuneCannon, styleCannon)
	x, y := r.cell(c.Rect.X, c.Rect.Y)
	r.set(x, y, rune('0'+c.AmmoFrame()), styleCannon.Reverse(true))
}

func (r *Renderer) drawHelicopter(h core.Helicopter) {
	if h.Destroyed {
		r.fill(h.Rect, RuneWreck, styleWreck)
		return
	}
	r.fill(h.Rect, RuneHelicopter, styleHelicopter)

	x0, y := r.cell(h.Rect.X, h.Rect.Y+h.Rect.H/2)
	x1, _ := r.cell(h.Rect.Right(), h.Rect.Y)
	switch h.Movement {
	case core.MovementLeft:
		r.set(x0, y, '<', styleHelicopter)
	case core.MovementRight:
		r.set(max(x1-1, x0), y, '>', styleHelicopter)
	}
	if h.Carrying {
		cx, cy := r.cell(h.Rect.X+h.Rect.W/2, h.Rect.Bottom())
		r.set(cx, cy, RuneHostage, styleHostage)
	}
}

// drawHostages lines n figures up on the row above a rooftop, wrapping
// upwards when the roof is too narrow.
func (r *Renderer) drawHostages(roof core.Rect, n int) {
	x0, y := r.cell(roof.X, roof.Y)
	x1, _ := r.cell(roof.Right(), roof.Y)
	width := max(x1-x0, 1)
	for i := range n {
		r.set(x0+i%width, y-1-i/width, RuneHostage, styleHostage)
	}
}

func (r *Renderer) drawStatus(snap core.Snapshot) {
	line := fmt.Sprintf(" waiting %d  rescued %d/%d  missiles %d  ", snap.Captured, snap.Rescued, snap.Total, len(snap.Missiles))
	for i, c := range snap.Cannons {
		line += fmt.Sprintf(" c%d %d/%d %s", i, c.Ammo, c.Capacity, c.Phase)
	}
	for x := range r.cols {
		r.screen.SetContent(x, 0, ' ', nil, styleStatus)
	}
	r.text(0, 0, line, styleStatus)
}

func (r *Renderer) drawBanner(o core.Outcome) {
	var (
		msg string
		st  tcell.Style
	)
	switch o {
	case core.OutcomeVictory:
		msg, st = " ALL HOSTAGES RESCUED  press q to quit ", styleVictory
	case core.OutcomeDefeat:
		msg, st = " HELICOPTER LOST  press q to quit ", styleDefeat
	default:
		return
	}
	x := max((r.cols-len(msg))/2, 0)
	r.text(x, r.rows/2, msg, st)
}

func (r *Renderer) text(x, y int, s string, st tcell.Style) {
	for _, ch := range s {
		if x >= r.cols {
			return
		}
		r.screen.SetContent(x, y, ch, nil, st)
		x++
	}
}
