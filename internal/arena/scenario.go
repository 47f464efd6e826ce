package arena

import "github.com/heliraid/heliraid/pkg/core"

// Arena dimensions in pixels.
const (
	Width          = 1100
	Height         = 700
	GroundHeight   = 100
	BuildingWidth  = 175
	BuildingHeight = 300
	BridgeWidth    = 150

	CannonWidth      = 100
	CannonHeight     = 50
	HelicopterWidth  = 150
	HelicopterHeight = 75
	MissileWidth     = 5
	MissileHeight    = 15

	// BoundsTolerance is the fraction of its own size the helicopter may
	// leave the arena by before it is lost.
	BoundsTolerance = 0.2
)

// Scenario is the immutable level geometry.
type Scenario struct {
	Width, Height int

	Ground        core.Rect
	Bridge        core.Rect
	LeftBuilding  core.Rect
	RightBuilding core.Rect
}

// DefaultScenario returns the standard level: two rooftops joined by ground,
// with a one-lane bridge right of the left building.
func DefaultScenario() Scenario {
	groundY := Height - GroundHeight
	return Scenario{
		Width:         Width,
		Height:        Height,
		Ground:        core.Rect{X: 0, Y: groundY, W: Width, H: GroundHeight},
		Bridge:        core.Rect{X: BuildingWidth, Y: groundY, W: BridgeWidth, H: GroundHeight},
		LeftBuilding:  core.Rect{X: 0, Y: groundY - BuildingHeight, W: BuildingWidth, H: BuildingHeight},
		RightBuilding: core.Rect{X: Width - BuildingWidth, Y: groundY - BuildingHeight, W: BuildingWidth, H: BuildingHeight},
	}
}

// Buildings returns both rooftops.
func (s Scenario) Buildings() []core.Rect {
	return []core.Rect{s.LeftBuilding, s.RightBuilding}
}

// Obstacles returns the fixed scenery the helicopter must avoid.
func (s Scenario) Obstacles() []core.Rect {
	return []core.Rect{s.Ground, s.LeftBuilding, s.RightBuilding}
}

// OverlapsLane reports whether a box starting at x with width w covers any
// column of the bridge.
func (s Scenario) OverlapsLane(x, w int) bool {
	return x+w > s.Bridge.X && x < s.Bridge.Right()
}

// AtDepot reports whether a cannon at x has reached its depot under the
// left building.
func (s Scenario) AtDepot(x, w int) bool {
	return x < s.LeftBuilding.Right()-w
}

// PatrolMin is the leftmost x an armed cannon patrols to.
func (s Scenario) PatrolMin() int { return s.Bridge.Right() }

// PatrolMax is the column an armed cannon's right edge turns back at.
func (s Scenario) PatrolMax() int { return s.RightBuilding.X }

// CannonStart returns the spawn box for cannon i of n, spread evenly over
// the patrol zone with a margin of cannonMargin on both ends.
func (s Scenario) CannonStart(i, n int) core.Rect {
	lo := s.PatrolMin() + cannonMargin
	hi := s.PatrolMax() - cannonMargin - CannonWidth
	x := lo
	if n > 1 {
		x = lo + i*(hi-lo)/(n-1)
	}
	return core.Rect{X: x, Y: s.Ground.Y - CannonHeight, W: CannonWidth, H: CannonHeight}
}

const cannonMargin = 100

// HelicopterStart returns the spawn box of the helicopter.
func (s Scenario) HelicopterStart() core.Rect {
	return core.Rect{X: 400, Y: 300, W: HelicopterWidth, H: HelicopterHeight}
}

// InPickupZone reports whether the helicopter is entirely over the left rooftop.
func (s Scenario) InPickupZone(h core.Rect) bool {
	return h.Right() < s.LeftBuilding.Right()
}

// InDropZone reports whether the helicopter has crossed onto the right rooftop.
func (s Scenario) InDropZone(h core.Rect) bool {
	return h.X > s.RightBuilding.X
}

// MissileGone reports whether a missile box left the arena or hit a building.
func (s Scenario) MissileGone(r core.Rect) bool {
	if r.X < 0 || r.X > s.Width || r.Y < 0 || r.Y > s.Height {
		return true
	}
	return r.Intersects(s.LeftBuilding) || r.Intersects(s.RightBuilding)
}

// OutOfBounds reports whether r sticks out of the arena by more than
// tolerance times its own size on any side.
func (s Scenario) OutOfBounds(r core.Rect, tolerance float64) bool {
	tw := float64(r.W) * tolerance
	th := float64(r.H) * tolerance
	return float64(r.X) < -tw ||
		float64(r.Right()) > float64(s.Width)+tw ||
		float64(r.Y) < -th ||
		float64(r.Bottom()) > float64(s.Height)+th
}
