// pkg/core/geometry.go
package core

// Rect is an axis-aligned box in arena pixels. Y grows downward.
type Rect struct {
	X, Y int
	W, H int
}

// Right returns the first column past the box.
func (r Rect) Right() int { return r.X + r.W }

// Bottom returns the first row past the box.
func (r Rect) Bottom() int { return r.Y + r.H }

// Empty reports whether the box has no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Intersects reports whether the two boxes share at least one pixel.
// Boxes that only touch along an edge do not intersect, and an empty box
// never intersects anything.
func (r Rect) Intersects(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	if max(r.X, o.X) >= min(r.Right(), o.Right()) {
		return false
	}
	return max(r.Y, o.Y) < min(r.Bottom(), o.Bottom())
}

// Translate returns the box moved by (dx, dy).
func (r Rect) Translate(dx, dy int) Rect {
	r.X += dx
	r.Y += dy
	return r
}
