// Package geom provides the small set of 2-D primitives shared by the
// layout and diagram packages: points, sizes, axis-aligned rectangles, and
// the orientation/containment predicates the layout engine uses to decide
// edge crossings and service-zone nesting.
package geom

import "math"

// Epsilon is the tolerance used by every containment/crossing predicate in
// this package, per spec's edge-crossing policy and zone non-overlap
// invariant (both specify ε = 1e-6).
const Epsilon = 1e-6

// Point is an absolute 2-D position. Coordinates are unbounded IEEE-754
// doubles; there is no canvas origin or size limit.
type Point struct {
	X, Y float64
}

// Size is a non-negative width/height pair.
type Size struct {
	W, H float64
}

// Rect is an axis-aligned rectangle anchored at its top-left Origin.
type Rect struct {
	Origin Point
	Size   Size
}

func (r Rect) MinX() float64 { return r.Origin.X }
func (r Rect) MinY() float64 { return r.Origin.Y }
func (r Rect) MaxX() float64 { return r.Origin.X + r.Size.W }
func (r Rect) MaxY() float64 { return r.Origin.Y + r.Size.H }
func (r Rect) CenterX() float64 { return r.Origin.X + r.Size.W/2 }
func (r Rect) CenterY() float64 { return r.Origin.Y + r.Size.H/2 }

// Center returns the rectangle's center point.
func (r Rect) Center() Point {
	return Point{X: r.CenterX(), Y: r.CenterY()}
}

// Inflate grows the rectangle by dx on each horizontal side and dy on each
// vertical side, keeping it centered on the same point.
func (r Rect) Inflate(dx, dy float64) Rect {
	return Rect{
		Origin: Point{X: r.Origin.X - dx, Y: r.Origin.Y - dy},
		Size:   Size{W: r.Size.W + 2*dx, H: r.Size.H + 2*dy},
	}
}

// Contains reports whether r fully contains other, within Epsilon on each
// side (spec's service-zone nesting test: "zone A geometrically contains
// zone B, after eps tolerance").
func (r Rect) Contains(other Rect) bool {
	return r.MinX() <= other.MinX()+Epsilon &&
		r.MinY() <= other.MinY()+Epsilon &&
		r.MaxX() >= other.MaxX()-Epsilon &&
		r.MaxY() >= other.MaxY()-Epsilon
}

// Disjoint reports whether r and other share no interior area, within
// Epsilon.
func (r Rect) Disjoint(other Rect) bool {
	return r.MaxX() <= other.MinX()+Epsilon ||
		other.MaxX() <= r.MinX()+Epsilon ||
		r.MaxY() <= other.MinY()+Epsilon ||
		other.MaxY() <= r.MinY()+Epsilon
}

// PartiallyOverlaps reports whether r and other overlap without either
// containing the other — the condition spec's zone non-overlap invariant
// (§8 property 6) forbids: "either they are disjoint or one contains the
// other".
func (r Rect) PartiallyOverlaps(other Rect) bool {
	if r.Disjoint(other) {
		return false
	}
	if r.Contains(other) || other.Contains(r) {
		return false
	}
	return true
}

// orientation returns the sign of the cross product (b-a) x (c-a): positive
// for counter-clockwise, negative for clockwise, zero for collinear.
func orientation(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func sign(v float64) int {
	switch {
	case v > Epsilon:
		return 1
	case v < -Epsilon:
		return -1
	default:
		return 0
	}
}

// onSegment reports whether point q lies on the closed segment p-r, given
// that p, q, r are already known to be collinear.
func onSegment(p, q, r Point) bool {
	return math.Min(p.X, r.X)-Epsilon <= q.X && q.X <= math.Max(p.X, r.X)+Epsilon &&
		math.Min(p.Y, r.Y)-Epsilon <= q.Y && q.Y <= math.Max(p.Y, r.Y)+Epsilon
}

// SegmentsCross reports whether open segment (a1,a2) crosses open segment
// (b1,b2) at an interior point, ignoring any endpoints the two segments
// share. This is the standard orientation-sign test with a strict
// inequality and ε tolerance, per spec's edge-crossing policy (§4.2).
func SegmentsCross(a1, a2, b1, b2 Point) bool {
	d1 := sign(orientation(b1, b2, a1))
	d2 := sign(orientation(b1, b2, a2))
	d3 := sign(orientation(a1, a2, b1))
	d4 := sign(orientation(a1, a2, b2))

	if d1 != d2 && d3 != d4 && d1 != 0 && d2 != 0 && d3 != 0 && d4 != 0 {
		return true
	}

	// Collinear special cases only count as a crossing if the shared point
	// is interior to both segments, not merely a shared endpoint.
	if d1 == 0 && onSegment(b1, a1, b2) && !sharesEndpoint(a1, b1, b2) {
		return true
	}
	if d2 == 0 && onSegment(b1, a2, b2) && !sharesEndpoint(a2, b1, b2) {
		return true
	}
	if d3 == 0 && onSegment(a1, b1, a2) && !sharesEndpoint(b1, a1, a2) {
		return true
	}
	if d4 == 0 && onSegment(a1, b2, a2) && !sharesEndpoint(b2, a1, a2) {
		return true
	}
	return false
}

func sharesEndpoint(p, e1, e2 Point) bool {
	return samePoint(p, e1) || samePoint(p, e2)
}

func samePoint(a, b Point) bool {
	return math.Abs(a.X-b.X) < Epsilon && math.Abs(a.Y-b.Y) < Epsilon
}
