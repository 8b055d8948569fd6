package geom

import "testing"

func TestRectContainsAndDisjoint(t *testing.T) {
	outer := Rect{Origin: Point{0, 0}, Size: Size{100, 100}}
	inner := Rect{Origin: Point{10, 10}, Size: Size{20, 20}}
	elsewhere := Rect{Origin: Point{200, 200}, Size: Size{10, 10}}

	if !outer.Contains(inner) {
		t.Fatalf("expected outer to contain inner")
	}
	if outer.Contains(elsewhere) {
		t.Fatalf("did not expect outer to contain elsewhere")
	}
	if !outer.Disjoint(elsewhere) {
		t.Fatalf("expected outer and elsewhere to be disjoint")
	}
	if outer.Disjoint(inner) {
		t.Fatalf("did not expect outer and inner to be disjoint")
	}
}

func TestRectPartiallyOverlaps(t *testing.T) {
	a := Rect{Origin: Point{0, 0}, Size: Size{10, 10}}
	b := Rect{Origin: Point{5, 5}, Size: Size{10, 10}}
	if !a.PartiallyOverlaps(b) {
		t.Fatalf("expected a and b to partially overlap")
	}

	nested := Rect{Origin: Point{2, 2}, Size: Size{4, 4}}
	if a.PartiallyOverlaps(nested) {
		t.Fatalf("a fully contains nested, should not be reported as partial overlap")
	}
}

func TestSegmentsCrossBasic(t *testing.T) {
	a1, a2 := Point{0, 0}, Point{10, 10}
	b1, b2 := Point{0, 10}, Point{10, 0}
	if !SegmentsCross(a1, a2, b1, b2) {
		t.Fatalf("expected diagonal segments to cross")
	}
}

func TestSegmentsSharingEndpointDoNotCross(t *testing.T) {
	shared := Point{5, 5}
	a1, a2 := Point{0, 0}, shared
	b1, b2 := shared, Point{10, 0}
	if SegmentsCross(a1, a2, b1, b2) {
		t.Fatalf("segments sharing only an endpoint should not count as crossing")
	}
}

func TestSegmentsParallelDoNotCross(t *testing.T) {
	a1, a2 := Point{0, 0}, Point{10, 0}
	b1, b2 := Point{0, 5}, Point{10, 5}
	if SegmentsCross(a1, a2, b1, b2) {
		t.Fatalf("parallel segments should not cross")
	}
}
