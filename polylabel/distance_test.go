package polylabel_test

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/royalcat/geolabels/polylabel"
)

func TestDistanceSign(t *testing.T) {
	poly := orb.Polygon{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		{{4, 4}, {4, 6}, {6, 6}, {6, 4}, {4, 4}},
	}

	cases := []struct {
		name  string
		point orb.Point
		want  float64
	}{
		{"annulus", orb.Point{2, 5}, 2},
		{"near outer edge", orb.Point{9, 5}, 1},
		{"inside hole", orb.Point{5, 5}, -1},
		{"outside", orb.Point{-3, 5}, -3},
		{"on edge", orb.Point{0, 5}, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := polylabel.Distance(c.point, poly)
			if math.Abs(d-c.want) > 1e-12 {
				t.Fatalf("expected %v, got %v", c.want, d)
			}
		})
	}
}

func TestDistanceOpenRing(t *testing.T) {
	closed := orb.Polygon{{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}}
	open := orb.Polygon{{{0, 0}, {4, 0}, {4, 4}, {0, 4}}}

	for _, p := range []orb.Point{{1, 1}, {2, 3.5}, {5, 5}} {
		a := polylabel.Distance(p, closed)
		b := polylabel.Distance(p, open)
		if a != b {
			t.Fatalf("point %v: closed ring gives %v, open ring gives %v", p, a, b)
		}
	}
}

func TestDistanceZeroLengthSegment(t *testing.T) {
	poly := orb.Polygon{{{0, 0}, {4, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}}

	d := polylabel.Distance(orb.Point{3, 1}, poly)
	if math.Abs(d-1) > 1e-12 {
		t.Fatalf("expected 1, got %v", d)
	}
}

func TestDistanceEmptyPolygon(t *testing.T) {
	d := polylabel.Distance(orb.Point{1, 1}, orb.Polygon{})
	if !math.IsInf(d, -1) {
		t.Fatalf("expected -Inf, got %v", d)
	}
}
