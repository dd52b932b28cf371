package polylabel

import (
	"math"

	"github.com/paulmach/orb"
)

// Distance returns the signed distance from p to the nearest edge of poly.
// It is positive when p is inside the exterior ring and outside every hole.
// Self-intersecting rings are not detected, the ray-casting parity is used as is.
func Distance(p orb.Point, poly orb.Polygon) float64 {
	inside := false
	minDistSq := math.Inf(1)

	for _, ring := range poly {
		for i, length, j := 0, len(ring), len(ring)-1; i < length; i, j = i+1, i {
			a := ring[i]
			b := ring[j]

			if (a[1] > p[1]) != (b[1] > p[1]) &&
				p[0] < (b[0]-a[0])*(p[1]-a[1])/(b[1]-a[1])+a[0] {
				inside = !inside
			}

			minDistSq = math.Min(minDistSq, segDistSq(p, a, b))
		}
	}

	if inside {
		return math.Sqrt(minDistSq)
	}
	return -math.Sqrt(minDistSq)
}

// segDistSq is the squared distance from p to the segment ab.
func segDistSq(p, a, b orb.Point) float64 {
	x, y := a[0], a[1]
	dx, dy := b[0]-x, b[1]-y

	// zero-length segments degrade to a point
	if dx != 0 || dy != 0 {
		t := ((p[0]-x)*dx + (p[1]-y)*dy) / (dx*dx + dy*dy)

		if t > 1 {
			x, y = b[0], b[1]
		} else if t > 0 {
			x += dx * t
			y += dy * t
		}
	}

	dx = p[0] - x
	dy = p[1] - y

	return dx*dx + dy*dy
}
