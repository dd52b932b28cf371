// Package polylabel finds the pole of inaccessibility of a polygon: the
// interior point farthest from the polygon outline.
package polylabel

import (
	"context"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Result is a label point and its distance to the polygon outline.
type Result struct {
	Point    orb.Point
	Distance float64

	// Probes is the number of cells evaluated during the search.
	Probes int
}

const ctxCheckInterval = 1024

// Polylabel is PolylabelContext with a background context.
func Polylabel(poly orb.Polygon, precision float64) (Result, error) {
	return PolylabelContext(context.Background(), poly, precision)
}

// PolylabelContext searches for the point of poly with the largest distance
// to its outline. No point of the polygon is farther from the outline than
// the returned distance plus precision. Coordinates are treated as planar.
//
// The search checks ctx between cell expansions and returns its error if it
// is done.
func PolylabelContext(ctx context.Context, poly orb.Polygon, precision float64) (Result, error) {
	if !(precision > 0) {
		return Result{}, fmt.Errorf("%w: %v, must be positive", ErrInvalidPrecision, precision)
	}
	if err := validate(poly); err != nil {
		return Result{}, err
	}

	bound := poly.Bound()
	minX, minY := bound.Min[0], bound.Min[1]
	maxX, maxY := bound.Max[0], bound.Max[1]
	width := maxX - minX
	height := maxY - minY

	if !(width > 0 && height > 0) {
		return Result{}, fmt.Errorf("%w: zero area bounding box", ErrInvalidGeometry)
	}

	// slivers narrower than precision would otherwise be tiled with a huge grid
	cellSize := math.Max(math.Min(width, height), precision)
	h := cellSize / 2

	// squared distances between cell centers and edges must stay finite
	reachX, reachY := width+cellSize, height+cellSize
	if math.IsInf(reachX*reachX+reachY*reachY, 0) {
		return Result{}, fmt.Errorf("%w: bounding box %vx%v too large for precision %v", ErrInvalidGeometry, width, height, precision)
	}

	cellQueue := newCellQueue()
	for x := minX; x < maxX; x += cellSize {
		for y := minY; y < maxY; y += cellSize {
			cellQueue.Push(newCell(x+h, y+h, h, poly))
		}
	}

	bestCell := centroidCell(poly, bound)

	bboxCell := newCell(minX+width/2, minY+height/2, 0, poly)
	if bboxCell.D > bestCell.D {
		bestCell = bboxCell
	}

	numProbes := cellQueue.Len() + 2

	for iter := 0; ; iter++ {
		if iter%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, fmt.Errorf("polylabel interrupted after %d probes: %w", numProbes, err)
			}
		}

		c, ok := cellQueue.Pop()
		if !ok {
			break
		}

		if c.D > bestCell.D && bound.Contains(c.Point()) {
			bestCell = c
		}

		// the queue is ordered by Max, nothing left can do better
		if !(c.Max-bestCell.D > precision) {
			break
		}

		// children of a cell this small can't beat the best by more than precision
		if c.H*math.Sqrt2 <= precision {
			continue
		}

		h = c.H / 2
		children := [4]*cell{
			newCell(c.X-h, c.Y-h, h, poly),
			newCell(c.X+h, c.Y-h, h, poly),
			newCell(c.X-h, c.Y+h, h, poly),
			newCell(c.X+h, c.Y+h, h, poly),
		}
		for _, child := range children {
			if child.D > bestCell.D && bound.Contains(child.Point()) {
				bestCell = child
			}
			cellQueue.Push(child)
		}

		numProbes += 4
	}

	return Result{
		Point:    bestCell.Point(),
		Distance: bestCell.D,
		Probes:   numProbes,
	}, nil
}

func validate(poly orb.Polygon) error {
	if len(poly) == 0 {
		return fmt.Errorf("%w: polygon has no rings", ErrInvalidGeometry)
	}

	for _, ring := range poly {
		for _, p := range ring {
			if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
				return fmt.Errorf("%w: non finite coordinate %v", ErrInvalidGeometry, p)
			}
		}
	}

	if n := distinctPoints(poly[0], 3); n < 3 {
		return fmt.Errorf("%w: exterior ring has %d distinct points", ErrInvalidGeometry, n)
	}

	return nil
}

// distinctPoints counts distinct points of ring, stopping at limit.
func distinctPoints(ring orb.Ring, limit int) int {
	seen := make([]orb.Point, 0, limit)
	for _, p := range ring {
		dup := false
		for _, s := range seen {
			if s.Equal(p) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}

		seen = append(seen, p)
		if len(seen) == limit {
			break
		}
	}
	return len(seen)
}

// centroidCell is a zero-size cell at the area-weighted centroid of the
// exterior ring, or at its first point when the ring has no area.
func centroidCell(poly orb.Polygon, bound orb.Bound) *cell {
	points := poly[0]

	area := 0.0
	x := 0.0
	y := 0.0

	for i, length, j := 0, len(points), len(points)-1; i < length; i, j = i+1, i {
		a := points[i]
		b := points[j]
		f := a[0]*b[1] - b[0]*a[1]
		x += (a[0] + b[0]) * f
		y += (a[1] + b[1]) * f
		area += f * 3
	}

	if area == 0 {
		return newCell(points[0][0], points[0][1], 0, poly)
	}

	c := orb.Point{x / area, y / area}
	if !bound.Contains(c) {
		c = bound.Center()
	}
	return newCell(c[0], c[1], 0, poly)
}
