package labeler

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// Polygons flattens g into its polygons. Geometry collections are walked
// recursively, geometries without area are dropped.
func Polygons(g orb.Geometry) []orb.Polygon {
	switch g := g.(type) {
	case orb.Polygon:
		return []orb.Polygon{g}
	case orb.MultiPolygon:
		return append([]orb.Polygon(nil), g...)
	case orb.Collection:
		var polys []orb.Polygon
		for _, sub := range g {
			polys = append(polys, Polygons(sub)...)
		}
		return polys
	default:
		return nil
	}
}

// Largest returns the polygon with the largest area on the earth, the
// first one wins ties.
func Largest(polys []orb.Polygon) orb.Polygon {
	switch len(polys) {
	case 0:
		return nil
	case 1:
		return polys[0]
	}

	bestPoly := polys[0]
	maxArea := Area(bestPoly)

	for _, poly := range polys[1:] {
		area := Area(poly)
		if area > maxArea {
			maxArea = area
			bestPoly = poly
		}
	}

	return bestPoly
}

// Area is the polygon area on the earth in square meters.
func Area(poly orb.Polygon) float64 {
	return math.Abs(geo.Area(poly))
}

// Centroid is the mean of the polygon vertices, the repeated closing
// vertex of each ring is counted once.
func Centroid(poly orb.Polygon) (orb.Point, bool) {
	var x, y float64
	n := 0

	for _, ring := range poly {
		points := ring
		if len(points) > 1 && points[0].Equal(points[len(points)-1]) {
			points = points[:len(points)-1]
		}
		for _, p := range points {
			x += p[0]
			y += p[1]
			n++
		}
	}

	if n == 0 {
		return orb.Point{}, false
	}
	return orb.Point{x / float64(n), y / float64(n)}, true
}

// CenterOfMass is the area weighted centroid of the polygon. Polygons
// without area fall back to Centroid.
func CenterOfMass(poly orb.Polygon) (orb.Point, bool) {
	if len(poly) == 0 || len(poly[0]) == 0 {
		return orb.Point{}, false
	}

	p, area := planar.CentroidArea(poly)
	if area == 0 || math.IsNaN(p[0]) || math.IsNaN(p[1]) {
		return Centroid(poly)
	}
	return p, true
}
