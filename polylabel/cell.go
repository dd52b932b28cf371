package polylabel

import (
	"math"

	"github.com/google/btree"
	"github.com/paulmach/orb"
)

type cell struct {
	X   float64 // cell center X
	Y   float64 // cell center Y
	H   float64 // half cell size
	D   float64 // distance from cell center to polygon
	Max float64 // max distance to polygon within a cell

	seq uint64
}

func newCell(x, y, h float64, poly orb.Polygon) *cell {
	d := Distance(orb.Point{x, y}, poly)
	return &cell{
		X:   x,
		Y:   y,
		H:   h,
		D:   d,
		Max: d + h*math.Sqrt2,
	}
}

func (c *cell) Point() orb.Point {
	return orb.Point{c.X, c.Y}
}

// cellLess orders cells by Max, cells with equal Max by reverse insertion
// order, so DeleteMax yields the most promising and then the oldest cell.
func cellLess(a, b *cell) bool {
	if a.Max != b.Max {
		return a.Max < b.Max
	}
	return a.seq > b.seq
}

type cellQueue struct {
	tree *btree.BTreeG[*cell]
	seq  uint64
}

func newCellQueue() *cellQueue {
	return &cellQueue{
		tree: btree.NewG(8, cellLess),
	}
}

func (q *cellQueue) Push(c *cell) {
	c.seq = q.seq
	q.seq++
	q.tree.ReplaceOrInsert(c)
}

func (q *cellQueue) Pop() (*cell, bool) {
	return q.tree.DeleteMax()
}

func (q *cellQueue) Len() int {
	return q.tree.Len()
}
