// Package broadphase finds candidate collision pairs with a uniform spatial
// hash over world-space bounding boxes.
package broadphase

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultCellScale multiplies the largest bounding-box diagonal to obtain
// the cell edge length.
const DefaultCellScale = 1.5

// Bounded is anything with a world-space axis-aligned bounding box.
type Bounded interface {
	AABB() (lo, hi mgl64.Vec3)
}

// Cell is an integer grid coordinate. It is used directly as a map key.
type Cell struct {
	X, Y, Z int
}

// Pair is a candidate with A < B.
type Pair struct {
	A, B int
}

// Grid is a spatial hash whose cell size is fixed by Init and never adapts.
type Grid struct {
	Scale float64

	size  float64
	cells map[Cell][]int
}

func New(scale float64) *Grid {
	if scale <= 0 {
		scale = DefaultCellScale
	}
	return &Grid{Scale: scale, size: 1, cells: make(map[Cell][]int)}
}

// Init freezes the cell size at Scale times the largest bounding-box
// diagonal among bodies. An empty set or point-sized bodies fall back to 1.
func Init[T Bounded](g *Grid, bodies []T) {
	maxDiag := 0.0
	for _, b := range bodies {
		lo, hi := b.AABB()
		d := hi.Sub(lo).Len()
		if math.IsNaN(d) || math.IsInf(d, 0) {
			continue
		}
		maxDiag = math.Max(maxDiag, d)
	}
	g.size = g.Scale * maxDiag
	if g.size <= 0 || math.IsNaN(g.size) || math.IsInf(g.size, 0) {
		g.size = 1
	}
}

func (g *Grid) CellSize() float64 { return g.size }

// CellOf returns the cell containing p.
func (g *Grid) CellOf(p mgl64.Vec3) Cell {
	return Cell{
		X: int(math.Floor(p[0] / g.size)),
		Y: int(math.Floor(p[1] / g.size)),
		Z: int(math.Floor(p[2] / g.size)),
	}
}

// maxCellSpan bounds how many cells one box may cover per axis. Anything
// larger, or a box with NaN or infinite corners, is left out of the grid.
const maxCellSpan = 1 << 10

// spans reports whether the box from lo to hi maps onto a usable cell range.
func (g *Grid) spans(lo, hi mgl64.Vec3) bool {
	for k := 0; k < 3; k++ {
		a, b := lo[k]/g.size, hi[k]/g.size
		if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
			return false
		}
		if math.Abs(a) > math.MaxInt32 || math.Abs(b) > math.MaxInt32 || b-a > maxCellSpan {
			return false
		}
	}
	return true
}

// Build clears the grid and inserts every body into each cell its bounding
// box touches. Indices refer to positions in bodies. Bodies whose box is not
// finite are skipped.
func Build[T Bounded](g *Grid, bodies []T) {
	clear(g.cells)
	for i, b := range bodies {
		lo, hi := b.AABB()
		if !g.spans(lo, hi) {
			continue
		}
		c0, c1 := g.CellOf(lo), g.CellOf(hi)
		for x := c0.X; x <= c1.X; x++ {
			for y := c0.Y; y <= c1.Y; y++ {
				for z := c0.Z; z <= c1.Z; z++ {
					c := Cell{x, y, z}
					g.cells[c] = append(g.cells[c], i)
				}
			}
		}
	}
}

// Occupants returns the bodies registered in c, in insertion order.
func (g *Grid) Occupants(c Cell) []int {
	return g.cells[c]
}

func (g *Grid) NumCells() int { return len(g.cells) }

// Pairs lists every unordered pair of distinct occupants of every cell.
// A pair sharing k cells is reported k times. The result is sorted by
// (A, B) so iteration order does not depend on map order.
func (g *Grid) Pairs() []Pair {
	var pairs []Pair
	for _, occ := range g.cells {
		for i := 0; i < len(occ); i++ {
			for j := i + 1; j < len(occ); j++ {
				a, b := occ[i], occ[j]
				if a == b {
					continue
				}
				if a > b {
					a, b = b, a
				}
				pairs = append(pairs, Pair{a, b})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	return pairs
}
