// Package spatial provides cell-linked lists: uniform-grid spatial indexes
// bucketing particles per cell for neighbor queries. The multi-level variant
// places each particle on the grid level matching its smoothing-length
// ratio, so locally refined regions are searched on finer grids.
package spatial

import (
	"fmt"
	"math"

	"github.com/silt-sim/silt/geometry"
)

// Neighbor holds a nearby particle with its precomputed squared distance.
type Neighbor struct {
	Index  int
	DistSq float64
}

// Index is a spatial acceleration structure for fixed-radius neighbor
// queries over a particle position array.
type Index interface {
	// Build re-buckets all particles. hRatio may be nil for single-level
	// indexes; multi-level indexes use it to pick the grid level.
	Build(positions []geometry.Vec, hRatio []float64)
	// QueryRadiusInto appends all particles within radius of p to dst,
	// excluding the given index (pass -1 to exclude nothing).
	QueryRadiusInto(dst []Neighbor, p geometry.Vec, radius float64, positions []geometry.Vec, exclude int) []Neighbor
	// TotalLevels returns the number of grid levels.
	TotalLevels() int
}

// CellList is a single-resolution uniform grid index.
type CellList struct {
	bounds     geometry.Bounds
	cellSize   float64
	dim        int
	nx, ny, nz int
	cells      [][]int
}

// NewCellList creates a grid covering bounds with cells of size cellSize
// (normally the kernel cutoff radius).
func NewCellList(bounds geometry.Bounds, cellSize float64, dim int) (*CellList, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("spatial: cell size must be positive, got %g", cellSize)
	}
	if dim != 2 && dim != 3 {
		return nil, fmt.Errorf("spatial: dimension must be 2 or 3, got %d", dim)
	}

	e := bounds.Extent()
	c := &CellList{
		bounds:   bounds,
		cellSize: cellSize,
		dim:      dim,
		nx:       int(e.X/cellSize) + 1,
		ny:       int(e.Y/cellSize) + 1,
		nz:       1,
	}
	if dim == 3 {
		c.nz = int(e.Z/cellSize) + 1
	}
	c.cells = make([][]int, c.nx*c.ny*c.nz)
	for i := range c.cells {
		c.cells[i] = make([]int, 0, 8)
	}
	return c, nil
}

// CellSize returns the grid spacing.
func (c *CellList) CellSize() float64 { return c.cellSize }

// TotalLevels returns 1.
func (c *CellList) TotalLevels() int { return 1 }

// Clear removes all particles from the grid.
func (c *CellList) Clear() {
	for i := range c.cells {
		c.cells[i] = c.cells[i][:0]
	}
}

// Build clears the grid and inserts every position. hRatio is ignored.
func (c *CellList) Build(positions []geometry.Vec, hRatio []float64) {
	c.Clear()
	for i, p := range positions {
		c.Insert(i, p)
	}
}

// Insert adds particle i at position p.
func (c *CellList) Insert(i int, p geometry.Vec) {
	c.cells[c.cellIndex(p)] = append(c.cells[c.cellIndex(p)], i)
}

// QueryRadiusInto appends all particles within radius of p to dst,
// excluding the given index. Reuse dst across calls to avoid allocations.
func (c *CellList) QueryRadiusInto(dst []Neighbor, p geometry.Vec, radius float64, positions []geometry.Vec, exclude int) []Neighbor {
	cellRadius := int(radius/c.cellSize) + 1
	cx, cy, cz := c.cellCoords(p)
	radiusSq := radius * radius

	z0, z1 := 0, 0
	if c.dim == 3 {
		z0, z1 = -cellRadius, cellRadius
	}

	for dz := z0; dz <= z1; dz++ {
		z := cz + dz
		if z < 0 || z >= c.nz {
			continue
		}
		for dy := -cellRadius; dy <= cellRadius; dy++ {
			y := cy + dy
			if y < 0 || y >= c.ny {
				continue
			}
			for dx := -cellRadius; dx <= cellRadius; dx++ {
				x := cx + dx
				if x < 0 || x >= c.nx {
					continue
				}
				for _, j := range c.cells[(z*c.ny+y)*c.nx+x] {
					if j == exclude {
						continue
					}
					q := positions[j]
					ddx := q.X - p.X
					ddy := q.Y - p.Y
					ddz := q.Z - p.Z
					distSq := ddx*ddx + ddy*ddy + ddz*ddz
					if distSq <= radiusSq {
						dst = append(dst, Neighbor{Index: j, DistSq: distSq})
					}
				}
			}
		}
	}
	return dst
}

// cellCoords returns the clamped grid coordinates for a position.
func (c *CellList) cellCoords(p geometry.Vec) (x, y, z int) {
	x = clamp(int((p.X-c.bounds.Min.X)/c.cellSize), c.nx)
	y = clamp(int((p.Y-c.bounds.Min.Y)/c.cellSize), c.ny)
	if c.dim == 3 {
		z = clamp(int((p.Z-c.bounds.Min.Z)/c.cellSize), c.nz)
	}
	return x, y, z
}

// cellIndex returns the flat cell index for a position.
func (c *CellList) cellIndex(p geometry.Vec) int {
	x, y, z := c.cellCoords(p)
	return (z*c.ny+y)*c.nx + x
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

// MultilevelCellList stacks grids whose cell size halves per level.
// Level 0 is the coarsest (cell size = the reference cutoff); particles
// with smoothing-length ratio r land on level floor(log2(r)).
type MultilevelCellList struct {
	levels []*CellList
}

// NewMultilevelCellList creates totalLevels stacked grids over bounds.
// Level l has cell size cutoff / 2^l.
func NewMultilevelCellList(bounds geometry.Bounds, cutoff float64, totalLevels, dim int) (*MultilevelCellList, error) {
	if totalLevels < 1 {
		return nil, fmt.Errorf("spatial: total levels must be >= 1, got %d", totalLevels)
	}
	m := &MultilevelCellList{levels: make([]*CellList, totalLevels)}
	for l := 0; l < totalLevels; l++ {
		c, err := NewCellList(bounds, cutoff/math.Pow(2, float64(l)), dim)
		if err != nil {
			return nil, err
		}
		m.levels[l] = c
	}
	return m, nil
}

// TotalLevels returns the number of grid levels.
func (m *MultilevelCellList) TotalLevels() int { return len(m.levels) }

// Level returns the l-th grid, finest last.
func (m *MultilevelCellList) Level(l int) *CellList { return m.levels[l] }

// Build re-buckets all particles, choosing each particle's level from its
// smoothing-length ratio. A nil hRatio places everything on level 0.
func (m *MultilevelCellList) Build(positions []geometry.Vec, hRatio []float64) {
	for _, c := range m.levels {
		c.Clear()
	}
	for i, p := range positions {
		l := 0
		if hRatio != nil {
			l = m.levelFor(hRatio[i])
		}
		m.levels[l].Insert(i, p)
	}
}

// levelFor maps a smoothing-length ratio (>= 1) to a grid level.
func (m *MultilevelCellList) levelFor(ratio float64) int {
	if ratio <= 1 {
		return 0
	}
	l := int(math.Floor(math.Log2(ratio)))
	if l >= len(m.levels) {
		l = len(m.levels) - 1
	}
	return l
}

// QueryRadiusInto appends all particles within radius of p to dst,
// scanning every level.
func (m *MultilevelCellList) QueryRadiusInto(dst []Neighbor, p geometry.Vec, radius float64, positions []geometry.Vec, exclude int) []Neighbor {
	for _, c := range m.levels {
		dst = c.QueryRadiusInto(dst, p, radius, positions, exclude)
	}
	return dst
}
