// Package levelset provides signed-distance fields sampled on uniform
// grids, plus a multi-level pyramid whose grid spacing halves per level.
// Fields are built once from a shape's signed-distance query and are
// read-only afterwards.
package levelset

import (
	"fmt"
	"math"

	"github.com/silt-sim/silt/geometry"
)

// Mesh is a single-resolution signed-distance field. Values are sampled at
// grid nodes and queried with bi-/tri-linear interpolation.
type Mesh struct {
	bounds     geometry.Bounds
	spacing    float64
	dim        int
	nx, ny, nz int
	data       []float64
}

// NewMesh samples shape's signed distance over bounds at the given grid
// spacing.
func NewMesh(bounds geometry.Bounds, spacing float64, dim int, shape geometry.Shape) (*Mesh, error) {
	if spacing <= 0 {
		return nil, fmt.Errorf("levelset: spacing must be positive, got %g", spacing)
	}
	if dim != 2 && dim != 3 {
		return nil, fmt.Errorf("levelset: dimension must be 2 or 3, got %d", dim)
	}

	e := bounds.Extent()
	m := &Mesh{
		bounds:  bounds,
		spacing: spacing,
		dim:     dim,
		nx:      int(math.Ceil(e.X/spacing)) + 1,
		ny:      int(math.Ceil(e.Y/spacing)) + 1,
		nz:      1,
	}
	if dim == 3 {
		m.nz = int(math.Ceil(e.Z/spacing)) + 1
	}
	m.data = make([]float64, m.nx*m.ny*m.nz)

	for k := 0; k < m.nz; k++ {
		for j := 0; j < m.ny; j++ {
			for i := 0; i < m.nx; i++ {
				p := geometry.Vec{
					X: bounds.Min.X + float64(i)*spacing,
					Y: bounds.Min.Y + float64(j)*spacing,
					Z: bounds.Min.Z + float64(k)*spacing,
				}
				if dim == 2 {
					p.Z = 0
				}
				m.data[(k*m.ny+j)*m.nx+i] = shape.SignedDistance(p)
			}
		}
	}
	return m, nil
}

// Spacing returns the grid spacing.
func (m *Mesh) Spacing() float64 { return m.spacing }

// Bounds returns the sampled region.
func (m *Mesh) Bounds() geometry.Bounds { return m.bounds }

// NodeCount returns the total number of grid nodes.
func (m *Mesh) NodeCount() int { return len(m.data) }

// SignedDistance interpolates the field at p. Positions outside the
// sampled region are clamped to the boundary nodes.
func (m *Mesh) SignedDistance(p geometry.Vec) float64 {
	fx, i0, i1 := m.locate(p.X-m.bounds.Min.X, m.nx)
	fy, j0, j1 := m.locate(p.Y-m.bounds.Min.Y, m.ny)

	if m.dim == 2 {
		v00 := m.data[j0*m.nx+i0]
		v10 := m.data[j0*m.nx+i1]
		v01 := m.data[j1*m.nx+i0]
		v11 := m.data[j1*m.nx+i1]
		return lerp(lerp(v00, v10, fx), lerp(v01, v11, fx), fy)
	}

	fz, k0, k1 := m.locate(p.Z-m.bounds.Min.Z, m.nz)
	at := func(i, j, k int) float64 { return m.data[(k*m.ny+j)*m.nx+i] }
	bottom := lerp(lerp(at(i0, j0, k0), at(i1, j0, k0), fx), lerp(at(i0, j1, k0), at(i1, j1, k0), fx), fy)
	top := lerp(lerp(at(i0, j0, k1), at(i1, j0, k1), fx), lerp(at(i0, j1, k1), at(i1, j1, k1), fx), fy)
	return lerp(bottom, top, fz)
}

// locate returns the interpolation fraction and the two bracketing node
// indices along one axis, clamped to the grid.
func (m *Mesh) locate(offset float64, n int) (frac float64, lo, hi int) {
	t := offset / m.spacing
	if t <= 0 {
		return 0, 0, 0
	}
	if t >= float64(n-1) {
		return 0, n - 1, n - 1
	}
	lo = int(t)
	return t - float64(lo), lo, lo + 1
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// Multilevel is a signed-distance pyramid. Levels are ordered coarsest
// first; only the retained tail of the pyramid is kept in memory.
type Multilevel struct {
	levels []*Mesh
}

// BuildLevels builds total levels over bounds, level l having spacing
// coarsestSpacing / 2^l, and retains only the finest `retain` levels.
// Intermediate levels are sampled and discarded; this makes the
// build-everything-keep-the-tail pattern an explicit parameter.
func BuildLevels(bounds geometry.Bounds, coarsestSpacing float64, total, retain, dim int, shape geometry.Shape) (*Multilevel, error) {
	if total < 1 {
		return nil, fmt.Errorf("levelset: total levels must be >= 1, got %d", total)
	}
	if retain < 1 || retain > total {
		return nil, fmt.Errorf("levelset: retain must be in [1, %d], got %d", total, retain)
	}

	ml := &Multilevel{}
	for l := 0; l < total; l++ {
		if l < total-retain {
			continue // not retained; nothing downstream reads it
		}
		mesh, err := NewMesh(bounds, coarsestSpacing/math.Pow(2, float64(l)), dim, shape)
		if err != nil {
			return nil, err
		}
		ml.levels = append(ml.levels, mesh)
	}
	return ml, nil
}

// TotalLevels returns the number of retained levels.
func (ml *Multilevel) TotalLevels() int { return len(ml.levels) }

// Level returns the l-th retained level, coarsest first.
func (ml *Multilevel) Level(l int) *Mesh { return ml.levels[l] }

// Finest returns the finest retained level.
func (ml *Multilevel) Finest() *Mesh { return ml.levels[len(ml.levels)-1] }

// SignedDistance queries the finest retained level.
func (ml *Multilevel) SignedDistance(p geometry.Vec) float64 {
	return ml.Finest().SignedDistance(p)
}
