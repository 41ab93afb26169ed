// Package geometry provides the vector, bounds, and shape primitives the
// resolution core queries. Shapes expose signed distance (negative inside)
// and an axis-aligned bounding box; bodies are 2-D or 3-D, with 2-D
// positions carrying Z = 0.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec is a world-space position or displacement.
// 2-D bodies keep Z at zero throughout.
type Vec = r3.Vec

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min, Max Vec
}

// Extent returns Max - Min.
func (b Bounds) Extent() Vec {
	return r3.Sub(b.Max, b.Min)
}

// MinDimension returns the smallest box edge over the first dim axes.
func (b Bounds) MinDimension(dim int) float64 {
	e := b.Extent()
	m := math.Min(e.X, e.Y)
	if dim == 3 {
		m = math.Min(m, e.Z)
	}
	return m
}

// Contains reports whether p lies inside the box (inclusive).
func (b Bounds) Contains(p Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Pad returns the bounds grown by margin on every side.
func (b Bounds) Pad(margin float64) Bounds {
	m := Vec{X: margin, Y: margin, Z: margin}
	return Bounds{Min: r3.Sub(b.Min, m), Max: r3.Add(b.Max, m)}
}

// Shape is the geometry capability consumed by refinement policies and
// level-set construction. SignedDistance is negative inside the shape.
type Shape interface {
	Name() string
	SignedDistance(p Vec) float64
	Bounds() Bounds
}
