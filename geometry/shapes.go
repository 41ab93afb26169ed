package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Ball is a circle (2-D) or sphere (3-D) centered at Center.
type Ball struct {
	ShapeName string
	Center    Vec
	Radius    float64
}

// Name returns the shape's name.
func (b Ball) Name() string { return b.ShapeName }

// SignedDistance returns |p - center| - radius.
func (b Ball) SignedDistance(p Vec) float64 {
	return r3.Norm(r3.Sub(p, b.Center)) - b.Radius
}

// Bounds returns the tight bounding box of the ball.
func (b Ball) Bounds() Bounds {
	r := Vec{X: b.Radius, Y: b.Radius, Z: b.Radius}
	return Bounds{Min: r3.Sub(b.Center, r), Max: r3.Add(b.Center, r)}
}

// Box is an axis-aligned box with an exact signed distance.
// A 2-D box keeps Lower.Z == Upper.Z == 0.
type Box struct {
	ShapeName    string
	Lower, Upper Vec
}

// Name returns the shape's name.
func (b Box) Name() string { return b.ShapeName }

// SignedDistance returns the exact distance to the box surface,
// negative inside.
func (b Box) SignedDistance(p Vec) float64 {
	c := r3.Scale(0.5, r3.Add(b.Lower, b.Upper))
	half := r3.Scale(0.5, r3.Sub(b.Upper, b.Lower))

	qx := math.Abs(p.X-c.X) - half.X
	qy := math.Abs(p.Y-c.Y) - half.Y

	// A degenerate Z slab marks a 2-D box; the Z axis must not clamp the
	// interior distance to zero.
	if b.Lower.Z == b.Upper.Z {
		outside := math.Hypot(math.Max(qx, 0), math.Max(qy, 0))
		inside := math.Min(math.Max(qx, qy), 0)
		return outside + inside
	}

	qz := math.Abs(p.Z-c.Z) - half.Z
	ox := math.Max(qx, 0)
	oy := math.Max(qy, 0)
	oz := math.Max(qz, 0)
	outside := math.Sqrt(ox*ox + oy*oy + oz*oz)

	inside := math.Min(math.Max(qx, math.Max(qy, qz)), 0)
	return outside + inside
}

// Bounds returns the box itself.
func (b Box) Bounds() Bounds {
	return Bounds{Min: b.Lower, Max: b.Upper}
}

// Inverted flips a shape inside out: the signed distance changes sign,
// the bounds stay those of the wrapped shape.
type Inverted struct {
	Shape
}

// SignedDistance negates the wrapped shape's distance.
func (inv Inverted) SignedDistance(p Vec) float64 {
	return -inv.Shape.SignedDistance(p)
}
