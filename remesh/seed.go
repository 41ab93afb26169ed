package remesh

import "github.com/silt-sim/silt/geometry"

// SeedLattice places particles on a regular lattice at the given spacing,
// keeping the sites that fall inside the shape. 2-D shapes are seeded in
// the Z = 0 plane.
func SeedLattice(shape geometry.Shape, spacing float64, dim int) []geometry.Vec {
	b := shape.Bounds()
	var out []geometry.Vec

	zMin, zMax := 0.0, 0.0
	if dim == 3 {
		zMin, zMax = b.Min.Z, b.Max.Z
	}

	// Offset by half a spacing so the lattice straddles the bounds evenly.
	for z := zMin + 0.5*spacing; z <= zMax || dim == 2; z += spacing {
		if dim == 2 {
			z = 0
		}
		for y := b.Min.Y + 0.5*spacing; y <= b.Max.Y; y += spacing {
			for x := b.Min.X + 0.5*spacing; x <= b.Max.X; x += spacing {
				p := geometry.Vec{X: x, Y: y, Z: z}
				if shape.SignedDistance(p) < 0 {
					out = append(out, p)
				}
			}
		}
		if dim == 2 {
			break
		}
	}
	return out
}
