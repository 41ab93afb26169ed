package adaptation

import "github.com/silt-sim/silt/geometry"

// DistanceQuerier is the geometry capability a spacing policy needs:
// signed distance to a boundary, negative inside. Both geometry.Shape and
// the level-set meshes satisfy it.
type DistanceQuerier interface {
	SignedDistance(p geometry.Vec) float64
}

// SpacingPolicy maps a candidate position to a target local particle
// spacing. Policies are pure and chosen once at body setup; evaluating
// them per particle is safe to do concurrently.
type SpacingPolicy interface {
	LocalSpacing(shape DistanceQuerier, pos geometry.Vec) float64
}

// SmoothedSpacing blends between the finest and coarsest spacing bounds
// using the kernel's radial profile. measure is a non-negative geometric
// quantity (typically distance to a feature); the blend weight falls from
// 1 at the feature to 0 at the edge of the transition shell. This is a
// total function: beyond the shell the coarsest bound is returned.
func (a *Adaptation) SmoothedSpacing(measure, transitionThickness float64) float64 {
	ratioRef := measure / (2.0 * transitionThickness)
	if ratioRef >= a.kern.KernelSize() {
		return a.coarsestBound
	}
	weight := a.kern.W1D(ratioRef) / a.kern.W1D(0)
	return weight*a.finestBound + (1.0-weight)*a.coarsestBound
}

// Uniform requests the reference spacing everywhere.
type Uniform struct {
	ad *Adaptation
}

// NewUniform returns the uniform spacing policy.
func NewUniform(ad *Adaptation) *Uniform { return &Uniform{ad: ad} }

// LocalSpacing returns the reference spacing regardless of position.
func (u *Uniform) LocalSpacing(DistanceQuerier, geometry.Vec) float64 {
	return u.ad.spacingRef
}

// NearSurface refines a symmetric shell straddling the shape boundary on
// both sides, with transition thickness equal to the reference spacing.
type NearSurface struct {
	ad *Adaptation
}

// NewNearSurface returns the near-surface refinement policy.
func NewNearSurface(ad *Adaptation) *NearSurface { return &NearSurface{ad: ad} }

// LocalSpacing blends on the absolute signed distance to the boundary.
func (p *NearSurface) LocalSpacing(shape DistanceQuerier, pos geometry.Vec) float64 {
	phi := shape.SignedDistance(pos)
	if phi < 0 {
		phi = -phi
	}
	return p.ad.SmoothedSpacing(phi, p.ad.spacingRef)
}

// WithinShape fully refines the shape interior and coarsens slowly moving
// away from it, with transition thickness twice the reference spacing.
type WithinShape struct {
	ad *Adaptation
}

// NewWithinShape returns the within-shape refinement policy.
func NewWithinShape(ad *Adaptation) *WithinShape { return &WithinShape{ad: ad} }

// LocalSpacing returns the finest bound for strictly interior points and
// blends on the signed distance outside.
func (p *WithinShape) LocalSpacing(shape DistanceQuerier, pos geometry.Vec) float64 {
	phi := shape.SignedDistance(pos)
	if phi < 0 {
		return p.ad.finestBound
	}
	return p.ad.SmoothedSpacing(phi, 2.0*p.ad.spacingRef)
}
