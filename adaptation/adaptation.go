// Package adaptation is the resolution core of the engine: it decides the
// locally appropriate particle spacing and smoothing length for a body,
// owns the smoothing kernel, and builds the spatial index and
// signed-distance hierarchies consistent with that choice.
//
// The package is organized as one flat configuration aggregate (Resolution)
// plus independently composable pieces: the Adaptation state, spacing
// policies (refinement.go), and the split/merge manager (splitmerge.go).
package adaptation

import (
	"fmt"
	"math"

	"github.com/silt-sim/silt/geometry"
	"github.com/silt-sim/silt/kernel"
	"github.com/silt-sim/silt/levelset"
	"github.com/silt-sim/silt/particles"
	"github.com/silt-sim/silt/spatial"
)

// SmoothingRatioAttr is the per-particle smoothing-length-ratio attribute:
// reference smoothing length divided by the particle's own. It defaults to
// 1.0, survives particle sorting, and is restored across checkpoints.
const SmoothingRatioAttr = "SmoothingLengthRatio"

// DefaultTolerance is the numerical margin used to break exact ties in
// bound comparisons and blending. Components take it from Resolution so a
// body can override it; it is never a process-wide global.
const DefaultTolerance = 2.220446049250313e-16

// Resolution configures an Adaptation. The zero value is not usable;
// ResolutionRef and Dim must be set.
type Resolution struct {
	// ResolutionRef is the global reference resolution of the system.
	ResolutionRef float64
	// HSpacingRatio is smoothing length / particle spacing, >= 1.
	// Zero means the default 1.3.
	HSpacingRatio float64
	// SystemRatio scales this body's resolution relative to the whole
	// system, >= 1. Zero means 1 (no rescaling).
	SystemRatio float64
	// RefinementLevel is the number of local refinement levels, >= 0.
	RefinementLevel int
	// Dim is the spatial dimension, 2 or 3.
	Dim int
	// KernelFamily selects the smoothing kernel; empty means Wendland C2.
	KernelFamily string
	// Tolerance overrides DefaultTolerance when positive.
	Tolerance float64
}

// withDefaults fills zero-value optional fields.
func (r Resolution) withDefaults() Resolution {
	if r.HSpacingRatio == 0 {
		r.HSpacingRatio = 1.3
	}
	if r.SystemRatio == 0 {
		r.SystemRatio = 1.0
	}
	if r.Tolerance == 0 {
		r.Tolerance = DefaultTolerance
	}
	return r
}

// validate rejects configurations that would produce a degenerate
// hierarchy. Construction fails fast rather than carrying bad state.
func (r Resolution) validate() error {
	if r.ResolutionRef <= 0 {
		return fmt.Errorf("adaptation: reference resolution must be positive, got %g", r.ResolutionRef)
	}
	if r.HSpacingRatio < 1 {
		return fmt.Errorf("adaptation: smoothing-length/spacing ratio must be >= 1, got %g", r.HSpacingRatio)
	}
	if r.SystemRatio < 1 {
		return fmt.Errorf("adaptation: system refinement ratio must be >= 1, got %g", r.SystemRatio)
	}
	if r.RefinementLevel < 0 {
		return fmt.Errorf("adaptation: refinement level must be >= 0, got %d", r.RefinementLevel)
	}
	if r.Dim != 2 && r.Dim != 3 {
		return fmt.Errorf("adaptation: dimension must be 2 or 3, got %d", r.Dim)
	}
	return nil
}

// Adaptation holds one body's resolution state: reference spacing and
// smoothing length, the owned kernel, the lattice-summed reference number
// density, and the refinement bounds. All derived fields are kept mutually
// consistent; ResetRatios replaces them as one transaction.
type Adaptation struct {
	dim          int
	level        int
	kernelFamily string
	tol          float64

	hSpacingRatio float64
	systemRatio   float64

	spacingRef float64
	hRef       float64
	kern       kernel.Kernel
	sigma0Ref  float64

	spacingMin    float64
	hRatioMax     float64
	finestBound   float64
	coarsestBound float64
}

// New derives a consistent Adaptation from the given configuration.
func New(res Resolution) (*Adaptation, error) {
	res = res.withDefaults()
	if err := res.validate(); err != nil {
		return nil, err
	}

	a := &Adaptation{
		dim:           res.Dim,
		level:         res.RefinementLevel,
		kernelFamily:  res.KernelFamily,
		tol:           res.Tolerance,
		hSpacingRatio: res.HSpacingRatio,
		systemRatio:   res.SystemRatio,
	}
	if err := a.derive(res.ResolutionRef / res.SystemRatio); err != nil {
		return nil, err
	}
	return a, nil
}

// derive rebuilds every derived field from the given reference spacing.
// It mutates a only on success, so a failed call leaves no partial state.
func (a *Adaptation) derive(spacingRef float64) error {
	hRef := a.hSpacingRatio * spacingRef
	kern, err := kernel.New(a.kernelFamily, hRef, a.dim)
	if err != nil {
		return err
	}

	staged := *a
	staged.spacingRef = spacingRef
	staged.hRef = hRef
	staged.kern = kern
	staged.sigma0Ref = staged.computeReferenceNumberDensity()
	staged.spacingMin = spacingRef / math.Pow(2, float64(a.level))
	staged.hRatioMax = math.Pow(2, float64(a.level))
	staged.finestBound = staged.spacingMin + a.tol
	staged.coarsestBound = spacingRef - a.tol

	*a = staged
	return nil
}

// computeReferenceNumberDensity sums the kernel over a regular particle
// lattice within the support radius. The search half-width is
// floor(cutoff/spacing)+1; offsets at or beyond the cutoff are excluded.
func (a *Adaptation) computeReferenceNumberDensity() float64 {
	cutoff := a.kern.CutoffRadius()
	spacing := a.spacingRef
	depth := int(cutoff/spacing) + 1

	sigma := 0.0
	if a.dim == 2 {
		for j := -depth; j <= depth; j++ {
			for i := -depth; i <= depth; i++ {
				x := float64(i) * spacing
				y := float64(j) * spacing
				dist := math.Hypot(x, y)
				if dist < cutoff {
					sigma += a.kern.W(dist)
				}
			}
		}
		return sigma
	}
	for k := -depth; k <= depth; k++ {
		for j := -depth; j <= depth; j++ {
			for i := -depth; i <= depth; i++ {
				x := float64(i) * spacing
				y := float64(j) * spacing
				z := float64(k) * spacing
				dist := math.Sqrt(x*x + y*y + z*z)
				if dist < cutoff {
					sigma += a.kern.W(dist)
				}
			}
		}
	}
	return sigma
}

// Dim returns the spatial dimension.
func (a *Adaptation) Dim() int { return a.dim }

// RefinementLevel returns the configured local refinement level.
func (a *Adaptation) RefinementLevel() int { return a.level }

// Tolerance returns the numerical margin configured for this body.
func (a *Adaptation) Tolerance() float64 { return a.tol }

// Kernel returns the owned smoothing kernel. The kernel is replaced
// wholesale on any resolution reset; callers must not retain it across
// ResetRatios.
func (a *Adaptation) Kernel() kernel.Kernel { return a.kern }

// ReferenceSpacing returns the body's reference particle spacing.
func (a *Adaptation) ReferenceSpacing() float64 { return a.spacingRef }

// ReferenceSmoothingLength returns the smoothing length at reference
// spacing.
func (a *Adaptation) ReferenceSmoothingLength() float64 { return a.hRef }

// MostRefinedSpacing returns the finest particle spacing the refinement
// hierarchy can produce.
func (a *Adaptation) MostRefinedSpacing() float64 { return a.spacingMin }

// MaxSmoothingRatio returns the largest per-particle smoothing-length
// ratio the hierarchy allows (2^level).
func (a *Adaptation) MaxSmoothingRatio() float64 { return a.hRatioMax }

// FinestBound returns the finest target-spacing bound used in blending.
func (a *Adaptation) FinestBound() float64 { return a.finestBound }

// CoarsestBound returns the coarsest target-spacing bound used in blending.
func (a *Adaptation) CoarsestBound() float64 { return a.coarsestBound }

// ReferenceNumberDensity returns the lattice number density scaled for an
// anisotropically refined smoothing length: sigma0 * ratio^dim.
func (a *Adaptation) ReferenceNumberDensity(smoothingLengthRatio float64) float64 {
	return a.sigma0Ref * math.Pow(smoothingLengthRatio, float64(a.dim))
}

// ResetRatios rescales the body's resolution to new ratios. The reference
// spacing is rescaled by oldSystemRatio/newSystemRatio, preserving the
// absolute physical spacing; the kernel, reference density, and all bounds
// are recomputed. The update is all-or-nothing: on error the previous
// state is untouched, and no caller can observe a half-updated state.
func (a *Adaptation) ResetRatios(hSpacingRatio, systemRatio float64) error {
	if hSpacingRatio < 1 {
		return fmt.Errorf("adaptation: smoothing-length/spacing ratio must be >= 1, got %g", hSpacingRatio)
	}
	if systemRatio < 1 {
		return fmt.Errorf("adaptation: system refinement ratio must be >= 1, got %g", systemRatio)
	}

	newSpacingRef := a.spacingRef * a.systemRatio / systemRatio
	oldH, oldSys := a.hSpacingRatio, a.systemRatio
	a.hSpacingRatio = hSpacingRatio
	a.systemRatio = systemRatio
	if err := a.derive(newSpacingRef); err != nil {
		a.hSpacingRatio, a.systemRatio = oldH, oldSys
		return err
	}
	return nil
}

// CellLinkedListTotalLevel returns the number of spatial-index levels for
// this body's refinement hierarchy.
func (a *Adaptation) CellLinkedListTotalLevel() int {
	return a.level
}

// LevelSetTotalLevel returns the number of signed-distance levels: one
// more than the index, because the boundary representation must resolve
// finer than the coarsest particle level.
func (a *Adaptation) LevelSetTotalLevel() int {
	return a.CellLinkedListTotalLevel() + 1
}

// AttributeRegistrar is the slice of the body's attribute store the
// adaptation needs at setup time.
type AttributeRegistrar interface {
	RegisterScalar(name string, def float64, opts ...particles.Option) *particles.ScalarAttr
}

// RegisterAttributes registers the per-particle smoothing-length-ratio
// attribute: default 1.0, sortable, reloadable.
func (a *Adaptation) RegisterAttributes(reg AttributeRegistrar) *particles.ScalarAttr {
	return reg.RegisterScalar(SmoothingRatioAttr, 1.0, particles.Sortable(), particles.Reloadable())
}

// CreateCellLinkedList builds the spatial index for this body: a single
// uniform grid when there is no local refinement, otherwise the full
// multi-level hierarchy. The returned index is owned by the caller.
func (a *Adaptation) CreateCellLinkedList(bounds geometry.Bounds) (spatial.Index, error) {
	if a.level == 0 {
		return spatial.NewCellList(bounds, a.kern.CutoffRadius(), a.dim)
	}
	return spatial.NewMultilevelCellList(bounds, a.kern.CutoffRadius(), a.CellLinkedListTotalLevel(), a.dim)
}

// CreateLevelSet builds the signed-distance field for shape. Without local
// refinement the pyramid depth is estimated from the shape extent
// (base-10-logarithm heuristic) and only the finest level is retained;
// with local refinement the full level+1 pyramid is retained. The returned
// field is owned by the caller.
func (a *Adaptation) CreateLevelSet(shape geometry.Shape, refinementRatio float64) (*levelset.Multilevel, error) {
	if refinementRatio <= 0 {
		return nil, fmt.Errorf("adaptation: level-set refinement ratio must be positive, got %g", refinementRatio)
	}

	if a.level > 0 {
		total := a.LevelSetTotalLevel()
		return levelset.BuildLevels(shape.Bounds(), a.spacingRef/refinementRatio, total, total, a.dim, shape)
	}

	minDim := shape.Bounds().MinDimension(a.dim)
	if minDim <= a.spacingRef {
		return nil, fmt.Errorf("adaptation: shape %q extent %g cannot be resolved at reference spacing %g",
			shape.Name(), minDim, a.spacingRef)
	}
	total := int(math.Log10(minDim/a.spacingRef)) + 2
	coarsest := a.spacingRef * math.Pow(2, float64(total-1)) / refinementRatio
	return levelset.BuildLevels(shape.Bounds(), coarsest, total, 1, a.dim, shape)
}
