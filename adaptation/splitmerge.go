package adaptation

import (
	"math"

	"github.com/silt-sim/silt/geometry"
	"github.com/silt-sim/silt/spatial"
)

// SplitMerge derives the particle-volume bounds that gate dynamic particle
// splitting and merging. Its finest spacing uses dimension-aware scaling:
// after L split generations the local particle count has grown by 2^L, so
// linear spacing shrinks by (2^L)^(1/dim), not by 2^L. Eligibility
// predicates are pure and safe to evaluate concurrently; applying a split
// or merge mutates the particle array and belongs to a serialized
// compaction phase.
type SplitMerge struct {
	ad *Adaptation

	spacingMin float64
	hRatioMax  float64
	minVolume  float64
	maxVolume  float64
}

// NewSplitMerge derives the split/merge bounds from an adaptation.
func NewSplitMerge(ad *Adaptation) *SplitMerge {
	sm := &SplitMerge{ad: ad}
	sm.recompute()
	return sm
}

// recompute rebuilds the derived bounds from the adaptation state.
func (sm *SplitMerge) recompute() {
	ad := sm.ad
	particleFactor := math.Pow(2, float64(ad.level))
	sm.spacingMin = ad.spacingRef / math.Pow(particleFactor, 1.0/float64(ad.dim))
	sm.hRatioMax = ad.spacingRef / sm.spacingMin
	sm.minVolume = math.Pow(sm.spacingMin, float64(ad.dim))
	sm.maxVolume = math.Pow(ad.spacingRef, float64(ad.dim))
}

// Adaptation returns the underlying adaptation state.
func (sm *SplitMerge) Adaptation() *Adaptation { return sm.ad }

// ResetRatios resets the underlying adaptation and recomputes the volume
// bounds, as one barrier-style update.
func (sm *SplitMerge) ResetRatios(hSpacingRatio, systemRatio float64) error {
	if err := sm.ad.ResetRatios(hSpacingRatio, systemRatio); err != nil {
		return err
	}
	sm.recompute()
	return nil
}

// MostRefinedSpacing returns the finest spacing under count scaling.
func (sm *SplitMerge) MostRefinedSpacing() float64 { return sm.spacingMin }

// MaxSmoothingRatio returns reference spacing / finest spacing.
func (sm *SplitMerge) MaxSmoothingRatio() float64 { return sm.hRatioMax }

// MinimumVolume returns the smallest resolvable particle volume.
func (sm *SplitMerge) MinimumVolume() float64 { return sm.minVolume }

// MaximumVolume returns the particle volume at reference spacing.
func (sm *SplitMerge) MaximumVolume() float64 { return sm.maxVolume }

// SplitAllowed reports whether a particle of the given volume may split
// into two children: its volume must be at least (within tolerance) twice
// the minimum resolvable volume, so children never fall below the finest
// resolvable size.
func (sm *SplitMerge) SplitAllowed(currentVolume float64) bool {
	return currentVolume-2.0*sm.minVolume > -sm.ad.tol
}

// MergeResolutionCheck reports whether a particle of the given volume is
// eligible for merging: only when already within a 20% margin of the
// minimum volume, so particles that are not over-refined stay put.
func (sm *SplitMerge) MergeResolutionCheck(volume float64) bool {
	return volume-1.2*sm.minVolume < sm.ad.tol
}

// CellLinkedListTotalLevel returns the index depth needed for the
// count-scaled spacing range, independent of the nominal refinement level.
func (sm *SplitMerge) CellLinkedListTotalLevel() int {
	return 1 + int(math.Floor(math.Log2(sm.ad.spacingRef/sm.spacingMin)))
}

// CreateCellLinkedList builds the multi-level index sized for the
// count-scaled hierarchy depth.
func (sm *SplitMerge) CreateCellLinkedList(bounds geometry.Bounds) (spatial.Index, error) {
	return spatial.NewMultilevelCellList(bounds, sm.ad.kern.CutoffRadius(), sm.CellLinkedListTotalLevel(), sm.ad.dim)
}

// SplittingPattern places one child half the local spacing away from the
// parent along the direction given by angle. In three dimensions the
// third coordinate is held fixed (a planar fan). The caller invokes it
// with complementary angles for siblings and redistributes parent mass
// and volume between the children; conservation is the caller's contract.
func (sm *SplitMerge) SplittingPattern(pos geometry.Vec, spacing, angle float64) geometry.Vec {
	return geometry.Vec{
		X: pos.X + 0.5*spacing*math.Cos(angle),
		Y: pos.Y + 0.5*spacing*math.Sin(angle),
		Z: pos.Z,
	}
}
