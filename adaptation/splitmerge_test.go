package adaptation

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/silt-sim/silt/geometry"
)

func splitMerge2D(t *testing.T) *SplitMerge {
	t.Helper()
	return NewSplitMerge(mustNew(t, Resolution{ResolutionRef: 0.1, RefinementLevel: 2, Dim: 2}))
}

func TestCountScaledSpacing(t *testing.T) {
	tests := []struct {
		name        string
		dim, level  int
		wantSpacing float64
	}{
		// Level L multiplies particle count by 2^L, so linear spacing
		// shrinks by (2^L)^(1/dim).
		{"2d level 2", 2, 2, 0.1 / 2},
		{"2d level 4", 2, 4, 0.1 / 4},
		{"3d level 3", 3, 3, 0.1 / 2},
		{"2d level 0", 2, 0, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewSplitMerge(mustNew(t, Resolution{ResolutionRef: 0.1, RefinementLevel: tt.level, Dim: tt.dim}))
			if !scalar.EqualWithinAbsOrRel(sm.MostRefinedSpacing(), tt.wantSpacing, 1e-12, 1e-12) {
				t.Errorf("MostRefinedSpacing = %v, want %v", sm.MostRefinedSpacing(), tt.wantSpacing)
			}
			wantMin := math.Pow(tt.wantSpacing, float64(tt.dim))
			if !scalar.EqualWithinAbsOrRel(sm.MinimumVolume(), wantMin, 1e-12, 1e-12) {
				t.Errorf("MinimumVolume = %v, want %v", sm.MinimumVolume(), wantMin)
			}
			wantMax := math.Pow(0.1, float64(tt.dim))
			if !scalar.EqualWithinAbsOrRel(sm.MaximumVolume(), wantMax, 1e-12, 1e-12) {
				t.Errorf("MaximumVolume = %v, want %v", sm.MaximumVolume(), wantMax)
			}
		})
	}
}

func TestSplitAllowed(t *testing.T) {
	sm := splitMerge2D(t)
	tol := sm.Adaptation().Tolerance()
	vmin := sm.MinimumVolume()

	if !sm.SplitAllowed(2 * vmin) {
		t.Error("a particle at exactly twice the minimum volume may split")
	}
	if !sm.SplitAllowed(3 * vmin) {
		t.Error("a particle well above twice the minimum volume may split")
	}
	if sm.SplitAllowed(2*vmin - 10*tol) {
		t.Error("a particle below twice the minimum volume must not split")
	}
	if sm.SplitAllowed(vmin) {
		t.Error("a particle at the minimum volume must not split")
	}
}

func TestMergeResolutionCheck(t *testing.T) {
	sm := splitMerge2D(t)
	vmin := sm.MinimumVolume()

	if !sm.MergeResolutionCheck(vmin) {
		t.Error("a particle at the minimum volume is merge-eligible")
	}
	if !sm.MergeResolutionCheck(1.1 * vmin) {
		t.Error("a particle within the 20%% margin is merge-eligible")
	}
	if sm.MergeResolutionCheck(1.3 * vmin) {
		t.Error("a particle outside the margin must not merge")
	}
}

func TestSplitMergeIndexDepth(t *testing.T) {
	// 2-D level 2: finest spacing 0.05, so 1 + floor(log2(0.1/0.05)) = 2.
	sm := splitMerge2D(t)
	if got := sm.CellLinkedListTotalLevel(); got != 2 {
		t.Errorf("CellLinkedListTotalLevel = %d, want 2", got)
	}

	// 3-D level 3: finest spacing 0.05, same depth despite nominal level 3.
	sm3 := NewSplitMerge(mustNew(t, Resolution{ResolutionRef: 0.1, RefinementLevel: 3, Dim: 3}))
	if got := sm3.CellLinkedListTotalLevel(); got != 2 {
		t.Errorf("3-D CellLinkedListTotalLevel = %d, want 2", got)
	}

	bounds := geometry.Bounds{Min: geometry.Vec{X: -1, Y: -1}, Max: geometry.Vec{X: 1, Y: 1}}
	idx, err := sm.CreateCellLinkedList(bounds)
	if err != nil {
		t.Fatal(err)
	}
	if idx.TotalLevels() != sm.CellLinkedListTotalLevel() {
		t.Errorf("index levels = %d, want %d", idx.TotalLevels(), sm.CellLinkedListTotalLevel())
	}
}

func TestSplittingPattern(t *testing.T) {
	sm := splitMerge2D(t)
	parent := geometry.Vec{X: 1, Y: 2, Z: 3}
	const spacing = 0.04

	tests := []struct {
		name  string
		angle float64
		want  geometry.Vec
	}{
		{"angle 0", 0, geometry.Vec{X: 1.02, Y: 2, Z: 3}},
		{"angle pi/2", math.Pi / 2, geometry.Vec{X: 1, Y: 2.02, Z: 3}},
		{"angle pi", math.Pi, geometry.Vec{X: 0.98, Y: 2, Z: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sm.SplittingPattern(parent, spacing, tt.angle)
			if !scalar.EqualWithinAbs(got.X, tt.want.X, 1e-12) ||
				!scalar.EqualWithinAbs(got.Y, tt.want.Y, 1e-12) {
				t.Errorf("SplittingPattern(angle %v) = %v, want %v", tt.angle, got, tt.want)
			}
			// The third coordinate is held fixed: the fan is planar.
			if got.Z != parent.Z {
				t.Errorf("child Z = %v, want parent Z %v", got.Z, parent.Z)
			}
		})
	}
}

func TestSplitMergeResetRecomputesBounds(t *testing.T) {
	sm := splitMerge2D(t)
	vminBefore := sm.MinimumVolume()

	if err := sm.ResetRatios(1.3, 2.0); err != nil {
		t.Fatal(err)
	}
	// Halving the spacing quarters the 2-D volumes.
	if !scalar.EqualWithinAbsOrRel(sm.MinimumVolume(), vminBefore/4, 1e-12, 1e-12) {
		t.Errorf("MinimumVolume after reset = %v, want %v", sm.MinimumVolume(), vminBefore/4)
	}
	if !scalar.EqualWithinAbsOrRel(sm.MaximumVolume(), 0.05*0.05, 1e-12, 1e-12) {
		t.Errorf("MaximumVolume after reset = %v, want %v", sm.MaximumVolume(), 0.05*0.05)
	}
}
