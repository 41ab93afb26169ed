package adaptation

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/silt-sim/silt/geometry"
)

func refinedAdaptation(t *testing.T) *Adaptation {
	t.Helper()
	return mustNew(t, Resolution{ResolutionRef: 0.1, RefinementLevel: 2, Dim: 2})
}

func TestSmoothedSpacingBounds(t *testing.T) {
	a := refinedAdaptation(t)

	for _, thickness := range []float64{0.05, 0.1, 1.0} {
		if got := a.SmoothedSpacing(0, thickness); got != a.FinestBound() {
			t.Errorf("SmoothedSpacing(0, %v) = %v, want finest bound %v", thickness, got, a.FinestBound())
		}
	}
	// Far beyond the transition shell the coarsest bound is returned.
	if got := a.SmoothedSpacing(1e6, 0.1); got != a.CoarsestBound() {
		t.Errorf("SmoothedSpacing(1e6, 0.1) = %v, want coarsest bound %v", got, a.CoarsestBound())
	}
}

func TestSmoothedSpacingMonotone(t *testing.T) {
	a := refinedAdaptation(t)

	prev := a.SmoothedSpacing(0, 0.1)
	for measure := 0.01; measure < 1.0; measure += 0.01 {
		cur := a.SmoothedSpacing(measure, 0.1)
		if cur < prev-1e-15 {
			t.Fatalf("target spacing decreased at measure %v: %v < %v", measure, cur, prev)
		}
		if cur < a.FinestBound() || cur > a.CoarsestBound() {
			t.Fatalf("target spacing %v outside [%v, %v]", cur, a.FinestBound(), a.CoarsestBound())
		}
		prev = cur
	}
}

func TestNearSurfacePolicy(t *testing.T) {
	a := refinedAdaptation(t)
	policy := NewNearSurface(a)
	ball := geometry.Ball{ShapeName: "ball", Center: geometry.Vec{}, Radius: 0.5}

	// On the boundary: finest spacing, approximately the most refined spacing.
	onSurface := policy.LocalSpacing(ball, geometry.Vec{X: 0.5})
	if !scalar.EqualWithinAbs(onSurface, a.MostRefinedSpacing(), 1e-9) {
		t.Errorf("spacing on boundary = %v, want ~%v", onSurface, a.MostRefinedSpacing())
	}

	// The shell is symmetric: equal distances inside and outside match.
	inside := policy.LocalSpacing(ball, geometry.Vec{X: 0.4})
	outside := policy.LocalSpacing(ball, geometry.Vec{X: 0.6})
	if !scalar.EqualWithinAbs(inside, outside, 1e-12) {
		t.Errorf("shell not symmetric: inside %v vs outside %v", inside, outside)
	}

	// Far away: coarsest bound.
	far := policy.LocalSpacing(ball, geometry.Vec{X: 5})
	if far != a.CoarsestBound() {
		t.Errorf("far spacing = %v, want coarsest bound %v", far, a.CoarsestBound())
	}
}

func TestWithinShapePolicy(t *testing.T) {
	a := refinedAdaptation(t)
	policy := NewWithinShape(a)
	ball := geometry.Ball{ShapeName: "ball", Center: geometry.Vec{}, Radius: 0.5}

	// Any strictly interior point gets the finest bound unconditionally.
	for _, p := range []geometry.Vec{{}, {X: 0.25}, {X: 0.49}} {
		if got := policy.LocalSpacing(ball, p); got != a.FinestBound() {
			t.Errorf("interior spacing at %v = %v, want finest bound", p, got)
		}
	}

	// Outside, coarsening is slower than the near-surface policy: the
	// transition thickness is doubled.
	near := NewNearSurface(a)
	p := geometry.Vec{X: 0.75}
	if w, n := policy.LocalSpacing(ball, p), near.LocalSpacing(ball, p); w >= n {
		t.Errorf("within-shape spacing %v should be finer than near-surface %v at the same exterior point", w, n)
	}

	far := policy.LocalSpacing(ball, geometry.Vec{X: 10})
	if far != a.CoarsestBound() {
		t.Errorf("far spacing = %v, want coarsest bound", far)
	}
}

func TestUniformPolicy(t *testing.T) {
	a := refinedAdaptation(t)
	policy := NewUniform(a)
	ball := geometry.Ball{ShapeName: "ball", Center: geometry.Vec{}, Radius: 0.5}

	for _, p := range []geometry.Vec{{}, {X: 0.5}, {X: 3, Y: -2}} {
		if got := policy.LocalSpacing(ball, p); got != a.ReferenceSpacing() {
			t.Errorf("uniform spacing at %v = %v, want %v", p, got, a.ReferenceSpacing())
		}
	}
}

func TestEndToEndRefinement(t *testing.T) {
	// Reference resolution 0.1, ratio 1.3, refinement level 2.
	a := mustNew(t, Resolution{ResolutionRef: 0.1, HSpacingRatio: 1.3, RefinementLevel: 2, Dim: 2})

	if !scalar.EqualWithinAbs(a.MostRefinedSpacing(), 0.025, 1e-15) {
		t.Errorf("finest spacing = %v, want 0.025", a.MostRefinedSpacing())
	}
	if a.MaxSmoothingRatio() != 4 {
		t.Errorf("max smoothing ratio = %v, want 4", a.MaxSmoothingRatio())
	}

	bounds := geometry.Bounds{Min: geometry.Vec{X: -1, Y: -1}, Max: geometry.Vec{X: 1, Y: 1}}
	idx, err := a.CreateCellLinkedList(bounds)
	if err != nil {
		t.Fatal(err)
	}
	if idx.TotalLevels() != 2 {
		t.Errorf("spatial index levels = %d, want 2", idx.TotalLevels())
	}

	// A query point on a test boundary with transition thickness 0.1 must
	// request approximately the finest spacing.
	got := a.SmoothedSpacing(0, 0.1)
	if math.Abs(got-a.MostRefinedSpacing()) > 1e-9 {
		t.Errorf("boundary target spacing = %v, want ~%v", got, a.MostRefinedSpacing())
	}
}
