package levelset

import (
	"math"
	"testing"

	"github.com/silt-sim/silt/geometry"
)

func testBall() geometry.Ball {
	return geometry.Ball{ShapeName: "ball", Center: geometry.Vec{}, Radius: 0.5}
}

func testBounds() geometry.Bounds {
	return geometry.Bounds{
		Min: geometry.Vec{X: -1, Y: -1},
		Max: geometry.Vec{X: 1, Y: 1},
	}
}

func TestNewMeshValidation(t *testing.T) {
	if _, err := NewMesh(testBounds(), 0, 2, testBall()); err == nil {
		t.Error("zero spacing should fail")
	}
	if _, err := NewMesh(testBounds(), 0.1, 5, testBall()); err == nil {
		t.Error("dimension 5 should fail")
	}
}

func TestMeshInterpolatesBallDistance(t *testing.T) {
	m, err := NewMesh(testBounds(), 0.05, 2, testBall())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		p    geometry.Vec
		want float64
	}{
		{"center", geometry.Vec{}, -0.5},
		{"inside", geometry.Vec{X: 0.25}, -0.25},
		{"outside", geometry.Vec{X: 0.75}, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.SignedDistance(tt.p)
			// Bilinear interpolation of a smooth field: accurate to O(spacing^2).
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("SignedDistance(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestMeshClampsOutsideQueries(t *testing.T) {
	m, err := NewMesh(testBounds(), 0.1, 2, testBall())
	if err != nil {
		t.Fatal(err)
	}

	inside := m.SignedDistance(geometry.Vec{X: 1, Y: 0})
	outside := m.SignedDistance(geometry.Vec{X: 10, Y: 0})
	if outside != inside {
		t.Errorf("query outside the sampled region should clamp: %v vs %v", outside, inside)
	}
}

func TestMesh3D(t *testing.T) {
	bounds := geometry.Bounds{
		Min: geometry.Vec{X: -1, Y: -1, Z: -1},
		Max: geometry.Vec{X: 1, Y: 1, Z: 1},
	}
	m, err := NewMesh(bounds, 0.1, 3, testBall())
	if err != nil {
		t.Fatal(err)
	}

	got := m.SignedDistance(geometry.Vec{X: 0, Y: 0, Z: 0.25})
	if math.Abs(got-(-0.25)) > 0.02 {
		t.Errorf("3-D SignedDistance = %v, want -0.25", got)
	}
}

func TestBuildLevelsRetain(t *testing.T) {
	ml, err := BuildLevels(testBounds(), 0.4, 3, 2, 2, testBall())
	if err != nil {
		t.Fatal(err)
	}

	if ml.TotalLevels() != 2 {
		t.Fatalf("retained %d levels, want 2", ml.TotalLevels())
	}
	// Retained levels are the finest tail of the pyramid: 0.4/2 and 0.4/4.
	if got := ml.Level(0).Spacing(); math.Abs(got-0.2) > 1e-12 {
		t.Errorf("level 0 spacing = %v, want 0.2", got)
	}
	if got := ml.Finest().Spacing(); math.Abs(got-0.1) > 1e-12 {
		t.Errorf("finest spacing = %v, want 0.1", got)
	}

	if _, err := BuildLevels(testBounds(), 0.4, 2, 3, 2, testBall()); err == nil {
		t.Error("retain > total should fail")
	}
	if _, err := BuildLevels(testBounds(), 0.4, 0, 1, 2, testBall()); err == nil {
		t.Error("zero total levels should fail")
	}
}

func TestMultilevelQueryUsesFinest(t *testing.T) {
	ml, err := BuildLevels(testBounds(), 0.4, 3, 1, 2, testBall())
	if err != nil {
		t.Fatal(err)
	}
	if ml.TotalLevels() != 1 {
		t.Fatalf("retained %d levels, want 1", ml.TotalLevels())
	}
	got := ml.SignedDistance(geometry.Vec{X: 0.25})
	if math.Abs(got-(-0.25)) > 0.01 {
		t.Errorf("SignedDistance = %v, want -0.25", got)
	}
}
