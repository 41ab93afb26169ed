package geometry

import (
	"math"
	"testing"
)

func TestBallSignedDistance(t *testing.T) {
	b := Ball{ShapeName: "ball", Center: Vec{X: 1, Y: 2}, Radius: 0.5}

	tests := []struct {
		name string
		p    Vec
		want float64
	}{
		{"center", Vec{X: 1, Y: 2}, -0.5},
		{"on surface", Vec{X: 1.5, Y: 2}, 0},
		{"outside", Vec{X: 1, Y: 3}, 0.5},
		{"inside", Vec{X: 1.25, Y: 2}, -0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.SignedDistance(tt.p)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("SignedDistance(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestBoxSignedDistance(t *testing.T) {
	b := Box{ShapeName: "box", Lower: Vec{X: 0, Y: 0}, Upper: Vec{X: 2, Y: 1}}

	tests := []struct {
		name string
		p    Vec
		want float64
	}{
		{"center", Vec{X: 1, Y: 0.5}, -0.5},
		{"face", Vec{X: 1, Y: 1}, 0},
		{"outside face", Vec{X: 1, Y: 1.5}, 0.5},
		{"outside corner", Vec{X: 3, Y: 2}, math.Sqrt2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.SignedDistance(tt.p)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("SignedDistance(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestBoxSignedDistance3D(t *testing.T) {
	b := Box{ShapeName: "cube", Lower: Vec{X: -1, Y: -1, Z: -1}, Upper: Vec{X: 1, Y: 1, Z: 1}}

	tests := []struct {
		name string
		p    Vec
		want float64
	}{
		{"center", Vec{}, -1},
		{"near face", Vec{X: 0.5, Y: 0, Z: 0}, -0.5},
		{"outside face", Vec{Z: 2}, 1},
		{"outside corner", Vec{X: 2, Y: 2, Z: 2}, math.Sqrt(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.SignedDistance(tt.p)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("SignedDistance(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestInvertedFlipsSign(t *testing.T) {
	b := Ball{ShapeName: "ball", Center: Vec{}, Radius: 1}
	inv := Inverted{b}

	p := Vec{X: 0.5}
	if got, want := inv.SignedDistance(p), -b.SignedDistance(p); got != want {
		t.Errorf("inverted distance = %v, want %v", got, want)
	}
	if inv.Bounds() != b.Bounds() {
		t.Error("inverted shape should keep wrapped bounds")
	}
}

func TestBoundsMinDimension(t *testing.T) {
	b := Bounds{Min: Vec{}, Max: Vec{X: 2, Y: 1, Z: 3}}

	if got := b.MinDimension(2); got != 1 {
		t.Errorf("MinDimension(2) = %v, want 1", got)
	}
	if got := b.MinDimension(3); got != 1 {
		t.Errorf("MinDimension(3) = %v, want 1", got)
	}

	flat := Bounds{Min: Vec{}, Max: Vec{X: 2, Y: 1}}
	if got := flat.MinDimension(3); got != 0 {
		t.Errorf("MinDimension(3) on flat bounds = %v, want 0", got)
	}
}
