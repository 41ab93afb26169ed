package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/silt-sim/silt/adaptation"
)

func testAdaptation(t *testing.T) *adaptation.Adaptation {
	t.Helper()
	ad, err := adaptation.New(adaptation.Resolution{ResolutionRef: 0.1, RefinementLevel: 2, Dim: 2})
	if err != nil {
		t.Fatal(err)
	}
	return ad
}

func TestRenderWritesChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spacing.html")
	if err := render(testAdaptation(t), path, 50); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)
	for _, series := range []string{"near-surface", "within-shape", "uniform"} {
		if !strings.Contains(html, series) {
			t.Errorf("chart output missing series %q", series)
		}
	}
}

func TestRenderClampsDegenerateSampleCounts(t *testing.T) {
	for _, samples := range []int{-3, 0, 1} {
		path := filepath.Join(t.TempDir(), "spacing.html")
		if err := render(testAdaptation(t), path, samples); err != nil {
			t.Fatalf("render with %d samples: %v", samples, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(string(data), "NaN") {
			t.Fatalf("render with %d samples emitted NaN coordinates", samples)
		}
	}
}
