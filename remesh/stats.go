package remesh

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gocarina/gocsv"
)

// PassStats is one remesh pass's summary record.
type PassStats struct {
	Pass          int     `csv:"pass"`
	Particles     int     `csv:"particles"`
	Splits        int     `csv:"splits"`
	Merges        int     `csv:"merges"`
	SpacingMin    float64 `csv:"spacing_min"`
	SpacingMedian float64 `csv:"spacing_median"`
	SpacingMean   float64 `csv:"spacing_mean"`
	SpacingMax    float64 `csv:"spacing_max"`
	TotalMass     float64 `csv:"total_mass"`
	TotalVolume   float64 `csv:"total_volume"`
}

// Percentile returns the p-quantile (0..1) of a sorted slice using linear
// interpolation between ranks.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p * float64(n-1)
	lo := int(rank)
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Stats summarizes the last spacing pass into a record.
func (d *Driver) Stats(pass, splits, merges int) PassStats {
	s := PassStats{
		Pass:        pass,
		Particles:   d.store.Count(),
		Splits:      splits,
		Merges:      merges,
		TotalMass:   d.TotalMass(),
		TotalVolume: d.TotalVolume(),
	}
	if len(d.targets) == 0 {
		return s
	}

	sorted := make([]float64, len(d.targets))
	copy(sorted, d.targets)
	sort.Float64s(sorted)

	s.SpacingMin = sorted[0]
	s.SpacingMax = sorted[len(sorted)-1]
	s.SpacingMedian = Percentile(sorted, 0.5)
	s.SpacingMean = sum(sorted) / float64(len(sorted))
	return s
}

// OutputManager writes structured remesh output: one CSV row per pass.
// A nil manager is valid and discards everything (output disabled).
type OutputManager struct {
	dir           string
	passFile      *os.File
	headerWritten bool
}

// NewOutputManager creates the output directory and opens passes.csv.
// Returns nil if dir is empty.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "passes.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating passes.csv: %w", err)
	}
	return &OutputManager{dir: dir, passFile: f}, nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// WritePass appends one pass record to passes.csv.
func (om *OutputManager) WritePass(stats PassStats) error {
	if om == nil {
		return nil
	}
	records := []PassStats{stats}
	if !om.headerWritten {
		if err := gocsv.Marshal(records, om.passFile); err != nil {
			return fmt.Errorf("writing pass stats: %w", err)
		}
		om.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.passFile); err != nil {
		return fmt.Errorf("writing pass stats: %w", err)
	}
	return nil
}

// Close flushes and closes the output files.
func (om *OutputManager) Close() error {
	if om == nil || om.passFile == nil {
		return nil
	}
	return om.passFile.Close()
}
