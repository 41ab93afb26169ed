// Package remesh runs the bulk adaptive-resolution passes over a body:
// a read-mostly parallel pass computing each particle's target spacing,
// and a serialized compaction phase applying particle splits and merges.
// A pass fully completes and publishes its results before any consumer
// reads them; there is no finer-grained synchronization.
package remesh

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/silt-sim/silt/adaptation"
	"github.com/silt-sim/silt/geometry"
	"github.com/silt-sim/silt/particles"
	"github.com/silt-sim/silt/spatial"
)

// Standard attribute names owned by the driver.
const (
	PositionAttr = "Position"
	VolumeAttr   = "Volume"
	MassAttr     = "Mass"
)

// parallelThreshold is the minimum particle count to use parallel
// processing. Below this, single-threaded is faster due to goroutine
// overhead.
const parallelThreshold = 64

// goldenAngle steps the deterministic child-placement fan between
// successive splits.
const goldenAngle = 2.399963229728653

// Options configures a Driver.
type Options struct {
	// Positions seeds the body's particles.
	Positions []geometry.Vec
	// Density converts particle volume to mass. Zero means 1.
	Density float64
	// Workers caps the parallel worker count. Zero means GOMAXPROCS.
	Workers int
}

// Driver owns one body's remesh state: the attribute store, the geometry,
// the resolution core, and the spacing policy chosen at setup.
type Driver struct {
	store  *particles.Store
	shape  geometry.Shape
	ad     *adaptation.Adaptation
	policy adaptation.SpacingPolicy
	sm     *adaptation.SplitMerge

	pos    *particles.VectorAttr
	vol    *particles.ScalarAttr
	mass   *particles.ScalarAttr
	hRatio *particles.ScalarAttr

	density    float64
	numWorkers int

	targets    []float64 // per-particle target spacing, reused across passes
	splitCount int       // advances the deterministic fan angle
}

// NewDriver sets up a body: registers the driver's attributes and the
// adaptation's smoothing-ratio attribute, and seeds positions, volumes,
// and masses at the reference spacing.
func NewDriver(shape geometry.Shape, ad *adaptation.Adaptation, policy adaptation.SpacingPolicy, sm *adaptation.SplitMerge, opts Options) (*Driver, error) {
	if len(opts.Positions) == 0 {
		return nil, fmt.Errorf("remesh: no seed positions for shape %q", shape.Name())
	}
	if opts.Density == 0 {
		opts.Density = 1
	}
	if opts.Workers == 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	store := particles.NewStore(len(opts.Positions))
	d := &Driver{
		store:      store,
		shape:      shape,
		ad:         ad,
		policy:     policy,
		sm:         sm,
		density:    opts.Density,
		numWorkers: opts.Workers,
	}
	d.pos = store.RegisterVector(PositionAttr, geometry.Vec{}, particles.Sortable(), particles.Reloadable())
	d.vol = store.RegisterScalar(VolumeAttr, 0, particles.Sortable(), particles.Reloadable())
	d.mass = store.RegisterScalar(MassAttr, 0, particles.Sortable(), particles.Reloadable())
	d.hRatio = ad.RegisterAttributes(store)

	refVolume := math.Pow(ad.ReferenceSpacing(), float64(ad.Dim()))
	copy(d.pos.Data, opts.Positions)
	for i := range d.vol.Data {
		d.vol.Data[i] = refVolume
		d.mass.Data[i] = refVolume * opts.Density
	}
	return d, nil
}

// Store returns the body's attribute store.
func (d *Driver) Store() *particles.Store { return d.store }

// SpacingPass computes every particle's target spacing under the policy
// and publishes the clamped smoothing-length ratios. The per-particle
// work is chunked across workers; each particle's result depends only on
// read-only geometry and its own position, so workers share nothing but
// the output slots. The pass returns only after all writes are visible.
func (d *Driver) SpacingPass() {
	n := d.store.Count()
	if cap(d.targets) < n {
		d.targets = make([]float64, n)
	}
	d.targets = d.targets[:n]

	if n < parallelThreshold || d.numWorkers <= 1 {
		d.computeChunk(0, n)
	} else {
		chunkSize := (n + d.numWorkers - 1) / d.numWorkers
		var wg sync.WaitGroup
		for w := 0; w < d.numWorkers; w++ {
			start := w * chunkSize
			end := min(start+chunkSize, n)
			if start >= end {
				continue
			}
			wg.Add(1)
			go func(start, end int) {
				defer wg.Done()
				d.computeChunk(start, end)
			}(start, end)
		}
		wg.Wait()
	}

	// Apply phase: clamp ratios into [1, max] and write the attribute.
	maxRatio := d.ad.MaxSmoothingRatio()
	refSpacing := d.ad.ReferenceSpacing()
	for i := 0; i < n; i++ {
		ratio := refSpacing / d.targets[i]
		if ratio < 1 {
			ratio = 1
		} else if ratio > maxRatio {
			ratio = maxRatio
		}
		d.hRatio.Data[i] = ratio
	}
}

// computeChunk evaluates the spacing policy for one particle range.
func (d *Driver) computeChunk(start, end int) {
	for i := start; i < end; i++ {
		d.targets[i] = d.policy.LocalSpacing(d.shape, d.pos.Data[i])
	}
}

// Compaction applies the structural particle-count changes the last
// spacing pass called for: splits of under-resolved particles and merges
// of over-refined ones. It must run serialized between physics sub-steps;
// no concurrent reader may hold the particle arrays across it. Mass and
// volume totals are conserved. Returns the number of splits and merges.
func (d *Driver) Compaction() (splits, merges int, err error) {
	if len(d.targets) != d.store.Count() {
		return 0, 0, fmt.Errorf("remesh: compaction requires a completed spacing pass")
	}

	splits = d.applySplits()
	merges, err = d.applyMerges()
	if err != nil {
		return splits, 0, err
	}
	return splits, merges, nil
}

// applySplits splits every particle whose volume is at least twice its
// local target volume, provided the hierarchy allows it. The parent slot
// becomes the first child; the second child is appended. Each child takes
// half the parent's mass and volume; siblings sit at complementary fan
// angles so the pair's centroid stays at the parent position.
func (d *Driver) applySplits() int {
	dim := float64(d.ad.Dim())
	n := d.store.Count()
	splits := 0

	for i := 0; i < n; i++ {
		targetVolume := math.Pow(d.targets[i], dim)
		if d.vol.Data[i] < 2*targetVolume || !d.sm.SplitAllowed(d.vol.Data[i]) {
			continue
		}

		parentPos := d.pos.Data[i]
		halfVol := 0.5 * d.vol.Data[i]
		halfMass := 0.5 * d.mass.Data[i]
		localSpacing := math.Pow(halfVol, 1/dim)
		angle := goldenAngle * float64(d.splitCount)
		d.splitCount++

		j := d.store.Append(1)
		d.pos.Data[i] = d.sm.SplittingPattern(parentPos, localSpacing, angle)
		d.pos.Data[j] = d.sm.SplittingPattern(parentPos, localSpacing, angle+math.Pi)
		d.vol.Data[i], d.vol.Data[j] = halfVol, halfVol
		d.mass.Data[i], d.mass.Data[j] = halfMass, halfMass

		ratio := d.ad.ReferenceSpacing() / localSpacing
		if ratio > d.ad.MaxSmoothingRatio() {
			ratio = d.ad.MaxSmoothingRatio()
		}
		d.hRatio.Data[i], d.hRatio.Data[j] = ratio, ratio

		// Children inherit the parent's target; appended ones extend it.
		d.targets = append(d.targets, d.targets[i])
		splits++
	}
	return splits
}

// applyMerges pairs over-refined neighbors and replaces each pair with
// one particle at the mass-weighted midpoint, summing mass and volume.
// A particle merges only when the eligibility predicate passes and its
// local target volume is at least twice its own, so merging restores the
// locally requested resolution instead of overshooting it.
func (d *Driver) applyMerges() (int, error) {
	dim := float64(d.ad.Dim())
	n := d.store.Count()

	index, err := d.sm.CreateCellLinkedList(d.shape.Bounds().Pad(d.ad.Kernel().CutoffRadius()))
	if err != nil {
		return 0, err
	}
	index.Build(d.pos.Data, d.hRatio.Data)

	mergeable := func(i int) bool {
		return d.sm.MergeResolutionCheck(d.vol.Data[i]) &&
			math.Pow(d.targets[i], dim) >= 2*d.vol.Data[i]
	}

	keep := make([]bool, n)
	for i := range keep {
		keep[i] = true
	}
	merges := 0
	var scratch []spatial.Neighbor

	for i := 0; i < n; i++ {
		if !keep[i] || !mergeable(i) {
			continue
		}
		scratch = index.QueryRadiusInto(scratch[:0], d.pos.Data[i], d.ad.Kernel().CutoffRadius(), d.pos.Data, i)

		// Nearest surviving merge partner.
		best, bestDistSq := -1, math.MaxFloat64
		for _, nb := range scratch {
			if keep[nb.Index] && mergeable(nb.Index) && nb.DistSq < bestDistSq {
				best, bestDistSq = nb.Index, nb.DistSq
			}
		}
		if best < 0 {
			continue
		}

		mi, mj := d.mass.Data[i], d.mass.Data[best]
		total := mi + mj
		d.pos.Data[i] = geometry.Vec{
			X: (d.pos.Data[i].X*mi + d.pos.Data[best].X*mj) / total,
			Y: (d.pos.Data[i].Y*mi + d.pos.Data[best].Y*mj) / total,
			Z: (d.pos.Data[i].Z*mi + d.pos.Data[best].Z*mj) / total,
		}
		d.vol.Data[i] += d.vol.Data[best]
		d.mass.Data[i] = total

		ratio := d.ad.ReferenceSpacing() / math.Pow(d.vol.Data[i], 1/dim)
		if ratio < 1 {
			ratio = 1
		}
		d.hRatio.Data[i] = ratio

		keep[best] = false
		merges++
	}

	if merges > 0 {
		// Shrink targets alongside the store so pass state stays aligned.
		kept := d.targets[:0]
		for i, k := range keep {
			if k {
				kept = append(kept, d.targets[i])
			}
		}
		d.targets = kept
		if _, err := d.store.Compact(keep); err != nil {
			return 0, err
		}
	}
	return merges, nil
}

// TotalMass returns the body's mass sum.
func (d *Driver) TotalMass() float64 { return sum(d.mass.Data) }

// TotalVolume returns the body's volume sum.
func (d *Driver) TotalVolume() float64 { return sum(d.vol.Data) }

func sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}
