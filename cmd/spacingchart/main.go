// Command spacingchart renders the refinement policies' spacing profiles
// as an HTML line chart: target spacing against signed distance from the
// body surface, for each policy at the configured resolution.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/silt-sim/silt/adaptation"
	"github.com/silt-sim/silt/config"
	"github.com/silt-sim/silt/geometry"
)

// planeShape reports its X coordinate as the signed distance, so sweeping
// a probe along X traces the policy profile directly.
type planeShape struct{}

func (planeShape) Name() string                          { return "half-space" }
func (planeShape) SignedDistance(p geometry.Vec) float64 { return p.X }
func (planeShape) Bounds() geometry.Bounds               { return geometry.Bounds{} }

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	out := flag.String("out", "spacing.html", "Output HTML file")
	samples := flag.Int("samples", 400, "Sample count across the sweep")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	ad, err := adaptation.New(adaptation.Resolution{
		ResolutionRef:   cfg.Resolution.ReferenceSpacing,
		HSpacingRatio:   cfg.Resolution.HSpacingRatio,
		SystemRatio:     cfg.Resolution.SystemRatio,
		RefinementLevel: cfg.Resolution.RefinementLevel,
		Dim:             cfg.Resolution.Dim,
		KernelFamily:    cfg.Resolution.KernelFamily,
	})
	if err != nil {
		slog.Error("invalid resolution", "error", err)
		os.Exit(1)
	}

	if err := render(ad, *out, *samples); err != nil {
		slog.Error("failed to render chart", "error", err)
		os.Exit(1)
	}
	slog.Info("chart written", "path", *out)
}

func render(ad *adaptation.Adaptation, path string, samples int) error {
	// The sweep interpolates between samples-1 intervals; fewer than two
	// samples would divide by zero.
	if samples < 2 {
		samples = 2
	}

	policies := []struct {
		name   string
		policy adaptation.SpacingPolicy
	}{
		{"near-surface", adaptation.NewNearSurface(ad)},
		{"within-shape", adaptation.NewWithinShape(ad)},
		{"uniform", adaptation.NewUniform(ad)},
	}

	// Sweep the probe across the blending bands on both sides of the
	// surface. Four reference spacings on each side covers the widest
	// transition zone any policy uses.
	span := 4 * ad.ReferenceSpacing()
	xs := make([]string, samples)
	series := make([][]opts.LineData, len(policies))
	for s := range series {
		series[s] = make([]opts.LineData, samples)
	}
	shape := planeShape{}
	for i := 0; i < samples; i++ {
		d := -span + 2*span*float64(i)/float64(samples-1)
		xs[i] = fmt.Sprintf("%.4f", d)
		probe := geometry.Vec{X: d}
		for s, p := range policies {
			series[s][i] = opts.LineData{Value: p.policy.LocalSpacing(shape, probe)}
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Refinement Spacing Profiles",
			Width:     "1000px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Target spacing vs. signed distance",
			Subtitle: fmt.Sprintf("spacing_ref=%.4g spacing_min=%.4g levels=%d dim=%d",
				ad.ReferenceSpacing(), ad.MostRefinedSpacing(), ad.RefinementLevel(), ad.Dim()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "signed distance", NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: "target spacing"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	line.SetXAxis(xs)
	for s, p := range policies {
		line.AddSeries(p.name, series[s], charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	return line.Render(f)
}
