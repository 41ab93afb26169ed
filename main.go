package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/silt-sim/silt/adaptation"
	"github.com/silt-sim/silt/config"
	"github.com/silt-sim/silt/geometry"
	"github.com/silt-sim/silt/particles"
	"github.com/silt-sim/silt/remesh"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot (overrides config)")
	passes := flag.Int("passes", 0, "Number of remesh passes (0 = use config)")
	snapshotPath := flag.String("snapshot", "", "Path for the final particle snapshot (overrides config)")
	dumpConfig := flag.Bool("dump-config", false, "Print the effective config as YAML and exit")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// CLI overrides
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *passes > 0 {
		cfg.Remesh.Passes = *passes
	}
	if *snapshotPath != "" {
		cfg.Output.Snapshot = *snapshotPath
	}

	if *dumpConfig {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			slog.Error("failed to dump config", "error", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
		return
	}

	if err := run(cfg); err != nil {
		slog.Error("remesh failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ad, err := adaptation.New(adaptation.Resolution{
		ResolutionRef:   cfg.Resolution.ReferenceSpacing,
		HSpacingRatio:   cfg.Resolution.HSpacingRatio,
		SystemRatio:     cfg.Resolution.SystemRatio,
		RefinementLevel: cfg.Resolution.RefinementLevel,
		Dim:             cfg.Resolution.Dim,
		KernelFamily:    cfg.Resolution.KernelFamily,
	})
	if err != nil {
		return err
	}

	shape := buildShape(cfg)
	policy := buildPolicy(cfg, ad)
	sm := adaptation.NewSplitMerge(ad)

	positions := remesh.SeedLattice(shape, ad.ReferenceSpacing(), ad.Dim())
	driver, err := remesh.NewDriver(shape, ad, policy, sm, remesh.Options{
		Positions: positions,
		Density:   cfg.Body.Density,
		Workers:   cfg.Remesh.Workers,
	})
	if err != nil {
		return err
	}

	output, err := remesh.NewOutputManager(cfg.Output.Dir)
	if err != nil {
		return err
	}
	defer output.Close()
	if dir := output.Dir(); dir != "" {
		if err := cfg.WriteYAML(filepath.Join(dir, "config.yaml")); err != nil {
			return err
		}
	}

	slog.Info("starting remesh",
		"shape", shape.Name(),
		"policy", cfg.Remesh.Policy,
		"particles", driver.Store().Count(),
		"spacing_ref", ad.ReferenceSpacing(),
		"spacing_min", ad.MostRefinedSpacing(),
		"passes", cfg.Remesh.Passes,
	)

	for pass := 1; pass <= cfg.Remesh.Passes; pass++ {
		driver.SpacingPass()
		splits, merges, err := driver.Compaction()
		if err != nil {
			return err
		}
		stats := driver.Stats(pass, splits, merges)
		if err := output.WritePass(stats); err != nil {
			return err
		}
		slog.Info("pass complete",
			"pass", pass,
			"particles", stats.Particles,
			"splits", splits,
			"merges", merges,
			"spacing_min", stats.SpacingMin,
			"spacing_max", stats.SpacingMax,
			"total_mass", stats.TotalMass,
		)
	}

	if cfg.Output.Snapshot != "" {
		if err := particles.SaveSnapshot(driver.Store().Snapshot(), cfg.Output.Snapshot); err != nil {
			return err
		}
		slog.Info("snapshot written", "path", cfg.Output.Snapshot)
	}
	return nil
}

func buildShape(cfg *config.Config) geometry.Shape {
	if cfg.Body.Shape == "box" {
		half := 0.5 * cfg.Body.Extent
		lower := geometry.Vec{X: -half, Y: -half}
		upper := geometry.Vec{X: half, Y: half}
		if cfg.Resolution.Dim == 3 {
			lower.Z, upper.Z = -half, half
		}
		return geometry.Box{ShapeName: "box", Lower: lower, Upper: upper}
	}
	return geometry.Ball{ShapeName: "ball", Radius: cfg.Body.Radius}
}

func buildPolicy(cfg *config.Config, ad *adaptation.Adaptation) adaptation.SpacingPolicy {
	switch cfg.Remesh.Policy {
	case "near-surface":
		return adaptation.NewNearSurface(ad)
	case "within-shape":
		return adaptation.NewWithinShape(ad)
	default:
		return adaptation.NewUniform(ad)
	}
}
