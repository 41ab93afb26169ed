// Package config provides configuration loading and access for the remesher.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/silt-sim/silt/kernel"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all remesher configuration parameters.
type Config struct {
	Resolution ResolutionConfig `yaml:"resolution"`
	Body       BodyConfig       `yaml:"body"`
	Remesh     RemeshConfig     `yaml:"remesh"`
	Output     OutputConfig     `yaml:"output"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ResolutionConfig holds the body's nominal resolution parameters.
type ResolutionConfig struct {
	ReferenceSpacing float64 `yaml:"reference_spacing"` // Nominal inter-particle spacing
	HSpacingRatio    float64 `yaml:"h_spacing_ratio"`   // Smoothing length / spacing (0 = 1.3)
	SystemRatio      float64 `yaml:"system_ratio"`      // System-wide refinement ratio (0 = 1)
	RefinementLevel  int     `yaml:"refinement_level"`  // Local refinement levels (0 = uniform)
	Dim              int     `yaml:"dim"`               // Spatial dimension, 2 or 3
	KernelFamily     string  `yaml:"kernel_family"`     // "wendland_c2" or "cubic_spline" ("" = wendland)
}

// BodyConfig selects and sizes the seeded body.
type BodyConfig struct {
	Shape   string  `yaml:"shape"`   // "ball" or "box"
	Radius  float64 `yaml:"radius"`  // Ball radius
	Extent  float64 `yaml:"extent"`  // Box edge length (cube/square centered at origin)
	Density float64 `yaml:"density"` // Mass per unit volume (0 = 1)
}

// RemeshConfig holds the pass-loop parameters.
type RemeshConfig struct {
	Policy  string `yaml:"policy"`  // "uniform", "near-surface", or "within-shape"
	Passes  int    `yaml:"passes"`  // Spacing/compaction iterations
	Workers int    `yaml:"workers"` // Worker goroutines for spacing passes (0 = GOMAXPROCS)
}

// OutputConfig holds output destinations.
type OutputConfig struct {
	Dir      string `yaml:"dir"`      // CSV output directory ("" = disabled)
	Snapshot string `yaml:"snapshot"` // Final particle snapshot path ("" = disabled)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	BodyVolume float64 // Analytic volume of the configured body
	SeedCount  int     // Approximate lattice seed count at the reference spacing
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects configurations the pipeline cannot run with.
func (c *Config) validate() error {
	if c.Resolution.ReferenceSpacing <= 0 {
		return fmt.Errorf("config: resolution.reference_spacing must be positive, got %v", c.Resolution.ReferenceSpacing)
	}
	if c.Resolution.Dim != 2 && c.Resolution.Dim != 3 {
		return fmt.Errorf("config: resolution.dim must be 2 or 3, got %d", c.Resolution.Dim)
	}
	if c.Resolution.RefinementLevel < 0 {
		return fmt.Errorf("config: resolution.refinement_level must be non-negative, got %d", c.Resolution.RefinementLevel)
	}
	switch c.Resolution.KernelFamily {
	case "", kernel.FamilyWendlandC2, kernel.FamilyCubicSpline:
	default:
		return fmt.Errorf("config: unknown resolution.kernel_family %q", c.Resolution.KernelFamily)
	}
	switch c.Body.Shape {
	case "ball":
		if c.Body.Radius <= 0 {
			return fmt.Errorf("config: body.radius must be positive for a ball, got %v", c.Body.Radius)
		}
	case "box":
		if c.Body.Extent <= 0 {
			return fmt.Errorf("config: body.extent must be positive for a box, got %v", c.Body.Extent)
		}
	default:
		return fmt.Errorf("config: unknown body.shape %q", c.Body.Shape)
	}
	switch c.Remesh.Policy {
	case "uniform", "near-surface", "within-shape":
	default:
		return fmt.Errorf("config: unknown remesh.policy %q", c.Remesh.Policy)
	}
	if c.Remesh.Passes < 1 {
		return fmt.Errorf("config: remesh.passes must be at least 1, got %d", c.Remesh.Passes)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	if c.Body.Density == 0 {
		c.Body.Density = 1
	}

	const pi = 3.141592653589793
	r, e := c.Body.Radius, c.Body.Extent
	switch {
	case c.Body.Shape == "ball" && c.Resolution.Dim == 2:
		c.Derived.BodyVolume = pi * r * r
	case c.Body.Shape == "ball":
		c.Derived.BodyVolume = 4.0 / 3.0 * pi * r * r * r
	case c.Resolution.Dim == 2:
		c.Derived.BodyVolume = e * e
	default:
		c.Derived.BodyVolume = e * e * e
	}

	cellVolume := c.Resolution.ReferenceSpacing
	for d := 1; d < c.Resolution.Dim; d++ {
		cellVolume *= c.Resolution.ReferenceSpacing
	}
	c.Derived.SeedCount = int(c.Derived.BodyVolume / cellVolume)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
