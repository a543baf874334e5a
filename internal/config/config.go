package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/psoswarm/internal/pso"
)

// Config is the file form of a run plus an optional sweep grid.
type Config struct {
	Particles  int     `yaml:"particles"`
	Iterations int     `yaml:"iterations"`
	W          float64 `yaml:"w"`
	C1         float64 `yaml:"c1"`
	C2         float64 `yaml:"c2"`

	PositionBounds pso.Bounds `yaml:"position_bounds"`
	VelocityBounds pso.Bounds `yaml:"velocity_bounds"`

	// Threshold enables early stopping when set
	Threshold *float64 `yaml:"threshold,omitempty"`

	Seed      int64  `yaml:"seed"`
	Reseed    string `yaml:"reseed"`    // once, per-iteration
	Objective string `yaml:"objective"` // paraboloid, sphere, rastrigin, himmelblau

	SnapshotEvery int `yaml:"snapshot_every"`

	// Optional clamps; absent means unbounded
	VelocityClamp *pso.Bounds `yaml:"velocity_clamp,omitempty"`
	PositionClamp *pso.Bounds `yaml:"position_clamp,omitempty"`

	Stagnation pso.StagnationConfig `yaml:"stagnation"`

	Sweep SweepConfig `yaml:"sweep"`
}

// SweepConfig lists the coefficient values to combine.
type SweepConfig struct {
	W           []float64 `yaml:"w"`
	C1          []float64 `yaml:"c1"`
	C2          []float64 `yaml:"c2"`
	Concurrency int       `yaml:"concurrency"`
	Baseline    string    `yaml:"baseline"` // "", mayfly or pso: one extra run for comparison
}

// Default returns pso.DefaultConfig in file form with the built-in sweep grid.
func Default() Config {
	d := pso.DefaultConfig()
	return Config{
		Particles:      d.Particles,
		Iterations:     d.Iterations,
		W:              d.W,
		C1:             d.C1,
		C2:             d.C2,
		PositionBounds: d.PositionBounds,
		VelocityBounds: d.VelocityBounds,
		Seed:           d.Seed,
		Reseed:         string(d.Reseed),
		Objective:      "paraboloid",
		Sweep: SweepConfig{
			W:           []float64{0.4, 0.5, 0.7, 0.9},
			C1:          []float64{1.0, 1.5, 2.0},
			C2:          []float64{1.0, 1.5, 2.0},
			Concurrency: 1,
		},
	}
}

// Load reads a YAML file over the defaults. Fields missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate resolves the named fields and validates the resulting run config.
func (c *Config) Validate() error {
	cfg, err := c.RunConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if c.Sweep.Concurrency < 0 {
		return fmt.Errorf("sweep concurrency cannot be negative")
	}
	switch c.Sweep.Baseline {
	case "", "mayfly", "pso":
	default:
		return fmt.Errorf("unknown sweep baseline %q (available: mayfly, pso)", c.Sweep.Baseline)
	}
	return nil
}

// RunConfig converts the file form into a pso.Config.
func (c *Config) RunConfig() (pso.Config, error) {
	objective, err := pso.LookupObjective(c.Objective)
	if err != nil {
		return pso.Config{}, err
	}
	reseed, err := pso.ParseReseedPolicy(c.Reseed)
	if err != nil {
		return pso.Config{}, err
	}

	return pso.Config{
		Particles:  c.Particles,
		Iterations: c.Iterations,
		Params: pso.Params{
			W:             c.W,
			C1:            c.C1,
			C2:            c.C2,
			VelocityClamp: c.VelocityClamp,
			PositionClamp: c.PositionClamp,
		},
		PositionBounds: c.PositionBounds,
		VelocityBounds: c.VelocityBounds,
		Threshold:      c.Threshold,
		Seed:           c.Seed,
		Reseed:         reseed,
		Objective:      objective,
		SnapshotEvery:  c.SnapshotEvery,
		Stagnation:     c.Stagnation,
	}, nil
}
