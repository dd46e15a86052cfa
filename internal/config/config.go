package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/electrosim/internal/dynamo"
	"github.com/san-kum/electrosim/internal/quadtree"
)

const (
	DefaultDt       = 1e-3
	DefaultSteps    = 1000
	DefaultBodies   = 2000
	DefaultDomain   = 10.0
	DefaultCoulombK = 1.0
	DefaultScenario = "electrolyte"
)

type Config struct {
	Scenario   string        `yaml:"scenario"`
	Integrator string        `yaml:"integrator"`
	Bodies     int           `yaml:"bodies"`
	Seed       int64         `yaml:"seed"`
	Dt         float64       `yaml:"dt"`
	Steps      int           `yaml:"steps"`
	Domain     float64       `yaml:"domain"`
	Tree       TreeConfig    `yaml:"tree"`
	Physics    PhysicsConfig `yaml:"physics"`
	LogLevel   string        `yaml:"log_level"`
}

type TreeConfig struct {
	Theta          float64 `yaml:"theta"`
	Softening      float64 `yaml:"softening"`
	LeafCapacity   int     `yaml:"leaf_capacity"`
	ThreadCapacity int     `yaml:"thread_capacity"`
	Workers        int     `yaml:"workers"`
}

type PhysicsConfig struct {
	CoulombK float64 `yaml:"coulomb_k"`
	// ProbeRadius is the closest approach used for potentials.
	ProbeRadius float64 `yaml:"probe_radius"`
	// CollisionRadius links bodies into clusters.
	CollisionRadius float64 `yaml:"collision_radius"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario:   DefaultScenario,
		Integrator: "leapfrog",
		Bodies:     DefaultBodies,
		Seed:       1,
		Dt:         DefaultDt,
		Steps:      DefaultSteps,
		Domain:     DefaultDomain,
		Tree: TreeConfig{
			Theta:          quadtree.DefaultTheta,
			Softening:      quadtree.DefaultSoftening,
			LeafCapacity:   quadtree.DefaultLeafCapacity,
			ThreadCapacity: quadtree.DefaultThreadCapacity,
		},
		Physics: PhysicsConfig{
			CoulombK:        DefaultCoulombK,
			ProbeRadius:     0,
			CollisionRadius: 0.05,
		},
		LogLevel: "info",
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Params converts the tree section into construction parameters.
func (c *Config) Params() quadtree.Params {
	return quadtree.Params{
		Theta:          c.Tree.Theta,
		Softening:      c.Tree.Softening,
		LeafCapacity:   c.Tree.LeafCapacity,
		ThreadCapacity: c.Tree.ThreadCapacity,
		Workers:        c.Tree.Workers,
	}
}

func (c *Config) Validate() error {
	switch {
	case c.Bodies < 1:
		return bounds("bodies must be at least 1, got %d", c.Bodies)
	case !positive(c.Dt):
		return bounds("dt must be positive, got %g", c.Dt)
	case c.Steps < 1:
		return bounds("steps must be at least 1, got %d", c.Steps)
	case !positive(c.Domain):
		return bounds("domain must be positive, got %g", c.Domain)
	case !(c.Tree.Theta >= 0) || math.IsInf(c.Tree.Theta, 0):
		return bounds("theta must be a non-negative number, got %g", c.Tree.Theta)
	case !(c.Tree.Softening >= 0) || math.IsInf(c.Tree.Softening, 0):
		return bounds("softening must be a non-negative number, got %g", c.Tree.Softening)
	case c.Tree.LeafCapacity < 1:
		return bounds("leaf capacity must be at least 1, got %d", c.Tree.LeafCapacity)
	case c.Tree.ThreadCapacity < 1:
		return bounds("thread capacity must be at least 1, got %d", c.Tree.ThreadCapacity)
	case c.Tree.Workers < 0:
		return bounds("workers must not be negative, got %d", c.Tree.Workers)
	case !dynamo.IsFinite(c.Physics.CoulombK):
		return bounds("coulomb constant must be finite, got %g", c.Physics.CoulombK)
	case !(c.Physics.ProbeRadius >= 0):
		return bounds("probe radius must not be negative, got %g", c.Physics.ProbeRadius)
	case !(c.Physics.CollisionRadius >= 0):
		return bounds("collision radius must not be negative, got %g", c.Physics.CollisionRadius)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func bounds(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{dynamo.ErrParameterBounds}, args...)...)
}
