package experiment

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/san-kum/electrosim/internal/config"
	"github.com/san-kum/electrosim/internal/dynamo"
	"github.com/san-kum/electrosim/internal/physics"
	"github.com/san-kum/electrosim/internal/sim"
)

// Experiment wires a configuration into bodies, physics and a simulator.
type Experiment struct {
	cfg       *config.Config
	bodies    []dynamo.Body
	coulomb   *physics.Coulomb
	simulator *sim.Simulator
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup validates the configuration, builds every component and attaches
// the registry's default metrics.
func (e *Experiment) Setup(reg *Registry) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	scenario, err := reg.GetScenario(e.cfg.Scenario)
	if err != nil {
		return err
	}
	integrator, err := reg.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(uint64(e.cfg.Seed)))
	e.bodies = scenario(e.cfg.Bodies, e.cfg.Domain, rng)

	e.coulomb = physics.NewCoulomb(e.cfg.Physics.CoulombK, e.cfg.Params())
	e.coulomb.Radius = e.cfg.Physics.ProbeRadius

	e.simulator = sim.New(e.coulomb, integrator)
	for _, m := range reg.DefaultMetrics(e.cfg, e.coulomb) {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, errors.New("experiment not set up")
	}

	res, err := e.simulator.Run(ctx, e.bodies, e.SimConfig())
	if err != nil {
		return res, fmt.Errorf("run %s: %w", e.cfg.Scenario, err)
	}
	return res, nil
}

// SimConfig is the stepping configuration derived from the experiment
// config. Energy is sampled about 200 times per run.
func (e *Experiment) SimConfig() sim.Config {
	return sim.Config{
		Dt:            e.cfg.Dt,
		Steps:         e.cfg.Steps,
		EnergyEvery:   max(e.cfg.Steps/200, 1),
		ValidateState: true,
	}
}

// Bodies returns the initial body set.
func (e *Experiment) Bodies() []dynamo.Body { return e.bodies }

func (e *Experiment) Coulomb() *physics.Coulomb { return e.coulomb }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}
