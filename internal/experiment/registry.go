package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/electrosim/internal/config"
	"github.com/san-kum/electrosim/internal/dynamo"
	"github.com/san-kum/electrosim/internal/integrators"
	"github.com/san-kum/electrosim/internal/metrics"
	"github.com/san-kum/electrosim/internal/physics"
	"github.com/san-kum/electrosim/internal/sim"
)

type Registry struct {
	scenarios   map[string]Scenario
	integrators map[string]func() sim.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		scenarios:   make(map[string]Scenario),
		integrators: make(map[string]func() sim.Integrator),
	}

	r.scenarios["uniform"] = Uniform
	r.scenarios["electrolyte"] = Electrolyte
	r.scenarios["electrode"] = Electrode
	r.scenarios["coincident"] = Coincident

	r.integrators["euler"] = func() sim.Integrator { return integrators.NewEuler() }
	r.integrators["leapfrog"] = func() sim.Integrator { return integrators.NewLeapfrog() }
	r.integrators["verlet"] = func() sim.Integrator { return integrators.NewVerlet() }

	return r
}

func (r *Registry) GetScenario(name string) (Scenario, error) {
	fn, ok := r.scenarios[name]
	if !ok {
		return nil, fmt.Errorf("%w: scenario %q", dynamo.ErrUnknownComponent, name)
	}
	return fn, nil
}

func (r *Registry) GetIntegrator(name string) (sim.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("%w: integrator %q", dynamo.ErrUnknownComponent, name)
	}
	return fn(), nil
}

func (r *Registry) ListScenarios() []string {
	return sortedKeys(r.scenarios)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics are attached to every experiment run.
func (r *Registry) DefaultMetrics(cfg *config.Config, c *physics.Coulomb) []sim.Metric {
	return []sim.Metric{
		metrics.NewEnergyDrift(c),
		metrics.NewKinetic(),
		metrics.NewStability(cfg.Domain),
		metrics.NewClusterCount(cfg.Physics.CollisionRadius, cfg.Params()),
		metrics.NewMaxField(cfg.Physics.CoulombK),
	}
}
