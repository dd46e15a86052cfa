package sim

import "github.com/san-kum/electrosim/internal/dynamo"

// Forcer fills in Acc for every body. It may reorder the slice.
type Forcer interface {
	Accelerations(bodies []dynamo.Body)
}

type Integrator interface {
	Step(f Forcer, bodies []dynamo.Body, dt float64)
}

type Metric interface {
	Name() string
	Observe(bodies []dynamo.Body, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(bodies []dynamo.Body, t float64)
}

type Config struct {
	Dt    float64
	Steps int
	// EnergyEvery records the total energy every this many steps; 0 means 1.
	EnergyEvery   int
	ValidateState bool
}

type Result struct {
	Times       []float64
	Energies    []float64
	Metrics     map[string]float64
	Final       dynamo.Bodies
	StepsTaken  int
	EnergyDrift float64
	Errors      []error
}
