package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
)

// Kinetic is the time-averaged kinetic energy per mobile body.
type Kinetic struct {
	name    string
	samples int
	total   float64
}

func NewKinetic() *Kinetic {
	return &Kinetic{name: "kinetic"}
}

func (k *Kinetic) Name() string { return k.name }

func (k *Kinetic) Observe(bodies []dynamo.Body, t float64) {
	ke, mobile := 0.0, 0
	for i := range bodies {
		b := &bodies[i]
		if b.Mass <= 0 {
			continue
		}
		ke += 0.5 * b.Mass * r2.Dot(b.Vel, b.Vel)
		mobile++
	}
	if mobile == 0 {
		return
	}
	k.total += ke / float64(mobile)
	k.samples++
}

func (k *Kinetic) Value() float64 {
	if k.samples == 0 {
		return 0
	}
	return k.total / float64(k.samples)
}

func (k *Kinetic) Reset() {
	k.total = 0
	k.samples = 0
}

// EnergyDrift is the largest relative departure of the total energy from
// its first observed value.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
	h             dynamo.Hamiltonian
}

func NewEnergyDrift(h dynamo.Hamiltonian) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		h:    h,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(bodies []dynamo.Body, t float64) {
	energy := e.h.Energy(bodies)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
