package integrators

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
	"github.com/san-kum/electrosim/internal/sim"
)

// Leapfrog is the kick-drift-kick scheme. It expects Acc to hold the
// accelerations of the current positions, which the simulator primes before
// the first step, and leaves them current for the next one. Each step costs
// one force evaluation.
type Leapfrog struct{}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Step(f sim.Forcer, bodies []dynamo.Body, dt float64) {
	halfDt := 0.5 * dt

	for i := range bodies {
		b := &bodies[i]
		b.Vel = r2.Add(b.Vel, r2.Scale(halfDt, b.Acc))
		b.Pos = r2.Add(b.Pos, r2.Scale(dt, b.Vel))
	}

	f.Accelerations(bodies)

	for i := range bodies {
		b := &bodies[i]
		b.Vel = r2.Add(b.Vel, r2.Scale(halfDt, b.Acc))
	}
}

// Verlet is position Verlet (drift-kick-drift). It does not rely on Acc
// from a previous step.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(f sim.Forcer, bodies []dynamo.Body, dt float64) {
	halfDt := 0.5 * dt

	for i := range bodies {
		b := &bodies[i]
		b.Pos = r2.Add(b.Pos, r2.Scale(halfDt, b.Vel))
	}

	f.Accelerations(bodies)

	for i := range bodies {
		b := &bodies[i]
		b.Vel = r2.Add(b.Vel, r2.Scale(dt, b.Acc))
		b.Pos = r2.Add(b.Pos, r2.Scale(halfDt, b.Vel))
	}
}
