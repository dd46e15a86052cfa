package integrators

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
	"github.com/san-kum/electrosim/internal/sim"
)

// Euler is the semi-implicit (symplectic) Euler method: velocities are
// kicked with the current accelerations, then positions drift with the new
// velocities.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(f sim.Forcer, bodies []dynamo.Body, dt float64) {
	f.Accelerations(bodies)
	for i := range bodies {
		b := &bodies[i]
		b.Vel = r2.Add(b.Vel, r2.Scale(dt, b.Acc))
		b.Pos = r2.Add(b.Pos, r2.Scale(dt, b.Vel))
	}
}
