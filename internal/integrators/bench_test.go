package integrators

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
	"github.com/san-kum/electrosim/internal/physics"
	"github.com/san-kum/electrosim/internal/quadtree"
)

func benchBodies(n int) []dynamo.Body {
	bodies := make([]dynamo.Body, n)
	for i := range bodies {
		q := 1.0
		if i%2 == 0 {
			q = -1
		}
		x := float64(i%100) / 10
		y := float64(i/100) / 10
		bodies[i] = dynamo.Body{Pos: r2.Vec{X: x, Y: y}, Charge: q, Mass: 1}
	}
	return bodies
}

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	f := physics.NewCoulomb(1, quadtree.DefaultParams())
	bodies := benchBodies(5000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		integrator.Step(f, bodies, 1e-4)
	}
}

func BenchmarkLeapfrog(b *testing.B) {
	integrator := NewLeapfrog()
	f := physics.NewCoulomb(1, quadtree.DefaultParams())
	bodies := benchBodies(5000)
	f.Accelerations(bodies)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		integrator.Step(f, bodies, 1e-4)
	}
}

func BenchmarkVerlet(b *testing.B) {
	integrator := NewVerlet()
	f := physics.NewCoulomb(1, quadtree.DefaultParams())
	bodies := benchBodies(5000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		integrator.Step(f, bodies, 1e-4)
	}
}
