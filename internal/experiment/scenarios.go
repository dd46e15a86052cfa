package experiment

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
)

// Scenario generates n bodies inside a square of side domain centered on
// the origin.
type Scenario func(n int, domain float64, rng *rand.Rand) []dynamo.Body

// Uniform scatters alternating unit charges at rest.
func Uniform(n int, domain float64, rng *rand.Rand) []dynamo.Body {
	bodies := make([]dynamo.Body, n)
	for i := range bodies {
		q := 1.0
		if i%2 == 1 {
			q = -1
		}
		bodies[i] = dynamo.Body{
			ID:      uint64(i),
			Species: dynamo.Ion,
			Pos:     scatter(rng, domain),
			Charge:  q,
			Mass:    1,
		}
	}
	return bodies
}

// Electrolyte is a neutral mix of cations and heavier counterions with
// thermal velocities.
func Electrolyte(n int, domain float64, rng *rand.Rand) []dynamo.Body {
	const thermal = 0.1
	bodies := make([]dynamo.Body, n)
	for i := range bodies {
		b := dynamo.Body{
			ID:      uint64(i),
			Species: dynamo.Ion,
			Pos:     scatter(rng, domain),
			Charge:  1,
			Mass:    1,
			Radius:  0.01,
		}
		if i%2 == 1 {
			b.Species = dynamo.Counterion
			b.Charge = -1
			b.Mass = 1.5
			b.Radius = 0.015
		}
		b.Vel = r2.Scale(thermal/math.Sqrt(b.Mass), r2.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64()})
		bodies[i] = b
	}
	return bodies
}

// Electrode lines the bottom edge with a fixed, negatively charged metal
// lattice. The rest of the domain holds mobile cations and counterions plus
// a few light electrons near the surface.
func Electrode(n int, domain float64, rng *rand.Rand) []dynamo.Body {
	half := domain / 2
	metal := max(n/5, 1)
	electrons := n / 20
	bodies := make([]dynamo.Body, 0, n)

	for i := 0; i < metal; i++ {
		x := -half + domain*(float64(i)+0.5)/float64(metal)
		bodies = append(bodies, dynamo.Body{
			Species: dynamo.Metal,
			Pos:     r2.Vec{X: x, Y: -half},
			Charge:  -1,
		})
	}
	for i := 0; i < electrons && len(bodies) < n; i++ {
		bodies = append(bodies, dynamo.Body{
			Species: dynamo.Electron,
			Pos:     r2.Vec{X: (rng.Float64() - 0.5) * domain, Y: -half + 0.05*domain*rng.Float64()},
			Charge:  -1,
			Mass:    0.05,
		})
	}

	// balance the lattice and electrons with a cation excess in the bulk
	excess := metal + electrons
	for len(bodies) < n {
		b := dynamo.Body{Species: dynamo.Ion, Pos: scatter(rng, domain), Charge: 1, Mass: 1}
		if excess <= 0 && len(bodies)%2 == 0 {
			b.Species = dynamo.Counterion
			b.Charge = -1
			b.Mass = 1.5
		}
		excess--
		bodies = append(bodies, b)
	}

	for i := range bodies {
		bodies[i].ID = uint64(i)
	}
	return bodies
}

// Coincident stacks every body on one point: a degenerate stress case for
// the tree.
func Coincident(n int, domain float64, rng *rand.Rand) []dynamo.Body {
	bodies := make([]dynamo.Body, n)
	for i := range bodies {
		q := 1.0
		if i%2 == 1 {
			q = -1
		}
		bodies[i] = dynamo.Body{ID: uint64(i), Species: dynamo.Ion, Charge: q, Mass: 1}
	}
	return bodies
}

func scatter(rng *rand.Rand, domain float64) r2.Vec {
	return r2.Vec{X: (rng.Float64() - 0.5) * domain, Y: (rng.Float64() - 0.5) * domain}
}
