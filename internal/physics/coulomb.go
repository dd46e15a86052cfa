package physics

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
	"github.com/san-kum/electrosim/internal/quadtree"
)

// parallelChunk is the smallest per-goroutine slice of bodies when forces
// are fanned out.
const parallelChunk = 256

// Coulomb computes electrostatic interactions through a Barnes-Hut tree.
type Coulomb struct {
	// K is the Coulomb constant.
	K float64
	// Radius is the closest approach used when evaluating potentials.
	Radius float64
	Tree   *quadtree.Tree
}

func NewCoulomb(k float64, p quadtree.Params) *Coulomb {
	return &Coulomb{K: k, Tree: quadtree.New(p)}
}

// Accelerations rebuilds the tree over bodies, reordering them, and sets
// every body's Acc from the field at its position.
func (c *Coulomb) Accelerations(bodies []dynamo.Body) {
	c.Tree.Build(bodies)

	dynamo.ParallelFor(len(bodies), parallelChunk, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			b := &bodies[i]
			if b.Mass <= 0 {
				b.Acc = r2.Vec{}
				continue
			}
			f := c.Tree.ForceAt(b.Pos, b.Charge, bodies)
			b.Acc = r2.Scale(c.K/b.Mass, f)
		}
	})
}

// Energy returns kinetic plus electrostatic energy. Each body's potential is
// taken with that body excluded, and the pair sum is halved. The tree is
// rebuilt first, so bodies are reordered.
func (c *Coulomb) Energy(bodies []dynamo.Body) float64 {
	c.Tree.Build(bodies)

	pe := make([]float64, len(bodies))
	dynamo.ParallelFor(len(bodies), parallelChunk, func(lo, hi int) {
		excluded := make([]int, 1)
		for i := lo; i < hi; i++ {
			b := &bodies[i]
			if !b.Finite() {
				continue
			}
			excluded[0] = i
			pe[i] = b.Charge * c.Tree.PotentialAt(b.Pos, c.Radius, c.K, bodies, excluded)
		}
	})

	total := 0.0
	for i := range bodies {
		total += 0.5*pe[i] + kinetic(&bodies[i])
	}
	return total
}

func kinetic(b *dynamo.Body) float64 {
	if b.Mass <= 0 {
		return 0
	}
	return 0.5 * b.Mass * r2.Dot(b.Vel, b.Vel)
}

func Momentum(bodies []dynamo.Body) r2.Vec {
	var p r2.Vec
	for i := range bodies {
		if bodies[i].Mass > 0 {
			p = r2.Add(p, r2.Scale(bodies[i].Mass, bodies[i].Vel))
		}
	}
	return p
}

func AngularMomentum(bodies []dynamo.Body) float64 {
	l := 0.0
	for i := range bodies {
		b := &bodies[i]
		if b.Mass > 0 {
			l += b.Mass * (b.Pos.X*b.Vel.Y - b.Pos.Y*b.Vel.X)
		}
	}
	return l
}
