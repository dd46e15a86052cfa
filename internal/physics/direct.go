package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
	"github.com/san-kum/electrosim/internal/quadtree"
)

// DirectField sums the softened field of every finite body at p, with a
// unit Coulomb constant. With skipSelf, sources closer than
// quadtree.SelfEpsilon are ignored.
func DirectField(bodies []dynamo.Body, p r2.Vec, eps float64, skipSelf bool) r2.Vec {
	var ex, ey float64
	eps2 := eps * eps
	for i := range bodies {
		b := &bodies[i]
		if !b.Finite() {
			continue
		}
		dx, dy := p.X-b.Pos.X, p.Y-b.Pos.Y
		d2 := dx*dx + dy*dy
		if skipSelf && d2 < quadtree.SelfEpsilon*quadtree.SelfEpsilon {
			continue
		}
		r2s := d2 + eps2
		if r2s == 0 {
			continue
		}
		s := b.Charge / (r2s * math.Sqrt(r2s))
		ex += s * dx
		ey += s * dy
	}
	return r2.Vec{X: ex, Y: ey}
}

// DirectForces returns k times the pairwise force on every body.
func DirectForces(bodies []dynamo.Body, k, eps float64) []r2.Vec {
	out := make([]r2.Vec, len(bodies))
	dynamo.ParallelFor(len(bodies), 64, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			b := &bodies[i]
			if !b.Finite() {
				continue
			}
			out[i] = r2.Scale(k*b.Charge, DirectField(bodies, b.Pos, eps, true))
		}
	})
	return out
}

// DirectEnergy is the pairwise electrostatic energy with separations clamped
// below at radius and softened by eps.
func DirectEnergy(bodies []dynamo.Body, k, radius, eps float64) float64 {
	minR2 := radius * radius
	eps2 := eps * eps
	e := 0.0
	for i := range bodies {
		if !bodies[i].Finite() {
			continue
		}
		for j := i + 1; j < len(bodies); j++ {
			if !bodies[j].Finite() {
				continue
			}
			d := r2.Sub(bodies[i].Pos, bodies[j].Pos)
			r := math.Sqrt(math.Max(r2.Dot(d, d), minR2) + eps2)
			if r == 0 {
				continue
			}
			e += k * bodies[i].Charge * bodies[j].Charge / r
		}
	}
	return e
}
