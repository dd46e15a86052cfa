package quadtree

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
)

// probe describes one potential/field evaluation.
type probe struct {
	at       r2.Vec
	k        float64
	minR2    float64
	excluded []int
	// skipSelf drops sources at near-zero separation from the probe point.
	skipSelf bool
}

// mayApprox reports whether n may be replaced by its aggregate: its
// aggregates are finite and it holds none of the excluded indices.
func (pr *probe) mayApprox(n *Node) bool {
	if !dynamo.VecFinite(n.Pos) || !dynamo.IsFinite(n.Charge) {
		return false
	}
	return len(pr.excluded) == 0 || !n.Bodies.containsAny(pr.excluded)
}

func (pr *probe) isExcluded(i int) bool {
	for _, e := range pr.excluded {
		if e == i {
			return true
		}
	}
	return false
}

// accumulate sums potential and field at pr.at over the whole tree.
func (t *Tree) accumulate(pr probe, bodies []dynamo.Body) (phi float64, e r2.Vec) {
	if len(t.nodes) == 0 || !dynamo.VecFinite(pr.at) {
		return 0, r2.Vec{}
	}

	theta2 := t.params.Theta * t.params.Theta
	eps2 := t.params.Softening * t.params.Softening
	selfR2 := SelfEpsilon * SelfEpsilon
	px, py := pr.at.X, pr.at.Y

	add := func(q, dx, dy, d2 float64) {
		rr := math.Max(d2, pr.minR2) + eps2
		if rr == 0 {
			return
		}
		r := math.Sqrt(rr)
		s := pr.k * q / r
		phi += s
		s /= rr
		e.X += s * dx
		e.Y += s * dy
	}

	t.walk(func(_ int, n *Node) bool {
		if n.Bodies.Empty() {
			return false
		}

		if pr.mayApprox(n) {
			dx, dy := px-n.Pos.X, py-n.Pos.Y
			d2 := dx*dx + dy*dy
			if n.Quad.Size*n.Quad.Size < d2*theta2 {
				add(n.Charge, dx, dy, d2)
				return false
			}
		}

		if n.Children != 0 {
			return true
		}

		hi := min(n.Bodies.Hi, len(bodies))
		for i := n.Bodies.Lo; i < hi; i++ {
			b := &bodies[i]
			if !b.Finite() || (len(pr.excluded) > 0 && pr.isExcluded(i)) {
				continue
			}
			dx, dy := px-b.Pos.X, py-b.Pos.Y
			d2 := dx*dx + dy*dy
			if pr.skipSelf && d2 < selfR2 {
				continue
			}
			add(b.Charge, dx, dy, d2)
		}
		return false
	})

	return phi, e
}

// ForceAt returns the Coulomb force on a probe charge q at p, in units where
// the Coulomb constant is 1. Sources closer than SelfEpsilon are skipped, so
// a body may query its own position.
func (t *Tree) ForceAt(p r2.Vec, q float64, bodies []dynamo.Body) r2.Vec {
	_, e := t.accumulate(probe{at: p, k: 1, skipSelf: true}, bodies)
	return r2.Scale(q, e)
}

// FieldAt is ForceAt with a unit probe charge.
func (t *Tree) FieldAt(p r2.Vec, bodies []dynamo.Body) r2.Vec {
	return t.ForceAt(p, 1, bodies)
}

// PotentialAndFieldAt returns the potential Σ kE·q/r and field Σ kE·q·r̂/r²
// at p in a single pass. Separations are clamped below at radius before
// softening. Bodies whose indices appear in excluded contribute nothing;
// indices outside the body array are ignored.
func (t *Tree) PotentialAndFieldAt(p r2.Vec, radius, kE float64, bodies []dynamo.Body, excluded []int) (float64, r2.Vec) {
	return t.accumulate(probe{
		at:       p,
		k:        kE,
		minR2:    radius * radius,
		excluded: excluded,
	}, bodies)
}

func (t *Tree) PotentialAt(p r2.Vec, radius, kE float64, bodies []dynamo.Body, excluded []int) float64 {
	phi, _ := t.PotentialAndFieldAt(p, radius, kE, bodies, excluded)
	return phi
}

func (t *Tree) FieldAtExcluding(p r2.Vec, radius, kE float64, bodies []dynamo.Body, excluded []int) r2.Vec {
	_, e := t.PotentialAndFieldAt(p, radius, kE, bodies, excluded)
	return e
}
