package quadtree

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
)

// randomBodies scatters n unit-mass bodies over the unit square. When mixed
// is false every charge is positive.
func randomBodies(n int, seed uint64, mixed bool) []dynamo.Body {
	rng := rand.New(rand.NewSource(seed))
	bodies := make([]dynamo.Body, n)
	for i := range bodies {
		q := 0.5 + rng.Float64()
		if mixed && rng.Intn(2) == 0 {
			q = -q
		}
		bodies[i] = dynamo.Body{
			ID:     uint64(i),
			Pos:    r2.Vec{X: rng.Float64(), Y: rng.Float64()},
			Charge: q,
			Mass:   1,
		}
	}
	return bodies
}

func clone(bodies []dynamo.Body) []dynamo.Body {
	return append([]dynamo.Body(nil), bodies...)
}

// directField sums the softened field at p over every finite body, skipping
// sources at the probe point the same way ForceAt does.
func directField(p r2.Vec, bodies []dynamo.Body, eps float64) r2.Vec {
	var e r2.Vec
	for i := range bodies {
		b := &bodies[i]
		if !b.Finite() {
			continue
		}
		d := r2.Sub(p, b.Pos)
		d2 := r2.Dot(d, d)
		if d2 < SelfEpsilon*SelfEpsilon {
			continue
		}
		r2s := d2 + eps*eps
		e = r2.Add(e, r2.Scale(b.Charge/(r2s*math.Sqrt(r2s)), d))
	}
	return e
}

// checkStructure verifies the range and capacity invariants of a built tree
// and returns the number of bodies found in leaves.
func checkStructure(t interface{ Errorf(string, ...any) }, tr *Tree, leafCap int, strictCap bool) int {
	nodes := tr.Nodes()
	inLeaves := 0
	for h := range nodes {
		n := &nodes[h]
		if n.IsLeaf() {
			inLeaves += n.Bodies.Len()
			if strictCap && n.Bodies.Len() > leafCap {
				t.Errorf("leaf %d holds %d bodies, capacity %d", h, n.Bodies.Len(), leafCap)
			}
			continue
		}
		c := n.Children
		if nodes[c].Bodies.Lo != n.Bodies.Lo || nodes[c+3].Bodies.Hi != n.Bodies.Hi {
			t.Errorf("node %d range %v not covered by children", h, n.Bodies)
		}
		for k := 0; k < 3; k++ {
			if nodes[c+k].Bodies.Hi != nodes[c+k+1].Bodies.Lo {
				t.Errorf("node %d children %d and %d are not contiguous", h, k, k+1)
			}
		}
	}
	return inLeaves
}
