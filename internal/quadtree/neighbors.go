package quadtree

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
)

// NeighborsWithin returns the indices of all bodies within radius of p.
func (t *Tree) NeighborsWithin(p r2.Vec, radius float64, bodies []dynamo.Body) []int {
	return t.AppendNeighbors(nil, p, radius, bodies, -1)
}

// NeighborsOf returns the indices of all bodies within radius of body i,
// excluding i itself. An index outside the body array yields nil.
func (t *Tree) NeighborsOf(i int, radius float64, bodies []dynamo.Body) []int {
	if i < 0 || i >= len(bodies) {
		return nil
	}
	return t.AppendNeighbors(nil, bodies[i].Pos, radius, bodies, i)
}

// AppendNeighbors appends to dst the indices of bodies within radius of p,
// skipping index self (pass -1 to skip nothing).
//
// Subtrees are pruned by the distance from p to their square, not to their
// representative position, which is charge-weighted and may lie well
// outside the bodies it stands for. The squares are widened by a slack
// scaled to the root, since child bounds are derived by repeated halving and
// a body on an edge can sit an ulp outside its own node.
func (t *Tree) AppendNeighbors(dst []int, p r2.Vec, radius float64, bodies []dynamo.Body, self int) []int {
	if len(t.nodes) == 0 || !(radius >= 0) || !dynamo.VecFinite(p) {
		return dst
	}
	rr := radius * radius
	root := t.nodes[0].Quad
	reach := radius + edgeSlack*(root.Size+math.Abs(root.Center.X)+math.Abs(root.Center.Y))
	reach2 := reach * reach

	t.walk(func(_ int, n *Node) bool {
		if n.Bodies.Empty() || n.Quad.DistanceSquared(p) > reach2 {
			return false
		}
		if n.Children != 0 {
			return true
		}

		hi := min(n.Bodies.Hi, len(bodies))
		for i := n.Bodies.Lo; i < hi; i++ {
			if i == self {
				continue
			}
			dx, dy := p.X-bodies[i].Pos.X, p.Y-bodies[i].Pos.Y
			if dx*dx+dy*dy <= rr {
				dst = append(dst, i)
			}
		}
		return false
	})

	return dst
}
