package quadtree

import (
	"log/slog"

	"github.com/san-kum/electrosim/internal/logger"
)

// Tree is a Barnes-Hut quadtree over a body array. The zero value is not
// usable; call New.
type Tree struct {
	params Params
	nodes  []Node
	sums   []moments // per-handle sums behind each node's aggregates
	bodies int
	b      builder
	log    *slog.Logger
}

func New(p Params) *Tree {
	return &Tree{
		params: p.normalized(),
		log:    logger.WithComponent("quadtree"),
	}
}

func (t *Tree) Params() Params { return t.params }

// SetTheta changes the opening angle used by subsequent queries. It must not
// be called concurrently with queries.
func (t *Tree) SetTheta(theta float64) {
	p := t.params
	p.Theta = theta
	t.params = p.normalized()
}

// Len returns the number of live nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// BodyCount returns the body count of the last Build.
func (t *Tree) BodyCount() int { return t.bodies }

// Nodes exposes the arena. Callers must not modify it.
func (t *Tree) Nodes() []Node { return t.nodes }

func (t *Tree) Root() *Node {
	if len(t.nodes) == 0 {
		return nil
	}
	return &t.nodes[0]
}

// Depth returns the length of the longest root-to-leaf path.
func (t *Tree) Depth() int {
	if len(t.nodes) == 0 {
		return 0
	}
	depth := make([]int, len(t.nodes))
	depth[0] = 1
	deepest := 1
	for i := range t.nodes {
		c := t.nodes[i].Children
		if c == 0 {
			continue
		}
		for k := 0; k < 4; k++ {
			depth[c+k] = depth[i] + 1
			deepest = max(deepest, depth[c+k])
		}
	}
	return deepest
}

// Leaves returns the handles of all non-empty leaves in preorder.
func (t *Tree) Leaves() []int {
	var out []int
	t.walk(func(h int, n *Node) bool {
		if n.IsLeaf() && !n.Bodies.Empty() {
			out = append(out, h)
		}
		return true
	})
	return out
}
