package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
	"github.com/san-kum/electrosim/internal/physics"
	"github.com/san-kum/electrosim/internal/quadtree"
)

// ClusterCount tracks how many groups of bodies sit closer than a contact
// radius. It keeps its own tree, so observing reorders the bodies.
type ClusterCount struct {
	name    string
	radius  float64
	tree    *quadtree.Tree
	last    int
	largest int
}

func NewClusterCount(radius float64, p quadtree.Params) *ClusterCount {
	return &ClusterCount{
		name:   "clusters",
		radius: radius,
		tree:   quadtree.New(p),
	}
}

func (c *ClusterCount) Name() string { return c.name }

func (c *ClusterCount) Observe(bodies []dynamo.Body, t float64) {
	c.tree.Build(bodies)
	groups := physics.Clusters(c.tree, bodies, c.radius)
	c.last = len(groups)
	if len(groups) > 0 {
		c.largest = max(c.largest, len(groups[0]))
	}
}

// Value is the cluster count at the latest observation.
func (c *ClusterCount) Value() float64 { return float64(c.last) }

// Largest is the biggest cluster seen since the last reset.
func (c *ClusterCount) Largest() int { return c.largest }

func (c *ClusterCount) Reset() {
	c.last = 0
	c.largest = 0
}

// MaxField is the strongest field magnitude felt by any charged, mobile
// body, recovered from the accelerations the forcer stored.
type MaxField struct {
	name string
	k    float64
	peak float64
}

// NewMaxField reports fields in units where the Coulomb constant is k.
func NewMaxField(k float64) *MaxField {
	return &MaxField{name: "max_field", k: k}
}

func (m *MaxField) Name() string { return m.name }

func (m *MaxField) Observe(bodies []dynamo.Body, t float64) {
	for i := range bodies {
		b := &bodies[i]
		if b.Mass <= 0 || b.Charge == 0 || m.k == 0 || !dynamo.VecFinite(b.Acc) {
			continue
		}
		// Acc = k·q·E/m
		mag := b.Mass * r2.Norm(b.Acc) / math.Abs(m.k*b.Charge)
		m.peak = math.Max(m.peak, mag)
	}
}

func (m *MaxField) Value() float64 { return m.peak }
func (m *MaxField) Reset()         { m.peak = 0 }
