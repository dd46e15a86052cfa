package quadtree

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Range is a half-open interval of body indices.
type Range struct {
	Lo, Hi int
}

func (r Range) Len() int            { return r.Hi - r.Lo }
func (r Range) Empty() bool         { return r.Hi <= r.Lo }
func (r Range) Contains(i int) bool { return i >= r.Lo && i < r.Hi }

func (r Range) containsAny(idx []int) bool {
	for _, i := range idx {
		if r.Contains(i) {
			return true
		}
	}
	return false
}

// Node is one arena record.
type Node struct {
	Quad   Quad
	Mass   float64
	Charge float64
	// Pos is the representative point the aggregate charge is placed at.
	Pos    r2.Vec
	Bodies Range
	// Children is the first of four consecutive child handles, 0 for a leaf.
	Children int
	// Next is where a preorder walk resumes after this subtree, 0 at the end.
	Next int
}

func (n *Node) IsLeaf() bool { return n.Children == 0 }

// moments accumulates the sums behind a node's aggregates.
type moments struct {
	mass, charge float64
	qx, qy       float64
	mx, my       float64
	cx, cy       float64
	count        int
}

func (m *moments) add(p r2.Vec, mass, charge float64, count int) {
	if count == 0 {
		return
	}
	m.mass += mass
	m.charge += charge
	m.qx += charge * p.X
	m.qy += charge * p.Y
	m.mx += mass * p.X
	m.my += mass * p.Y
	m.cx += float64(count) * p.X
	m.cy += float64(count) * p.Y
	m.count += count
}

func (m *moments) merge(o *moments) {
	m.mass += o.mass
	m.charge += o.charge
	m.qx += o.qx
	m.qy += o.qy
	m.mx += o.mx
	m.my += o.my
	m.cx += o.cx
	m.cy += o.cy
	m.count += o.count
}

// position applies the charge, mass, centroid fallback chain.
func (m *moments) position() r2.Vec {
	switch {
	case math.Abs(m.charge) > ChargeEpsilon:
		return r2.Vec{X: m.qx / m.charge, Y: m.qy / m.charge}
	case m.mass > MassEpsilon:
		return r2.Vec{X: m.mx / m.mass, Y: m.my / m.mass}
	case m.count > 0:
		n := float64(m.count)
		return r2.Vec{X: m.cx / n, Y: m.cy / n}
	}
	return r2.Vec{}
}

func (m *moments) store(n *Node) {
	n.Mass = m.mass
	n.Charge = m.charge
	n.Pos = m.position()
}
