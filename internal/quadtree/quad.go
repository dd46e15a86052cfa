package quadtree

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
)

// Quad is an axis-aligned square: a center and a full side length.
type Quad struct {
	Center r2.Vec
	Size   float64
}

// Containing returns the smallest square enclosing every finite body
// position. An empty set, or one with no finite positions, yields the zero Quad.
func Containing(bodies []dynamo.Body) Quad {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	found := false

	for i := range bodies {
		p := bodies[i].Pos
		if !dynamo.VecFinite(p) {
			continue
		}
		found = true
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}

	if !found {
		return Quad{}
	}

	return Quad{
		Center: r2.Vec{X: (minX + maxX) / 2, Y: (minY + maxY) / 2},
		Size:   math.Max(maxX-minX, maxY-minY),
	}
}

// Subdivide splits q into four equal quadrants ordered
// (-x,-y), (+x,-y), (-x,+y), (+x,+y).
func (q Quad) Subdivide() [4]Quad {
	half := q.Size / 2
	off := q.Size / 4

	var out [4]Quad
	for k := range out {
		c := q.Center
		if k&1 == 0 {
			c.X -= off
		} else {
			c.X += off
		}
		if k&2 == 0 {
			c.Y -= off
		} else {
			c.Y += off
		}
		out[k] = Quad{Center: c, Size: half}
	}
	return out
}

// Quadrant returns the index into Subdivide's result that p falls in.
// Points on a dividing line belong to the positive side.
func (q Quad) Quadrant(p r2.Vec) int {
	k := 0
	if !(p.X < q.Center.X) {
		k |= 1
	}
	if !(p.Y < q.Center.Y) {
		k |= 2
	}
	return k
}

func (q Quad) Box() r2.Box {
	h := q.Size / 2
	return r2.Box{
		Min: r2.Vec{X: q.Center.X - h, Y: q.Center.Y - h},
		Max: r2.Vec{X: q.Center.X + h, Y: q.Center.Y + h},
	}
}

// DistanceSquared is the squared distance from p to the nearest point of
// the square, zero when p lies inside.
func (q Quad) DistanceSquared(p r2.Vec) float64 {
	h := q.Size / 2
	dx := math.Max(math.Abs(p.X-q.Center.X)-h, 0)
	dy := math.Max(math.Abs(p.Y-q.Center.Y)-h, 0)
	return dx*dx + dy*dy
}
