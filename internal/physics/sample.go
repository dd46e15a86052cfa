package physics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
	"github.com/san-kum/electrosim/internal/quadtree"
)

// Grid holds potential and field samples on a regular lattice, row-major
// with y rows of x columns.
type Grid struct {
	Bounds    r2.Box
	NX, NY    int
	Potential []float64
	Field     []r2.Vec
}

func (g *Grid) At(ix, iy int) (float64, r2.Vec) {
	k := iy*g.NX + ix
	return g.Potential[k], g.Field[k]
}

// Point returns the sample position of lattice cell (ix, iy).
func (g *Grid) Point(ix, iy int) r2.Vec {
	return r2.Vec{
		X: lerp(g.Bounds.Min.X, g.Bounds.Max.X, ix, g.NX),
		Y: lerp(g.Bounds.Min.Y, g.Bounds.Max.Y, iy, g.NY),
	}
}

func lerp(lo, hi float64, i, n int) float64 {
	if n < 2 {
		return (lo + hi) / 2
	}
	return lo + (hi-lo)*float64(i)/float64(n-1)
}

// SampleGrid evaluates the tree on an nx by ny lattice spanning bounds.
func SampleGrid(tree *quadtree.Tree, bodies []dynamo.Body, bounds r2.Box, nx, ny int, radius, kE float64) *Grid {
	if nx < 1 || ny < 1 {
		return &Grid{Bounds: bounds}
	}
	g := &Grid{
		Bounds:    bounds,
		NX:        nx,
		NY:        ny,
		Potential: make([]float64, nx*ny),
		Field:     make([]r2.Vec, nx*ny),
	}

	dynamo.ParallelFor(ny, 4, func(lo, hi int) {
		for iy := lo; iy < hi; iy++ {
			for ix := 0; ix < nx; ix++ {
				k := iy*nx + ix
				g.Potential[k], g.Field[k] = tree.PotentialAndFieldAt(g.Point(ix, iy), radius, kE, bodies, nil)
			}
		}
	})
	return g
}

// SampleLine evaluates the potential at n evenly spaced points from a to b
// and returns the distance of each point from a alongside its value.
func SampleLine(tree *quadtree.Tree, bodies []dynamo.Body, a, b r2.Vec, n int, radius, kE float64) (dist, phi []float64) {
	if n < 2 {
		return nil, nil
	}
	dist = floats.Span(make([]float64, n), 0, r2.Norm(r2.Sub(b, a)))
	ts := floats.Span(make([]float64, n), 0, 1)
	phi = make([]float64, n)
	for i, t := range ts {
		p := r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
		phi[i] = tree.PotentialAt(p, radius, kE, bodies, nil)
	}
	return dist, phi
}
