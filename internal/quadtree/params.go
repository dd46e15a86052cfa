package quadtree

import "runtime"

const (
	DefaultTheta          = 0.5
	DefaultSoftening      = 0.01
	DefaultLeafCapacity   = 8
	DefaultThreadCapacity = 4096

	// MaxDepth bounds subdivision independently of the size floor.
	MaxDepth = 48

	// ChargeEpsilon is the |net charge| below which a node's representative
	// position falls back to mass weighting.
	ChargeEpsilon = 1e-9

	// MassEpsilon is the total mass below which the fallback is the plain centroid.
	MassEpsilon = 1e-12

	// SelfEpsilon is the separation below which a source body is taken to be
	// the query point itself by ForceAt.
	SelfEpsilon = 1e-9

	// relSizeFloor and absSizeFloor define the smallest quad that is still split,
	// relative to the root and in absolute units.
	relSizeFloor = 1e-12
	absSizeFloor = 1e-12

	// edgeSlack widens square distance checks, relative to the root's extent,
	// so rounding in derived child centers cannot shut out a body on an edge.
	edgeSlack = 1e-12
)

// Params configures tree construction and evaluation.
type Params struct {
	// Theta is the opening angle: a node is approximated when size/distance < Theta.
	Theta float64
	// Softening is added in quadrature to every separation.
	Softening float64
	// LeafCapacity is the largest body count a node holds without being split.
	LeafCapacity int
	// ThreadCapacity is the smallest range handed to the parallel work queue.
	ThreadCapacity int
	// Workers is the construction pool size; 0 means GOMAXPROCS.
	Workers int
}

func DefaultParams() Params {
	return Params{
		Theta:          DefaultTheta,
		Softening:      DefaultSoftening,
		LeafCapacity:   DefaultLeafCapacity,
		ThreadCapacity: DefaultThreadCapacity,
	}
}

func (p Params) normalized() Params {
	if p.Theta < 0 {
		p.Theta = 0
	}
	if p.Softening < 0 {
		p.Softening = -p.Softening
	}
	if p.LeafCapacity < 1 {
		p.LeafCapacity = 1
	}
	if p.ThreadCapacity < 1 {
		p.ThreadCapacity = DefaultThreadCapacity
	}
	if p.Workers <= 0 {
		p.Workers = runtime.GOMAXPROCS(0)
	}
	return p
}
