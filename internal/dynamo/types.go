package dynamo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Species distinguishes the kinds of particle an electrochemistry scenario mixes.
type Species uint8

const (
	Neutral Species = iota
	Ion
	Counterion
	Electron
	Metal
)

func (s Species) String() string {
	switch s {
	case Ion:
		return "ion"
	case Counterion:
		return "counterion"
	case Electron:
		return "electron"
	case Metal:
		return "metal"
	default:
		return "neutral"
	}
}

// Body is a charged point particle.
type Body struct {
	ID      uint64
	Species Species
	Pos     r2.Vec
	Vel     r2.Vec
	Acc     r2.Vec
	Charge  float64
	Mass    float64
	Radius  float64
}

// Finite reports whether the body's position and charge are usable as a field source.
func (b *Body) Finite() bool {
	return IsFinite(b.Pos.X) && IsFinite(b.Pos.Y) && IsFinite(b.Charge)
}

// Bodies is the simulation-owned body array.
type Bodies []Body

func (bs Bodies) Clone() Bodies {
	c := make(Bodies, len(bs))
	copy(c, bs)
	return c
}

func (bs Bodies) IsValid() bool {
	for i := range bs {
		b := &bs[i]
		if !b.Finite() || !IsFinite(b.Vel.X) || !IsFinite(b.Vel.Y) || !IsFinite(b.Mass) {
			return false
		}
	}
	return true
}

func (bs Bodies) TotalCharge() float64 {
	q := 0.0
	for i := range bs {
		q += bs[i].Charge
	}
	return q
}

// IndexByID maps stable identifiers to their current array positions.
func (bs Bodies) IndexByID() map[uint64]int {
	idx := make(map[uint64]int, len(bs))
	for i := range bs {
		idx[bs[i].ID] = i
	}
	return idx
}

// IsFinite reports whether v is neither NaN nor ±Inf.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// VecFinite reports whether both components of v are finite.
func VecFinite(v r2.Vec) bool {
	return IsFinite(v.X) && IsFinite(v.Y)
}

type Hamiltonian interface {
	Energy(bodies []Body) float64
}
