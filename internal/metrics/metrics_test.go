package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
	"github.com/san-kum/electrosim/internal/physics"
	"github.com/san-kum/electrosim/internal/quadtree"
)

type fixedEnergy []float64

func (f *fixedEnergy) Energy([]dynamo.Body) float64 {
	e := (*f)[0]
	*f = (*f)[1:]
	return e
}

func TestEnergyDrift(t *testing.T) {
	h := &fixedEnergy{-2, -2.1, -1.8, -2}
	m := NewEnergyDrift(h)

	for i := 0; i < 4; i++ {
		m.Observe(nil, float64(i))
	}
	if got := m.Value(); math.Abs(got-0.1) > 1e-12 {
		t.Errorf("max drift = %v, want 0.1", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestKinetic(t *testing.T) {
	m := NewKinetic()
	bodies := []dynamo.Body{
		{Vel: r2.Vec{X: 2}, Mass: 1},
		{Vel: r2.Vec{Y: 1}, Mass: 4},
		{Vel: r2.Vec{X: 100}, Mass: 0},
	}

	m.Observe(bodies, 0)
	if got := m.Value(); got != 2 {
		t.Errorf("kinetic = %v, want 2", got)
	}

	m.Reset()
	m.Observe(bodies[2:], 0)
	if m.Value() != 0 {
		t.Error("fixed bodies should not count")
	}
}

func TestStability(t *testing.T) {
	tests := []struct {
		name string
		pos  []r2.Vec
		want float64
	}{
		{"inside", []r2.Vec{{X: 1, Y: -1}}, 1},
		{"on the edge", []r2.Vec{{X: 5, Y: 5}}, 1},
		{"escaped", []r2.Vec{{X: 1}, {X: 6}}, 0},
		{"nan", []r2.Vec{{X: math.NaN()}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStability(5)
			bodies := make([]dynamo.Body, len(tt.pos))
			for i, p := range tt.pos {
				bodies[i].Pos = p
			}
			s.Observe(bodies, 0)
			if got := s.Value(); got != tt.want {
				t.Errorf("Value() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClusterCount(t *testing.T) {
	bodies := []dynamo.Body{
		{Pos: r2.Vec{X: 0}, Charge: 1, Mass: 1},
		{Pos: r2.Vec{X: 0.1}, Charge: -1, Mass: 1},
		{Pos: r2.Vec{X: 0.2}, Charge: 1, Mass: 1},
		{Pos: r2.Vec{X: 5}, Charge: 1, Mass: 1},
		{Pos: r2.Vec{X: 9}, Charge: -1, Mass: 1},
	}

	m := NewClusterCount(0.15, quadtree.DefaultParams())
	m.Observe(bodies, 0)

	if got := m.Value(); got != 3 {
		t.Errorf("clusters = %v, want 3", got)
	}
	if got := m.Largest(); got != 3 {
		t.Errorf("largest = %d, want 3", got)
	}
}

func TestMaxField(t *testing.T) {
	bodies := []dynamo.Body{
		{Pos: r2.Vec{X: 0}, Charge: 2, Mass: 1},
		{Pos: r2.Vec{X: 1}, Charge: 1, Mass: 3},
	}
	p := quadtree.DefaultParams()
	p.Softening = 0
	c := physics.NewCoulomb(0.5, p)
	c.Accelerations(bodies)

	m := NewMaxField(0.5)
	m.Observe(bodies, 0)

	// the unit charge sits in the field of the charge 2 at distance 1
	if got := m.Value(); math.Abs(got-2) > 1e-12 {
		t.Errorf("max field = %v, want 2", got)
	}
}
