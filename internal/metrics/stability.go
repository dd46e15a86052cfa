package metrics

import (
	"math"

	"github.com/san-kum/electrosim/internal/dynamo"
)

// Stability is the fraction of observed steps in which every body stayed
// inside the square |x|, |y| <= threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(bodies []dynamo.Body, t float64) {
	s.samples++
	for i := range bodies {
		p := bodies[i].Pos
		if !(math.Abs(p.X) <= s.threshold && math.Abs(p.Y) <= s.threshold) {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
