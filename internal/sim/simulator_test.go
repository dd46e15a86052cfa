package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
	"github.com/san-kum/electrosim/internal/integrators"
	"github.com/san-kum/electrosim/internal/physics"
	"github.com/san-kum/electrosim/internal/quadtree"
	"github.com/san-kum/electrosim/internal/sim"
)

type countingMetric struct {
	count int
}

func (m *countingMetric) Name() string                       { return "count" }
func (m *countingMetric) Observe(_ []dynamo.Body, _ float64) { m.count++ }
func (m *countingMetric) Value() float64                     { return float64(m.count) }
func (m *countingMetric) Reset()                             { m.count = 0 }

type poison struct{ after, calls int }

func (p *poison) Accelerations(bodies []dynamo.Body) {
	p.calls++
	for i := range bodies {
		bodies[i].Acc = r2.Vec{}
		if p.calls > p.after {
			bodies[i].Acc.X = math.Inf(1)
		}
	}
}

// metered counts energy evaluations on top of a real Coulomb forcer.
type metered struct {
	*physics.Coulomb
	energyCalls int
}

func (m *metered) Energy(bodies []dynamo.Body) float64 {
	m.energyCalls++
	return m.Coulomb.Energy(bodies)
}

func pair() []dynamo.Body {
	return []dynamo.Body{
		{ID: 1, Pos: r2.Vec{X: -1}, Vel: r2.Vec{Y: 0.5}, Charge: 1, Mass: 1},
		{ID: 2, Pos: r2.Vec{X: 1}, Vel: r2.Vec{Y: -0.5}, Charge: -1, Mass: 1},
	}
}

var _ = Describe("Simulator", func() {
	var (
		coulomb *physics.Coulomb
		s       *sim.Simulator
	)

	BeforeEach(func() {
		coulomb = physics.NewCoulomb(1, quadtree.DefaultParams())
		s = sim.New(coulomb, integrators.NewLeapfrog())
	})

	It("rejects invalid configurations", func() {
		for _, cfg := range []sim.Config{
			{Dt: 0, Steps: 10},
			{Dt: -0.1, Steps: 10},
			{Dt: math.NaN(), Steps: 10},
			{Dt: 0.1, Steps: 0},
			{Dt: 0.1, Steps: 10, EnergyEvery: -1},
		} {
			_, err := s.Run(context.Background(), pair(), cfg)
			Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue(), "config %+v", cfg)
		}
	})

	It("records energy and leaves the input untouched", func() {
		initial := pair()
		res, err := s.Run(context.Background(), initial, sim.Config{Dt: 0.001, Steps: 200, EnergyEvery: 10})
		Expect(err).NotTo(HaveOccurred())

		Expect(res.StepsTaken).To(Equal(200))
		Expect(res.Times).To(HaveLen(21))
		Expect(res.Energies).To(HaveLen(21))
		Expect(res.Times[20]).To(BeNumerically("~", 0.2, 1e-12))
		Expect(res.Final).To(HaveLen(2))
		Expect(initial).To(Equal(pair()))
	})

	It("evaluates energy once per recorded sample", func() {
		f := &metered{Coulomb: physics.NewCoulomb(1, quadtree.DefaultParams())}
		res, err := sim.New(f, integrators.NewLeapfrog()).Run(context.Background(), pair(), sim.Config{Dt: 0.01, Steps: 10, EnergyEvery: 5})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Energies).To(HaveLen(3))
		Expect(f.energyCalls).To(Equal(3))
		Expect(res.EnergyDrift).To(BeNumerically("~", math.Abs(res.Energies[2]-res.Energies[0])/math.Abs(res.Energies[0]), 1e-15))
	})

	It("conserves energy for a bound pair", func() {
		res, err := s.Run(context.Background(), pair(), sim.Config{Dt: 1e-3, Steps: 2000})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.EnergyDrift).To(BeNumerically("<", 1e-3))
	})

	It("feeds every step to metrics and observers", func() {
		m := &countingMetric{}
		obs := &countingMetric{}
		s.AddMetric(m)
		s.AddObserver(observerFunc(func([]dynamo.Body, float64) { obs.count++ }))

		res, err := s.Run(context.Background(), pair(), sim.Config{Dt: 0.01, Steps: 25})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Metrics).To(HaveKeyWithValue("count", 25.0))
		Expect(obs.count).To(Equal(25))
	})

	It("stops on cancellation with a partial result", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res, err := s.Run(ctx, pair(), sim.Config{Dt: 0.01, Steps: 100})
		Expect(errors.Is(err, dynamo.ErrContextCanceled)).To(BeTrue())
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(res).NotTo(BeNil())
		Expect(res.StepsTaken).To(Equal(0))
	})

	It("aborts when the state becomes invalid", func() {
		bad := sim.New(&poison{after: 3}, integrators.NewEuler())
		res, err := bad.Run(context.Background(), pair(), sim.Config{Dt: 0.01, Steps: 100, ValidateState: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StepsTaken).To(Equal(2))
		Expect(res.Errors).To(HaveLen(1))

		var simErr *dynamo.SimulationError
		Expect(errors.As(res.Errors[0], &simErr)).To(BeTrue())
		Expect(simErr.Step).To(Equal(2))
		Expect(errors.Is(simErr, dynamo.ErrInvalidState)).To(BeTrue())
	})

	It("stops early when the callback says so", func() {
		seen := 0
		err := s.RunWithCallback(context.Background(), pair(), sim.Config{Dt: 0.01, Steps: 100}, func(_ []dynamo.Body, _ float64) bool {
			seen++
			return seen < 5
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(seen).To(Equal(5))
	})
})

var _ = Describe("Ensemble", func() {
	It("runs independent members concurrently", func() {
		member := func(idx int) (*sim.Simulator, []dynamo.Body, error) {
			bodies := pair()
			bodies[0].Vel.Y += 0.1 * float64(idx)
			c := physics.NewCoulomb(1, quadtree.DefaultParams())
			return sim.New(c, integrators.NewLeapfrog()), bodies, nil
		}

		results, err := sim.NewEnsemble(member, 6).Run(context.Background(), sim.Config{Dt: 1e-3, Steps: 100})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(6))
		for _, r := range results {
			Expect(r.StepsTaken).To(Equal(100))
		}
		Expect(results[0].Energies[0]).NotTo(Equal(results[5].Energies[0]))
	})

	It("returns the first member failure", func() {
		boom := errors.New("boom")
		member := func(idx int) (*sim.Simulator, []dynamo.Body, error) {
			if idx == 2 {
				return nil, nil, boom
			}
			c := physics.NewCoulomb(1, quadtree.DefaultParams())
			return sim.New(c, integrators.NewEuler()), pair(), nil
		}

		e := sim.NewEnsemble(member, 4)
		e.SetLimit(2)
		_, err := e.Run(context.Background(), sim.Config{Dt: 1e-3, Steps: 10})
		Expect(err).To(MatchError(boom))
	})
})

type observerFunc func([]dynamo.Body, float64)

func (f observerFunc) OnStep(b []dynamo.Body, t float64) { f(b, t) }
