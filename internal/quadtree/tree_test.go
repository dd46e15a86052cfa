package quadtree

import (
	"math"
	"sort"
	"sync"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
	"github.com/san-kum/electrosim/internal/telemetry"
)

func TestBuildEmpty(t *testing.T) {
	g := NewWithT(t)

	tr := New(DefaultParams())
	tr.Build(nil)

	g.Expect(tr.Len()).To(Equal(0))
	g.Expect(tr.Root()).To(BeNil())
	g.Expect(tr.Depth()).To(Equal(0))
	g.Expect(tr.Leaves()).To(BeEmpty())
	g.Expect(tr.ForceAt(r2.Vec{X: 1}, 1, nil)).To(Equal(r2.Vec{}))
	g.Expect(tr.NeighborsWithin(r2.Vec{}, 10, nil)).To(BeEmpty())
	g.Expect(tr.NeighborsOf(0, 10, nil)).To(BeNil())

	phi, e := tr.PotentialAndFieldAt(r2.Vec{X: 1}, 0, 1, nil, []int{0})
	g.Expect(phi).To(BeZero())
	g.Expect(e).To(Equal(r2.Vec{}))

	// rebuilding after a populated build empties the tree again
	tr.Build(randomBodies(50, 1, true))
	tr.Build(nil)
	g.Expect(tr.Len()).To(Equal(0))
	g.Expect(tr.BodyCount()).To(Equal(0))

	// a tree that was never built answers the same way
	g.Expect(New(DefaultParams()).FieldAt(r2.Vec{}, nil)).To(Equal(r2.Vec{}))
}

func TestBuildSingleBody(t *testing.T) {
	g := NewWithT(t)
	bodies := []dynamo.Body{{Pos: r2.Vec{X: 3, Y: -1}, Charge: 2, Mass: 5}}

	tr := New(DefaultParams())
	tr.Build(bodies)

	g.Expect(tr.Len()).To(Equal(1))
	root := tr.Root()
	g.Expect(root.IsLeaf()).To(BeTrue())
	g.Expect(root.Charge).To(Equal(2.0))
	g.Expect(root.Mass).To(Equal(5.0))
	g.Expect(root.Pos).To(Equal(r2.Vec{X: 3, Y: -1}))
	g.Expect(root.Next).To(Equal(0))
}

func TestLeafCapacityAndRanges(t *testing.T) {
	for _, leafCap := range []int{1, 4, 8, 32} {
		bodies := randomBodies(3000, 7, true)
		p := DefaultParams()
		p.LeafCapacity = leafCap
		tr := New(p)
		tr.Build(bodies)

		if got := checkStructure(t, tr, leafCap, true); got != len(bodies) {
			t.Errorf("leafCap=%d: leaves hold %d bodies, want %d", leafCap, got, len(bodies))
		}

		// every body lies inside the quad of the leaf that owns it
		for _, h := range tr.Leaves() {
			n := tr.Nodes()[h]
			for i := n.Bodies.Lo; i < n.Bodies.Hi; i++ {
				if d := n.Quad.DistanceSquared(bodies[i].Pos); d > 1e-24 {
					t.Fatalf("body %d lies %v outside its leaf", i, math.Sqrt(d))
				}
			}
		}
	}
}

func TestBuildPreservesBodies(t *testing.T) {
	bodies := randomBodies(1000, 3, true)
	before := dynamo.Bodies(bodies).TotalCharge()

	tr := New(DefaultParams())
	tr.Build(bodies)

	ids := make([]int, len(bodies))
	for i := range bodies {
		ids[i] = int(bodies[i].ID)
	}
	sort.Ints(ids)
	for i, id := range ids {
		if id != i {
			t.Fatalf("body ids after build are not a permutation: position %d holds %d", i, id)
		}
	}

	g := NewWithT(t)
	g.Expect(tr.Root().Charge).To(BeNumerically("~", before, 1e-9))
	g.Expect(tr.Root().Mass).To(BeNumerically("~", 1000, 1e-9))
}

func TestThreadedWalkVisitsEveryNode(t *testing.T) {
	bodies := randomBodies(2000, 11, false)
	tr := New(DefaultParams())
	tr.Build(bodies)

	seen := make([]bool, tr.Len())
	tr.walk(func(h int, _ *Node) bool {
		if seen[h] {
			t.Fatalf("node %d visited twice", h)
		}
		seen[h] = true
		return true
	})
	for h, ok := range seen {
		if !ok {
			t.Errorf("node %d never visited", h)
		}
	}
}

func TestAggregatesMatchChildren(t *testing.T) {
	g := NewWithT(t)
	bodies := randomBodies(2000, 5, false)
	tr := New(DefaultParams())
	tr.Build(bodies)

	nodes := tr.Nodes()
	for h := range nodes {
		n := &nodes[h]
		var q, m float64
		var qp r2.Vec
		for i := n.Bodies.Lo; i < n.Bodies.Hi; i++ {
			q += bodies[i].Charge
			m += bodies[i].Mass
			qp = r2.Add(qp, r2.Scale(bodies[i].Charge, bodies[i].Pos))
		}
		g.Expect(n.Charge).To(BeNumerically("~", q, 1e-9))
		g.Expect(n.Mass).To(BeNumerically("~", m, 1e-9))
		if n.Bodies.Empty() {
			continue
		}
		g.Expect(n.Pos.X).To(BeNumerically("~", qp.X/q, 1e-9))
		g.Expect(n.Pos.Y).To(BeNumerically("~", qp.Y/q, 1e-9))
	}
}

func TestRepresentativeFallback(t *testing.T) {
	tests := []struct {
		name   string
		bodies []dynamo.Body
		want   r2.Vec
	}{
		{
			name: "charge weighted",
			bodies: []dynamo.Body{
				{Pos: r2.Vec{X: 0}, Charge: 3, Mass: 1},
				{Pos: r2.Vec{X: 4}, Charge: 1, Mass: 1},
			},
			want: r2.Vec{X: 1},
		},
		{
			name: "neutral falls back to mass",
			bodies: []dynamo.Body{
				{Pos: r2.Vec{X: 0}, Charge: 1, Mass: 1},
				{Pos: r2.Vec{X: 4}, Charge: -1, Mass: 3},
			},
			want: r2.Vec{X: 3},
		},
		{
			name: "massless neutral falls back to centroid",
			bodies: []dynamo.Body{
				{Pos: r2.Vec{X: 0, Y: 2}},
				{Pos: r2.Vec{X: 4, Y: 0}},
			},
			want: r2.Vec{X: 2, Y: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(DefaultParams())
			tr.Build(tt.bodies)
			if got := tr.Root().Pos; got != tt.want {
				t.Errorf("representative = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNeutralParentOfChargedChildren(t *testing.T) {
	tests := []struct {
		name string
		mass [4]float64
		want r2.Vec
	}{
		{"mass weighted", [4]float64{1, 1, 1, 100}, r2.Vec{X: 1111.0 / 103, Y: 1010.0 / 103}},
		{"centroid", [4]float64{}, r2.Vec{X: 5.5, Y: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			bodies := []dynamo.Body{
				{Pos: r2.Vec{X: 0, Y: 0}, Charge: 1, Mass: tt.mass[0]},
				{Pos: r2.Vec{X: 1, Y: 0}, Charge: 1, Mass: tt.mass[1]},
				{Pos: r2.Vec{X: 10, Y: 10}, Charge: 1, Mass: tt.mass[2]},
				{Pos: r2.Vec{X: 11, Y: 10}, Charge: -3, Mass: tt.mass[3]},
			}
			p := DefaultParams()
			p.LeafCapacity = 2
			tr := New(p)
			tr.Build(bodies)

			root := tr.Root()
			g.Expect(root.IsLeaf()).To(BeFalse())
			g.Expect(root.Charge).To(Equal(0.0))
			g.Expect(root.Pos.X).To(BeNumerically("~", tt.want.X, 1e-12))
			g.Expect(root.Pos.Y).To(BeNumerically("~", tt.want.Y, 1e-12))
		})
	}
}

func TestIdempotentRebuild(t *testing.T) {
	for _, workers := range []int{1, 4} {
		bodies := randomBodies(5000, 13, true)
		p := DefaultParams()
		p.Workers = workers
		p.ThreadCapacity = 256

		tr := New(p)
		tr.Build(bodies)
		first := append([]Node(nil), tr.Nodes()...)

		tr.Build(bodies)
		second := tr.Nodes()

		if len(first) != len(second) {
			t.Fatalf("workers=%d: node count changed from %d to %d", workers, len(first), len(second))
		}
		compareSubtrees(t, first, 0, second, 0)
	}
}

// compareSubtrees walks two trees in lockstep by child order, which is
// stable even when the parallel builder hands out handles in a different order.
func compareSubtrees(t *testing.T, a []Node, ha int, b []Node, hb int) {
	t.Helper()
	na, nb := &a[ha], &b[hb]
	if na.Mass != nb.Mass || na.Charge != nb.Charge || na.Pos != nb.Pos || na.Bodies.Len() != nb.Bodies.Len() {
		t.Fatalf("nodes differ: %+v vs %+v", *na, *nb)
	}
	if na.IsLeaf() != nb.IsLeaf() {
		t.Fatalf("leaf status differs at %v", na.Quad)
	}
	if na.IsLeaf() {
		return
	}
	for k := 0; k < 4; k++ {
		compareSubtrees(t, a, na.Children+k, b, nb.Children+k)
	}
}

func TestCoincidentBodies(t *testing.T) {
	g := NewWithT(t)
	bodies := make([]dynamo.Body, 1000)
	for i := range bodies {
		bodies[i] = dynamo.Body{Pos: r2.Vec{X: 1, Y: 1}, Charge: 1, Mass: 1}
	}

	tr := New(DefaultParams())
	tr.Build(bodies)

	g.Expect(tr.Len()).To(Equal(1))
	g.Expect(tr.Root().Bodies.Len()).To(Equal(1000))
	g.Expect(tr.Root().Charge).To(Equal(1000.0))

	// one outlier forces a split; the cluster still ends in a bounded leaf
	bodies = append(bodies, dynamo.Body{Pos: r2.Vec{X: 2, Y: 2}, Charge: 1, Mass: 1})
	tr.Build(bodies)
	g.Expect(tr.Depth()).To(BeNumerically("<=", MaxDepth+1))
	g.Expect(checkStructure(t, tr, DefaultLeafCapacity, false)).To(Equal(1001))
}

func TestNearlyCoincidentBodies(t *testing.T) {
	g := NewWithT(t)
	bodies := make([]dynamo.Body, 200)
	for i := range bodies {
		bodies[i] = dynamo.Body{Pos: r2.Vec{X: 1 + float64(i)*1e-15, Y: 1}, Charge: 1, Mass: 1}
	}
	bodies = append(bodies, dynamo.Body{Pos: r2.Vec{X: -1, Y: -1}, Charge: 1, Mass: 1})

	tr := New(DefaultParams())
	tr.Build(bodies)

	g.Expect(tr.Depth()).To(BeNumerically("<=", MaxDepth+1))
	g.Expect(checkStructure(t, tr, DefaultLeafCapacity, false)).To(Equal(len(bodies)))
}

func TestNonFiniteBodies(t *testing.T) {
	g := NewWithT(t)
	bodies := randomBodies(300, 17, true)
	bodies[3].Pos.X = math.NaN()
	bodies[50].Pos = r2.Vec{X: math.Inf(1), Y: 0.5}
	bodies[99].Charge = math.NaN()
	for i := 0; i < 20; i++ {
		bodies = append(bodies, dynamo.Body{Pos: r2.Vec{X: math.NaN(), Y: math.NaN()}, Charge: 1, Mass: 1})
	}

	p := DefaultParams()
	p.Theta = 0
	tr := New(p)
	tr.Build(bodies)

	g.Expect(checkStructure(t, tr, DefaultLeafCapacity, false)).To(Equal(len(bodies)))

	// construction trusts its input, so the NaN charge reaches the root
	g.Expect(math.IsNaN(tr.Root().Charge)).To(BeTrue())

	at := r2.Vec{X: 0.25, Y: 0.75}
	want := directField(at, bodies, p.Softening)
	got := tr.FieldAt(at, bodies)
	g.Expect(got.X).To(BeNumerically("~", want.X, 1e-9*(1+math.Abs(want.X))))
	g.Expect(got.Y).To(BeNumerically("~", want.Y, 1e-9*(1+math.Abs(want.Y))))

	tr.SetTheta(0.7)
	g.Expect(dynamo.VecFinite(tr.FieldAt(at, bodies))).To(BeTrue())

	g.Expect(dynamo.VecFinite(tr.FieldAt(r2.Vec{X: math.NaN()}, bodies))).To(BeTrue())
}

func TestParallelBuildMatchesSequential(t *testing.T) {
	g := NewWithT(t)
	src := randomBodies(20000, 19, true)

	seqParams := DefaultParams()
	seqParams.Workers = 1
	seqParams.Theta = 0
	seqBodies := clone(src)
	seq := New(seqParams)
	seq.Build(seqBodies)

	parParams := seqParams
	parParams.Workers = 8
	parParams.ThreadCapacity = 128
	parBodies := clone(src)
	par := New(parParams)
	par.Build(parBodies)

	g.Expect(checkStructure(t, par, parParams.LeafCapacity, true)).To(Equal(len(src)))
	g.Expect(par.Len()).To(Equal(seq.Len()))
	g.Expect(par.Root().Charge).To(BeNumerically("~", seq.Root().Charge, 1e-9))

	for _, at := range []r2.Vec{{X: 0.5, Y: 0.5}, {X: -1, Y: 2}, {X: 0.01, Y: 0.99}} {
		a := seq.FieldAt(at, seqBodies)
		b := par.FieldAt(at, parBodies)
		g.Expect(r2.Norm(r2.Sub(a, b))).To(BeNumerically("<", 1e-9*(1+r2.Norm(a))))
	}
}

func TestArenaGrowth(t *testing.T) {
	g := NewWithT(t)
	rng := rand.New(rand.NewSource(23))

	// tight pairs need tens of levels each, far beyond the initial estimate
	var bodies []dynamo.Body
	for i := 0; i < 200; i++ {
		p := r2.Vec{X: rng.Float64(), Y: rng.Float64()}
		bodies = append(bodies,
			dynamo.Body{Pos: p, Charge: 1, Mass: 1},
			dynamo.Body{Pos: r2.Add(p, r2.Vec{X: 1e-10}), Charge: -0.5, Mass: 1},
		)
	}

	before := counterValue(telemetry.ArenaGrowths)

	p := DefaultParams()
	p.LeafCapacity = 1
	tr := New(p)
	tr.Build(bodies)

	g.Expect(counterValue(telemetry.ArenaGrowths)).To(BeNumerically(">", before))
	g.Expect(tr.Len()).To(BeNumerically(">", estimateNodes(len(bodies), 1)))
	g.Expect(checkStructure(t, tr, 1, true)).To(Equal(len(bodies)))
	g.Expect(tr.Root().Charge).To(BeNumerically("~", 100, 1e-9))
}

func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func TestConcurrentTrees(t *testing.T) {
	src := randomBodies(6000, 29, true)
	at := r2.Vec{X: 0.3, Y: 0.6}

	ref := clone(src)
	refTree := New(DefaultParams())
	refTree.Build(ref)
	want := refTree.FieldAt(at, ref)

	var wg sync.WaitGroup
	results := make([]r2.Vec, 6)
	for w := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := DefaultParams()
			p.ThreadCapacity = 512
			p.Workers = 3
			bodies := clone(src)
			tr := New(p)
			for i := 0; i < 3; i++ {
				tr.Build(bodies)
			}
			results[w] = tr.FieldAt(at, bodies)
		}()
	}
	wg.Wait()

	for w, got := range results {
		if d := r2.Norm(r2.Sub(got, want)); d > 1e-9*(1+r2.Norm(want)) {
			t.Errorf("tree %d: field %v, want %v", w, got, want)
		}
	}
}
