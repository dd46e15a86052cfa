package quadtree

import (
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
	"github.com/san-kum/electrosim/internal/telemetry"
)

// builder holds the per-build state. It lives inside the Tree so that
// separate trees never share counters.
type builder struct {
	nodes    []Node
	sums     []moments
	bodies   []dynamo.Body
	params   Params
	minSize  float64
	parallel bool

	slots    atomic.Int64 // next free arena handle
	done     atomic.Int64 // bodies that have reached a finished leaf
	overflow atomic.Bool
	queue    workQueue
}

// Build rebuilds the tree over bodies, reordering them in place. Any
// results obtained from previous queries refer to the old ordering.
func (t *Tree) Build(bodies []dynamo.Body) {
	start := time.Now()
	t.bodies = len(bodies)

	if len(bodies) == 0 {
		t.nodes = t.nodes[:0]
		return
	}

	if need := estimateNodes(len(bodies), t.params.LeafCapacity); cap(t.nodes) < need {
		t.nodes = make([]Node, 0, need)
	}

	mode := "sequential"
	for {
		arena := t.nodes[:cap(t.nodes)]
		if len(t.sums) < len(arena) {
			t.sums = make([]moments, len(arena))
		}
		count, parallel, ok := t.b.run(arena, t.sums[:len(arena)], bodies, t.params)
		if parallel {
			mode = "parallel"
		}
		if ok {
			t.nodes = arena[:count]
			break
		}

		grown := 2 * cap(t.nodes)
		t.log.Debug("arena exhausted, regrowing", "bodies", len(bodies), "capacity", cap(t.nodes), "grown", grown)
		telemetry.ArenaGrowths.Inc()
		t.nodes = make([]Node, 0, grown)
	}

	t.thread()
	t.propagate()

	telemetry.TreeBuilds.WithLabelValues(mode).Inc()
	telemetry.TreeNodes.Set(float64(len(t.nodes)))
	telemetry.TreeBuildDuration.Observe(time.Since(start).Seconds())
}

func estimateNodes(n, leafCap int) int {
	return 1 + 8*(n/leafCap+1)
}

// run builds into arena and reports the node count. ok is false when the
// arena was too small; the arena contents are then unusable.
func (b *builder) run(arena []Node, sums []moments, bodies []dynamo.Body, p Params) (count int, parallel bool, ok bool) {
	root := Containing(bodies)

	b.nodes = arena
	b.sums = sums
	b.bodies = bodies
	b.params = p
	b.minSize = math.Max(root.Size*relSizeFloor, absSizeFloor)
	b.parallel = len(bodies) >= p.ThreadCapacity && p.Workers > 1
	b.slots.Store(1)
	b.done.Store(0)
	b.overflow.Store(false)
	b.queue.reset()

	arena[0] = Node{Quad: root, Bodies: Range{Lo: 0, Hi: len(bodies)}}
	sums[0] = moments{}
	first := task{node: 0}

	if b.parallel {
		b.queue.push(first)
		var wg sync.WaitGroup
		for w := 0; w < p.Workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.work()
			}()
		}
		wg.Wait()
	} else {
		local := []task{first}
		b.drain(&local)
	}

	b.bodies = nil
	b.sums = nil
	if b.overflow.Load() {
		return 0, b.parallel, false
	}
	return int(b.slots.Load()), b.parallel, true
}

// work is one construction worker. It polls the shared queue until every
// body has been placed in a finished leaf; an empty queue alone does not
// mean the build is over, since another worker may be about to push.
func (b *builder) work() {
	total := int64(len(b.bodies))
	var local []task

	for {
		tk, ok := b.queue.pop()
		if !ok {
			if b.done.Load() >= total {
				return
			}
			runtime.Gosched()
			continue
		}
		local = append(local[:0], tk)
		b.drain(&local)
	}
}

// drain processes a local stack depth-first.
func (b *builder) drain(local *[]task) {
	for len(*local) > 0 {
		last := len(*local) - 1
		tk := (*local)[last]
		*local = (*local)[:last]
		b.process(tk, local)
	}
}

func (b *builder) process(tk task, local *[]task) {
	nd := &b.nodes[tk.node]

	if b.isLeaf(nd, tk.depth) {
		b.finishLeaf(tk.node)
		return
	}

	first, ok := b.alloc()
	if !ok {
		b.overflow.Store(true)
		b.finishLeaf(tk.node)
		return
	}

	quads := nd.Quad.Subdivide()
	cuts := b.partition(nd.Bodies, nd.Quad.Center)

	for k := 0; k < 4; k++ {
		h := first + k
		r := Range{Lo: cuts[k], Hi: cuts[k+1]}
		b.nodes[h] = Node{Quad: quads[k], Bodies: r}
		b.sums[h] = moments{}
		if r.Empty() {
			continue
		}

		child := task{node: h, depth: tk.depth + 1}
		if b.parallel && r.Len() >= b.params.ThreadCapacity {
			b.queue.push(child)
		} else {
			*local = append(*local, child)
		}
	}
	nd.Children = first
}

func (b *builder) alloc() (int, bool) {
	end := int(b.slots.Add(4))
	if end > len(b.nodes) {
		return 0, false
	}
	return end - 4, true
}

func (b *builder) isLeaf(nd *Node, depth int) bool {
	if nd.Bodies.Len() <= b.params.LeafCapacity || depth >= MaxDepth {
		return true
	}
	// NaN sizes compare false and land here too
	if !(nd.Quad.Size > b.minSize) || math.IsInf(nd.Quad.Size, 0) {
		return true
	}
	return b.coincident(nd.Bodies)
}

// coincident reports whether every finite position in r lies within the
// size floor of the others. A range with no finite position counts as coincident.
func (b *builder) coincident(r Range) bool {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := r.Lo; i < r.Hi; i++ {
		p := b.bodies[i].Pos
		if !dynamo.VecFinite(p) {
			continue
		}
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	spread := math.Max(maxX-minX, maxY-minY)
	return !(spread > b.minSize)
}

func (b *builder) finishLeaf(h int) {
	nd := &b.nodes[h]
	m := &b.sums[h]
	*m = moments{}
	for i := nd.Bodies.Lo; i < nd.Bodies.Hi; i++ {
		body := &b.bodies[i]
		m.add(body.Pos, body.Mass, body.Charge, 1)
	}
	m.store(nd)
	b.done.Add(int64(nd.Bodies.Len()))
}

// partition reorders r into the four quadrant classes around c and returns
// the five boundaries of the resulting sub-ranges in Subdivide order.
func (b *builder) partition(r Range, c r2.Vec) [5]int {
	mid := r.Lo + splitBelow(b.bodies[r.Lo:r.Hi], c.Y, true)
	m1 := r.Lo + splitBelow(b.bodies[r.Lo:mid], c.X, false)
	m2 := mid + splitBelow(b.bodies[mid:r.Hi], c.X, false)
	return [5]int{r.Lo, m1, mid, m2, r.Hi}
}

// splitBelow moves bodies whose coordinate is below pivot to the front of
// bs and returns how many there are. Non-finite coordinates go to the back.
func splitBelow(bs []dynamo.Body, pivot float64, useY bool) int {
	below := func(b *dynamo.Body) bool {
		if useY {
			return b.Pos.Y < pivot
		}
		return b.Pos.X < pivot
	}

	i, j := 0, len(bs)-1
	for {
		for i <= j && below(&bs[i]) {
			i++
		}
		for i <= j && !below(&bs[j]) {
			j--
		}
		if i >= j {
			return i
		}
		bs[i], bs[j] = bs[j], bs[i]
		i++
		j--
	}
}
