package quadtree

// thread fills in Next handles. Children always have larger handles than
// their parent, so one ascending pass sees every parent before its children.
func (t *Tree) thread() {
	nodes := t.nodes
	nodes[0].Next = 0
	for i := range nodes {
		c := nodes[i].Children
		if c == 0 {
			continue
		}
		for k := 0; k < 3; k++ {
			nodes[c+k].Next = c + k + 1
		}
		nodes[c+3].Next = nodes[i].Next
	}
}

// propagate computes internal aggregates from their children, visiting
// handles in descending order so children are final before their parent.
// Leaves were finalized during construction. Parents add up the raw sums in
// t.sums rather than the children's representative points, since those may
// be charge-weighted while the parent falls back to mass or centroid.
func (t *Tree) propagate() {
	nodes := t.nodes
	sums := t.sums[:len(nodes)]
	for i := len(nodes) - 1; i >= 0; i-- {
		nd := &nodes[i]
		if nd.Children == 0 {
			continue
		}

		m := &sums[i]
		*m = moments{}
		for k := 0; k < 4; k++ {
			m.merge(&sums[nd.Children+k])
		}
		m.store(nd)
	}
}
