package quadtree

// walk visits nodes in preorder by following Children and Next handles.
// visit returns whether to descend into the node's children; leaves and
// declined subtrees continue at Next. No stack is needed.
func (t *Tree) walk(visit func(h int, n *Node) bool) {
	if len(t.nodes) == 0 {
		return
	}

	h := 0
	for {
		n := &t.nodes[h]
		if visit(h, n) && n.Children != 0 {
			h = n.Children
			continue
		}
		h = n.Next
		if h == 0 {
			return
		}
	}
}
