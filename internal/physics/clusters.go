package physics

import (
	"sort"

	"github.com/san-kum/electrosim/internal/dynamo"
	"github.com/san-kum/electrosim/internal/quadtree"
)

// Clusters groups bodies into connected components of the graph linking
// every pair closer than radius. tree must have been built over bodies.
// Components are returned largest first; indices within one are ascending.
func Clusters(tree *quadtree.Tree, bodies []dynamo.Body, radius float64) [][]int {
	label := make([]int, len(bodies))
	for i := range label {
		label[i] = -1
	}

	var out [][]int
	var stack, buf []int
	for seed := range bodies {
		if label[seed] >= 0 {
			continue
		}
		id := len(out)
		label[seed] = id
		comp := []int{seed}
		stack = append(stack[:0], seed)

		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			buf = tree.AppendNeighbors(buf[:0], bodies[i].Pos, radius, bodies, i)
			for _, j := range buf {
				if label[j] >= 0 {
					continue
				}
				label[j] = id
				comp = append(comp, j)
				stack = append(stack, j)
			}
		}

		sort.Ints(comp)
		out = append(out, comp)
	}

	sort.SliceStable(out, func(a, b int) bool { return len(out[a]) > len(out[b]) })
	return out
}
