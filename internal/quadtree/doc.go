// Package quadtree implements the Barnes-Hut spatial index used for
// electrostatic forces, potentials and neighbor queries.
//
// A [Tree] is rebuilt from the body array every simulation step:
//
//	tree := quadtree.New(quadtree.DefaultParams())
//	tree.Build(bodies)                  // reorders bodies in place
//	f := tree.ForceAt(bodies[i].Pos, bodies[i].Charge, bodies)
//	ids := tree.NeighborsOf(i, 0.5, bodies)
//
// # Layout
//
// Nodes live in a flat arena addressed by integer handle. Handle 0 is the
// root. An internal node stores the handle of the first of its four
// consecutive children; a leaf stores 0. Every node also stores a Next
// handle, the node a preorder walk continues at once the subtree is
// skipped or finished, so traversals need no explicit stack.
//
// # Concurrency
//
// Build partitions large ranges on a pool of worker goroutines and small
// ranges sequentially. Once Build returns the tree is read-only, and all
// query methods may be called concurrently.
//
// # Numeric policy
//
// Construction trusts its input. Queries skip sources whose position or
// charge is not finite, so one corrupted body cannot poison the rest of a
// step's results.
package quadtree
