// Package physics turns a body array into forces, energies and field maps
// using the Barnes-Hut tree from [quadtree].
//
//   - [Coulomb]: tree-accelerated electrostatic forces and total energy
//   - [DirectField], [DirectForces], [DirectEnergy]: O(N) and O(N²) reference sums
//   - [Clusters]: connected components of the within-radius neighbor graph
//   - [SampleGrid], [SampleLine]: potential and field maps for plotting
//
// [Coulomb] implements [dynamo.Hamiltonian], so energy drift can be tracked
// the same way for every scenario:
//
//	c := physics.NewCoulomb(1, quadtree.DefaultParams())
//	c.Accelerations(bodies)
//	e := c.Energy(bodies)
//
// Bodies with zero or negative mass are held fixed: they act as sources but
// are never accelerated.
package physics
