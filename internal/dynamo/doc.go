// Package dynamo provides the core simulation primitives shared by the
// electrostatics engine.
//
// The package defines the fundamental types every other package exchanges:
//
//   - [Body]: a charged point particle with a stable identifier
//   - [Bodies]: the mutable body array owned by the simulation
//   - [Hamiltonian]: systems that can report their total energy
//   - [ParallelFor]: chunked fan-out for embarrassingly parallel loops
//
// # Indices and identifiers
//
// The spatial tree reorders the body array in place every step. An index
// into [Bodies] is therefore only meaningful until the next rebuild; code
// that correlates bodies across steps must use [Body.ID].
//
// # Thread Safety
//
// Bodies are plain values with no internal locking. The simulation owns the
// array; concurrent readers are fine once a step's tree has been built, but
// nothing may read the array while the tree is being constructed.
package dynamo
