// Package scene implements the retained-mode node tree of the stage
// renderer: transformable, maskable nodes with lazily recomputed
// concatenated transforms, color transforms and bounds, an iterative
// depth-first traversal with clip bracketing, and point hit testing.
//
// Derived state is guarded by per-node dirty flags. Mutators only
// touch local state and propagate invalidation; the concatenated
// values are recomputed on demand by the closest-valid-ancestor walk
// in ConcatenatedMatrix and ConcatenatedColorMatrix.
//
// All operations are single-threaded and synchronous. The tree must
// not be mutated concurrently.
package scene
