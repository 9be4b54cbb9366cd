// Package cftree implements the height-balanced clustering-feature tree
// (spec.md §4.4): InsertAndUpdate descent, absorption, split propagation,
// leaf-chain maintenance, memory-ceiling rebuild, height, and multilevel
// RNG snapshots.
//
// errors.go — sentinel errors for the cftree package, following the
// teacher's sentinel-only policy (builder/errors.go): callers branch with
// errors.Is, never string matching.
package cftree

import "errors"

// Sentinel errors returned by the cftree package.
var (
	// ErrNilTree indicates an operation was called on a nil *Tree.
	ErrNilTree = errors.New("cftree: tree is nil")

	// ErrDimensionMismatch indicates an inserted point's vector length
	// does not match the tree's configured dimension.
	ErrDimensionMismatch = errors.New("cftree: point dimension mismatch")

	// ErrInvalidConfig indicates Config failed validation (non-positive
	// dimension, B, L, or K, or a negative threshold).
	ErrInvalidConfig = errors.New("cftree: invalid configuration")

	// ErrPathCollision indicates two entries were assigned the same
	// tree-path string — an invariant breach (spec.md §7).
	ErrPathCollision = errors.New("cftree: tree-path collision")

	// ErrInvariantBreach indicates a structural invariant was violated
	// (e.g. a node with no entries where at least one is required). The
	// insertion that hit it returns this error to the caller, and
	// InsertBatch stops the batch there; the point is not skipped and
	// nothing already changed by that insertion is rolled back.
	ErrInvariantBreach = errors.New("cftree: invariant breach")

	// ErrEmptyTree indicates an operation that needs at least one point
	// was invoked against a tree holding no points yet. ComputeHeight does
	// not return it: it reports height 0 for an empty tree.
	ErrEmptyTree = errors.New("cftree: tree is empty")
)
