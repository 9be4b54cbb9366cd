// Package summary implements the clustering-feature (CF) triple
// (n, LS, SS) that lets BIRCH-style clustering answer centroid, radius,
// and diameter queries — and compute inter-cluster distances — without
// touching the underlying points (spec.md §3, §4.1).
//
// Summaries are combined with Combine/AccumulateInto (spec.md's "Design
// Notes" calls for a named combine rather than an operator overload); point
// removal ("-=" in the original source) is intentionally absent from the
// public contract — the source never finished it either, and spec.md's
// Open Questions direct a reimplementation to omit rather than invent it.
package summary

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors for summary validation.
var (
	// ErrDimensionMismatch indicates two summaries (or a summary and a
	// configured dimension) disagree on vector length.
	ErrDimensionMismatch = errors.New("summary: dimension mismatch")

	// ErrEmptySummary indicates an operation required n >= 1 but received
	// a summary with n == 0.
	ErrEmptySummary = errors.New("summary: count must be >= 1")

	// ErrNegativeCount indicates a summary was constructed with n < 0.
	ErrNegativeCount = errors.New("summary: count must be non-negative")
)

// Summary is the CF triple (n, LS, SS): a count, a dimension-sized vector
// of coordinate sums, and a scalar sum of squared coordinates.
//
// Invariant: n >= 1, SS >= |LS|^2/n within numerical tolerance, and
// len(LS) equals the owning tree's configured dimension. The zero value is
// not a valid Summary (n == 0); use New or FromVector to construct one.
type Summary struct {
	N  int64
	LS []float64
	SS float64
}

// New returns a zero-count Summary sized for dim dimensions, ready to
// accumulate points into via AccumulateInto. It is not itself a valid
// Summary until at least one point has been folded in.
//
// Complexity: O(dim).
func New(dim int) Summary {
	return Summary{N: 0, LS: make([]float64, dim)}
}

// FromVector returns a single-point Summary over vec.
//
// Complexity: O(len(vec)).
func FromVector(vec []float64) Summary {
	ls := make([]float64, len(vec))
	var ss float64
	for i, v := range vec {
		ls[i] = v
		ss += v * v
	}

	return Summary{N: 1, LS: ls, SS: ss}
}

// Dim returns the configured dimension of s (len(s.LS)).
func (s Summary) Dim() int { return len(s.LS) }

// Validate checks the CF-triple invariants from spec.md §3 against dim.
//
// Complexity: O(dim).
func Validate(s Summary, dim int) error {
	if s.N < 0 {
		return ErrNegativeCount
	}
	if len(s.LS) != dim {
		return fmt.Errorf("%w: want %d, got %d", ErrDimensionMismatch, dim, len(s.LS))
	}
	if s.N == 0 {
		return nil
	}

	var normSq float64
	for _, v := range s.LS {
		normSq += v * v
	}
	// Numerical tolerance: SS can fall marginally below |LS|^2/n due to
	// floating point cancellation even for a mathematically valid triple.
	const tol = 1e-6
	if s.SS < normSq/float64(s.N)-tol {
		return fmt.Errorf("summary: SS=%g below |LS|^2/n=%g (tol %g)", s.SS, normSq/float64(s.N), tol)
	}

	return nil
}

// Combine returns a new Summary equal to a ⊕ b, the component-wise
// addition of the CF triples (spec.md §4.1, "Merge"). Neither a nor b is
// mutated.
//
// Complexity: O(dim).
func Combine(a, b Summary) (Summary, error) {
	if len(a.LS) != len(b.LS) {
		return Summary{}, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a.LS), len(b.LS))
	}
	ls := make([]float64, len(a.LS))
	for i := range ls {
		ls[i] = a.LS[i] + b.LS[i]
	}

	return Summary{N: a.N + b.N, LS: ls, SS: a.SS + b.SS}, nil
}

// AccumulateInto folds b into acc in place (acc += b), avoiding the
// allocation Combine performs when the caller already owns acc exclusively.
//
// Complexity: O(dim).
func AccumulateInto(acc *Summary, b Summary) error {
	if len(acc.LS) != len(b.LS) {
		return fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(acc.LS), len(b.LS))
	}
	for i := range acc.LS {
		acc.LS[i] += b.LS[i]
	}
	acc.SS += b.SS
	acc.N += b.N

	return nil
}

// Centroid returns LS/n, the mean coordinate vector. Centroid requires
// s.N >= 1.
//
// Complexity: O(dim).
func Centroid(s Summary) ([]float64, error) {
	if s.N < 1 {
		return nil, ErrEmptySummary
	}
	c := make([]float64, len(s.LS))
	n := float64(s.N)
	for i, v := range s.LS {
		c[i] = v / n
	}

	return c, nil
}

// Radius returns the average distance of points in s from the centroid:
// sqrt(SS/n - |LS/n|^2). Radius requires s.N >= 1; numerical noise can
// drive the radicand a hair below zero, in which case Radius clamps to 0.
//
// Complexity: O(dim).
func Radius(s Summary) (float64, error) {
	if s.N < 1 {
		return 0, ErrEmptySummary
	}
	n := float64(s.N)
	var normSq float64
	for _, v := range s.LS {
		normSq += v * v
	}
	r2 := s.SS/n - normSq/(n*n)
	if r2 < 0 {
		r2 = 0
	}

	return math.Sqrt(r2), nil
}

// Diameter returns the average pairwise distance within s:
// sqrt((2*n*SS - 2*|LS|^2) / (n*(n-1))). Diameter requires s.N >= 2; a
// single-point summary has no pairwise distance to report.
//
// Complexity: O(dim).
func Diameter(s Summary) (float64, error) {
	if s.N < 2 {
		return 0, fmt.Errorf("summary: diameter requires n>=2, got %d", s.N)
	}
	n := float64(s.N)
	var normSq float64
	for _, v := range s.LS {
		normSq += v * v
	}
	num := 2*n*s.SS - 2*normSq
	if num < 0 {
		num = 0
	}

	return math.Sqrt(num / (n * (n - 1))), nil
}
