// This file implements the five inter-summary distances D0..D4 from
// spec.md §4.1. All five operate purely on the (n, LS, SS) triples; none
// touches stored points, which is the property that makes CF-tree descent
// and splitting cheap regardless of subtree size.
package summary

import (
	"fmt"
	"math"
)

// D0 is the centroid Euclidean distance ||LS_A/n_A - LS_B/n_B||_2.
// Every "which entry is closest" decision in the CF-tree uses D0.
//
// Complexity: O(dim).
func D0(a, b Summary) (float64, error) {
	ca, err := Centroid(a)
	if err != nil {
		return 0, err
	}
	cb, err := Centroid(b)
	if err != nil {
		return 0, err
	}
	if len(ca) != len(cb) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(ca), len(cb))
	}

	var sumSq float64
	for i := range ca {
		d := ca[i] - cb[i]
		sumSq += d * d
	}

	return math.Sqrt(sumSq), nil
}

// D1 is the centroid Manhattan distance: the sum of absolute coordinate
// differences of the two centroids.
//
// Complexity: O(dim).
func D1(a, b Summary) (float64, error) {
	ca, err := Centroid(a)
	if err != nil {
		return 0, err
	}
	cb, err := Centroid(b)
	if err != nil {
		return 0, err
	}
	if len(ca) != len(cb) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(ca), len(cb))
	}

	var sum float64
	for i := range ca {
		sum += math.Abs(ca[i] - cb[i])
	}

	return sum, nil
}

// D2 is the average inter-cluster distance between every pair of points
// drawn one from each summary, computed without enumerating pairs:
// sqrt((n_B*SS_A + n_A*SS_B - 2*LS_A.LS_B) / (n_A*n_B)).
//
// Complexity: O(dim).
func D2(a, b Summary) (float64, error) {
	if a.N < 1 || b.N < 1 {
		return 0, ErrEmptySummary
	}
	if len(a.LS) != len(b.LS) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a.LS), len(b.LS))
	}

	var dot float64
	for i := range a.LS {
		dot += a.LS[i] * b.LS[i]
	}
	nA, nB := float64(a.N), float64(b.N)
	num := nB*a.SS + nA*b.SS - 2*dot
	if num < 0 {
		num = 0
	}

	return math.Sqrt(num / (nA * nB)), nil
}

// D3 is the average intra-cluster distance of the hypothetical merge A⊕B:
// sqrt(2*((SS_A+SS_B)/(n-1) - sum((LS_A+LS_B)/n * (LS_A+LS_B)/(n-1)))),
// n = n_A + n_B. D3 requires n_A+n_B >= 2.
//
// Complexity: O(dim).
func D3(a, b Summary) (float64, error) {
	if len(a.LS) != len(b.LS) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a.LS), len(b.LS))
	}
	n := a.N + b.N
	if n < 2 {
		return 0, fmt.Errorf("summary: D3 requires n_A+n_B>=2, got %d", n)
	}
	nf := float64(n)
	ssSum := a.SS + b.SS

	var inner float64
	for i := range a.LS {
		ls := a.LS[i] + b.LS[i]
		inner += (ls / nf) * (ls / (nf - 1))
	}
	val := 2 * (ssSum/(nf-1) - inner)
	if val < 0 {
		val = 0
	}

	return math.Sqrt(val), nil
}

// D4 is the variance-increase distance: how much the summed intra-cluster
// variance grows by merging A and B versus keeping them separate,
// Δvariance = Σ(A⊕B) - (Σ(A) + Σ(B)), where Σ(S) = SS - |LS|^2/n is the
// unnormalized variance of S. spec.md's Open Question ("D4 ... returns 0 ...
// implement the textbook formula or omit") is resolved in favor of
// implementing it (SPEC_FULL §4.1); D4 is always >= 0 since merging two
// clusters never decreases total unnormalized variance.
//
// Complexity: O(dim).
func D4(a, b Summary) (float64, error) {
	if a.N < 1 || b.N < 1 {
		return 0, ErrEmptySummary
	}
	merged, err := Combine(a, b)
	if err != nil {
		return 0, err
	}

	varA, err := unnormalizedVariance(a)
	if err != nil {
		return 0, err
	}
	varB, err := unnormalizedVariance(b)
	if err != nil {
		return 0, err
	}
	varMerged, err := unnormalizedVariance(merged)
	if err != nil {
		return 0, err
	}

	d := varMerged - (varA + varB)
	if d < 0 {
		d = 0
	}

	return d, nil
}

// unnormalizedVariance returns SS - |LS|^2/n for s, the sum-of-squared-
// deviations-from-centroid without the 1/n normalization, which is the
// quantity D3/D4 both build on.
func unnormalizedVariance(s Summary) (float64, error) {
	if s.N < 1 {
		return 0, ErrEmptySummary
	}
	var normSq float64
	for _, v := range s.LS {
		normSq += v * v
	}
	v := s.SS - normSq/float64(s.N)
	if v < 0 {
		v = 0
	}

	return v, nil
}
