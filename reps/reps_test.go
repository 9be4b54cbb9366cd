package reps_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/birchrng/reps"
)

func euclid(pts [][]float64) func(i, j int) float64 {
	return func(i, j int) float64 {
		var sum float64
		for d := range pts[i] {
			diff := pts[i][d] - pts[j][d]
			sum += diff * diff
		}

		return math.Sqrt(sum)
	}
}

func TestSelectLeafSmallClusterAllRepresentatives(t *testing.T) {
	pts := [][]float64{{0, 0}, {1, 0}}
	set, err := reps.SelectLeaf(2, 7, func(i int) float64 { return 0 }, euclid(pts), reps.FarPolicyReverse)
	if err != nil {
		t.Fatalf("SelectLeaf: %v", err)
	}
	if len(set.Near) != 2 || len(set.Far) != 2 {
		t.Fatalf("n<=2 must make every point both near and far, got %+v", set)
	}
}

func TestSelectLeafMedoidLeadsFar(t *testing.T) {
	// spec.md §8 scenario 3: (0,0),(0.1,0),(0.2,0), medoid is (0.1,0) (index 1).
	pts := [][]float64{{0, 0}, {0.1, 0}, {0.2, 0}}
	centroid := []float64{0.1, 0}
	centroidDist := func(i int) float64 {
		d := pts[i][0] - centroid[0]

		return math.Abs(d)
	}
	set, err := reps.SelectLeaf(3, 7, centroidDist, euclid(pts), reps.FarPolicyReverse)
	if err != nil {
		t.Fatalf("SelectLeaf: %v", err)
	}
	if set.Near[0] != 1 {
		t.Fatalf("near-representative[0] (medoid) = %d, want 1", set.Near[0])
	}
	if set.Far[0] != 1 {
		t.Fatalf("far-representative[0] (medoid) = %d, want 1", set.Far[0])
	}
}

func TestSelectLeafCUREIsWellSpread(t *testing.T) {
	pts := [][]float64{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}}
	centroidDist := func(i int) float64 { return math.Abs(pts[i][0] - 2) }
	set, err := reps.SelectLeaf(5, 3, centroidDist, euclid(pts), reps.FarPolicyCURE)
	if err != nil {
		t.Fatalf("SelectLeaf: %v", err)
	}
	if len(set.Far) == 0 || set.Far[0] != 2 {
		t.Fatalf("far[0] must be the medoid (index 2), got %+v", set.Far)
	}
	seen := map[int]bool{}
	for _, f := range set.Far {
		if seen[f] {
			t.Fatalf("duplicate far representative %d", f)
		}
		seen[f] = true
	}
}

func TestSelectLeafCapsAtK(t *testing.T) {
	n := 20
	pts := make([][]float64, n)
	for i := range pts {
		pts[i] = []float64{float64(i), 0}
	}
	centroidDist := func(i int) float64 { return math.Abs(pts[i][0] - float64(n)/2) }
	set, err := reps.SelectLeaf(n, 7, centroidDist, euclid(pts), reps.FarPolicyReverse)
	if err != nil {
		t.Fatalf("SelectLeaf: %v", err)
	}
	if len(set.Near) > 7 || len(set.Far) > 7 {
		t.Fatalf("representative lists must be capped at K=7, got near=%d far=%d", len(set.Near), len(set.Far))
	}
}

func TestSelectInternalProportional(t *testing.T) {
	children := []reps.Child{
		{N: 100, Near: []int{1, 2, 3, 4, 5}, Far: []int{9}},
		{N: 10, Near: []int{6, 7}, Far: []int{8}},
	}
	set := reps.SelectInternal(children, 7)
	if len(set.Near) == 0 {
		t.Fatalf("expected near representatives")
	}
	if len(set.Near) > 7 {
		t.Fatalf("near representatives must be capped at K=7, got %d", len(set.Near))
	}
	// the smaller child's far-representative appears first (walked smallest to largest).
	if set.Far[0] != 8 {
		t.Fatalf("far[0] = %d, want 8 (smallest child first)", set.Far[0])
	}
}
