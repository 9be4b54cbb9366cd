// This file implements spec.md §4.3 "Internal entry": representatives
// drawn from child entries in proportion to their sizes.
package reps

import "sort"

// Child describes one child entry's contribution for internal-level
// representative selection: its point count and its own near/far
// representative lists (as opaque tokens — usually global point indices
// or (child, local-index) pairs the caller defines).
type Child struct {
	N    int64
	Near []int
	Far  []int
}

// SelectInternal computes a Set for an internal entry from its children,
// following spec.md §4.3 "Internal entry":
//   - children sorted by point count descending; for each, request
//     ceil(child.n*K/parent.n) (minimum 1) representatives from its near
//     list until K are collected overall;
//   - far-representatives take the first far-representative of each
//     child, walked from smallest child to largest.
//
// Complexity: O(c log c) for c children.
func SelectInternal(children []Child, k int) Set {
	if k <= 0 {
		k = DefaultK
	}
	if len(children) == 0 {
		return Set{}
	}

	var total int64
	for _, c := range children {
		total += c.N
	}
	if total == 0 {
		total = 1
	}

	byDesc := make([]int, len(children))
	for i := range byDesc {
		byDesc[i] = i
	}
	sort.SliceStable(byDesc, func(a, b int) bool {
		return children[byDesc[a]].N > children[byDesc[b]].N
	})

	var near []int
	for _, ci := range byDesc {
		if len(near) >= k {
			break
		}
		child := children[ci]
		want := ceilDiv(child.N*int64(k), total)
		if want < 1 {
			want = 1
		}
		take := int(want)
		if take > len(child.Near) {
			take = len(child.Near)
		}
		if take > k-len(near) {
			take = k - len(near)
		}
		near = append(near, child.Near[:take]...)
	}

	byAsc := make([]int, len(children))
	for i := range byAsc {
		byAsc[i] = i
	}
	sort.SliceStable(byAsc, func(a, b int) bool {
		return children[byAsc[a]].N < children[byAsc[b]].N
	})

	var far []int
	for _, ci := range byAsc {
		if len(far) >= k {
			break
		}
		child := children[ci]
		if len(child.Far) > 0 {
			far = append(far, child.Far[0])
		}
	}

	return Set{Near: near, Far: far}
}

// ceilDiv returns ceil(a/b) for positive b.
func ceilDiv(a, b int64) int64 {
	if b <= 0 {
		return 0
	}

	return (a + b - 1) / b
}
