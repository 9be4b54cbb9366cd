// tree.go — the Tree type and the InsertAndUpdate descent/absorption/split
// algorithm (spec.md §4.4), memory-ceiling rebuild, height computation, and
// multilevel RNG snapshots (spec.md §4.5), grounded on
// original_source/3. Code/BIRCH++/CFTree.cpp (the algorithm) and
// core/methods.go (the teacher's one-exported-operation-per-file layout and
// the locking discipline around its graph-mutation entry points).
package cftree

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/katalvlaran/birchrng/point"
	"github.com/katalvlaran/birchrng/reps"
	"github.com/katalvlaran/birchrng/rng"
	"github.com/katalvlaran/birchrng/summary"
)

// LevelSnapshot is one level's worth of entries plus the RNG built over
// their centroids, the output of CreateMultilevelRNG (spec.md §4.5).
type LevelSnapshot struct {
	Depth   int
	Entries []*Entry
	RNG     *rng.Graph
}

// Tree is the height-balanced clustering-feature tree (spec.md §3). The
// zero value is not usable; construct with NewTree.
type Tree struct {
	mu   sync.RWMutex
	cfg  Config
	root *Node

	// dummy is the sentinel first leaf (spec.md §3, §4.5): a permanent,
	// entry-less head of the global leaf chain so every real leaf —
	// including the current leftmost one — always has a non-nil Prev,
	// and chain splicing at the left edge needs no nil-head special
	// case. It is never reachable by descending the tree and is never
	// itself returned by FirstLeaf.
	dummy *Node

	nodeCount   int
	nextPointID uint64
}

// NewTree returns an empty Tree with a single empty leaf node as its root,
// chained after a sentinel dummy first leaf (spec.md §3, §4.5).
func NewTree(cfg Config) (*Tree, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	root := newLeafNode()
	root.Path = "0"
	root.setSelfLeafBounds()

	dummy := newLeafNode()
	dummy.Next = root
	root.Prev = dummy

	return &Tree{cfg: cfg, root: root, dummy: dummy, nodeCount: 1}, nil
}

// Config returns a copy of the tree's configuration, including any
// Threshold raised by a memory-ceiling rebuild.
func (t *Tree) Config() Config {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.cfg
}

// NodeCount returns the number of nodes currently in the tree.
func (t *Tree) NodeCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.nodeCount
}

// Insert absorbs one point into the tree, per the descent/absorption/split
// algorithm of spec.md §4.4.
func (t *Tree) Insert(ctx context.Context, p point.Point) error {
	if t == nil {
		return ErrNilTree
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.insertLocked(ctx, p)
}

// InsertBatch inserts points from one per-source file, per SPEC_FULL §4.4's
// batch-ingest note. source tags every point that doesn't already carry its
// own label (source files whose reader already assigned one per-line are
// left alone). A point that fails dimension validation is skipped
// (invariant-breach policy, spec.md §7) without aborting the batch; any
// other error aborts the batch and preserves the tree state as of the last
// successfully absorbed point (spec.md §7 "the tree state at the failure
// point is preserved"). The returned int is the number of points absorbed.
func (t *Tree) InsertBatch(ctx context.Context, points []point.Point, source string) (int, error) {
	if t == nil {
		return 0, ErrNilTree
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	absorbed := 0
	for _, p := range points {
		if p.Label == "" {
			p.Label = source
		}
		if err := point.ValidateDimension(p, t.cfg.Dimension); err != nil {
			continue
		}
		if err := t.insertLocked(ctx, p); err != nil {
			return absorbed, err
		}
		absorbed++
	}

	if err := t.maybeRebuild(ctx); err != nil {
		return absorbed, err
	}

	return absorbed, nil
}

// insertLocked performs one InsertAndUpdate call over a fresh single-point
// entry. The caller holds t.mu.
func (t *Tree) insertLocked(ctx context.Context, p point.Point) error {
	if err := point.ValidateDimension(p, t.cfg.Dimension); err != nil {
		return err
	}

	p.ID = t.nextPointID
	t.nextPointID++
	entry := newLeafEntry(p, t.cfg.Dimension)

	if err := t.insertEntryLocked(ctx, entry); err != nil {
		return err
	}

	return t.maybeRebuild(ctx)
}

// insertEntryLocked descends the tree with an already-built entry — a
// single point (ordinary insert) or a whole already-summarised leaf cluster
// (memory-ceiling rebuild's reinsertion, spec.md §4.4: "reinsert every leaf
// entry as already-summarised units, not as individual points") — and
// grows the root if the descent propagated a split all the way up. The
// caller holds t.mu and is responsible for any memory-ceiling check.
func (t *Tree) insertEntryLocked(ctx context.Context, entry *Entry) error {
	outcome, err := t.descend(ctx, t.root, entry)
	if err != nil {
		return fmt.Errorf("cftree: insert: %w", err)
	}
	if outcome.split {
		newRoot := newInternalNode()
		newRoot.Path = "0"
		newRoot.Entries = []*Entry{outcome.left, outcome.right}
		computeLeafBounds(newRoot)
		if err := newRoot.refreshRNG(ctx); err != nil {
			return err
		}
		t.root = newRoot
		t.nodeCount++
		if err := t.reassignPaths(t.root, "0"); err != nil {
			return err
		}
	}

	return nil
}

// descendOutcome reports whether a descent step produced a node split that
// must be propagated to the caller.
type descendOutcome struct {
	split bool
	left  *Entry
	right *Entry
}

// descend routes to the leaf or internal step depending on n's kind.
func (t *Tree) descend(ctx context.Context, n *Node, e *Entry) (descendOutcome, error) {
	if n.Leaf {
		return t.descendLeaf(ctx, n, e)
	}

	return t.descendInternal(ctx, n, e)
}

// descendLeaf implements spec.md §4.4's leaf-level step: absorb into the
// closest entry if within threshold, otherwise append a new entry, or split
// the node if it is already at capacity.
func (t *Tree) descendLeaf(ctx context.Context, n *Node, e *Entry) (descendOutcome, error) {
	if len(n.Entries) == 0 {
		n.Entries = append(n.Entries, e)
		assignLeafEntryPath(e, n.Path, 0)
		if err := refreshEntryReps(e, t.cfg); err != nil {
			return descendOutcome{}, err
		}

		return descendOutcome{}, n.refreshRNG(ctx)
	}

	closestIdx, d, err := closestEntry(n.Entries, e.Summary)
	if err != nil {
		return descendOutcome{}, err
	}

	if d < t.cfg.Threshold {
		closest := n.Entries[closestIdx]
		if err := t.absorb(ctx, closest, e); err != nil {
			return descendOutcome{}, err
		}

		return descendOutcome{}, n.refreshRNG(ctx)
	}

	if len(n.Entries) < t.cfg.LeafBranch {
		n.Entries = append(n.Entries, e)
		assignLeafEntryPath(e, n.Path, len(n.Entries)-1)
		if err := refreshEntryReps(e, t.cfg); err != nil {
			return descendOutcome{}, err
		}

		return descendOutcome{}, n.refreshRNG(ctx)
	}

	left, right, err := t.splitNode(ctx, n, e)
	if err != nil {
		return descendOutcome{}, err
	}

	return descendOutcome{split: true, left: left, right: right}, nil
}

// descendInternal implements spec.md §4.4's internal-level step: route the
// incoming entry to the child closest to it in summary distance, then
// absorb the child's own split (if any) by replacing its wrapping entry
// with two, splitting this node in turn if that overflows it.
func (t *Tree) descendInternal(ctx context.Context, n *Node, e *Entry) (descendOutcome, error) {
	closestIdx, _, err := closestEntry(n.Entries, e.Summary)
	if err != nil {
		return descendOutcome{}, err
	}
	child := n.Entries[closestIdx].Child

	childOutcome, err := t.descend(ctx, child, e)
	if err != nil {
		return descendOutcome{}, err
	}

	if !childOutcome.split {
		sum, err := childSummary(child)
		if err != nil {
			return descendOutcome{}, err
		}
		n.Entries[closestIdx].Summary = sum
		if err := refreshEntryReps(n.Entries[closestIdx], t.cfg); err != nil {
			return descendOutcome{}, err
		}

		return descendOutcome{}, n.refreshRNG(ctx)
	}

	if len(n.Entries) < t.cfg.InternalBranch {
		n.Entries[closestIdx] = childOutcome.left
		n.Entries = insertEntryAt(n.Entries, closestIdx+1, childOutcome.right)
		computeLeafBounds(n)
		// The split that just landed here is the only point where these
		// two subtrees' final position in the tree becomes known, so
		// this is where their path strings get rewritten (spec.md §4.4
		// step 6) — not at the split site itself, where the eventual
		// parent (and thus path prefix) is still undetermined. Inserting
		// the right half at closestIdx+1 (step 6's "position+1") shifts
		// every later sibling's index by one, so every entry from
		// closestIdx onward — not just the pair that just split — needs
		// its path and subtree renumbered.
		for i := closestIdx; i < len(n.Entries); i++ {
			if err := t.placeChildEntry(n.Entries[i], fmt.Sprintf("%s.%d", n.Path, i)); err != nil {
				return descendOutcome{}, err
			}
		}

		return descendOutcome{}, n.refreshRNG(ctx)
	}

	oldFirst, oldLast := n.FirstLeaf, n.LastLeaf

	replaced := make([]*Entry, 0, len(n.Entries)+1)
	for i, ce := range n.Entries {
		if i == closestIdx {
			replaced = append(replaced, childOutcome.left, childOutcome.right)

			continue
		}
		replaced = append(replaced, ce)
	}
	n.Entries = replaced

	left, right, err := t.splitEntries(ctx, n.Leaf, n.Entries, oldFirst, oldLast)
	if err != nil {
		return descendOutcome{}, err
	}

	return descendOutcome{split: true, left: left, right: right}, nil
}

// insertEntryAt returns entries with e inserted at idx, shifting every
// later entry one slot to the right.
func insertEntryAt(entries []*Entry, idx int, e *Entry) []*Entry {
	entries = append(entries, nil)
	copy(entries[idx+1:], entries[idx:])
	entries[idx] = e

	return entries
}

// absorb folds e's cluster into closest's, updating closest's summary and
// every newly added point's path string. e ordinarily carries exactly one
// point (spec.md §4.4's ordinary insert path); memory-ceiling rebuild can
// also absorb a whole already-summarised leaf entry in one call, in which
// case the RNG is rebuilt rather than stepped incrementally, since
// SyncRNG's incremental path assumes one point added since the last sync.
func (t *Tree) absorb(ctx context.Context, closest, e *Entry) error {
	incoming := e.Leaf.Len()
	base := closest.Leaf.Len()
	closest.Leaf.Concat(e.Leaf)
	if err := summary.AccumulateInto(&closest.Summary, e.Summary); err != nil {
		return err
	}
	for i := base; i < closest.Leaf.Len(); i++ {
		closest.Leaf.Points[i].Path = fmt.Sprintf("%s.%d", closest.Path, i)
	}

	if incoming == 1 {
		buildOpts := rng.BuildOptions{}
		incOpts := rng.IncrementalOptions{
			Epsilon:         t.cfg.IRNGEpsilon,
			RevocationOrder: t.cfg.RevocationOrder,
		}
		if err := closest.Leaf.SyncRNG(ctx, t.cfg.IRNGCutoff, buildOpts, incOpts); err != nil {
			return err
		}
	} else {
		if err := closest.Leaf.RebuildRNG(ctx, rng.BuildOptions{}); err != nil {
			return err
		}
	}

	return refreshEntryReps(closest, t.cfg)
}

// placeChildEntry sets e's path to path and rewrites every path string in
// e's subtree to match — e's cluster points if e is a leaf entry, or the
// whole child node's path/entries/points if e wraps a child node (spec.md
// §4.4 step 6). Used once a split's two resulting subtrees have a final,
// stable position in their new parent.
func (t *Tree) placeChildEntry(e *Entry, path string) error {
	e.Path = path
	if e.IsLeafEntry() {
		for j := range e.Leaf.Points {
			e.Leaf.Points[j].Path = fmt.Sprintf("%s.%d", path, j)
		}

		return nil
	}

	return t.reassignPaths(e.Child, path)
}

// assignLeafEntryPath sets e's path string under a node path and index, and
// propagates path strings to every point in e's cluster (spec.md §4.4 step
// 6's per-point path rewrite, applied eagerly here rather than only at
// whole-subtree reassignment time).
func assignLeafEntryPath(e *Entry, nodePath string, idx int) {
	e.Path = fmt.Sprintf("%s.%d", nodePath, idx)
	if !e.IsLeafEntry() {
		return
	}
	for j := range e.Leaf.Points {
		e.Leaf.Points[j].Path = fmt.Sprintf("%s.%d", e.Path, j)
	}
}

// splitNode builds the node-level split outcome for a leaf or internal node
// n that has just received one more entry (e) than its branching factor
// allows. It is a thin wrapper over splitEntries that also leaf-chain
// splices the result when n was itself a leaf.
func (t *Tree) splitNode(ctx context.Context, n *Node, e *Entry) (*Entry, *Entry, error) {
	all := make([]*Entry, 0, len(n.Entries)+1)
	all = append(all, n.Entries...)
	all = append(all, e)

	leftEntry, rightEntry, err := t.splitEntries(ctx, n.Leaf, all, nil, nil)
	if err != nil {
		return nil, nil, err
	}

	if n.Leaf {
		spliceLeafChain(n, leftEntry.Child, rightEntry.Child)
	}

	return leftEntry, rightEntry, nil
}

// splitEntries partitions entries between two fresh nodes of the given
// leaf-ness, seeded from the farthest-apart pair (spec.md §4.4's split
// algorithm), and wraps each resulting node as an Entry for the caller to
// place in its own parent. oldFirst/oldLast are the chain boundary of the
// node being split and are only consulted when leaf is false: a leaf split
// leaves its own leaf-chain splicing to the caller (splitNode), since there
// the two new nodes ARE the chain nodes. An internal split has no such
// single splice point — the D0 seed partition below does not preserve the
// original entries' chain contiguity, so the subtree leaf chains have to be
// rebuilt from each new node's own (order-preserving) entry list.
func (t *Tree) splitEntries(ctx context.Context, leaf bool, entries []*Entry, oldFirst, oldLast *Node) (*Entry, *Entry, error) {
	seedA, seedB, err := farthestPair(entries)
	if err != nil {
		return nil, nil, err
	}

	var left, right *Node
	if leaf {
		left, right = newLeafNode(), newLeafNode()
	} else {
		left, right = newInternalNode(), newInternalNode()
	}

	for i, e := range entries {
		da, err := summary.D0(e.Summary, entries[seedA].Summary)
		if err != nil {
			return nil, nil, err
		}
		db, err := summary.D0(e.Summary, entries[seedB].Summary)
		if err != nil {
			return nil, nil, err
		}
		if i == seedA || da <= db {
			left.Entries = append(left.Entries, e)
		} else {
			right.Entries = append(right.Entries, e)
		}
	}

	if leaf {
		computeLeafBounds(left)
		computeLeafBounds(right)
	} else {
		// The seed-proximity partition above can interleave entries that
		// were chain-adjacent before the split, so left and right no
		// longer each own a contiguous run of the old chain. Re-link the
		// two subtrees' leaves from scratch in their new entry order
		// (spec.md §4.4 step 4) rather than trust the stale physical
		// links.
		relinkInternalSplitChain(oldFirst, oldLast, left, right)
	}

	if err := left.refreshRNG(ctx); err != nil {
		return nil, nil, err
	}
	if err := right.refreshRNG(ctx); err != nil {
		return nil, nil, err
	}

	leftEntry, err := wrapChild(left)
	if err != nil {
		return nil, nil, err
	}
	rightEntry, err := wrapChild(right)
	if err != nil {
		return nil, nil, err
	}
	if err := refreshEntryReps(leftEntry, t.cfg); err != nil {
		return nil, nil, err
	}
	if err := refreshEntryReps(rightEntry, t.cfg); err != nil {
		return nil, nil, err
	}
	// One node becomes two: net +1 against the memory-ceiling node count.
	t.nodeCount++

	return leftEntry, rightEntry, nil
}

// farthestPair returns the indices of the two entries in entries with the
// largest pairwise D0 distance — the seed pair for node splitting (spec.md
// §4.4's split algorithm, step 1).
func farthestPair(entries []*Entry) (int, int, error) {
	if len(entries) < 2 {
		return 0, 0, ErrInvariantBreach
	}

	bestA, bestB, bestD := 0, 1, -1.0
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			d, err := summary.D0(entries[i].Summary, entries[j].Summary)
			if err != nil {
				return 0, 0, err
			}
			if d > bestD {
				bestA, bestB, bestD = i, j, d
			}
		}
	}

	return bestA, bestB, nil
}

// spliceLeafChain slots two freshly split leaf nodes into old's former
// position in the global leaf chain.
func spliceLeafChain(old, left, right *Node) {
	prev, next := old.Prev, old.Next

	left.Prev = prev
	if prev != nil {
		prev.Next = left
	}
	left.Next = right
	right.Prev = left
	right.Next = next
	if next != nil {
		next.Prev = right
	}
	left.setSelfLeafBounds()
	right.setSelfLeafBounds()
}

// relinkInternalSplitChain rebuilds the global leaf chain around an
// internal-node split: left's and right's own subtree leaves are each
// re-linked into one contiguous run (relinkChildRun), left's run is joined
// to right's (spec.md §4.4 step 4: "left subtree's last leaf connects to
// right subtree's first leaf"), and the combined run replaces the span
// oldFirst..oldLast used to occupy in the chain.
func relinkInternalSplitChain(oldFirst, oldLast, left, right *Node) {
	var before, after *Node
	if oldFirst != nil {
		before = oldFirst.Prev
	}
	if oldLast != nil {
		after = oldLast.Next
	}

	relinkChildRun(left)
	relinkChildRun(right)

	if left.LastLeaf != nil && right.FirstLeaf != nil {
		left.LastLeaf.Next = right.FirstLeaf
		right.FirstLeaf.Prev = left.LastLeaf
	}

	head, tail := left.FirstLeaf, right.LastLeaf
	if head == nil {
		head = right.FirstLeaf
	}
	if tail == nil {
		tail = left.LastLeaf
	}
	if head != nil {
		head.Prev = before
	}
	if before != nil {
		before.Next = head
	}
	if tail != nil {
		tail.Next = after
	}
	if after != nil {
		after.Prev = tail
	}
}

// relinkChildRun re-links n's entries' subtree leaf chains end to end, in
// entry order, and sets n.FirstLeaf/LastLeaf from the result. n must be
// internal: every entry is assumed to wrap a child node.
func relinkChildRun(n *Node) {
	if len(n.Entries) == 0 {
		n.FirstLeaf, n.LastLeaf = nil, nil

		return
	}
	for i := 0; i+1 < len(n.Entries); i++ {
		a := n.Entries[i].Child.LastLeaf
		b := n.Entries[i+1].Child.FirstLeaf
		if a != nil && b != nil {
			a.Next = b
			b.Prev = a
		}
	}
	n.FirstLeaf = n.Entries[0].Child.FirstLeaf
	n.LastLeaf = n.Entries[len(n.Entries)-1].Child.LastLeaf
}

// computeLeafBounds sets n.FirstLeaf/LastLeaf from its entries (spec.md
// §3's Node invariant), assuming n.Entries preserve leaf-chain order. Only
// safe for a leaf node (self-bounded) or an internal node whose entries are
// already known to be chain-contiguous — an internal split must instead use
// relinkInternalSplitChain, since its seed-based partition breaks that
// assumption.
func computeLeafBounds(n *Node) {
	if n.Leaf {
		n.setSelfLeafBounds()

		return
	}
	if len(n.Entries) == 0 {
		return
	}
	n.FirstLeaf = n.Entries[0].Child.FirstLeaf
	n.LastLeaf = n.Entries[len(n.Entries)-1].Child.LastLeaf
}

// closestEntry returns the index of the entry in entries closest to s by
// D0, and that distance.
func closestEntry(entries []*Entry, s summary.Summary) (int, float64, error) {
	if len(entries) == 0 {
		return 0, 0, ErrInvariantBreach
	}

	best, bestD := 0, -1.0
	for i, e := range entries {
		d, err := summary.D0(e.Summary, s)
		if err != nil {
			return 0, 0, err
		}
		if bestD < 0 || d < bestD {
			best, bestD = i, d
		}
	}

	return best, bestD, nil
}

// reassignPaths rewrites path strings throughout the subtree rooted at n,
// given the path n itself has just been assigned (spec.md §4.4 step 6).
func (t *Tree) reassignPaths(n *Node, path string) error {
	n.Path = path
	for i, e := range n.Entries {
		e.Path = fmt.Sprintf("%s.%d", path, i)
		if e.IsLeafEntry() {
			for j := range e.Leaf.Points {
				e.Leaf.Points[j].Path = fmt.Sprintf("%s.%d", e.Path, j)
			}

			continue
		}
		if err := t.reassignPaths(e.Child, e.Path); err != nil {
			return err
		}
	}

	return nil
}

// refreshEntryReps recomputes e's near/far representative sets, dispatching
// on whether e wraps a leaf cluster or a child node (spec.md §4.3).
func refreshEntryReps(e *Entry, cfg Config) error {
	if e.IsLeafEntry() {
		return refreshLeafEntryReps(e, cfg)
	}

	return refreshInternalEntryReps(e, cfg)
}

// refreshLeafEntryReps selects near/far representatives directly from e's
// cluster points (spec.md §4.3, leaf case).
func refreshLeafEntryReps(e *Entry, cfg Config) error {
	pts := e.Leaf.Points
	n := len(pts)
	if n == 0 {
		return ErrInvariantBreach
	}

	centroid, err := summary.Centroid(e.Summary)
	if err != nil {
		return err
	}
	centroidDist := func(i int) float64 { return rng.Euclidean(pts[i].Vector, centroid) }
	dist := func(i, j int) float64 { return rng.Euclidean(pts[i].Vector, pts[j].Vector) }

	set, err := reps.SelectLeaf(n, cfg.RepresentativeCount, centroidDist, dist, cfg.FarPolicy)
	if err != nil {
		return err
	}
	e.Near = resolvePoints(pts, set.Near)
	e.Far = resolvePoints(pts, set.Far)

	return nil
}

// refreshInternalEntryReps selects near/far representatives proportionally
// from e's child node's own entries' representative sets (spec.md §4.3,
// internal case), by pooling each child entry's already-resolved points,
// running reps.SelectInternal over index tokens into that pool, then
// mapping the returned tokens back to point.Point values.
func refreshInternalEntryReps(e *Entry, cfg Config) error {
	node := e.Child
	if node == nil || len(node.Entries) == 0 {
		return ErrInvariantBreach
	}

	var pool []point.Point
	children := make([]reps.Child, len(node.Entries))
	for i, ce := range node.Entries {
		nearStart := len(pool)
		pool = append(pool, ce.Near...)
		nearTokens := rangeInts(nearStart, len(pool))

		farStart := len(pool)
		pool = append(pool, ce.Far...)
		farTokens := rangeInts(farStart, len(pool))

		children[i] = reps.Child{N: ce.Summary.N, Near: nearTokens, Far: farTokens}
	}

	set := reps.SelectInternal(children, cfg.RepresentativeCount)
	e.Near = resolvePoints(pool, set.Near)
	e.Far = resolvePoints(pool, set.Far)

	return nil
}

// resolvePoints maps representative indices back into point copies.
func resolvePoints(pts []point.Point, idxs []int) []point.Point {
	out := make([]point.Point, len(idxs))
	for i, idx := range idxs {
		out[i] = pts[idx]
	}

	return out
}

// rangeInts returns [start, end).
func rangeInts(start, end int) []int {
	out := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, i)
	}

	return out
}

// ComputeHeight returns the number of edges on the path from root to any
// leaf (every leaf sits at the same depth, spec.md §3's balance invariant).
func (t *Tree) ComputeHeight() (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := t.root
	height := 0
	for !n.Leaf {
		if len(n.Entries) == 0 {
			return 0, ErrInvariantBreach
		}
		n = n.Entries[0].Child
		height++
	}

	return height, nil
}

// FirstLeaf returns the chain's first real leaf, skipping the internal
// sentinel dummy that precedes it.
func (t *Tree) FirstLeaf() *Node {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.root.FirstLeaf
}

// Root returns the tree's current root node, for read-only walks such as
// ioformat.Exporter. Callers must not mutate the returned node or anything
// reachable from it.
func (t *Tree) Root() *Node {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.root
}

// CreateMultilevelRNG walks the tree breadth-first and returns one
// LevelSnapshot per depth, each holding that level's entries and the RNG
// built over their centroids (spec.md §4.5). A level whose entry count
// exceeds the configured iRNG cutoff is skipped (its RNG left nil) rather
// than paying an O(k^3) batch build on a snapshot that will be stale the
// moment the next insert lands.
func (t *Tree) CreateMultilevelRNG(ctx context.Context) ([]LevelSnapshot, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var snapshots []LevelSnapshot
	level := []*Node{t.root}
	depth := 0
	for len(level) > 0 {
		var entries []*Entry
		var next []*Node
		for _, n := range level {
			entries = append(entries, n.Entries...)
			if !n.Leaf {
				for _, e := range n.Entries {
					next = append(next, e.Child)
				}
			}
		}

		snap := LevelSnapshot{Depth: depth, Entries: entries}
		if len(entries) <= t.cfg.IRNGCutoff {
			vecs := make([][]float64, len(entries))
			for i, e := range entries {
				c, err := summary.Centroid(e.Summary)
				if err != nil {
					return nil, err
				}
				vecs[i] = c
			}
			g, err := rng.Build(ctx, vecs, rng.BuildOptions{})
			if err != nil {
				return nil, err
			}
			snap.RNG = g
		}
		snapshots = append(snapshots, snap)

		level = next
		depth++
	}

	return snapshots, nil
}

// maybeRebuild rebuilds the tree with a larger threshold when
// node_count*NodeSizeBytes exceeds the configured memory ceiling (spec.md
// §4.4 "Memory ceiling / rebuild"). Zero ceiling disables the check.
func (t *Tree) maybeRebuild(ctx context.Context) error {
	if t.cfg.MemoryCeiling <= 0 {
		return nil
	}
	if int64(t.nodeCount)*t.cfg.NodeSizeBytes <= t.cfg.MemoryCeiling {
		return nil
	}

	leafEntries := t.collectLeafEntriesLocked()
	newThreshold, err := rebuildThreshold(t.cfg.Threshold, leafEntries)
	if err != nil {
		return fmt.Errorf("cftree: rebuild: %w", err)
	}

	// MemoryCeiling is disabled on the scratch tree so repopulating it
	// with every existing leaf entry cannot itself trigger a nested
	// rebuild; t's own ceiling is restored below once repopulation
	// finishes.
	rebuildCfg := t.cfg
	rebuildCfg.Threshold = newThreshold
	rebuildCfg.MemoryCeiling = 0
	fresh, err := NewTree(rebuildCfg)
	if err != nil {
		return fmt.Errorf("cftree: rebuild: %w", err)
	}
	for _, e := range leafEntries {
		if err := fresh.insertEntryLocked(ctx, e); err != nil {
			return fmt.Errorf("cftree: rebuild: reinsert: %w", err)
		}
	}

	t.cfg.Threshold = newThreshold
	t.root = fresh.root
	t.dummy = fresh.dummy
	t.nodeCount = fresh.nodeCount

	return nil
}

// collectLeafEntriesLocked walks the leaf chain in order and returns every
// leaf entry the tree currently holds, for memory-ceiling rebuild
// reinsertion "as already-summarised units, not as individual points"
// (spec.md §4.4).
func (t *Tree) collectLeafEntriesLocked() []*Entry {
	var out []*Entry
	for n := t.root.FirstLeaf; n != nil; n = n.Next {
		out = append(out, n.Entries...)
	}

	return out
}

// rebuildThreshold computes new_T as the greater of 2T and the square of
// the average nearest-neighbour D0 distance among the existing leaf
// entries (spec.md §4.4 "Memory ceiling / rebuild"). When 2T is not
// positive (T = 0), 1 stands in for it, so new_T is always at least 1.
func rebuildThreshold(threshold float64, entries []*Entry) (float64, error) {
	doubled := threshold * 2
	if doubled <= 0 {
		doubled = 1
	}
	if len(entries) < 2 {
		return doubled, nil
	}

	var sum float64
	for i, e := range entries {
		best := math.Inf(1)
		for j, o := range entries {
			if i == j {
				continue
			}
			d, err := summary.D0(e.Summary, o.Summary)
			if err != nil {
				return 0, err
			}
			if d < best {
				best = d
			}
		}
		sum += best
	}
	avg := sum / float64(len(entries))
	candidate := avg * avg
	if candidate > doubled {
		return candidate, nil
	}

	return doubled, nil
}
