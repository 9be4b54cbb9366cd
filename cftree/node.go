// node.go — the Node type (spec.md §3, "Node") and leaf-chain bookkeeping
// (spec.md §4.5): a node knows its path, its leaf flag, its prev/next leaf
// pointers (meaningful only on leaves), the first/last leaf of its
// subtree, and its own RNG over its entries' centroids.
package cftree

import (
	"context"

	"github.com/katalvlaran/birchrng/rng"
	"github.com/katalvlaran/birchrng/summary"
)

// Node holds up to Config.InternalBranch (internal) or Config.LeafBranch
// (leaf) entries.
type Node struct {
	Path    string
	Leaf    bool
	Entries []*Entry

	// Prev/Next form the global leaf chain (spec.md §4.5); meaningful
	// only when Leaf is true.
	Prev, Next *Node

	// FirstLeaf/LastLeaf bound this node's subtree's leaves in chain
	// order (spec.md §3, Node invariant). For a leaf node, both point to
	// itself.
	FirstLeaf, LastLeaf *Node

	// RNG is the per-node graph over this node's entries' centroids,
	// cached and refreshed on every mutation (spec.md §4.4 step 7).
	RNG *rng.Graph
}

// newLeafNode returns an empty leaf Node.
func newLeafNode() *Node {
	return &Node{Leaf: true, RNG: &rng.Graph{Adjacency: rng.AdjacencyMap{}}}
}

// newInternalNode returns an empty internal Node.
func newInternalNode() *Node {
	return &Node{Leaf: false, RNG: &rng.Graph{Adjacency: rng.AdjacencyMap{}}}
}

// centroids returns n's entries' centroid vectors, the input the per-node
// RNG is always batch-built over (spec.md §4.2: "On per-node RNGs (size <=
// B) the batch is always chosen").
func (n *Node) centroids() ([][]float64, error) {
	vecs := make([][]float64, len(n.Entries))
	for i, e := range n.Entries {
		c, err := summary.Centroid(e.Summary)
		if err != nil {
			return nil, err
		}
		vecs[i] = c
	}

	return vecs, nil
}

// refreshRNG recomputes n's per-node RNG over its entries' centroids via
// the batch builder (spec.md §4.4 step 7: "Refresh the parent node's RNG
// ... fresh O(B^2) call").
func (n *Node) refreshRNG(ctx context.Context) error {
	vecs, err := n.centroids()
	if err != nil {
		return err
	}
	g, err := rng.Build(ctx, vecs, rng.BuildOptions{})
	if err != nil {
		return err
	}
	n.RNG = g

	return nil
}

// setSelfLeafBounds marks a leaf node as its own subtree bound.
func (n *Node) setSelfLeafBounds() {
	n.FirstLeaf = n
	n.LastLeaf = n
}
