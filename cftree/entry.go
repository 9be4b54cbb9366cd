// entry.go — the Entry type (spec.md §3, "Summary (CF entry)"): a summary
// plus a tree-path string, either a child-node pointer or a leaf cluster
// (never both), and near/far representative lists.
package cftree

import (
	"github.com/katalvlaran/birchrng/cluster"
	"github.com/katalvlaran/birchrng/point"
	"github.com/katalvlaran/birchrng/summary"
)

// Entry is one slot in a Node: a CF summary, a tree-path string, exactly
// one of {Child, Leaf}, and its current representative sets. Near/Far hold
// resolved point copies (not indices) so export never needs a second
// lookup pass.
type Entry struct {
	Path    string
	Summary summary.Summary
	Child   *Node
	Leaf    *cluster.Cluster
	Near    []point.Point
	Far     []point.Point
}

// IsLeafEntry reports whether e wraps a leaf cluster rather than a child
// node.
func (e *Entry) IsLeafEntry() bool { return e.Leaf != nil }

// newLeafEntry returns a fresh leaf-level Entry over a single point, with
// representatives trivially set to that one point.
func newLeafEntry(p point.Point, dim int) *Entry {
	c := cluster.New()
	c.Append(p)

	return &Entry{
		Summary: summary.FromVector(p.Vector),
		Leaf:    c,
		Near:    []point.Point{p},
		Far:     []point.Point{p},
	}
}

// wrapChild returns a fresh internal-level Entry over an existing child
// node, with its Summary computed as the sum of the child's own entries.
func wrapChild(n *Node) (*Entry, error) {
	sum, err := childSummary(n)
	if err != nil {
		return nil, err
	}

	return &Entry{Summary: sum, Child: n}, nil
}

// childSummary sums n's entries' summaries, the CF triple an internal
// entry must keep in sync with its child node's current contents (spec.md
// §4.4: absorption at any depth updates every ancestor's summary).
func childSummary(n *Node) (summary.Summary, error) {
	dim := 0
	if len(n.Entries) > 0 {
		dim = n.Entries[0].Summary.Dim()
	}
	sum := summary.New(dim)
	for _, ce := range n.Entries {
		if err := summary.AccumulateInto(&sum, ce.Summary); err != nil {
			return summary.Summary{}, err
		}
	}

	return sum, nil
}
