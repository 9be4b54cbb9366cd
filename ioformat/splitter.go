// splitter.go — large-export file splitter, grounded on the original's
// implicit split behaviour in GraphExporter.cpp (large trees produced huge
// single files in practice; this package makes that split explicit and
// configurable instead of leaving it to the OS).
package ioformat

import (
	"fmt"
	"path/filepath"

	"github.com/katalvlaran/birchrng/cftree"
)

// Splitter decides when a subtree is large enough to move into its own
// file during export, and names both the file and the filename reference
// that replaces the inline "children" object (spec.md §6).
type Splitter struct {
	// OutputDir is the directory split files are written into.
	OutputDir string

	// NodeThreshold is the number of tree nodes (internal and leaf nodes,
	// not leaf points) a subtree must exceed before it is split out. Zero
	// disables splitting.
	NodeThreshold int
}

// NewSplitter returns a Splitter writing into outputDir once a subtree
// exceeds nodeThreshold tree nodes.
func NewSplitter(outputDir string, nodeThreshold int) *Splitter {
	return &Splitter{OutputDir: outputDir, NodeThreshold: nodeThreshold}
}

// ShouldSplit reports whether child's subtree holds more tree nodes than
// s.NodeThreshold.
//
// Complexity: O(nodes in child's subtree).
func (s *Splitter) ShouldSplit(child *cftree.Node) bool {
	if s == nil || s.NodeThreshold <= 0 {
		return false
	}

	return subtreeNodeCount(child) > s.NodeThreshold
}

// subtreeNodeCount counts n and every descendant node reachable through
// its entries, leaf nodes included (leaf clusters' points are not nodes for this
// purpose — spec.md §6 splits by tree-node count, not point count).
func subtreeNodeCount(n *cftree.Node) int {
	count := 1
	for _, e := range n.Entries {
		if e.Child != nil {
			count += subtreeNodeCount(e.Child)
		}
	}

	return count
}

// FilenameFor returns the on-disk path a split subtree rooted at path is
// written to.
func (s *Splitter) FilenameFor(path string) string {
	return filepath.Join(s.OutputDir, fmt.Sprintf("node_%s.json", sanitizePath(path)))
}

// ReferenceFor returns the filename reference embedded in the parent's
// "children" field in place of an inline object.
func (s *Splitter) ReferenceFor(path string) string {
	return fmt.Sprintf("node_%s.json", sanitizePath(path))
}

// sanitizePath replaces path separators in a tree-path string ("0.3.1")
// with underscores so it is safe as a filename component.
func sanitizePath(path string) string {
	out := make([]byte, len(path))
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			out[i] = '_'
		} else {
			out[i] = path[i]
		}
	}

	return string(out)
}
