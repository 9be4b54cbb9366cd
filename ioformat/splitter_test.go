package ioformat_test

import (
	"path/filepath"
	"testing"

	"github.com/katalvlaran/birchrng/ioformat"
)

func TestSplitterDisabledWhenThresholdIsZero(t *testing.T) {
	s := ioformat.NewSplitter("/out", 0)
	tree := buildTestTree(t, [][]float64{{0, 0}, {0.1, 0.1}, {10, 10}, {10.1, 10.1}, {20, 20}, {20.1, 20.1}})

	if s.ShouldSplit(tree.Root()) {
		t.Fatalf("a zero threshold must never trigger a split")
	}
}

func TestSplitterSplitsOnceThresholdExceeded(t *testing.T) {
	tree := buildTestTree(t, [][]float64{{0, 0}, {0.1, 0.1}, {10, 10}, {10.1, 10.1}, {20, 20}, {20.1, 20.1}})
	root := tree.Root()

	// Threshold 0 disables splitting unconditionally; a threshold of 1
	// must trip as soon as the root has any child node.
	loose := ioformat.NewSplitter("/out", 1000)
	if loose.ShouldSplit(root) {
		t.Fatalf("a very high threshold must not trigger a split on a small tree")
	}

	hasInternalChild := false
	for _, e := range root.Entries {
		if e.Child != nil {
			hasInternalChild = true
		}
	}
	if !hasInternalChild {
		t.Skip("tree built with too few points to have an internal child; nothing to assert")
	}

	strict := ioformat.NewSplitter("/out", 1)
	if !strict.ShouldSplit(root) {
		t.Fatalf("expected ShouldSplit to trip once the root's subtree has more than one node")
	}
}

func TestSplitterFilenameAndReferenceSanitizePath(t *testing.T) {
	s := ioformat.NewSplitter("/out", 5)

	filename := s.FilenameFor("0.3.1")
	want := filepath.Join("/out", "node_0_3_1.json")
	if filename != want {
		t.Fatalf("FilenameFor(%q) = %q, want %q", "0.3.1", filename, want)
	}

	ref := s.ReferenceFor("0.3.1")
	if ref != "node_0_3_1.json" {
		t.Fatalf("ReferenceFor(%q) = %q, want node_0_3_1.json", "0.3.1", ref)
	}
}
