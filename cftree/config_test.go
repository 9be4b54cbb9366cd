package cftree_test

import (
	"testing"

	"github.com/katalvlaran/birchrng/cftree"
)

func TestNewConfigRejectsNonPositiveDimension(t *testing.T) {
	if _, err := cftree.NewConfig(0, 1.0); err == nil {
		t.Fatalf("expected error for dimension 0")
	}
}

func TestNewConfigAllowsZeroThreshold(t *testing.T) {
	// T=0 is a legitimate boundary (spec.md §8): no absorption ever
	// happens, every point becomes its own entry.
	cfg, err := cftree.NewConfig(2, 0)
	if err != nil {
		t.Fatalf("NewConfig with T=0: %v", err)
	}
	if cfg.Threshold != 0 {
		t.Fatalf("Threshold = %v, want 0", cfg.Threshold)
	}
}

func TestNewConfigAllowsSingleEntryBranching(t *testing.T) {
	// L=1, B=1 is a degenerate but legal boundary (spec.md §8): every
	// insertion beyond the first forces an immediate split.
	if _, err := cftree.NewConfig(2, 1.0, cftree.WithBranching(1, 1)); err != nil {
		t.Fatalf("NewConfig with B=L=1: %v", err)
	}
}

func TestDefaultConfigRepresentativeCount(t *testing.T) {
	cfg := cftree.DefaultConfig(3, 1.0)
	if cfg.RepresentativeCount != 7 {
		t.Fatalf("RepresentativeCount = %d, want 7", cfg.RepresentativeCount)
	}
}
