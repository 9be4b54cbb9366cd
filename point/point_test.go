package point_test

import (
	"errors"
	"testing"

	"github.com/katalvlaran/birchrng/point"
)

func TestNewCopiesVector(t *testing.T) {
	vec := []float64{1, 2, 3}
	p, err := point.New(1, vec, "cat", "cat.jpg")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	vec[0] = 99
	if p.Vector[0] != 1 {
		t.Fatalf("Point.Vector aliases the caller's slice: got %v", p.Vector)
	}
	if p.Label != "cat" || p.Asset != "cat.jpg" {
		t.Fatalf("unexpected label/asset: %+v", p)
	}
}

func TestNewRejectsEmptyVector(t *testing.T) {
	if _, err := point.New(1, nil, "", ""); !errors.Is(err, point.ErrEmptyVector) {
		t.Fatalf("expected ErrEmptyVector, got %v", err)
	}
}

func TestValidateDimension(t *testing.T) {
	p, err := point.New(1, []float64{1, 2}, "", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := point.ValidateDimension(p, 2); err != nil {
		t.Fatalf("ValidateDimension(2): %v", err)
	}
	if err := point.ValidateDimension(p, 3); !errors.Is(err, point.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p, err := point.New(1, []float64{1, 2}, "l", "a")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.Path = "0.1"

	cp := point.Clone(p)
	cp.Vector[0] = 42
	if p.Vector[0] != 1 {
		t.Fatalf("Clone shares backing array with original")
	}
	if cp.Path != p.Path || cp.Label != p.Label || cp.Asset != p.Asset {
		t.Fatalf("Clone dropped a field: got %+v, want fields matching %+v", cp, p)
	}
}
