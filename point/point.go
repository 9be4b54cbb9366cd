// Package point defines the Point data model shared by every layer of
// birchrng: the cluster-feature tree, the leaf clusters, and the RNG
// engine all operate on copies of this type.
//
// A Point owns nothing beyond its own fields: Vector is duplicated by the
// caller's collaborators (ioformat.Reader) before it ever reaches the tree,
// so the tree can keep its own copy without the caller needing to reason
// about aliasing (spec.md §3, "the tree stores duplicated copies").
package point

import (
	"errors"
	"fmt"
)

// Sentinel errors for point validation.
var (
	// ErrDimensionMismatch indicates a point's vector length does not match
	// the dimension configured for the consuming tree.
	ErrDimensionMismatch = errors.New("point: vector dimension mismatch")

	// ErrEmptyVector indicates a point was constructed with a zero-length
	// vector, which can never satisfy a positive configured dimension.
	ErrEmptyVector = errors.New("point: vector is empty")
)

// LabelPosition controls where an optional label field sits in an
// input line, mirroring the reader's field layout (spec.md §6).
type LabelPosition int

const (
	// LabelNone means the line carries no label field.
	LabelNone LabelPosition = iota
	// LabelFirstColumn means the label is the first field on the line.
	LabelFirstColumn
	// LabelLastColumn means the label is the last field on the line.
	LabelLastColumn
)

// Point is an identifier, a fixed-dimension coordinate vector, an optional
// label, an optional external asset path, and the tree-path string assigned
// once the point lands in a leaf cluster (empty until then).
//
// ID is assigned by monotonically increasing insertion order (spec.md §5,
// "Ordering guarantees"); it is never reused and never recomputed.
type Point struct {
	ID     uint64
	Vector []float64
	Label  string
	Asset  string
	Path   string
}

// New returns a Point with a duplicated copy of vec, so later mutation of
// the caller's slice cannot affect the stored point.
//
// Complexity: O(d) time/space for d = len(vec).
func New(id uint64, vec []float64, label, asset string) (Point, error) {
	if len(vec) == 0 {
		return Point{}, ErrEmptyVector
	}
	cp := make([]float64, len(vec))
	copy(cp, vec)

	return Point{ID: id, Vector: cp, Label: label, Asset: asset}, nil
}

// ValidateDimension returns ErrDimensionMismatch if p's vector length does
// not equal dim, wrapping the point's ID for diagnostics.
//
// Complexity: O(1).
func ValidateDimension(p Point, dim int) error {
	if len(p.Vector) != dim {
		return fmt.Errorf("point %d: %w (want %d, got %d)", p.ID, ErrDimensionMismatch, dim, len(p.Vector))
	}

	return nil
}

// Clone returns a deep copy of p; the returned point shares no backing
// array with p.
//
// Complexity: O(d).
func Clone(p Point) Point {
	cp := make([]float64, len(p.Vector))
	copy(cp, p.Vector)

	return Point{ID: p.ID, Vector: cp, Label: p.Label, Asset: p.Asset, Path: p.Path}
}
