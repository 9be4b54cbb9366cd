package ioformat_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/katalvlaran/birchrng/ioformat"
	"github.com/katalvlaran/birchrng/point"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "points.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}

	return path
}

func TestReaderReadFileUnlabeled(t *testing.T) {
	path := writeTempFile(t, "1,2,3\n4,5,6\n")
	r := ioformat.NewReader()

	points, err := r.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Vector[0] != 1 || points[0].Vector[2] != 3 {
		t.Fatalf("unexpected vector: %+v", points[0].Vector)
	}
	if points[0].Label != "" || points[0].Asset != "" {
		t.Fatalf("unlabeled point should have no label/asset: %+v", points[0])
	}
}

func TestReaderReadFileLabelFirstColumn(t *testing.T) {
	path := writeTempFile(t, "catA,1,2\n")
	r := ioformat.NewReader(ioformat.WithLabelPosition(point.LabelFirstColumn))

	points, err := r.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if points[0].Label != "catA" {
		t.Fatalf("expected label catA, got %q", points[0].Label)
	}
	if points[0].Asset != "catA.jpg" {
		t.Fatalf("expected asset catA.jpg, got %q", points[0].Asset)
	}
	if len(points[0].Vector) != 2 {
		t.Fatalf("expected 2-dim vector after stripping label, got %v", points[0].Vector)
	}
}

func TestReaderReadFileLabelLastColumn(t *testing.T) {
	path := writeTempFile(t, "1,2,catB\n")
	r := ioformat.NewReader(ioformat.WithLabelPosition(point.LabelLastColumn))

	points, err := r.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if points[0].Label != "catB" {
		t.Fatalf("expected label catB, got %q", points[0].Label)
	}
	if len(points[0].Vector) != 2 {
		t.Fatalf("expected 2-dim vector after stripping label, got %v", points[0].Vector)
	}
}

func TestReaderTrailingSeparatorPatch(t *testing.T) {
	path := writeTempFile(t, "1,2,3,\n")

	withoutPatch := ioformat.NewReader()
	if _, err := withoutPatch.ReadFile(path); !errors.Is(err, ioformat.ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField without patch, got %v", err)
	}

	withPatch := ioformat.NewReader(ioformat.WithTrailingSeparatorPatch(true))
	points, err := withPatch.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile with patch: %v", err)
	}
	if len(points[0].Vector) != 3 {
		t.Fatalf("expected trailing empty field dropped, got %v", points[0].Vector)
	}
}

func TestReaderCustomFieldSeparator(t *testing.T) {
	path := writeTempFile(t, "1;2;3\n")
	r := ioformat.NewReader(ioformat.WithFieldSeparator(';'))

	points, err := r.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(points) != 1 || len(points[0].Vector) != 3 {
		t.Fatalf("unexpected parse result: %+v", points)
	}
}

func TestReaderInvalidField(t *testing.T) {
	path := writeTempFile(t, "1,notanumber,3\n")
	r := ioformat.NewReader()

	if _, err := r.ReadFile(path); !errors.Is(err, ioformat.ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
}

func TestReaderFileNotFound(t *testing.T) {
	r := ioformat.NewReader()
	if _, err := r.ReadFile(filepath.Join(t.TempDir(), "missing.csv")); !errors.Is(err, ioformat.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestReaderSkipsBlankLines(t *testing.T) {
	path := writeTempFile(t, "1,2\n\n3,4\n")
	r := ioformat.NewReader()

	points, err := r.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points skipping the blank line, got %d", len(points))
	}
}
