// Package ioformat implements birchrng's file-facing collaborators
// (spec.md §6): a line-oriented point reader, a JSON tree/leaf-chain/
// per-level exporter, and a file splitter for large exports. None of these
// touch cftree's internals beyond its exported Node/Entry/LevelSnapshot
// types; they are plain consumers of the tree, the way the original's
// DataReader.cpp and GraphExporter.cpp sit beside (not inside) CFTree.cpp.
//
// reader.go — line-oriented point reader, grounded on
// original_source/3. Code/BIRCH++/DataReader.cpp's field-splitting logic,
// written in the teacher's reader-option-struct idiom (cftree.Config +
// Option).
package ioformat

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/katalvlaran/birchrng/point"
)

// Sentinel errors for ioformat.Reader.
var (
	// ErrFileNotFound indicates the input file could not be opened
	// (spec.md §7 "input-missing").
	ErrFileNotFound = errors.New("ioformat: input file not found")

	// ErrEmptyLine indicates a line had no coordinate fields left once the
	// trailing-separator patch and the label field were applied. Blank
	// lines are skipped, not reported.
	ErrEmptyLine = errors.New("ioformat: empty line")

	// ErrInvalidField indicates a coordinate field could not be parsed
	// as a float64.
	ErrInvalidField = errors.New("ioformat: invalid coordinate field")
)

// ReaderOptions configures a Reader's line-splitting behaviour
// (spec.md §6).
type ReaderOptions struct {
	// LabelPosition selects where the optional label field sits on each
	// line.
	LabelPosition point.LabelPosition

	// FieldSeparator is the single byte separating fields on a line.
	FieldSeparator byte

	// TrailingSeparatorPatch drops the spurious empty trailing field that
	// results from a line ending in the separator.
	TrailingSeparatorPatch bool
}

// ReaderOption configures a ReaderOptions before a Reader is built.
type ReaderOption func(*ReaderOptions)

// WithLabelPosition sets where the label field sits on each line.
func WithLabelPosition(pos point.LabelPosition) ReaderOption {
	return func(o *ReaderOptions) { o.LabelPosition = pos }
}

// WithFieldSeparator sets the single-byte field separator.
func WithFieldSeparator(sep byte) ReaderOption {
	return func(o *ReaderOptions) { o.FieldSeparator = sep }
}

// WithTrailingSeparatorPatch enables the trailing-separator fixup for
// files whose lines end with the separator.
func WithTrailingSeparatorPatch(patch bool) ReaderOption {
	return func(o *ReaderOptions) { o.TrailingSeparatorPatch = patch }
}

// DefaultReaderOptions returns the reader's defaults: no label, comma
// separator, no trailing-separator patch.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{
		LabelPosition:          point.LabelNone,
		FieldSeparator:         ',',
		TrailingSeparatorPatch: false,
	}
}

// NewReaderOptions builds a ReaderOptions from DefaultReaderOptions,
// applying opts in order.
func NewReaderOptions(opts ...ReaderOption) ReaderOptions {
	o := DefaultReaderOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// Reader parses a plain-text point file, one point per newline-terminated
// line (spec.md §6, "Input file format").
type Reader struct {
	opts ReaderOptions
}

// NewReader returns a Reader configured by opts.
func NewReader(opts ...ReaderOption) *Reader {
	return &Reader{opts: NewReaderOptions(opts...)}
}

// ReadFile parses filename into a slice of Points in file order. Point IDs
// are assigned 0..n-1 within the file; the tree reassigns its own
// monotonic IDs on insertion, so these are only placeholders for callers
// that want to report a file-local line number.
//
// Complexity: O(lines * dimension).
func (r *Reader) ReadFile(filename string) ([]point.Point, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFileNotFound, filename, err)
	}
	defer f.Close()

	var points []point.Point
	scanner := bufio.NewScanner(f)
	// Lines can be long for high-dimensional points; grow the buffer past
	// bufio's 64 KiB default.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var lineNo uint64
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		p, err := r.parseLine(lineNo, line)
		if err != nil {
			return nil, fmt.Errorf("ioformat: line %d: %w", lineNo, err)
		}
		points = append(points, p)
		lineNo++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ioformat: reading %s: %w", filename, err)
	}

	return points, nil
}

// parseLine splits one line into a label (if configured) and a coordinate
// vector, per DataReader.cpp's SplitContentAndStore field layout.
func (r *Reader) parseLine(id uint64, line string) (point.Point, error) {
	fields := strings.Split(line, string(r.opts.FieldSeparator))
	if r.opts.TrailingSeparatorPatch && len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	if len(fields) == 0 {
		return point.Point{}, ErrEmptyLine
	}

	label := ""
	switch r.opts.LabelPosition {
	case point.LabelFirstColumn:
		label = fields[0]
		fields = fields[1:]
	case point.LabelLastColumn:
		label = fields[len(fields)-1]
		fields = fields[:len(fields)-1]
	}
	if len(fields) == 0 {
		return point.Point{}, ErrEmptyLine
	}

	vec := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return point.Point{}, fmt.Errorf("%w: %q", ErrInvalidField, f)
		}
		vec[i] = v
	}

	return point.New(id, vec, label, assetFromLabel(label))
}

// assetFromLabel mirrors the original reader's imagepath derivation: the
// label, right-trimmed of whitespace, with a ".jpg" suffix. Empty for
// unlabeled points.
func assetFromLabel(label string) string {
	if label == "" {
		return ""
	}

	return strings.TrimRight(label, " \t\r\n") + ".jpg"
}
