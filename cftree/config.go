// config.go — Config and functional Options for a Tree, grounded on
// dijkstra/types.go (options + sentinel errors + doc-comment template) and
// builder/config.go (apply-options-in-order pattern). Callers cannot change
// a Config after NewTree (spec.md's Design Notes: "Static mutable
// configuration -> construction-time struct"); only the tree's own
// memory-ceiling rebuild raises its Threshold.
package cftree

import (
	"github.com/katalvlaran/birchrng/reps"
)

// pageBytes is the page-fitting budget used to derive default branching
// factors (spec.md §6: "defaults derived so a node fits in one page").
const pageBytes = 4096

// entrySizeBytes approximates the in-memory footprint of one Entry header
// (pointer, summary header, path string header) used only to size default
// B/L; it is a rough constant, not a layout promise.
const entrySizeBytes = 64

// defaultBranching derives B (or L) as (page - 2*pointer - size_t) /
// entrySizeBytes, per spec.md §6, clamped to a sane minimum of 4.
func defaultBranching() int {
	const ptrSize = 8
	const sizeT = 8
	b := (pageBytes - 2*ptrSize - sizeT) / entrySizeBytes
	if b < 4 {
		b = 4
	}

	return b
}

// Config holds every tunable named in spec.md §6. There is no
// post-construction mutation API; the one field that changes after a Tree
// is constructed is Threshold, which a memory-ceiling rebuild raises.
type Config struct {
	// Dimension is the fixed vector length for every point in the tree.
	Dimension int

	// Threshold is T, the absorption limit in D0 distance.
	Threshold float64

	// InternalBranch is B, the max entries per internal node.
	InternalBranch int

	// LeafBranch is L, the max entries per leaf node.
	LeafBranch int

	// RepresentativeCount is K, the max near/far representatives per
	// entry. Default 7.
	RepresentativeCount int

	// FarPolicy selects reverse or CURE far-representative selection.
	FarPolicy reps.FarPolicy

	// IRNGEpsilon is the incremental-RNG search-radius inflation factor.
	IRNGEpsilon float64

	// IRNGCutoff is M, the incremental-vs-batch RNG switchover point.
	IRNGCutoff int

	// RevocationOrder bounds the iRNG edge-revocation neighbourhood walk.
	RevocationOrder int

	// MemoryCeiling is an optional byte budget on node_count*NodeSizeBytes.
	// Zero disables the rebuild trigger.
	MemoryCeiling int64

	// NodeSizeBytes approximates one node's footprint for the memory
	// ceiling check (spec.md §4.4 "Memory ceiling / rebuild").
	NodeSizeBytes int64
}

// Option configures a Config before tree construction.
type Option func(*Config)

// WithDimension sets the fixed point dimension. Must be > 0.
func WithDimension(dim int) Option {
	return func(c *Config) { c.Dimension = dim }
}

// WithThreshold sets T, the absorption distance limit. Must be >= 0.
func WithThreshold(t float64) Option {
	return func(c *Config) { c.Threshold = t }
}

// WithBranching sets B (internal) and L (leaf) branching factors.
func WithBranching(b, l int) Option {
	return func(c *Config) {
		c.InternalBranch = b
		c.LeafBranch = l
	}
}

// WithRepresentativeCount sets K, the max representatives per entry.
func WithRepresentativeCount(k int) Option {
	return func(c *Config) { c.RepresentativeCount = k }
}

// WithFarPolicy selects the far-representative policy (reverse or CURE).
func WithFarPolicy(p reps.FarPolicy) Option {
	return func(c *Config) { c.FarPolicy = p }
}

// WithIRNGEpsilon sets the incremental RNG search-radius inflation.
func WithIRNGEpsilon(eps float64) Option {
	return func(c *Config) { c.IRNGEpsilon = eps }
}

// WithIRNGCutoff sets M, the incremental-vs-batch RNG switchover point.
func WithIRNGCutoff(m int) Option {
	return func(c *Config) { c.IRNGCutoff = m }
}

// WithRevocationOrder sets the bounded-order edge-revocation walk depth.
func WithRevocationOrder(order int) Option {
	return func(c *Config) { c.RevocationOrder = order }
}

// WithMemoryCeiling sets the node_count*NodeSizeBytes budget that triggers
// a rebuild. Zero disables the check.
func WithMemoryCeiling(bytes int64) Option {
	return func(c *Config) { c.MemoryCeiling = bytes }
}

// WithNodeSizeBytes overrides the per-node byte estimate used against
// MemoryCeiling.
func WithNodeSizeBytes(bytes int64) Option {
	return func(c *Config) { c.NodeSizeBytes = bytes }
}

// DefaultConfig returns a Config with spec.md §6's stated defaults for a
// tree of the given dimension and absorption threshold.
func DefaultConfig(dimension int, threshold float64) Config {
	b := defaultBranching()

	return Config{
		Dimension:           dimension,
		Threshold:           threshold,
		InternalBranch:      b,
		LeafBranch:          b,
		RepresentativeCount: reps.DefaultK,
		FarPolicy:           reps.FarPolicyReverse,
		IRNGEpsilon:         1,
		IRNGCutoff:          10000,
		RevocationOrder:     4,
		MemoryCeiling:       0,
		NodeSizeBytes:       int64(pageBytes),
	}
}

// NewConfig builds a Config from DefaultConfig(dimension, threshold),
// applying opts in order; later options override earlier ones.
func NewConfig(dimension int, threshold float64, opts ...Option) (Config, error) {
	cfg := DefaultConfig(dimension, threshold)
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg, validateConfig(cfg)
}

// validateConfig rejects a Config that could never admit any point.
func validateConfig(c Config) error {
	if c.Dimension <= 0 {
		return ErrInvalidConfig
	}
	if c.Threshold < 0 {
		return ErrInvalidConfig
	}
	if c.InternalBranch < 1 || c.LeafBranch < 1 {
		return ErrInvalidConfig
	}
	if c.RepresentativeCount < 1 {
		return ErrInvalidConfig
	}

	return nil
}
