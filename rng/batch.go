// This file implements the brute-force O(n^2*d + n^3) batch RNG builder
// (spec.md §4.2, "Batch builder"). The two inner loops it specifies —
// distance-matrix fill and neighbour-existence testing — are parallelised
// across worker goroutines coordinated by an errgroup.Group, replacing the
// teacher-adjacent channel/WaitGroup idiom seen in the pack's
// crowsonkb/cluster reference with one that propagates a worker error
// (e.g. a dimension mismatch) by cancelling the whole batch instead of
// completing silently.
package rng

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BuildOptions configures the batch builder.
type BuildOptions struct {
	// Dist is the distance function used between point vectors.
	// Defaults to Euclidean when zero-valued.
	Dist DistanceFunc

	// Workers caps the number of goroutines used per parallel region.
	// Defaults to runtime.GOMAXPROCS(0) when <= 0.
	Workers int
}

func (o BuildOptions) resolve() BuildOptions {
	if o.Dist == nil {
		o.Dist = Euclidean
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}

	return o
}

// Build computes the full RNG over points via the brute-force batch
// algorithm. It is the policy spec.md §4.2 calls for on per-node RNGs
// (size <= B, always batch) and on any point set under the configured
// iRNG cutoff M.
//
// Complexity: Time O(n^2*d + n^3), Space O(n^2).
func Build(ctx context.Context, points [][]float64, opts BuildOptions) (*Graph, error) {
	opts = opts.resolve()
	n := len(points)
	adj := newAdjacency(n)
	if n <= 1 {
		return &Graph{N: n, Adjacency: adj}, nil
	}

	dm, err := distanceMatrix(ctx, points, opts)
	if err != nil {
		return nil, err
	}

	if err := fillEdges(ctx, dm, opts, adj); err != nil {
		return nil, err
	}

	return &Graph{N: n, Adjacency: adj}, nil
}

// distanceMatrix fills the symmetric n*n pairwise distance matrix (flat,
// row-major, diagonal zero) in parallel over rows, per spec.md §5 item 1.
func distanceMatrix(ctx context.Context, points [][]float64, opts BuildOptions) ([]float64, error) {
	n := len(points)
	dim := len(points[0])
	dm := make([]float64, n*n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			if len(points[i]) != dim {
				return fmt.Errorf("rng: point %d has dimension %d, want %d", i, len(points[i]), dim)
			}
			base := i * n
			for j := i + 1; j < n; j++ {
				d := opts.Dist(points[i], points[j])
				dm[base+j] = d
				dm[j*n+i] = d
			}

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return dm, nil
}

// fillEdges decides, for every unordered pair (i,j), whether the RNG edge
// exists by scanning all third points k (spec.md §5 item 2). Work is
// partitioned over i; each worker appends to a thread-local edge buffer,
// merged into adj once every worker has finished — the lock-free-reduction
// pattern spec.md's Design Notes prescribe in place of an OpenMP critical
// section around a shared map insert.
func fillEdges(ctx context.Context, dm []float64, opts BuildOptions, adj AdjacencyMap) error {
	n := adj.size()
	local := make([][]Edge, opts.Workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for w := 0; w < opts.Workers; w++ {
		w := w
		g.Go(func() error {
			var buf []Edge
			for i := w; i < n; i += opts.Workers {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				for j := i + 1; j < n; j++ {
					dij := dm[i*n+j]
					isEdge := true
					for k := 0; k < n; k++ {
						if k == i || k == j {
							continue
						}
						if dm[i*n+k] < dij && dm[j*n+k] < dij {
							isEdge = false

							break
						}
					}
					if isEdge {
						buf = append(buf, Edge{U: i, V: j, W: dij})
					}
				}
			}
			local[w] = buf

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, buf := range local {
		for _, e := range buf {
			adj.addEdge(e.U, e.V, e.W)
		}
	}

	return nil
}

// size returns the number of vertices an AdjacencyMap was allocated for.
func (m AdjacencyMap) size() int { return len(m) }
