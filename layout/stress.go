// Package layout post-processes an exported per-level RNG into 2D screen
// coordinates, grounded on original_source/3. Code/LayoutHRNG/
// StressMajorization.cpp's StressMajorizationGraphDrawingAlgorithm. It is an
// out-of-core collaborator: ioformat's grid-position fallback is enough to
// produce a valid export on its own, and callers that want a proper layout
// run a second pass over the exported coordinates through this package.
package layout

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/birchrng/rng"
)

var (
	// ErrEmptyGraph indicates a graph with no vertices was passed in.
	ErrEmptyGraph = errors.New("layout: graph has no vertices")

	// ErrPositionCount indicates the initial position slice didn't match
	// the graph's vertex count.
	ErrPositionCount = errors.New("layout: initial position count does not match graph size")

	// ErrDisconnected indicates two vertices have no path between them,
	// so no finite target distance exists for the stress model.
	ErrDisconnected = errors.New("layout: graph is disconnected")

	// ErrSingularSystem indicates the weighted Laplacian's reduced system
	// failed to factorize; this should not happen for a connected graph
	// with positive edge weights.
	ErrSingularSystem = errors.New("layout: weighted Laplacian is not positive definite")
)

// Position is a single 2D placement.
type Position struct {
	X, Y float64
}

// Options configures the majorization loop's stopping behaviour.
type Options struct {
	// MaxIterations bounds the number of majorization sweeps.
	MaxIterations int

	// Epsilon is the minimum relative stress improvement to keep
	// iterating; the loop stops once an iteration improves stress by
	// less than this fraction of the previous stress.
	Epsilon float64
}

// Option configures an Options value.
type Option func(*Options)

// WithMaxIterations overrides the iteration cap (original default: 1000).
func WithMaxIterations(n int) Option {
	return func(o *Options) { o.MaxIterations = n }
}

// WithEpsilon overrides the relative-improvement stopping threshold
// (original default: 0.0001).
func WithEpsilon(eps float64) Option {
	return func(o *Options) { o.Epsilon = eps }
}

// DefaultOptions returns the original algorithm's published constants:
// EPSILON = 0.0001, MAX_ITERATIONS = 1000.
func DefaultOptions() Options {
	return Options{MaxIterations: 1000, Epsilon: 0.0001}
}

// NewOptions builds an Options from DefaultOptions, applying opts in order.
func NewOptions(opts ...Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// StressMajorization lays out g's vertices in 2D by iterative stress
// majorization (Gansner, Koren, North, "Graph Drawing by Stress
// Majorization", 2003), starting from initial and returning one Position
// per vertex in the same order.
//
// The original's per-iteration update (AtomicGo) is a single Jacobi sweep
// over a per-vertex weighted average; here each iteration instead solves
// the joint weighted-Laplacian system the majorization bound actually
// calls for, via gonum's mat.Cholesky rather than hand-rolled elimination.
// The Laplacian is singular (translation invariant), so vertex 0 is pinned
// and the remaining (n-1)x(n-1) system is solved in its place — the
// standard fix for this degeneracy.
//
// Complexity: O(MaxIterations * V^2) for the per-iteration right-hand side,
// plus one O(V^3) Cholesky factorization performed once up front (the
// weighted Laplacian is constant across iterations; only its right-hand
// side changes).
func StressMajorization(g *rng.Graph, initial []Position, opts ...Option) ([]Position, error) {
	if g == nil || g.N == 0 {
		return nil, ErrEmptyGraph
	}
	if len(initial) != g.N {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrPositionCount, len(initial), g.N)
	}
	cfg := NewOptions(opts...)

	dist, err := shortestPaths(g)
	if err != nil {
		return nil, err
	}
	weights := smWeights(g.N, dist)

	pos := make([]Position, len(initial))
	copy(pos, initial)

	if g.N == 1 {
		return pos, nil
	}

	chol, err := factorizeReducedLaplacian(g.N, weights)
	if err != nil {
		return nil, err
	}

	currentStress := computeStress(pos, dist, weights)
	for iter := 0; iter < cfg.MaxIterations; iter++ {
		next, err := majorizeStep(pos, dist, weights, chol, g.N)
		if err != nil {
			return nil, err
		}
		pos = next

		previousStress := currentStress
		currentStress = computeStress(pos, dist, weights)
		if previousStress > 0 && (previousStress-currentStress)/previousStress <= cfg.Epsilon {
			break
		}
	}

	return pos, nil
}

// shortestPaths computes the all-pairs shortest-path matrix over g's edge
// weights via gonum's Dijkstra, using rng.Graph.ToGonum rather than a
// bespoke graph representation (original_source's ComputeShortestPaths ran
// one boost::dijkstra_shortest_paths per source; gonum's DijkstraAllPaths
// does the same work with a single call).
func shortestPaths(g *rng.Graph) ([][]float64, error) {
	allShortest := path.DijkstraAllPaths(g.ToGonum())

	dist := make([][]float64, g.N)
	for i := 0; i < g.N; i++ {
		dist[i] = make([]float64, g.N)
		for j := 0; j < g.N; j++ {
			if i == j {
				continue
			}
			w := allShortest.Weight(int64(i), int64(j))
			if math.IsInf(w, 1) {
				return nil, fmt.Errorf("%w: vertices %d and %d", ErrDisconnected, i, j)
			}
			dist[i][j] = w
		}
	}

	return dist, nil
}

// smWeights computes the stress-majorization weight matrix as 1/d_ij^2,
// the textbook formula the original's ComputeSMWeights left commented out
// in favor of a constant 1 ("@todo Handle the alpha parameter").
func smWeights(n int, dist [][]float64) [][]float64 {
	w := make([][]float64, n)
	for i := range w {
		w[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if dist[i][j] == 0 {
				continue
			}
			v := 1.0 / (dist[i][j] * dist[i][j])
			w[i][j], w[j][i] = v, v
		}
	}

	return w
}

// factorizeReducedLaplacian builds the weighted Laplacian with vertex 0
// pinned (row/column 0 removed) and factorizes it via Cholesky. The full
// Laplacian has a one-dimensional null space from translation invariance;
// removing one vertex's row and column makes the remainder positive
// definite for a connected graph with positive weights.
func factorizeReducedLaplacian(n int, weights [][]float64) (*mat.Cholesky, error) {
	m := n - 1
	sym := mat.NewSymDense(m, nil)
	for i := 1; i < n; i++ {
		var diag float64
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			diag += weights[i][j]
		}
		sym.SetSym(i-1, i-1, diag)
		for j := i + 1; j < n; j++ {
			sym.SetSym(i-1, j-1, -weights[i][j])
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, ErrSingularSystem
	}

	return &chol, nil
}

// majorizeStep performs one majorization sweep: builds the right-hand side
// from the current positions (Gansner et al. eq. 8) and solves the pinned
// system for the new positions of every vertex but 0.
func majorizeStep(pos []Position, dist, weights [][]float64, chol *mat.Cholesky, n int) ([]Position, error) {
	bx := make([]float64, n-1)
	by := make([]float64, n-1)
	for i := 1; i < n; i++ {
		var sx, sy float64
		for j := 0; j < n; j++ {
			if i == j || weights[i][j] == 0 {
				continue
			}
			dx := pos[i].X - pos[j].X
			dy := pos[i].Y - pos[j].Y
			d := math.Hypot(dx, dy)
			if d == 0 {
				continue
			}
			coef := weights[i][j] * dist[i][j] / d
			sx += coef * dx
			sy += coef * dy
		}
		// Vertex 0 is pinned: its term moves from the left-hand side to
		// the right-hand side as a known constant.
		bx[i-1] = sx + weights[i][0]*pos[0].X
		by[i-1] = sy + weights[i][0]*pos[0].Y
	}

	var xSol, ySol mat.VecDense
	if err := chol.SolveVecTo(&xSol, mat.NewVecDense(n-1, bx)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularSystem, err)
	}
	if err := chol.SolveVecTo(&ySol, mat.NewVecDense(n-1, by)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularSystem, err)
	}

	next := make([]Position, n)
	next[0] = pos[0]
	for i := 1; i < n; i++ {
		next[i] = Position{X: xSol.AtVec(i - 1), Y: ySol.AtVec(i - 1)}
	}

	return next, nil
}

// computeStress evaluates the stress function sum_{i<j} w_ij*(||p_i-p_j||-d_ij)^2.
func computeStress(pos []Position, dist, weights [][]float64) float64 {
	var stress float64
	n := len(pos)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if weights[i][j] == 0 {
				continue
			}
			dx := pos[i].X - pos[j].X
			dy := pos[i].Y - pos[j].Y
			diff := math.Hypot(dx, dy) - dist[i][j]
			stress += weights[i][j] * diff * diff
		}
	}

	return stress
}
