// build.go — the `build` subcommand: ingest one or more point files, grow a
// tree, and export it (plus, optionally, its leaf chain, per-level RNGs,
// and a stress-majorization coordinate overlay for each level). Every
// cftree.Config field is exposed as a flag, grounded on spec.md §6's
// parameter table; structured logging at this boundary uses
// github.com/rs/zerolog, the library never imported by cftree/rng/summary
// themselves.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/katalvlaran/birchrng/cftree"
	"github.com/katalvlaran/birchrng/ioformat"
	"github.com/katalvlaran/birchrng/layout"
	"github.com/katalvlaran/birchrng/point"
	"github.com/katalvlaran/birchrng/reps"
)

var (
	// tree shape
	dimension           int
	threshold           float64
	internalBranch      int
	leafBranch          int
	representativeCount int
	farPolicyFlag       string
	irngEpsilon         float64
	irngCutoff          int
	revocationOrder     int
	memoryCeiling       int64
	nodeSizeBytes       int64

	// input parsing
	labelPositionFlag      string
	fieldSeparator         string
	trailingSeparatorPatch bool

	// output
	outputPath      string
	leafChainOutput string
	levelsPrefix    string
	splitDir        string
	splitThreshold  int
	runLayout       bool

	verbose bool
)

func init() {
	f := buildCmd.Flags()

	f.IntVar(&dimension, "dimension", 0, "fixed point vector length (required)")
	f.Float64Var(&threshold, "threshold", 0, "absorption distance limit T (required)")
	f.IntVar(&internalBranch, "internal-branch", 0, "max entries per internal node, 0 = derive from page size")
	f.IntVar(&leafBranch, "leaf-branch", 0, "max entries per leaf node, 0 = derive from page size")
	f.IntVar(&representativeCount, "representative-count", reps.DefaultK, "max near/far representatives per entry (K)")
	f.StringVar(&farPolicyFlag, "far-policy", "reverse", "far-representative policy: reverse or cure")
	f.Float64Var(&irngEpsilon, "irng-epsilon", 1, "incremental-RNG search-radius inflation factor")
	f.IntVar(&irngCutoff, "irng-cutoff", 10000, "incremental-vs-batch RNG switchover point (M)")
	f.IntVar(&revocationOrder, "revocation-order", 4, "bounded-order iRNG edge-revocation walk depth")
	f.Int64Var(&memoryCeiling, "memory-ceiling", 0, "node_count*node-size-bytes budget that triggers a rebuild, 0 disables")
	f.Int64Var(&nodeSizeBytes, "node-size-bytes", 4096, "per-node byte estimate used against memory-ceiling")

	f.StringVar(&labelPositionFlag, "label-position", "none", "label field position on each input line: none, first, or last")
	f.StringVar(&fieldSeparator, "field-separator", ",", "single-byte field separator")
	f.BoolVar(&trailingSeparatorPatch, "trailing-separator-patch", false, "drop a spurious empty trailing field from lines ending in the separator")

	f.StringVar(&outputPath, "output", "tree.json", "path to write the full tree export")
	f.StringVar(&leafChainOutput, "leaf-chain-output", "", "path to write the leaf-chain export; empty skips it")
	f.StringVar(&levelsPrefix, "levels-prefix", "", "path prefix for per-level RNG exports (e.g. out/levels); empty skips them")
	f.StringVar(&splitDir, "split-dir", "", "directory for split-out subtree files; empty disables split-file mode")
	f.IntVar(&splitThreshold, "split-threshold", 0, "tree-node count (internal and leaf nodes) above which a subtree is split into its own file")
	f.BoolVar(&runLayout, "layout", false, "post-process each exported level's RNG into 2D coordinates via stress majorization")

	f.BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")

	rootCmd.AddCommand(buildCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build [input files...]",
	Short: "Build a clustering-feature tree from one or more point files and export it",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBuild,
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

func runBuild(cmd *cobra.Command, args []string) error {
	log := newLogger()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	farPolicy, err := parseFarPolicy(farPolicyFlag)
	if err != nil {
		return err
	}
	labelPos, err := parseLabelPosition(labelPositionFlag)
	if err != nil {
		return err
	}
	if len(fieldSeparator) != 1 {
		return fmt.Errorf("birchrng: --field-separator must be exactly one byte, got %q", fieldSeparator)
	}

	cfgOpts := []cftree.Option{
		cftree.WithRepresentativeCount(representativeCount),
		cftree.WithFarPolicy(farPolicy),
		cftree.WithIRNGEpsilon(irngEpsilon),
		cftree.WithIRNGCutoff(irngCutoff),
		cftree.WithRevocationOrder(revocationOrder),
		cftree.WithMemoryCeiling(memoryCeiling),
		cftree.WithNodeSizeBytes(nodeSizeBytes),
	}
	if internalBranch > 0 || leafBranch > 0 {
		b, l := internalBranch, leafBranch
		if b == 0 {
			b = l
		}
		if l == 0 {
			l = b
		}
		cfgOpts = append(cfgOpts, cftree.WithBranching(b, l))
	}

	cfg, err := cftree.NewConfig(dimension, threshold, cfgOpts...)
	if err != nil {
		return fmt.Errorf("birchrng: building configuration: %w", err)
	}

	tree, err := cftree.NewTree(cfg)
	if err != nil {
		return fmt.Errorf("birchrng: constructing tree: %w", err)
	}

	reader := ioformat.NewReader(
		ioformat.WithLabelPosition(labelPos),
		ioformat.WithFieldSeparator(fieldSeparator[0]),
		ioformat.WithTrailingSeparatorPatch(trailingSeparatorPatch),
	)

	start := time.Now()
	var totalPoints, totalAbsorbed int
	for _, path := range args {
		points, err := reader.ReadFile(path)
		if err != nil {
			return fmt.Errorf("birchrng: reading %s: %w", path, err)
		}
		absorbed, err := tree.InsertBatch(ctx, points, filepath.Base(path))
		if err != nil {
			return fmt.Errorf("birchrng: inserting from %s: %w", path, err)
		}
		totalPoints += len(points)
		totalAbsorbed += absorbed
		log.Debug().Str("file", path).Int("points", len(points)).Msg("ingested input file")
	}
	log.Info().
		Int("points", totalPoints).
		Int("absorbed", totalAbsorbed).
		Int("nodes", tree.NodeCount()).
		Dur("elapsed", time.Since(start)).
		Msg("tree built")

	var splitter *ioformat.Splitter
	if splitDir != "" {
		splitter = ioformat.NewSplitter(splitDir, splitThreshold)
	}
	exporter := ioformat.NewExporter(splitter)

	if err := exporter.ExportTree(tree, outputPath); err != nil {
		return fmt.Errorf("birchrng: exporting tree: %w", err)
	}
	log.Info().Str("path", outputPath).Msg("exported tree")

	if leafChainOutput != "" {
		if err := exporter.ExportLeafChain(tree, leafChainOutput); err != nil {
			return fmt.Errorf("birchrng: exporting leaf chain: %w", err)
		}
		log.Info().Str("path", leafChainOutput).Msg("exported leaf chain")
	}

	if levelsPrefix != "" {
		snaps, err := tree.CreateMultilevelRNG(ctx)
		if err != nil {
			return fmt.Errorf("birchrng: computing multilevel RNG: %w", err)
		}
		if err := exporter.ExportLevels(snaps, levelsPrefix); err != nil {
			return fmt.Errorf("birchrng: exporting levels: %w", err)
		}
		log.Info().Int("levels", len(snaps)).Str("prefix", levelsPrefix).Msg("exported per-level RNGs")

		if runLayout {
			if err := exportLayouts(log, snaps, levelsPrefix); err != nil {
				return fmt.Errorf("birchrng: laying out levels: %w", err)
			}
		}
	}

	return nil
}

func parseFarPolicy(s string) (reps.FarPolicy, error) {
	switch s {
	case "reverse", "":
		return reps.FarPolicyReverse, nil
	case "cure":
		return reps.FarPolicyCURE, nil
	default:
		return 0, fmt.Errorf("birchrng: unknown --far-policy %q, want reverse or cure", s)
	}
}

func parseLabelPosition(s string) (point.LabelPosition, error) {
	switch s {
	case "none", "":
		return point.LabelNone, nil
	case "first":
		return point.LabelFirstColumn, nil
	case "last":
		return point.LabelLastColumn, nil
	default:
		return 0, fmt.Errorf("birchrng: unknown --label-position %q, want none, first, or last", s)
	}
}

// layoutPoint is one entry's placed coordinate in a layout overlay file.
type layoutPoint struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// exportLayouts runs stress majorization over every level snapshot that
// carries an RNG and writes a "<prefix>_<depth>_layout.json" coordinate
// overlay per level, separate from the grid-position fallback ExportLevels
// already baked into each node's x/y fields.
func exportLayouts(log zerolog.Logger, snaps []cftree.LevelSnapshot, prefix string) error {
	for _, snap := range snaps {
		if snap.RNG == nil || snap.RNG.N == 0 {
			continue
		}

		initial := make([]layout.Position, snap.RNG.N)
		for i := range initial {
			initial[i] = gridSeed(i, snap.RNG.N)
		}

		positions, err := layout.StressMajorization(snap.RNG, initial)
		if err != nil {
			log.Warn().Int("depth", snap.Depth).Err(err).Msg("skipping layout for level")
			continue
		}

		out := make([]layoutPoint, len(positions))
		for i, p := range positions {
			id := ""
			if i < len(snap.Entries) {
				id = snap.Entries[i].Path
			}
			out[i] = layoutPoint{ID: id, X: p.X, Y: p.Y}
		}

		filename := fmt.Sprintf("%s_%d_layout.json", prefix, snap.Depth)
		if err := writeJSONFile(filename, out); err != nil {
			return err
		}
		log.Info().Int("depth", snap.Depth).Str("path", filename).Msg("exported level layout")
	}

	return nil
}

// gridSeed places point i of n on a roughly square grid of ceil(sqrt(n))
// columns, so the majorization loop starts from a deterministic,
// non-degenerate configuration. This is not the placement ExportLevels'
// own fallback uses, which wraps after ceil(n/2) columns.
func gridSeed(i, n int) layout.Position {
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	if cols < 1 {
		cols = 1
	}

	return layout.Position{X: float64(i % cols), Y: float64(i / cols)}
}

func writeJSONFile(filename string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ioformat.ErrExportIO, err)
	}

	return os.WriteFile(filename, data, 0o644)
}
