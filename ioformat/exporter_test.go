package ioformat_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/katalvlaran/birchrng/cftree"
	"github.com/katalvlaran/birchrng/ioformat"
	"github.com/katalvlaran/birchrng/point"
)

func buildTestTree(t *testing.T, points [][]float64) *cftree.Tree {
	t.Helper()
	cfg, err := cftree.NewConfig(len(points[0]), 2, cftree.WithBranching(3, 3))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	tree, err := cftree.NewTree(cfg)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}

	ctx := context.Background()
	for i, v := range points {
		p, err := point.New(uint64(i), v, "", "")
		if err != nil {
			t.Fatalf("point.New: %v", err)
		}
		if err := tree.Insert(ctx, p); err != nil {
			t.Fatalf("Insert %v: %v", v, err)
		}
	}

	return tree
}

func decodeDoc(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decoding %s: %v", path, err)
	}

	return doc
}

func TestExportTreeWritesNetworkXShapedDocument(t *testing.T) {
	tree := buildTestTree(t, [][]float64{{0, 0}, {0.1, 0.1}, {10, 10}, {10.1, 10.1}})
	ex := ioformat.NewExporter(nil)
	path := filepath.Join(t.TempDir(), "tree.json")

	if err := ex.ExportTree(tree, path); err != nil {
		t.Fatalf("ExportTree: %v", err)
	}

	doc := decodeDoc(t, path)
	if doc["directed"] != false {
		t.Fatalf("expected directed=false, got %v", doc["directed"])
	}
	if doc["multigraph"] != false {
		t.Fatalf("expected multigraph=false, got %v", doc["multigraph"])
	}
	nodes, ok := doc["nodes"].([]interface{})
	if !ok || len(nodes) == 0 {
		t.Fatalf("expected non-empty nodes array, got %v", doc["nodes"])
	}
}

func TestExportLeafChainListsEveryPoint(t *testing.T) {
	pts := [][]float64{{0, 0}, {0.1, 0.1}, {10, 10}, {10.1, 10.1}, {20, 20}}
	tree := buildTestTree(t, pts)
	ex := ioformat.NewExporter(nil)
	path := filepath.Join(t.TempDir(), "leaves.json")

	if err := ex.ExportLeafChain(tree, path); err != nil {
		t.Fatalf("ExportLeafChain: %v", err)
	}

	doc := decodeDoc(t, path)
	nodes, ok := doc["nodes"].([]interface{})
	if !ok {
		t.Fatalf("expected nodes array, got %v", doc["nodes"])
	}
	if len(nodes) == 0 {
		t.Fatalf("expected at least one leaf entry, got none")
	}
	covered := 0.0
	for _, n := range nodes {
		node, ok := n.(map[string]interface{})
		if !ok {
			t.Fatalf("expected node object, got %v", n)
		}
		nbImages, _ := node["nb_images"].(float64)
		covered += nbImages
	}
	if int(covered) != len(pts) {
		t.Fatalf("leaf entries cover %v points, want %d", covered, len(pts))
	}
}

func TestExportLevelsWritesOneFilePerDepth(t *testing.T) {
	pts := [][]float64{{0, 0}, {0.1, 0.1}, {10, 10}, {10.1, 10.1}, {20, 20}, {20.1, 20.1}}
	tree := buildTestTree(t, pts)
	snaps, err := tree.CreateMultilevelRNG(context.Background())
	if err != nil {
		t.Fatalf("CreateMultilevelRNG: %v", err)
	}
	if len(snaps) == 0 {
		t.Fatalf("expected at least one level snapshot")
	}

	ex := ioformat.NewExporter(nil)
	prefix := filepath.Join(t.TempDir(), "levels")
	if err := ex.ExportLevels(snaps, prefix); err != nil {
		t.Fatalf("ExportLevels: %v", err)
	}

	for _, snap := range snaps {
		filename := prefix + "_" + strconv.Itoa(snap.Depth) + ".json"
		if _, err := os.Stat(filename); err != nil {
			t.Fatalf("expected level file %s to exist: %v", filename, err)
		}
	}
}
