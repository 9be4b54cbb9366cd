// exporter.go — JSON tree/leaf-chain/per-level exporter, grounded on
// original_source/3. Code/BIRCH++/GraphExporter.cpp (ExportTree_JSON,
// ExportNode_JSON, ExportCluster_JSON, ExportLeaves_JSON, ExportGraph_JSON).
// Encoding uses goccy/go-json rather than encoding/json (spec.md §6).
package ioformat

import (
	"errors"
	"fmt"
	"math"
	"os"

	json "github.com/goccy/go-json"

	"github.com/katalvlaran/birchrng/cftree"
	"github.com/katalvlaran/birchrng/point"
	"github.com/katalvlaran/birchrng/rng"
)

// ErrExportIO indicates an output file could not be written. Per spec.md
// §7 ("export-io"), this is reported but never corrupts the in-memory
// tree.
var ErrExportIO = errors.New("ioformat: export failed")

const nodeColor = "#3366CC"

// jsonEdge is one RNG edge in the exported graph shape (spec.md §6).
type jsonEdge struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// jsonNode is one exported node: an entry, a leaf cluster's point, or
// (at the top level) the root itself.
type jsonNode struct {
	ID                string      `json:"id"`
	Label             string      `json:"label"`
	X                 int         `json:"x"`
	Y                 int         `json:"y"`
	Size              int         `json:"size"`
	Color             string      `json:"color,omitempty"`
	NbImages          int64       `json:"nb_images,omitempty"`
	Representative    string      `json:"representative,omitempty"`
	NearRepresentatives string    `json:"near_representatives,omitempty"`
	FarRepresentatives  string    `json:"far_representatives,omitempty"`
	FirstLeaf         string      `json:"first_leaf,omitempty"`
	LastLeaf          string      `json:"last_leaf,omitempty"`
	Children          interface{} `json:"children,omitempty"`
}

// graphBody is the {nodes, edges} shape shared by every nesting level.
type graphBody struct {
	Nodes []jsonNode `json:"nodes"`
	Edges []jsonEdge `json:"edges"`
}

// rootDocument wraps a graphBody with the NetworkX-style header spec.md §6
// requires at the file's top level.
type rootDocument struct {
	Directed   bool          `json:"directed"`
	Multigraph bool          `json:"multigraph"`
	Graph      []interface{} `json:"graph"`
	graphBody
}

// Exporter walks a *cftree.Tree and emits the JSON artifacts spec.md §6
// describes. A nil Splitter disables split-file mode: every subtree is
// inlined regardless of size.
type Exporter struct {
	Splitter *Splitter
}

// NewExporter returns an Exporter. splitter may be nil.
func NewExporter(splitter *Splitter) *Exporter {
	return &Exporter{Splitter: splitter}
}

// ExportTree writes tree's full multilevel graph to filename, rooted at
// tree.Root() (spec.md §6, "Output graph format").
//
// Complexity: O(nodes + points) time and space.
func (ex *Exporter) ExportTree(tree *cftree.Tree, filename string) error {
	root := tree.Root()
	body, err := ex.nodeBody(root, "0")
	if err != nil {
		return err
	}
	doc := rootDocument{Directed: false, Multigraph: false, Graph: []interface{}{}, graphBody: body}

	return writeJSON(filename, doc)
}

// ExportLeafChain writes every leaf entry, in chain order, as a flat node
// list sharing the same per-node attributes spec.md §6 calls for
// ("Persisted leaf chain").
//
// Complexity: O(points) time and space.
func (ex *Exporter) ExportLeafChain(tree *cftree.Tree, filename string) error {
	var entries []*cftree.Entry
	for leaf := tree.FirstLeaf(); leaf != nil; leaf = leaf.Next {
		entries = append(entries, leaf.Entries...)
	}

	nodes := make([]jsonNode, len(entries))
	for i, e := range entries {
		nodes[i] = entryNode(e, i, len(entries))
	}
	doc := rootDocument{
		Directed:   false,
		Multigraph: false,
		Graph:      []interface{}{},
		graphBody:  graphBody{Nodes: nodes, Edges: nil},
	}

	return writeJSON(filename, doc)
}

// ExportLevels writes one file per level snapshot, suffixed "_<l>" as
// spec.md §6 specifies ("Per-level RNG artifacts"). outputPrefix is the
// path without the level suffix or extension, e.g. "out/levels" yields
// "out/levels_0.json", "out/levels_1.json", ...
//
// Complexity: O(sum of entries across levels).
func (ex *Exporter) ExportLevels(snaps []cftree.LevelSnapshot, outputPrefix string) error {
	for _, snap := range snaps {
		nodes := make([]jsonNode, len(snap.Entries))
		for i, e := range snap.Entries {
			nodes[i] = entryNode(e, i, len(snap.Entries))
		}
		var edges []jsonEdge
		if snap.RNG != nil {
			edges = edgesFromGraph(snap.RNG, fmt.Sprintf("L%d", snap.Depth), func(idx int) string {
				return "n" + snap.Entries[idx].Path
			})
		}
		doc := rootDocument{
			Directed:   false,
			Multigraph: false,
			Graph:      []interface{}{},
			graphBody:  graphBody{Nodes: nodes, Edges: edges},
		}
		filename := fmt.Sprintf("%s_%d.json", outputPrefix, snap.Depth)
		if err := writeJSON(filename, doc); err != nil {
			return err
		}
	}

	return nil
}

// nodeBody builds the {nodes, edges} body for the node at nodePath: one
// jsonNode per entry, plus the node's own RNG rendered as edges. A child
// entry's own children are either inlined recursively or, once the
// Splitter says the subtree is large enough, written to their own file
// and referenced by filename (spec.md §6, split-file mode).
func (ex *Exporter) nodeBody(n *cftree.Node, nodePath string) (graphBody, error) {
	nodes := make([]jsonNode, len(n.Entries))
	for i, e := range n.Entries {
		jn := entryNode(e, i, len(n.Entries))
		children, err := ex.entryChildren(e)
		if err != nil {
			return graphBody{}, err
		}
		jn.Children = children
		nodes[i] = jn
	}
	var edges []jsonEdge
	if n.RNG != nil {
		edges = edgesFromGraph(n.RNG, nodePath, func(idx int) string {
			return "n" + n.Entries[idx].Path
		})
	}

	return graphBody{Nodes: nodes, Edges: edges}, nil
}

// entryChildren resolves one entry's nested children: an internal entry
// recurses into its child node (inline or split to file), a leaf entry
// recurses into its cluster's points, and a terminal point-level entry has
// no children at all.
func (ex *Exporter) entryChildren(e *cftree.Entry) (interface{}, error) {
	switch {
	case e.Child != nil:
		if ex.Splitter != nil && ex.Splitter.ShouldSplit(e.Child) {
			return ex.splitChild(e.Child, e.Path)
		}
		body, err := ex.nodeBody(e.Child, e.Path)
		if err != nil {
			return nil, err
		}

		return body, nil
	case e.Leaf != nil:
		return clusterBody(e.Leaf.Points, e.Leaf.RNG, e.Path), nil
	default:
		return nil, nil
	}
}

// splitChild writes child's subtree to its own file via the Splitter and
// returns the filename reference that replaces an inline "children" object
// (spec.md §6: "children becomes a filename reference").
func (ex *Exporter) splitChild(child *cftree.Node, path string) (interface{}, error) {
	body, err := ex.nodeBody(child, path)
	if err != nil {
		return nil, err
	}
	doc := rootDocument{Directed: false, Multigraph: false, Graph: []interface{}{}, graphBody: body}
	filename := ex.Splitter.FilenameFor(path)
	if err := writeJSON(filename, doc); err != nil {
		return nil, err
	}

	return ex.Splitter.ReferenceFor(path), nil
}

// clusterBody builds the terminal, point-level {nodes, edges} body for a
// leaf cluster (spec.md §6; original_source's ExportCluster_JSON).
func clusterBody(points []point.Point, g *rng.Graph, clusterPath string) graphBody {
	nodes := make([]jsonNode, len(points))
	for i, p := range points {
		nodes[i] = pointNode(p, i, len(points))
	}
	var edges []jsonEdge
	if g != nil {
		edges = edgesFromGraph(g, clusterPath, func(idx int) string {
			return "n" + points[idx].Path
		})
	}

	return graphBody{Nodes: nodes, Edges: edges}
}

// entryNode renders one cftree.Entry as a jsonNode, with the grid-layout
// heuristic original_source's exporter used as a default 2D placement
// (replaced properly by layout.StressMajorization when the caller wants
// something better than a grid).
func entryNode(e *cftree.Entry, index, total int) jsonNode {
	x, y := gridPosition(index, total)
	jn := jsonNode{
		ID:    "n" + e.Path,
		Label: "n" + e.Path,
		X:     x,
		Y:     y,
		Size:  1,
		Color: nodeColor,
	}
	jn.NbImages = e.Summary.N
	jn.Representative = pointRef(e.Near)
	jn.NearRepresentatives = joinPointRefs(e.Near)
	jn.FarRepresentatives = joinPointRefs(e.Far)
	if e.Child != nil {
		if fl := e.Child.FirstLeaf; fl != nil && len(fl.Entries) > 0 {
			jn.FirstLeaf = "n" + fl.Entries[0].Path
		}
		if ll := e.Child.LastLeaf; ll != nil && len(ll.Entries) > 0 {
			jn.LastLeaf = "n" + ll.Entries[0].Path
		}
	}

	return jn
}

// pointNode renders one leaf point as a terminal jsonNode (no color,
// nb_images, or representative set beyond itself — there is nothing left
// to summarise below a point).
func pointNode(p point.Point, index, total int) jsonNode {
	x, y := gridPosition(index, total)

	return jsonNode{
		ID:             "n" + p.Path,
		Label:          "n" + p.Path,
		X:              x,
		Y:              y,
		Size:           1,
		Representative: pointRefString(p),
	}
}

// gridPosition mirrors the original exporter's heuristic default layout:
// divide the row into ceil(total/2) columns and wrap.
func gridPosition(index, total int) (x, y int) {
	cols := int(math.Ceil(float64(total) / 2))
	if cols < 1 {
		cols = 1
	}

	return index % cols, index / cols
}

// pointRef returns the representative reference string for the first
// point in pts, or "" if pts is empty.
func pointRef(pts []point.Point) string {
	if len(pts) == 0 {
		return ""
	}

	return pointRefString(pts[0])
}

// pointRefString returns p's asset path if set, otherwise its tree-path
// node id — the original exporter always had an imagepath; birchrng
// points are not always image-backed, so the tree path is the fallback
// identity.
func pointRefString(p point.Point) string {
	if p.Asset != "" {
		return p.Asset
	}

	return "n" + p.Path
}

// joinPointRefs comma-joins the representative references of pts, the
// shape spec.md §6 calls for ("near_representatives (comma-joined)").
func joinPointRefs(pts []point.Point) string {
	s := ""
	for i, p := range pts {
		if i > 0 {
			s += ","
		}
		s += pointRefString(p)
	}

	return s
}

// edgesFromGraph renders g's edge list as jsonEdges, prefixing each id
// with "e<ownerPath>." and resolving endpoints through idToNodeID.
func edgesFromGraph(g *rng.Graph, ownerPath string, idToNodeID func(int) string) []jsonEdge {
	list := g.EdgeList()
	edges := make([]jsonEdge, len(list))
	for i, e := range list {
		edges[i] = jsonEdge{
			ID:     fmt.Sprintf("e%s.%d", ownerPath, i),
			Source: idToNodeID(e.U),
			Target: idToNodeID(e.V),
			Weight: e.W,
		}
	}

	return edges
}

// writeJSON marshals v and writes it to filename, wrapping any failure in
// ErrExportIO per spec.md §7's "export-io" policy.
func writeJSON(filename string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrExportIO, filename, err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrExportIO, filename, err)
	}

	return nil
}
