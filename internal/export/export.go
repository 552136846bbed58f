// Package export writes collaboration graphs in interchange formats.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/efebarandurmaz/crewnet/internal/network"
)

// Paths are the files written by WriteFiles. Empty paths are skipped.
type Paths struct {
	GEXF string
	JSON string
	DOT  string
}

// WriteFiles writes every configured export and returns the paths written.
func WriteFiles(g *network.Graph, stats network.Stats, paths Paths) ([]string, error) {
	var written []string
	targets := []struct {
		path  string
		write func(io.Writer) error
	}{
		{paths.GEXF, func(w io.Writer) error { return WriteGEXF(w, g) }},
		{paths.JSON, func(w io.Writer) error { return WriteJSON(w, g, stats) }},
		{paths.DOT, func(w io.Writer) error { _, err := io.WriteString(w, ExportDOT(g)); return err }},
	}
	for _, t := range targets {
		if t.path == "" {
			continue
		}
		if err := writeFile(t.path, t.write); err != nil {
			return written, err
		}
		written = append(written, t.path)
	}
	return written, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}

// Document is the JSON form of a graph.
type Document struct {
	Nodes []Node         `json:"nodes"`
	Edges []network.Edge `json:"edges"`
	Stats *network.Stats `json:"stats,omitempty"`
}

// Node is a graph node with its homogeneity made JSON safe: nil when
// undefined.
type Node struct {
	network.Node
	AvgRoleHomogeneity *float64 `json:"avg_role_homogeneity,omitempty"`
}

// NewDocument snapshots g.
func NewDocument(g *network.Graph, stats *network.Stats) Document {
	doc := Document{Stats: stats}
	for _, n := range g.Nodes() {
		jn := Node{Node: *n}
		if !math.IsNaN(n.AvgRoleHomogeneity) {
			avg := n.AvgRoleHomogeneity
			jn.AvgRoleHomogeneity = &avg
		}
		doc.Nodes = append(doc.Nodes, jn)
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, *e)
	}
	return doc
}

// WriteJSON writes g and its stats as indented JSON.
func WriteJSON(w io.Writer, g *network.Graph, stats network.Stats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(g, &stats))
}

// ReadJSON rebuilds a graph from WriteJSON output.
func ReadJSON(r io.Reader) (*network.Graph, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decode graph")
	}
	g := network.NewGraph()
	for _, jn := range doc.Nodes {
		n := g.AddNode(jn.ID)
		*n = jn.Node
		n.AvgRoleHomogeneity = math.NaN()
		if jn.AvgRoleHomogeneity != nil {
			n.AvgRoleHomogeneity = *jn.AvgRoleHomogeneity
		}
	}
	for _, e := range doc.Edges {
		if e.Director == "" || e.Crew == "" {
			return nil, errors.Newf("edge with missing endpoint: %+v", e)
		}
		g.SetEdge(e)
	}
	if doc.Stats != nil {
		g.SelfLoopsSkipped = doc.Stats.SelfLoopsSkipped
	}
	return g, nil
}

// ExportDOT generates a Graphviz DOT representation of the graph.
func ExportDOT(g *network.Graph) string {
	var b strings.Builder
	b.WriteString("graph collaborations {\n")
	b.WriteString("  node [fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\" fontsize=10];\n\n")

	for _, n := range g.Nodes() {
		label := n.Name
		if label == "" {
			label = n.ID
		}
		b.WriteString(fmt.Sprintf("  %q [label=%q shape=%s style=filled fillcolor=%q];\n",
			n.ID, label, nodeShape(n), nodeColor(n)))
	}
	b.WriteString("\n")

	for _, e := range g.Edges() {
		attrs := fmt.Sprintf("penwidth=%.2f", 1+4*e.Weight)
		if e.Role != "" {
			attrs += fmt.Sprintf(" label=%q", e.Role)
		}
		if e.Reciprocal {
			attrs += " style=bold"
		}
		b.WriteString(fmt.Sprintf("  %q -- %q [%s];\n", e.Director, e.Crew, attrs))
	}

	b.WriteString("}\n")
	return b.String()
}

// FormatStats returns a human-readable summary of graph statistics.
func FormatStats(s network.Stats) string {
	var b strings.Builder
	b.WriteString("Collaboration Graph Statistics\n")
	b.WriteString("==============================\n\n")
	b.WriteString(fmt.Sprintf("Nodes:       %d total\n", s.Nodes))
	b.WriteString(fmt.Sprintf("  Directors: %d\n", s.Directors))
	b.WriteString(fmt.Sprintf("  Crew:      %d\n", s.Crew))
	b.WriteString(fmt.Sprintf("  Both:      %d\n", s.Dual))
	b.WriteString(fmt.Sprintf("Edges:       %d total\n", s.Edges))
	b.WriteString(fmt.Sprintf("  Weighted:  %d\n", s.WeightedEdges))
	b.WriteString(fmt.Sprintf("  Mutual:    %d\n", s.ReciprocalEdges))
	b.WriteString(fmt.Sprintf("Self loops:  %d skipped\n", s.SelfLoopsSkipped))
	b.WriteString(fmt.Sprintf("Components:  %d\n", s.Components))
	b.WriteString(fmt.Sprintf("Connected:   %t\n", s.Connected))
	return b.String()
}

func nodeShape(n *network.Node) string {
	switch {
	case n.IsDirector() && n.IsCrew():
		return "doubleoctagon"
	case n.IsDirector():
		return "box"
	default:
		return "ellipse"
	}
}

func nodeColor(n *network.Node) string {
	switch {
	case n.IsDirector() && n.IsCrew():
		return "#8957e5"
	case n.IsDirector():
		return "#1f6feb"
	default:
		return "#238636"
	}
}
