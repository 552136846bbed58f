package export

import (
	"encoding/xml"
	"io"
	"math"
	"strconv"

	"github.com/efebarandurmaz/crewnet/internal/network"
)

const gexfNamespace = "http://gexf.net/1.3"

// Attribute ids of the GEXF attribute declarations.
const (
	attrNodeType    = "0"
	attrSize        = "1"
	attrHomogeneity = "2"
	attrRole        = "0"
	attrCofeatRate  = "1"
)

type gexfDoc struct {
	XMLName xml.Name  `xml:"gexf"`
	XMLNS   string    `xml:"xmlns,attr"`
	Version string    `xml:"version,attr"`
	Graph   gexfGraph `xml:"graph"`
}

type gexfGraph struct {
	DefaultEdgeType string           `xml:"defaultedgetype,attr"`
	Mode            string           `xml:"mode,attr"`
	Attributes      []gexfAttributes `xml:"attributes"`
	Nodes           []gexfNode       `xml:"nodes>node"`
	Edges           []gexfEdge       `xml:"edges>edge"`
}

type gexfAttributes struct {
	Class string          `xml:"class,attr"`
	Attrs []gexfAttribute `xml:"attribute"`
}

type gexfAttribute struct {
	ID    string `xml:"id,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

type gexfNode struct {
	ID     string         `xml:"id,attr"`
	Label  string         `xml:"label,attr"`
	Values []gexfAttValue `xml:"attvalues>attvalue"`
}

type gexfEdge struct {
	ID     string         `xml:"id,attr"`
	Source string         `xml:"source,attr"`
	Target string         `xml:"target,attr"`
	Weight *float64       `xml:"weight,attr,omitempty"`
	Values []gexfAttValue `xml:"attvalues>attvalue"`
}

type gexfAttValue struct {
	For   string `xml:"for,attr"`
	Value string `xml:"value,attr"`
}

// WriteGEXF writes g as an undirected GEXF 1.3 graph, the format Gephi
// reads natively.
func WriteGEXF(w io.Writer, g *network.Graph) error {
	doc := gexfDoc{
		XMLNS:   gexfNamespace,
		Version: "1.3",
		Graph: gexfGraph{
			DefaultEdgeType: "undirected",
			Mode:            "static",
			Attributes: []gexfAttributes{
				{Class: "node", Attrs: []gexfAttribute{
					{ID: attrNodeType, Title: "node_type", Type: "string"},
					{ID: attrSize, Title: "cust_size", Type: "double"},
					{ID: attrHomogeneity, Title: "avg_role_homogeneity", Type: "double"},
				}},
				{Class: "edge", Attrs: []gexfAttribute{
					{ID: attrRole, Title: "role", Type: "string"},
					{ID: attrCofeatRate, Title: "cofeat_rate", Type: "double"},
				}},
			},
		},
	}

	for _, n := range g.Nodes() {
		label := n.Name
		if label == "" {
			label = n.ID
		}
		gn := gexfNode{
			ID:    n.ID,
			Label: label,
			Values: []gexfAttValue{
				{For: attrNodeType, Value: n.NodeType},
				{For: attrSize, Value: formatFloat(n.Size)},
			},
		}
		if !math.IsNaN(n.AvgRoleHomogeneity) {
			gn.Values = append(gn.Values, gexfAttValue{For: attrHomogeneity, Value: formatFloat(n.AvgRoleHomogeneity)})
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, gn)
	}

	// Edges that never received a role contribution carry neither weight
	// nor role, so readers fall back to their default weight.
	for i, e := range g.Edges() {
		ge := gexfEdge{
			ID:     strconv.Itoa(i),
			Source: e.Director,
			Target: e.Crew,
			Values: []gexfAttValue{{For: attrCofeatRate, Value: formatFloat(e.CofeatRate)}},
		}
		if e.Weighted {
			w := e.Weight
			ge.Weight = &w
			ge.Values = append([]gexfAttValue{{For: attrRole, Value: e.Role}}, ge.Values...)
		}
		doc.Graph.Edges = append(doc.Graph.Edges, ge)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
