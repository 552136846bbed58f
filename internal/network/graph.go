// Package network turns a crew index into the director–crew collaboration
// graph and annotates it with role distributions and role homogeneity.
package network

import (
	"math"
	"sort"
)

// RoleFlag records which parts a person plays in the corpus. A person who
// directs one movie and crews on another carries both flags on one node.
type RoleFlag uint8

const (
	RoleDirector RoleFlag = 1 << iota
	RoleCrew
)

// Node types that are not a director demographic tag.
const (
	NodeTypeCrew     = "crew"
	NodeTypeDirector = "director"
)

// Node is one person in the graph.
type Node struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	NodeType string   `json:"node_type"`
	Size     float64  `json:"cust_size"`
	Flags    RoleFlag `json:"flags"`

	// AvgRoleHomogeneity is NaN unless the node is an annotated director
	// with at least one filled role.
	AvgRoleHomogeneity float64 `json:"-"`
}

// IsDirector reports whether the person directed a movie in the corpus.
func (n *Node) IsDirector() bool { return n.Flags&RoleDirector != 0 }

// IsCrew reports whether the person crewed on a movie in the corpus.
func (n *Node) IsCrew() bool { return n.Flags&RoleCrew != 0 }

// Edge is the single consolidated link between a director and a crew member.
//
// Director and Crew keep the orientation in which the edge was first
// observed. When the reverse orientation is observed as well (each person
// crewed for the other) Reciprocal is set and ReverseCofeatRate holds the
// rate seen from the other side.
type Edge struct {
	Director          string  `json:"director"`
	Crew              string  `json:"crew"`
	CofeatRate        float64 `json:"cofeat_rate"`
	ReverseCofeatRate float64 `json:"reverse_cofeat_rate,omitempty"`
	Reciprocal        bool    `json:"reciprocal,omitempty"`

	// Weight and Role are set by finalization; Weighted is false for edges
	// that never received a role contribution.
	Weight   float64 `json:"weight"`
	Role     string  `json:"role,omitempty"`
	Weighted bool    `json:"weighted"`
}

type pair struct{ a, b string }

func pairOf(x, y string) pair {
	if y < x {
		x, y = y, x
	}
	return pair{a: x, b: y}
}

// Graph is an undirected graph over person ids.
type Graph struct {
	nodes map[string]*Node
	edges map[pair]*Edge
	adj   map[string]map[string]struct{}

	// SelfLoopsSkipped counts director == crew links dropped while building.
	SelfLoopsSkipped int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		edges: make(map[pair]*Edge),
		adj:   make(map[string]map[string]struct{}),
	}
}

// AddNode returns the node for id, creating it if needed.
func (g *Graph) AddNode(id string) *Node {
	if n, ok := g.nodes[id]; ok {
		return n
	}
	n := &Node{ID: id, AvgRoleHomogeneity: math.NaN()}
	g.nodes[id] = n
	return n
}

// Node looks up a node.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes ordered by id.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Edge looks up the edge between x and y in either orientation.
func (g *Graph) Edge(x, y string) (*Edge, bool) {
	e, ok := g.edges[pairOf(x, y)]
	return e, ok
}

// Edges returns all edges ordered by their unordered endpoint pair.
func (g *Graph) Edges() []*Edge {
	keys := make([]pair, 0, len(g.edges))
	for k := range g.edges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})
	out := make([]*Edge, len(keys))
	for i, k := range keys {
		out[i] = g.edges[k]
	}
	return out
}

// Neighbors returns the ids adjacent to id in sorted order.
func (g *Graph) Neighbors(id string) []string {
	out := make([]string, 0, len(g.adj[id]))
	for nb := range g.adj[id] {
		out = append(out, nb)
	}
	sort.Strings(out)
	return out
}

// Degree is the number of distinct neighbours of id.
func (g *Graph) Degree(id string) int { return len(g.adj[id]) }

// NumNodes is the node count.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges is the edge count.
func (g *Graph) NumEdges() int { return len(g.edges) }

// CofeatRate returns the cofeat rate of crew with director, honouring the
// orientation of the collaboration.
func (g *Graph) CofeatRate(director, crew string) (float64, bool) {
	e, ok := g.Edge(director, crew)
	if !ok {
		return 0, false
	}
	switch {
	case e.Director == director && e.Crew == crew:
		return e.CofeatRate, true
	case e.Reciprocal && e.Director == crew && e.Crew == director:
		return e.ReverseCofeatRate, true
	}
	return 0, false
}

// SetEdge inserts or replaces an edge as is, creating missing endpoint
// nodes. It is meant for graphs read back from an export.
func (g *Graph) SetEdge(e Edge) *Edge {
	g.AddNode(e.Director)
	g.AddNode(e.Crew)
	stored := e
	g.edges[pairOf(e.Director, e.Crew)] = &stored
	g.link(e.Director, e.Crew)
	return &stored
}

// collaborate records that crew worked with director at the given rate.
func (g *Graph) collaborate(director, crew string, rate float64) *Edge {
	g.AddNode(director).Flags |= RoleDirector
	g.AddNode(crew).Flags |= RoleCrew

	p := pairOf(director, crew)
	if e, ok := g.edges[p]; ok {
		if e.Director == director && e.Crew == crew {
			e.CofeatRate = rate
		} else {
			e.ReverseCofeatRate = rate
			e.Reciprocal = true
		}
		return e
	}

	e := &Edge{Director: director, Crew: crew, CofeatRate: rate}
	g.edges[p] = e
	g.link(director, crew)
	return e
}

func (g *Graph) link(x, y string) {
	if g.adj[x] == nil {
		g.adj[x] = make(map[string]struct{})
	}
	if g.adj[y] == nil {
		g.adj[y] = make(map[string]struct{})
	}
	g.adj[x][y] = struct{}{}
	g.adj[y][x] = struct{}{}
}
