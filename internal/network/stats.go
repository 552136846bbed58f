package network

// Stats summarises the shape of a graph.
type Stats struct {
	Nodes            int  `json:"nodes"`
	Edges            int  `json:"edges"`
	Directors        int  `json:"directors"`
	Crew             int  `json:"crew"`
	Dual             int  `json:"dual"` // both director and crew
	WeightedEdges    int  `json:"weighted_edges"`
	ReciprocalEdges  int  `json:"reciprocal_edges"`
	SelfLoopsSkipped int  `json:"self_loops_skipped"`
	Components       int  `json:"components"`
	Connected        bool `json:"connected"`
}

// ComputeStats walks the graph once and counts its parts.
func ComputeStats(g *Graph) Stats {
	s := Stats{
		Nodes:            g.NumNodes(),
		Edges:            g.NumEdges(),
		SelfLoopsSkipped: g.SelfLoopsSkipped,
	}
	for _, n := range g.nodes {
		if n.IsDirector() {
			s.Directors++
		}
		if n.IsCrew() {
			s.Crew++
		}
		if n.IsDirector() && n.IsCrew() {
			s.Dual++
		}
	}
	for _, e := range g.edges {
		if e.Weighted {
			s.WeightedEdges++
		}
		if e.Reciprocal {
			s.ReciprocalEdges++
		}
	}
	s.Components = g.countComponents()
	s.Connected = s.Components == 1
	return s
}

// countComponents counts connected components via union-find.
func (g *Graph) countComponents() int {
	parent := make(map[string]string, len(g.nodes))
	var find func(string) string
	find = func(x string) string {
		if parent[x] == "" {
			parent[x] = x
		}
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b string) {
		fa, fb := find(a), find(b)
		if fa != fb {
			parent[fa] = fb
		}
	}

	for id := range g.nodes {
		find(id)
	}
	for p := range g.edges {
		union(p.a, p.b)
	}

	roots := make(map[string]bool)
	for id := range g.nodes {
		roots[find(id)] = true
	}
	return len(roots)
}
