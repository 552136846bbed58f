package network

// Contribution is one role's claim on an edge's weight.
type Contribution struct {
	Role   string
	Weight float64
}

// accumulator collects role contributions per edge while directors are
// annotated. Edges are only written in finalize, after every director has
// contributed.
type accumulator struct {
	contribs map[pair][]Contribution
	order    []pair
}

func newAccumulator() *accumulator {
	return &accumulator{contribs: make(map[pair][]Contribution)}
}

func (a *accumulator) add(x, y, role string, weight float64) {
	p := pairOf(x, y)
	if _, ok := a.contribs[p]; !ok {
		a.order = append(a.order, p)
	}
	a.contribs[p] = append(a.contribs[p], Contribution{Role: role, Weight: weight})
}

// finalize collapses every edge's contributions to one weight and role.
func (a *accumulator) finalize(g *Graph) {
	for _, p := range a.order {
		e, ok := g.edges[p]
		if !ok {
			continue
		}
		e.Role, e.Weight = Resolve(a.contribs[p])
		e.Weighted = true
	}
}

// Resolve picks the winning contribution: the maximum weight, and among
// equal maxima the first one contributed. It returns an empty role and 0
// for no contributions.
func Resolve(contribs []Contribution) (string, float64) {
	if len(contribs) == 0 {
		return "", 0
	}
	best := contribs[0]
	for _, c := range contribs[1:] {
		if c.Weight > best.Weight {
			best = c
		}
	}
	return best.Role, best.Weight
}
