package network

import (
	"io"
	"math"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/efebarandurmaz/crewnet/internal/credits"
	"github.com/efebarandurmaz/crewnet/internal/crewindex"
)

const (
	// CrewNodeSize is the fixed size weight of crew nodes.
	CrewNodeSize = 1
	// DirectorSizeScale multiplies a director's average role homogeneity
	// into its size weight.
	DirectorSizeScale = 1000
)

// RoleDistribution is how one director staffed one role: how often each
// crew member filled it, in first-hire order.
type RoleDistribution struct {
	Role        string
	Employees   map[string]int
	Total       int
	Homogeneity float64

	order []string
}

// CrewIDs returns the crew members in the order they were first counted.
func (d *RoleDistribution) CrewIDs() []string {
	return append([]string(nil), d.order...)
}

// Unique is the number of distinct people who filled the role.
func (d *RoleDistribution) Unique() int { return len(d.order) }

func (d *RoleDistribution) add(crewID string) {
	if _, ok := d.Employees[crewID]; !ok {
		d.order = append(d.order, crewID)
	}
	d.Employees[crewID]++
	d.Total++
}

// Profile is a director's metadata enriched with their crew usage.
type Profile struct {
	Director            *credits.Director
	TotalMoviesDirected int
	AvgRoleHomogeneity  float64

	// Roles are kept in the order the roles were first seen.
	Roles  []*RoleDistribution
	byRole map[string]*RoleDistribution
}

func newProfile(d *credits.Director, moviesDirected int) *Profile {
	return &Profile{
		Director:            d,
		TotalMoviesDirected: moviesDirected,
		AvgRoleHomogeneity:  math.NaN(),
		byRole:              make(map[string]*RoleDistribution),
	}
}

// HasHomogeneity is false for directors who never filled a role.
func (p *Profile) HasHomogeneity() bool {
	return !math.IsNaN(p.AvgRoleHomogeneity)
}

// Distribution returns the distribution for role.
func (p *Profile) Distribution(role string) (*RoleDistribution, bool) {
	d, ok := p.byRole[role]
	return d, ok
}

// TopRoles returns up to n roles by descending homogeneity. Ties keep the
// order in which roles were first seen.
func (p *Profile) TopRoles(n int) []*RoleDistribution {
	ranked := append([]*RoleDistribution(nil), p.Roles...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Homogeneity > ranked[j].Homogeneity
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func (p *Profile) count(role, crewID string) {
	d, ok := p.byRole[role]
	if !ok {
		d = &RoleDistribution{Role: role, Employees: make(map[string]int)}
		p.byRole[role] = d
		p.Roles = append(p.Roles, d)
	}
	d.add(crewID)
}

// Annotate enriches the graph in place: crew nodes are labelled, every
// director in directors gets a role distribution and homogeneity profile,
// director nodes are labelled and sized, and role weights are resolved onto
// the edges. Profiles are returned in director id order.
//
// Crew neighbours missing from the index count as having no roles.
func Annotate(g *Graph, idx *crewindex.Index, directors map[string]*credits.Director, logger *log.Logger) []*Profile {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	// 1. Crew nodes
	for _, crewID := range idx.CrewIDs() {
		n := g.AddNode(crewID)
		n.Flags |= RoleCrew
		n.NodeType = NodeTypeCrew
		n.Name = idx.Crew[crewID].Name
		n.Size = CrewNodeSize
	}

	ids := make([]string, 0, len(directors))
	for id := range directors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	acc := newAccumulator()
	profiles := make([]*Profile, 0, len(ids))

	for _, directorID := range ids {
		d := directors[directorID]
		moviesDirected, ok := idx.DirectorMovieCounts[directorID]
		if !ok {
			moviesDirected = -1
		}
		p := newProfile(d, moviesDirected)
		profiles = append(profiles, p)

		if g.Degree(directorID) == 0 {
			logger.Debug("director has no collaborators in graph", "director", directorID)
			continue
		}

		// 2. Role distribution over this director's movies
		for _, crewID := range g.Neighbors(directorID) {
			entry, ok := idx.Crew[crewID]
			if !ok {
				continue
			}
			for _, key := range entry.KeysForDirector(directorID) {
				for _, role := range entry.Roles[key].Sorted() {
					p.count(role, crewID)
				}
			}
		}

		// 3. Homogeneity per role, 4. weight contributions
		scores := make([]float64, 0, len(p.Roles))
		for _, dist := range p.Roles {
			dist.Homogeneity = Homogeneity(dist.Unique(), dist.Total)
			scores = append(scores, dist.Homogeneity)

			for _, crewID := range dist.order {
				acc.add(directorID, crewID, dist.Role, float64(dist.Employees[crewID])/float64(dist.Total))
			}
		}
		p.AvgRoleHomogeneity = AverageHomogeneity(scores)
		if !p.HasHomogeneity() {
			logger.Warn("director has no filled roles, homogeneity undefined", "director", directorID)
		}

		// 5. Director node
		n := g.AddNode(directorID)
		n.Name = d.Name()
		n.NodeType = d.Tag()
		n.AvgRoleHomogeneity = p.AvgRoleHomogeneity
		n.Size = 0
		if p.HasHomogeneity() {
			n.Size = DirectorSizeScale * p.AvgRoleHomogeneity
		}
	}

	for _, n := range g.nodes {
		if n.NodeType == "" && n.IsDirector() {
			n.NodeType = NodeTypeDirector
		}
	}

	// 6. Multi-role resolution
	acc.finalize(g)
	return profiles
}
