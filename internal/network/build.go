package network

import (
	"sort"

	"github.com/efebarandurmaz/crewnet/internal/crewindex"
)

// BuildOptions control graph construction.
type BuildOptions struct {
	// IncludeSelfLoops keeps director == crew links, which otherwise occur
	// when a director also holds a crew credit on their own movie.
	IncludeSelfLoops bool
}

// Build converts the crew index into the raw collaboration graph.
//
// For every crew member the (director, movie) keys are tallied per
// director. Each director gets an edge to the crew member whose cofeat rate
// is the share of the crew member's keys made with that director, whatever
// the role. Crew members are visited once each, so every pair yields at most
// one edge per orientation.
func Build(idx *crewindex.Index, opts BuildOptions) *Graph {
	g := NewGraph()

	for _, crewID := range idx.CrewIDs() {
		entry := idx.Crew[crewID]

		counts := make(map[string]int)
		total := 0
		for key := range entry.Roles {
			counts[key.DirectorID]++
			total++
		}
		if total == 0 {
			continue
		}

		directors := make([]string, 0, len(counts))
		for d := range counts {
			directors = append(directors, d)
		}
		sort.Strings(directors)

		for _, directorID := range directors {
			if !opts.IncludeSelfLoops && directorID == crewID {
				g.SelfLoopsSkipped++
				continue
			}
			g.collaborate(directorID, crewID, float64(counts[directorID])/float64(total))
		}
	}
	return g
}
