// Package report summarises a crew index and ranks annotated directors by
// role homogeneity. Nothing here mutates its inputs.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/efebarandurmaz/crewnet/internal/crewindex"
	"github.com/efebarandurmaz/crewnet/internal/network"
)

// TopRoleCount is how many roles are listed per ranked director.
const TopRoleCount = 3

// Count is one histogram bucket.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RoleScore is one of a director's most homogeneous roles.
type RoleScore struct {
	Role        string  `json:"role"`
	Homogeneity float64 `json:"homogeneity"`
	Total       int     `json:"total"`
	Unique      int     `json:"unique"`
}

// RankedDirector is one row of the homogeneity ranking.
type RankedDirector struct {
	Rank                int         `json:"rank"`
	DirectorID          string      `json:"director_id"`
	Name                string      `json:"name"`
	TotalMoviesDirected int         `json:"total_movies_directed"`
	AvgRoleHomogeneity  *float64    `json:"avg_role_homogeneity"` // nil when undefined
	TopRoles            []RoleScore `json:"top_roles"`
}

// Summary is the corpus overview.
type Summary struct {
	TotalMovies          int              `json:"total_movies"`
	FeatureFilms         int              `json:"feature_films"`
	MovieTypes           []Count          `json:"movie_types"`
	Directors            int              `json:"directors"`
	AvgMoviesPerDirector float64          `json:"avg_movies_per_director"`
	Crew                 int              `json:"crew"`
	Roles                []Count          `json:"roles"`
	Filtered             int              `json:"filtered"`
	Skipped              int              `json:"skipped"`
	Ranking              []RankedDirector `json:"ranking,omitempty"`
}

// Summarize builds the corpus overview from idx. profiles may be nil, in
// which case the ranking is left empty.
func Summarize(idx *crewindex.Index, profiles []*network.Profile) *Summary {
	s := &Summary{
		TotalMovies:  idx.Movies,
		FeatureFilms: idx.FeatureFilms,
		MovieTypes:   histogram(idx.MovieTypeCounts),
		Directors:    len(idx.DirectorMovieCounts),
		Crew:         len(idx.Crew),
		Roles:        histogram(idx.RoleCounts),
		Filtered:     idx.Filtered,
		Skipped:      idx.Skipped,
	}
	if s.Directors > 0 {
		s.AvgMoviesPerDirector = float64(s.TotalMovies) / float64(s.Directors)
	}
	if profiles != nil {
		s.Ranking = RankDirectors(profiles)
	}
	return s
}

// histogram returns counts in alphabetical order of name.
func histogram(counts map[string]int) []Count {
	out := make([]Count, 0, len(counts))
	for name, n := range counts {
		out = append(out, Count{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RankDirectors orders profiles by average role homogeneity, highest first.
// Directors with an undefined average go last; equal scores keep the input
// order.
func RankDirectors(profiles []*network.Profile) []RankedDirector {
	ranked := append([]*network.Profile(nil), profiles...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.HasHomogeneity() != b.HasHomogeneity() {
			return a.HasHomogeneity()
		}
		return a.AvgRoleHomogeneity > b.AvgRoleHomogeneity
	})

	out := make([]RankedDirector, 0, len(ranked))
	for i, p := range ranked {
		row := RankedDirector{
			Rank:                i + 1,
			TotalMoviesDirected: p.TotalMoviesDirected,
		}
		if p.Director != nil {
			row.DirectorID = p.Director.ID
			row.Name = p.Director.Name()
		}
		if p.HasHomogeneity() {
			avg := p.AvgRoleHomogeneity
			row.AvgRoleHomogeneity = &avg
		}
		for _, d := range p.TopRoles(TopRoleCount) {
			row.TopRoles = append(row.TopRoles, RoleScore{
				Role:        d.Role,
				Homogeneity: d.Homogeneity,
				Total:       d.Total,
				Unique:      d.Unique(),
			})
		}
		out = append(out, row)
	}
	return out
}

// Write prints a human-readable report.
func (s *Summary) Write(w io.Writer) {
	rule := strings.Repeat("─", 40)
	fmt.Fprintf(w, "\nCORPUS SUMMARY\n%s\n", rule)
	fmt.Fprintf(w, "Movies:                %d\n", s.TotalMovies)
	fmt.Fprintf(w, "Feature films:         %d\n", s.FeatureFilms)
	fmt.Fprintf(w, "Directors:             %d\n", s.Directors)
	fmt.Fprintf(w, "Movies per director:   %.2f\n", s.AvgMoviesPerDirector)
	fmt.Fprintf(w, "Crew:                  %d\n", s.Crew)
	if s.Filtered > 0 || s.Skipped > 0 {
		fmt.Fprintf(w, "Filtered / skipped:    %d / %d\n", s.Filtered, s.Skipped)
	}

	fmt.Fprintf(w, "%s\nMOVIE TYPES\n", rule)
	for _, c := range s.MovieTypes {
		fmt.Fprintf(w, "  %-28s %6d\n", c.Name, c.Count)
	}
	fmt.Fprintf(w, "%s\nROLES\n", rule)
	for _, c := range s.Roles {
		fmt.Fprintf(w, "  %-28s %6d\n", truncate(c.Name, 28), c.Count)
	}

	if len(s.Ranking) == 0 {
		return
	}
	fmt.Fprintf(w, "%s\nROLE HOMOGENEITY\n", rule)
	for _, r := range s.Ranking {
		avg := "n/a"
		if r.AvgRoleHomogeneity != nil {
			avg = fmt.Sprintf("%.3f", *r.AvgRoleHomogeneity)
		}
		fmt.Fprintf(w, "%3d. %-28s %s (%d movies)\n", r.Rank, r.Name, avg, r.TotalMoviesDirected)
		for _, role := range r.TopRoles {
			fmt.Fprintf(w, "       %-26s %.3f  %d/%d\n", truncate(role.Role, 26), role.Homogeneity, role.Unique, role.Total)
		}
	}
}

// JSON returns the summary as formatted JSON.
func (s *Summary) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
