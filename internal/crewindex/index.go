// Package crewindex scans per-movie credit records and builds the crew
// index: for every crew member, the movies (keyed by director and movie)
// they worked on and the normalized roles they held there.
package crewindex

import (
	"io"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/efebarandurmaz/crewnet/internal/credits"
)

// RoleSet is a set of normalized roles.
type RoleSet map[string]struct{}

// Sorted returns the roles in lexical order.
func (s RoleSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Entry is everything the index knows about one crew member.
type Entry struct {
	ID    string                  `json:"id"`
	Name  string                  `json:"name"`
	Roles map[credits.Key]RoleSet `json:"-"`

	// Derived once indexing is finished.
	UniqueDirectors int `json:"unique_director"`
	UniqueMovies    int `json:"unique_movie"`
	UniqueRoles     int `json:"unique_role"`
}

// Keys returns the entry's (director, movie) keys in sorted order.
func (e *Entry) Keys() []credits.Key {
	keys := make([]credits.Key, 0, len(e.Roles))
	for k := range e.Roles {
		keys = append(keys, k)
	}
	return credits.SortKeys(keys)
}

// KeysForDirector returns the sorted keys of movies made by directorID.
func (e *Entry) KeysForDirector(directorID string) []credits.Key {
	var keys []credits.Key
	for k := range e.Roles {
		if k.DirectorID == directorID {
			keys = append(keys, k)
		}
	}
	return credits.SortKeys(keys)
}

func (e *Entry) computeStats() {
	directors := make(map[string]struct{})
	movies := make(map[string]struct{})
	roles := make(map[string]struct{})
	for k, rs := range e.Roles {
		directors[k.DirectorID] = struct{}{}
		movies[k.MovieID] = struct{}{}
		for r := range rs {
			roles[r] = struct{}{}
		}
	}
	e.UniqueDirectors = len(directors)
	e.UniqueMovies = len(movies)
	e.UniqueRoles = len(roles)
}

// Index is the result of a corpus scan.
type Index struct {
	Crew                map[string]*Entry `json:"-"`
	RoleCounts          map[string]int    `json:"role_counts"`
	DirectorMovieCounts map[string]int    `json:"director_movie_counts"`
	MovieTypeCounts     map[string]int    `json:"movie_type_counts"`
	FeatureFilms        int               `json:"feature_films"`
	Movies              int               `json:"movies"`

	// Filtered counts movies rejected by the policy, Skipped counts
	// malformed records.
	Filtered int `json:"filtered"`
	Skipped  int `json:"skipped"`
}

// CrewIDs returns all crew ids in sorted order.
func (idx *Index) CrewIDs() []string {
	ids := make([]string, 0, len(idx.Crew))
	for id := range idx.Crew {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Roles returns the global role vocabulary in sorted order.
func (idx *Index) Roles() []string {
	roles := make([]string, 0, len(idx.RoleCounts))
	for r := range idx.RoleCounts {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}

// Indexer accumulates movies into an Index. It is not safe for concurrent
// use: callers that decode records in parallel must feed them serially.
type Indexer struct {
	policy   Policy
	logger   *log.Logger
	idx      *Index
	seen     map[credits.Key]struct{}
	finished bool
}

// New creates an Indexer. A nil logger discards output.
func New(policy Policy, logger *log.Logger) *Indexer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Indexer{
		policy: policy,
		logger: logger,
		seen:   make(map[credits.Key]struct{}),
		idx: &Index{
			Crew:                make(map[string]*Entry),
			RoleCounts:          make(map[string]int),
			DirectorMovieCounts: make(map[string]int),
			MovieTypeCounts:     make(map[string]int),
		},
	}
}

// Add indexes one movie and reports whether it was retained. Nil or
// incomplete records are logged and skipped.
func (ix *Indexer) Add(rec *credits.MovieRecord) bool {
	if ix.finished {
		ix.logger.Warn("indexer already finished, ignoring record")
		return false
	}
	if rec == nil || rec.MovieID == "" || rec.DirectorID == "" {
		ix.idx.Skipped++
		source := ""
		if rec != nil {
			source = rec.Source
		}
		ix.logger.Warn("skipping incomplete movie record", "source", source)
		return false
	}
	if !ix.policy.AdmitsMovie(rec) {
		ix.idx.Filtered++
		ix.logger.Debug("movie filtered", "movie", rec.MovieID, "type", rec.MovieType, "feature", rec.IsFeatureFilm)
		return false
	}

	key := credits.Key{DirectorID: rec.DirectorID, MovieID: rec.MovieID}
	if _, dup := ix.seen[key]; dup {
		ix.idx.Filtered++
		ix.logger.Debug("movie already indexed", "movie", rec.MovieID, "director", rec.DirectorID, "source", rec.Source)
		return false
	}
	ix.seen[key] = struct{}{}

	for _, group := range rec.Credits {
		role := credits.NormalizeRole(group.Role)
		if !ix.policy.AdmitsRole(role) {
			continue
		}
		ix.idx.RoleCounts[role]++

		if role == credits.RoleDirectedBy {
			continue
		}
		for _, m := range group.Members {
			ix.register(m, key, role)
		}
	}

	ix.idx.Movies++
	ix.idx.DirectorMovieCounts[rec.DirectorID]++
	ix.idx.MovieTypeCounts[rec.MovieType]++
	if rec.IsFeatureFilm {
		ix.idx.FeatureFilms++
	}
	return true
}

// Skip records a malformed record that never made it to Add.
func (ix *Indexer) Skip(source string, err error) {
	ix.idx.Skipped++
	ix.logger.Warn("skipping malformed record", "source", source, "err", err)
}

func (ix *Indexer) register(m credits.CrewMember, key credits.Key, role string) {
	if m.ID == "" {
		return
	}
	e, ok := ix.idx.Crew[m.ID]
	if !ok {
		e = &Entry{ID: m.ID, Name: m.Name, Roles: make(map[credits.Key]RoleSet)}
		ix.idx.Crew[m.ID] = e
	}
	rs, ok := e.Roles[key]
	if !ok {
		rs = make(RoleSet)
		e.Roles[key] = rs
	}
	rs[role] = struct{}{}
}

// Finish computes the per-crew counters and returns the frozen index.
// Later calls return the same index.
func (ix *Indexer) Finish() *Index {
	if !ix.finished {
		for _, e := range ix.idx.Crew {
			e.computeStats()
		}
		ix.finished = true
		ix.logger.Info("crew index built",
			"movies", ix.idx.Movies,
			"crew", len(ix.idx.Crew),
			"roles", len(ix.idx.RoleCounts),
			"filtered", ix.idx.Filtered,
			"skipped", ix.idx.Skipped,
		)
	}
	return ix.idx
}

// Build indexes records in order and returns the finished index.
func Build(records []*credits.MovieRecord, policy Policy, logger *log.Logger) *Index {
	ix := New(policy, logger)
	for _, rec := range records {
		ix.Add(rec)
	}
	return ix.Finish()
}
