// Package credits holds the per-movie credit records the collaboration
// network is derived from, the director metadata that annotates it, and the
// role vocabulary shared by every later stage.
package credits

import (
	"sort"
	"strings"
)

// CrewMember is one credited person inside a credit group.
type CrewMember struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreditGroup is one block of the full credits page, e.g. "Film Editing by"
// followed by the people credited under it.
type CreditGroup struct {
	Role    string       `json:"role"`
	Members []CrewMember `json:"members"`
}

// MovieRecord is a single scraped movie. Records are produced by the
// external scraper and are read-only to the engine.
type MovieRecord struct {
	MovieID       string        `json:"movie_id"`
	DirectorID    string        `json:"director_id"`
	Title         string        `json:"title,omitempty"`
	MovieType     string        `json:"movie_type"`
	IsFeatureFilm bool          `json:"is_feature_film"`
	Credits       []CreditGroup `json:"credits"`

	// Source identifies where the record came from (usually a file path)
	// and is only used for diagnostics.
	Source string `json:"-"`
}

// Key identifies one movie as seen through the director who made it.
type Key struct {
	DirectorID string `json:"director_id"`
	MovieID    string `json:"movie_id"`
}

// String renders the key as "director_movie", the form used in exports.
func (k Key) String() string {
	return k.DirectorID + "_" + k.MovieID
}

// Less orders keys by director, then movie.
func (k Key) Less(o Key) bool {
	if k.DirectorID != o.DirectorID {
		return k.DirectorID < o.DirectorID
	}
	return k.MovieID < o.MovieID
}

// SortKeys sorts keys in place and returns them.
func SortKeys(keys []Key) []Key {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// IDFromURI extracts the identifier that follows splitKey in an IMDb link.
//
//	IDFromURI("https://www.imdb.com/title/tt20218618/?ref_=nm_flmg_dr_1", "/title/") == "tt20218618"
//	IDFromURI("https://www.imdb.com/name/nm0009190/", "/name/")                     == "nm0009190"
//
// A link without splitKey is treated as already being a bare id.
func IDFromURI(uri, splitKey string) string {
	uri = strings.TrimSpace(uri)
	if i := strings.LastIndex(uri, splitKey); i >= 0 {
		uri = uri[i+len(splitKey):]
	}
	if i := strings.IndexAny(uri, "/?#"); i >= 0 {
		uri = uri[:i]
	}
	return uri
}
