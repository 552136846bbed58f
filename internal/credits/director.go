package credits

import "strings"

// Director is the externally supplied metadata for one director.
type Director struct {
	ID            string `json:"director_id"`
	FirstName     string `json:"firstname"`
	LastName      string `json:"lastname"`
	Sex           string `json:"sex"`
	EthnicityRace string `json:"ethnicity_race"`
	Labels        string `json:"labels"`
	IMDbURI       string `json:"imdb_uri,omitempty"`

	// Extra keeps any additional metadata columns, keyed by lower-cased
	// column name.
	Extra map[string]string `json:"extra,omitempty"`
}

// Name is the display name, "First Last".
func (d *Director) Name() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

// Tag is the composite demographic tag used as the director's node type:
// sex, ethnicity/race and labels concatenated.
func (d *Director) Tag() string {
	return d.Sex + d.EthnicityRace + d.Labels
}
