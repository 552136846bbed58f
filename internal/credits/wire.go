package credits

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrMalformedRecord marks a movie or director record that could not be
// decoded. Batch operations log and skip such records.
var ErrMalformedRecord = errors.New("malformed record")

// minFeatureMinutes is the running time from which a "Movie" counts as a
// feature film when the scraper recorded a duration.
const minFeatureMinutes = 40

// ScrapedMovie is the JSON document the scraper writes per movie.
type ScrapedMovie struct {
	TitleURI      string          `json:"title_uri"`
	Title         string          `json:"title"`
	DirectorID    string          `json:"director_id"`
	IsFeatureFilm *bool           `json:"is_feature_film,omitempty"`
	Details       ScrapedDetails  `json:"imdb_details"`
	FullCredits   []ScrapedCredit `json:"full_credits"`
}

// ScrapedDetails carries the title metadata used for filtering.
type ScrapedDetails struct {
	Type     string   `json:"type"`
	Genre    []string `json:"genre,omitempty"`
	Duration string   `json:"duration,omitempty"`
}

// ScrapedCredit is one credit group as scraped.
type ScrapedCredit struct {
	Role string        `json:"role"`
	Crew []ScrapedCrew `json:"crew"`
}

// ScrapedCrew is one credited person as scraped. Link is the person's IMDb
// URI.
type ScrapedCrew struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

// DecodeMovie parses a scraped movie document. Empty documents and
// documents without a movie or director id are reported as
// ErrMalformedRecord.
func DecodeMovie(data []byte) (*MovieRecord, error) {
	sm, err := DecodeScraped(data)
	if err != nil {
		return nil, err
	}
	return sm.Record()
}

// DecodeScraped parses a scraped movie document without validating it.
func DecodeScraped(data []byte) (*ScrapedMovie, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.Mark(errors.New("empty document"), ErrMalformedRecord)
	}

	var sm ScrapedMovie
	if err := json.Unmarshal(data, &sm); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode movie"), ErrMalformedRecord)
	}
	return &sm, nil
}

// Record converts the scraped document into a MovieRecord.
func (sm *ScrapedMovie) Record() (*MovieRecord, error) {
	movieID := IDFromURI(sm.TitleURI, "/title/")
	if movieID == "" {
		return nil, errors.Mark(errors.Newf("movie %q has no title id", sm.Title), ErrMalformedRecord)
	}
	if strings.TrimSpace(sm.DirectorID) == "" {
		return nil, errors.Mark(errors.Newf("movie %s has no director id", movieID), ErrMalformedRecord)
	}

	rec := &MovieRecord{
		MovieID:    movieID,
		DirectorID: strings.TrimSpace(sm.DirectorID),
		Title:      sm.Title,
		MovieType:  sm.Details.Type,
		Credits:    make([]CreditGroup, 0, len(sm.FullCredits)),
	}
	if sm.IsFeatureFilm != nil {
		rec.IsFeatureFilm = *sm.IsFeatureFilm
	} else {
		rec.IsFeatureFilm = sm.Details.isFeatureFilm()
	}

	for _, c := range sm.FullCredits {
		group := CreditGroup{Role: c.Role, Members: make([]CrewMember, 0, len(c.Crew))}
		for _, m := range c.Crew {
			id := IDFromURI(m.Link, "/name/")
			if id == "" {
				continue
			}
			group.Members = append(group.Members, CrewMember{ID: id, Name: strings.TrimSpace(m.Name)})
		}
		rec.Credits = append(rec.Credits, group)
	}
	return rec, nil
}

func (d ScrapedDetails) isFeatureFilm() bool {
	if !strings.EqualFold(strings.TrimSpace(d.Type), "Movie") {
		return false
	}
	for _, g := range d.Genre {
		if strings.EqualFold(strings.TrimSpace(g), "Short") {
			return false
		}
	}
	if mins, ok := parseMinutes(d.Duration); ok && mins < minFeatureMinutes {
		return false
	}
	return true
}

// parseMinutes understands ISO-8601 durations ("PT1H47M") and bare minute
// counts ("107", "107 min").
func parseMinutes(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	if rest, ok := strings.CutPrefix(s, "PT"); ok {
		total := 0
		num := 0
		seen := false
		for _, r := range rest {
			switch {
			case r >= '0' && r <= '9':
				num = num*10 + int(r-'0')
				seen = true
			case r == 'H':
				total += num * 60
				num = 0
			case r == 'M':
				total += num
				num = 0
			case r == 'S':
				num = 0
			default:
				return 0, false
			}
		}
		return total, seen
	}

	s = strings.TrimSpace(strings.TrimSuffix(s, "MIN"))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
