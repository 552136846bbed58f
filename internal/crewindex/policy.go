package crewindex

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/efebarandurmaz/crewnet/internal/credits"
)

// ErrConfigConflict is returned when mutually exclusive filters are
// requested together.
var ErrConfigConflict = errors.New("conflicting exclusion policy")

// Pseudo movie types accepted in an exclusion list. They select the feature
// film filter instead of matching a movie type.
const (
	ExcludeFeatureFilms    = "feature_films"
	ExcludeNonFeatureFilms = "non_feature_films"
)

// FeatureFilter restricts the corpus by the feature film flag.
type FeatureFilter int

const (
	FeatureFilterNone FeatureFilter = iota
	FeaturesOnly
	NonFeaturesOnly
)

func (f FeatureFilter) String() string {
	switch f {
	case FeaturesOnly:
		return "features_only"
	case NonFeaturesOnly:
		return "non_features_only"
	default:
		return "none"
	}
}

// Policy decides which movies and credit groups take part in indexing.
type Policy struct {
	ExcludedMovieTypes map[string]struct{}
	ExcludedRoles      map[string]struct{}
	FeatureFilter      FeatureFilter
}

// PolicyParams are the raw filter settings as they appear in configuration.
type PolicyParams struct {
	ExcludeMovieTypes []string
	ExcludeRoles      []string
	FeaturesOnly      bool
	NonFeaturesOnly   bool
}

// NewPolicy validates params and builds a Policy.
//
// ExcludeMovieTypes may contain the pseudo types ExcludeFeatureFilms and
// ExcludeNonFeatureFilms: excluding feature films keeps non-features only and
// vice versa. Excluded roles are normalized so that "Series Stunts" and
// "Stunts" exclude the same credit groups.
func NewPolicy(params PolicyParams) (Policy, error) {
	p := Policy{
		ExcludedMovieTypes: make(map[string]struct{}),
		ExcludedRoles:      make(map[string]struct{}),
	}

	featuresOnly := params.FeaturesOnly
	nonFeaturesOnly := params.NonFeaturesOnly

	for _, t := range params.ExcludeMovieTypes {
		t = strings.TrimSpace(t)
		switch t {
		case "":
			continue
		case ExcludeFeatureFilms:
			nonFeaturesOnly = true
		case ExcludeNonFeatureFilms:
			featuresOnly = true
		default:
			p.ExcludedMovieTypes[t] = struct{}{}
		}
	}

	if featuresOnly && nonFeaturesOnly {
		return Policy{}, errors.WithHint(
			errors.Wrap(ErrConfigConflict, "features-only and non-features-only filters are both set"),
			"choose at most one of the feature film filters",
		)
	}
	switch {
	case featuresOnly:
		p.FeatureFilter = FeaturesOnly
	case nonFeaturesOnly:
		p.FeatureFilter = NonFeaturesOnly
	}

	for _, r := range params.ExcludeRoles {
		r = credits.NormalizeRole(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		p.ExcludedRoles[r] = struct{}{}
	}
	return p, nil
}

// AdmitsMovie reports whether a movie passes the movie type and feature
// film filters.
func (p Policy) AdmitsMovie(rec *credits.MovieRecord) bool {
	if _, excluded := p.ExcludedMovieTypes[rec.MovieType]; excluded {
		return false
	}
	switch p.FeatureFilter {
	case FeaturesOnly:
		return rec.IsFeatureFilm
	case NonFeaturesOnly:
		return !rec.IsFeatureFilm
	}
	return true
}

// AdmitsRole reports whether a normalized role survives the role exclusion.
func (p Policy) AdmitsRole(role string) bool {
	_, excluded := p.ExcludedRoles[role]
	return !excluded
}
