package corpus

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/efebarandurmaz/crewnet/internal/credits"
)

// Director metadata columns, lower-cased.
const (
	colIMDbURI       = "imdb_uri"
	colFirstName     = "firstname"
	colLastName      = "lastname"
	colSex           = "sex"
	colEthnicityRace = "ethnicity_race"
	colLabels        = "labels"
)

// LoadDirectors reads the director metadata CSV at path. An empty path
// yields an empty map.
func LoadDirectors(path string, logger *log.Logger) (map[string]*credits.Director, error) {
	if path == "" {
		return map[string]*credits.Director{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open director metadata")
	}
	defer f.Close()
	return ReadDirectors(f, logger)
}

// ReadDirectors parses director metadata. Header names are matched
// case-insensitively; the director id is taken from the IMDb_URI column.
// Rows without a usable id are logged and skipped.
func ReadDirectors(r io.Reader, logger *log.Logger) (map[string]*credits.Director, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return map[string]*credits.Director{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read director metadata header")
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	uriCol := -1
	for i, h := range header {
		if h == colIMDbURI {
			uriCol = i
		}
	}
	if uriCol < 0 {
		return nil, errors.WithHint(
			errors.Newf("director metadata has no %s column", colIMDbURI),
			"the id of each director is read from its IMDb URI, e.g. https://www.imdb.com/name/nm0000229/",
		)
	}

	out := make(map[string]*credits.Director)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			logger.Warn("skipping malformed director row", "line", line, "err", err)
			continue
		}

		fields := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(row) {
				fields[h] = strings.TrimSpace(row[i])
			}
		}
		id := credits.IDFromURI(fields[colIMDbURI], "/name/")
		if id == "" {
			logger.Warn("skipping director row without IMDb id", "line", line, "uri", fields[colIMDbURI])
			continue
		}

		d := &credits.Director{
			ID:            id,
			FirstName:     fields[colFirstName],
			LastName:      fields[colLastName],
			Sex:           fields[colSex],
			EthnicityRace: fields[colEthnicityRace],
			Labels:        fields[colLabels],
			IMDbURI:       fields[colIMDbURI],
		}
		for k, v := range fields {
			switch k {
			case colIMDbURI, colFirstName, colLastName, colSex, colEthnicityRace, colLabels:
				continue
			}
			if d.Extra == nil {
				d.Extra = make(map[string]string)
			}
			d.Extra[k] = v
		}
		if _, dup := out[id]; dup {
			logger.Warn("duplicate director row, keeping the last", "director", id, "line", line)
		}
		out[id] = d
	}
	return out, nil
}
