// Package corpus reads a scraped movie repository from disk and feeds it to
// the crew indexer.
//
// A repository is laid out one directory per director:
//
//	<repo>/<director_id>/movies/<movie_id>.json.gz
//
// Plain .json files are accepted as well.
package corpus

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"

	"github.com/efebarandurmaz/crewnet/internal/credits"
	"github.com/efebarandurmaz/crewnet/internal/crewindex"
)

// MoviesDir is the per-director subdirectory holding movie documents.
const MoviesDir = "movies"

// DefaultParallelism bounds concurrent file decodes when none is configured.
const DefaultParallelism = 8

// LoadOptions tune corpus loading.
type LoadOptions struct {
	// Parallelism bounds concurrent decodes. Zero means DefaultParallelism.
	Parallelism int
	// MaxMovies caps the movies read per director. Zero means no cap.
	MaxMovies int
}

// LoadResult describes one load.
type LoadResult struct {
	Files    int
	Loaded   int
	Rejected int
}

type decoded struct {
	rec *credits.MovieRecord
	err error
}

// Discover lists the movie documents under root, sorted by path. With
// maxMovies > 0 only the first maxMovies documents of each director are
// returned.
func Discover(root string, maxMovies int) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, errors.Wrapf(err, "corpus %s", root)
	}

	// A movie kept both gzipped and plain is read once, from the .json.gz.
	var files []string
	seen := make(map[string]struct{})
	for _, pattern := range []string{"*.json.gz", "*.json"} {
		matches, err := filepath.Glob(filepath.Join(root, "*", MoviesDir, pattern))
		if err != nil {
			return nil, errors.Wrap(err, "glob corpus")
		}
		for _, m := range matches {
			stem := documentStem(m)
			if _, dup := seen[stem]; dup {
				continue
			}
			seen[stem] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)

	if maxMovies <= 0 {
		return files, nil
	}
	perDirector := make(map[string]int)
	capped := files[:0]
	for _, f := range files {
		d := DirectorOf(f)
		if perDirector[d] >= maxMovies {
			continue
		}
		perDirector[d]++
		capped = append(capped, f)
	}
	return capped, nil
}

func documentStem(path string) string {
	if base, ok := strings.CutSuffix(path, ".json.gz"); ok {
		return base
	}
	return strings.TrimSuffix(path, ".json")
}

// DirectorOf returns the director id implied by a document path.
func DirectorOf(path string) string {
	return filepath.Base(filepath.Dir(filepath.Dir(path)))
}

// LoadDir decodes every movie document under root into ix. Files are
// decoded concurrently but handed to the indexer one at a time in path
// order, so the resulting index does not depend on scheduling. Files that
// cannot be read or decoded are passed to ix.Skip; only a missing root or a
// cancelled context fail the load.
func LoadDir(ctx context.Context, root string, ix *crewindex.Indexer, opts LoadOptions, logger *log.Logger) (LoadResult, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	files, err := Discover(root, opts.MaxMovies)
	if err != nil {
		return LoadResult{}, err
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	logger.Info("loading corpus", "repo", root, "files", len(files), "parallelism", parallelism)

	results := make([]decoded, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, path := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			rec, err := ReadMovie(path)
			results[i] = decoded{rec: rec, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return LoadResult{}, errors.Wrap(err, "load corpus")
	}

	res := LoadResult{Files: len(files)}
	for i, d := range results {
		if d.err != nil {
			ix.Skip(files[i], d.err)
			continue
		}
		if ix.Add(d.rec) {
			res.Loaded++
		} else {
			res.Rejected++
		}
	}
	logger.Info("corpus loaded", "files", res.Files, "indexed", res.Loaded, "not_indexed", len(files)-res.Loaded)
	return res, nil
}

// ReadMovie reads and decodes one movie document. A document without a
// director id takes the id of the director directory it lives in.
func ReadMovie(path string) (*credits.MovieRecord, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "read %s", path), credits.ErrMalformedRecord)
	}
	sm, err := credits.DecodeScraped(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	if strings.TrimSpace(sm.DirectorID) == "" {
		sm.DirectorID = DirectorOf(path)
	}
	rec, err := sm.Record()
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	rec.Source = path
	return rec, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return data, nil
	}
	if len(data) == 0 {
		return nil, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
