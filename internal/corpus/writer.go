package corpus

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"

	"github.com/efebarandurmaz/crewnet/internal/credits"
)

// MoviePath is where a movie document belongs in the repository.
func MoviePath(root, directorID, movieID string) string {
	return filepath.Join(root, directorID, MoviesDir, movieID+".json.gz")
}

// WriteMovie stores sm gzipped under root and returns its path. The
// document must carry a title URI and a director id.
func WriteMovie(root string, sm *credits.ScrapedMovie) (string, error) {
	rec, err := sm.Record()
	if err != nil {
		return "", err
	}
	path := MoviePath(root, rec.DirectorID, rec.MovieID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(err, "create movie dir")
	}

	data, err := json.Marshal(sm)
	if err != nil {
		return "", errors.Wrap(err, "encode movie")
	}

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create movie file")
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write(data); err != nil {
		f.Close()
		return "", errors.Wrapf(err, "write %s", path)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return "", errors.Wrapf(err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "close %s", path)
	}
	return path, nil
}
