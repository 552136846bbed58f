package corpus

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/efebarandurmaz/crewnet/internal/credits"
	"github.com/efebarandurmaz/crewnet/internal/crewindex"
)

func scraped(director, movie string, groups ...credits.ScrapedCredit) *credits.ScrapedMovie {
	return &credits.ScrapedMovie{
		TitleURI:    "https://www.imdb.com/title/" + movie + "/",
		Title:       "Title " + movie,
		DirectorID:  director,
		Details:     credits.ScrapedDetails{Type: "Movie", Genre: []string{"Drama"}, Duration: "PT1H40M"},
		FullCredits: groups,
	}
}

func credit(role string, ids ...string) credits.ScrapedCredit {
	c := credits.ScrapedCredit{Role: role}
	for _, id := range ids {
		c.Crew = append(c.Crew, credits.ScrapedCrew{Name: "Person " + id, Link: "/name/" + id + "/?ref_=ttfc"})
	}
	return c
}

func writeRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	movies := []*credits.ScrapedMovie{
		scraped("nm1", "tt1", credit("Directed by", "nm1"), credit("Film Editing by", "nm9")),
		scraped("nm1", "tt2", credit("Directed by", "nm1"), credit("Series Cast", "nm9", "nm8")),
		scraped("nm2", "tt3", credit("Directed by", "nm2"), credit("Music by", "nm9")),
	}
	for _, m := range movies {
		if _, err := WriteMovie(root, m); err != nil {
			t.Fatalf("WriteMovie: %v", err)
		}
	}
	return root
}

func TestWriteMovie_Path(t *testing.T) {
	root := t.TempDir()
	path, err := WriteMovie(root, scraped("nm1", "tt42"))
	if err != nil {
		t.Fatalf("WriteMovie: %v", err)
	}
	if want := filepath.Join(root, "nm1", "movies", "tt42.json.gz"); path != want {
		t.Errorf("path = %s, want %s", path, want)
	}
	rec, err := ReadMovie(path)
	if err != nil {
		t.Fatalf("ReadMovie: %v", err)
	}
	if rec.MovieID != "tt42" || rec.DirectorID != "nm1" || !rec.IsFeatureFilm || rec.Source != path {
		t.Errorf("record = %+v", rec)
	}
}

func TestWriteMovie_RequiresIDs(t *testing.T) {
	if _, err := WriteMovie(t.TempDir(), &credits.ScrapedMovie{Title: "no ids"}); err == nil {
		t.Fatal("expected error for document without ids")
	}
}

func TestLoadDir(t *testing.T) {
	root := writeRepo(t)

	// A broken file and an empty file are skipped, not fatal.
	bad := filepath.Join(root, "nm2", "movies", "tt4.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(root, "nm2", "movies", "tt5.json.gz")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	ix := crewindex.New(crewindex.Policy{}, nil)
	res, err := LoadDir(context.Background(), root, ix, LoadOptions{Parallelism: 2}, nil)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	idx := ix.Finish()

	if res.Files != 5 || res.Loaded != 3 {
		t.Errorf("result = %+v", res)
	}
	if idx.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", idx.Skipped)
	}
	if idx.Movies != 3 || idx.DirectorMovieCounts["nm1"] != 2 {
		t.Errorf("movies=%d counts=%v", idx.Movies, idx.DirectorMovieCounts)
	}
	nm9 := idx.Crew["nm9"]
	if nm9 == nil || nm9.UniqueDirectors != 2 || nm9.UniqueMovies != 3 {
		t.Fatalf("nm9 = %+v", nm9)
	}
	if idx.RoleCounts["Cast"] != 1 {
		t.Errorf("roles = %v", idx.RoleCounts)
	}
}

func TestLoadDir_MaxMovies(t *testing.T) {
	root := writeRepo(t)
	ix := crewindex.New(crewindex.Policy{}, nil)
	if _, err := LoadDir(context.Background(), root, ix, LoadOptions{MaxMovies: 1}, nil); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	idx := ix.Finish()
	if idx.DirectorMovieCounts["nm1"] != 1 || idx.DirectorMovieCounts["nm2"] != 1 {
		t.Errorf("counts = %v", idx.DirectorMovieCounts)
	}
}

func TestLoadDir_GzipAndPlainCopy(t *testing.T) {
	root := t.TempDir()
	sm := scraped("nm1", "tt1", credit("Directed by", "nm1"), credit("Music by", "nm9"))
	gz, err := WriteMovie(root, sm)
	if err != nil {
		t.Fatalf("WriteMovie: %v", err)
	}
	data, err := json.Marshal(sm)
	if err != nil {
		t.Fatal(err)
	}
	plain := strings.TrimSuffix(gz, ".gz")
	if err := os.WriteFile(plain, data, 0o644); err != nil {
		t.Fatal(err)
	}

	files, err := Discover(root, 0)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 1 || files[0] != gz {
		t.Fatalf("files = %v, want only %s", files, gz)
	}

	ix := crewindex.New(crewindex.Policy{}, nil)
	if _, err := LoadDir(context.Background(), root, ix, LoadOptions{}, nil); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	idx := ix.Finish()
	if idx.Movies != 1 || idx.DirectorMovieCounts["nm1"] != 1 || idx.RoleCounts["Music by"] != 1 {
		t.Errorf("movies=%d counts=%v roles=%v", idx.Movies, idx.DirectorMovieCounts, idx.RoleCounts)
	}
}

func TestLoadDir_MissingRoot(t *testing.T) {
	ix := crewindex.New(crewindex.Policy{}, nil)
	_, err := LoadDir(context.Background(), filepath.Join(t.TempDir(), "nope"), ix, LoadOptions{}, nil)
	if err == nil {
		t.Fatal("expected error for missing repository")
	}
}

func TestLoadDir_Cancelled(t *testing.T) {
	root := writeRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ix := crewindex.New(crewindex.Policy{}, nil)
	if _, err := LoadDir(ctx, root, ix, LoadOptions{Parallelism: 1}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestReadMovie_DirectorFromPath(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "nm7", MoviesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "tt1.json")
	doc := `{"title_uri": "/title/tt1/", "imdb_details": {"type": "Movie"}, "full_credits": []}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	rec, err := ReadMovie(path)
	if err != nil {
		t.Fatalf("ReadMovie: %v", err)
	}
	if rec.DirectorID != "nm7" {
		t.Errorf("DirectorID = %q, want nm7", rec.DirectorID)
	}
}

func TestReadMovie_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("[]x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := ReadMovie(path)
	if !errors.Is(err, credits.ErrMalformedRecord) {
		t.Fatalf("err = %v, want ErrMalformedRecord", err)
	}
}

func TestReadDirectors(t *testing.T) {
	csv := strings.Join([]string{
		"FirstName,LastName,Sex,Ethnicity_Race,Labels,IMDb_URI,Country",
		"Ava,DuVernay,F,B,,https://www.imdb.com/name/nm1148550/,US",
		"No,Id,M,W,,,US",
		`"Bong","Joon Ho",M,A,,https://www.imdb.com/name/nm0094435/?ref_=x,KR`,
	}, "\n")

	dirs, err := ReadDirectors(strings.NewReader(csv), nil)
	if err != nil {
		t.Fatalf("ReadDirectors: %v", err)
	}
	if len(dirs) != 2 {
		t.Fatalf("directors = %d, want 2", len(dirs))
	}
	d := dirs["nm1148550"]
	if d == nil || d.Name() != "Ava DuVernay" || d.Tag() != "FB" {
		t.Errorf("director = %+v", d)
	}
	if d.Extra["country"] != "US" {
		t.Errorf("extra = %v", d.Extra)
	}
	if b := dirs["nm0094435"]; b == nil || b.LastName != "Joon Ho" {
		t.Errorf("quoted row = %+v", b)
	}
}

func TestReadDirectors_NoURIColumn(t *testing.T) {
	_, err := ReadDirectors(strings.NewReader("firstname,lastname\nA,B\n"), nil)
	if err == nil {
		t.Fatal("expected error without imdb_uri column")
	}
}

func TestLoadDirectors_EmptyPath(t *testing.T) {
	dirs, err := LoadDirectors("", nil)
	if err != nil || len(dirs) != 0 {
		t.Fatalf("LoadDirectors(\"\") = %v, %v", dirs, err)
	}
}
