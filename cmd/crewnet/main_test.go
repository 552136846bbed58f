package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/crewnet/internal/config"
	"github.com/efebarandurmaz/crewnet/internal/corpus"
)

func TestApplyFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "build"}
	corpusFlags(cmd.Flags())
	cmd.Flags().String("gexf", "", "")
	if err := cmd.Flags().Parse([]string{
		"--repo", "/data/repo",
		"--exclude-type", "TV Episode,Video",
		"--features-only",
		"--parallelism", "3",
		"--gexf", "out.gexf",
	}); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		Corpus:   config.CorpusConfig{Repo: "/from/config", MaxMovies: 7},
		Metadata: config.MetadataConfig{DirectorsFile: "directors.csv"},
	}
	applyFlags(cmd.Flags(), cfg)

	if cfg.Corpus.Repo != "/data/repo" || cfg.Corpus.Parallelism != 3 {
		t.Errorf("corpus = %+v", cfg.Corpus)
	}
	if cfg.Corpus.MaxMovies != 7 || cfg.Metadata.DirectorsFile != "directors.csv" {
		t.Error("unset flags must keep configured values")
	}
	if len(cfg.Filters.ExcludeMovieTypes) != 2 || !cfg.Filters.FeaturesOnly {
		t.Errorf("filters = %+v", cfg.Filters)
	}
	if cfg.Output.GEXF != "out.gexf" {
		t.Errorf("gexf = %q", cfg.Output.GEXF)
	}
}

const creditsPage = `<html><head><link rel="canonical" href="https://www.imdb.com/title/tt0118694/fullcredits/"></head>
<body><div id="fullcredits_content">
<h4 class="dataHeaderWithBorder">Directed by</h4>
<table><tr><td class="name"><a href="/name/nm0939182/">Kar-Wai Wong</a></td></tr></table>
<h4 class="dataHeaderWithBorder">Cinematography by</h4>
<table><tr><td class="name"><a href="/name/nm0003745/">Christopher Doyle</a></td></tr></table>
</div></body></html>`

func TestIngestPage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "fullcredits.html")
	if err := os.WriteFile(src, []byte(creditsPage), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "repo")

	dst, err := ingestPage(src, out, "", "")
	if err != nil {
		t.Fatalf("ingestPage: %v", err)
	}
	if want := corpus.MoviePath(out, "nm0939182", "tt0118694"); dst != want {
		t.Errorf("path = %s, want %s", dst, want)
	}
	rec, err := corpus.ReadMovie(dst)
	if err != nil {
		t.Fatalf("ReadMovie: %v", err)
	}
	if len(rec.Credits) != 2 || rec.Credits[1].Members[0].ID != "nm0003745" {
		t.Errorf("credits = %+v", rec.Credits)
	}

	dst, err = ingestPage(src, out, "nm0000001", "")
	if err != nil {
		t.Fatalf("ingestPage with director: %v", err)
	}
	if filepath.Base(filepath.Dir(filepath.Dir(dst))) != "nm0000001" {
		t.Errorf("explicit director should file the movie under it, got %s", dst)
	}

	if _, err := ingestPage(filepath.Join(dir, "missing.html"), out, "", ""); err == nil {
		t.Error("expected error for a missing page")
	}
}
