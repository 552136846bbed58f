package temporal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/efebarandurmaz/crewnet/internal/corpus"
	"github.com/efebarandurmaz/crewnet/internal/credits"
	"github.com/efebarandurmaz/crewnet/internal/graph"
	"github.com/efebarandurmaz/crewnet/internal/network"
	"github.com/efebarandurmaz/crewnet/internal/vector"
)

type memGraph struct{ stored *network.Graph }

func (m *memGraph) StoreNetwork(_ context.Context, g *network.Graph) error {
	m.stored = g
	return nil
}

func (m *memGraph) Collaborators(context.Context, string, int) ([]graph.Collaborator, error) {
	return nil, nil
}

func (m *memGraph) Close(context.Context) error { return nil }

type memVectors struct{ docs []vector.Document }

func (m *memVectors) EnsureCollection(context.Context, int) error { return nil }

func (m *memVectors) Upsert(_ context.Context, docs []vector.Document) error {
	m.docs = append(m.docs, docs...)
	return nil
}

func (m *memVectors) Search(context.Context, []float32, int) ([]vector.SearchResult, error) {
	return nil, nil
}

func (m *memVectors) Close() error { return nil }

func credit(role string, ids ...string) credits.ScrapedCredit {
	c := credits.ScrapedCredit{Role: role}
	for _, id := range ids {
		c.Crew = append(c.Crew, credits.ScrapedCrew{Name: "Person " + id, Link: "/name/" + id + "/"})
	}
	return c
}

// testInput writes a two-director corpus and returns a workflow input over it.
func testInput(t *testing.T) NetworkInput {
	t.Helper()
	root := t.TempDir()
	for _, m := range []*credits.ScrapedMovie{
		{TitleURI: "/title/tt1/", DirectorID: "nm1", Details: credits.ScrapedDetails{Type: "Movie"},
			FullCredits: []credits.ScrapedCredit{credit("Directed by", "nm1"), credit("Music by", "nm9")}},
		{TitleURI: "/title/tt2/", DirectorID: "nm2", Details: credits.ScrapedDetails{Type: "Movie"},
			FullCredits: []credits.ScrapedCredit{credit("Directed by", "nm2"), credit("Music by", "nm9")}},
	} {
		if _, err := corpus.WriteMovie(root, m); err != nil {
			t.Fatalf("WriteMovie: %v", err)
		}
	}

	dirs := filepath.Join(t.TempDir(), "directors.csv")
	csv := "firstname,lastname,imdb_uri\nAna,One,/name/nm1/\nBen,Two,/name/nm2/\n"
	if err := os.WriteFile(dirs, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	return NetworkInput{Repo: root, DirectorsFile: dirs, OutputDir: filepath.Join(t.TempDir(), "out")}
}

func TestSetDependencies(t *testing.T) {
	store := &memGraph{}
	SetDependencies(&Dependencies{GraphStore: store})

	if deps.GraphStore != store {
		t.Error("SetDependencies did not set the graph store")
	}
	if deps.Logger == nil {
		t.Error("SetDependencies should default the logger")
	}
}

func TestBuildNetworkActivity(t *testing.T) {
	vecs := &memVectors{}
	SetDependencies(&Dependencies{Vectors: vecs, Parallelism: 2})

	var s testsuite.WorkflowTestSuite
	env := s.NewTestActivityEnvironment()
	env.RegisterActivity(BuildNetworkActivity)

	input := testInput(t)
	input.DOT = true
	input.IndexVectors = true
	val, err := env.ExecuteActivity(BuildNetworkActivity, input)
	if err != nil {
		t.Fatalf("BuildNetworkActivity: %v", err)
	}
	var res BuildResult
	if err := val.Get(&res); err != nil {
		t.Fatal(err)
	}

	if res.Movies != 2 || res.Nodes != 3 || res.Edges != 2 {
		t.Errorf("result = %+v", res)
	}
	if len(res.Outputs) != 3 {
		t.Errorf("outputs = %v, want gexf, json and dot", res.Outputs)
	}
	if res.JSONPath != filepath.Join(input.OutputDir, JSONFile) {
		t.Errorf("json path = %s", res.JSONPath)
	}
	if res.Vectors != 2 || len(vecs.docs) != 2 {
		t.Errorf("vectors = %d, docs = %d", res.Vectors, len(vecs.docs))
	}
}

func TestBuildNetworkActivity_ConflictingFilters(t *testing.T) {
	SetDependencies(&Dependencies{})

	var s testsuite.WorkflowTestSuite
	env := s.NewTestActivityEnvironment()
	env.RegisterActivity(BuildNetworkActivity)

	input := testInput(t)
	input.FeaturesOnly = true
	input.NonFeaturesOnly = true
	if _, err := env.ExecuteActivity(BuildNetworkActivity, input); err == nil {
		t.Fatal("expected a configuration error")
	}
}

func TestBuildNetworkActivity_NoVectorStore(t *testing.T) {
	SetDependencies(&Dependencies{})

	var s testsuite.WorkflowTestSuite
	env := s.NewTestActivityEnvironment()
	env.RegisterActivity(BuildNetworkActivity)

	input := testInput(t)
	input.IndexVectors = true
	_, err := env.ExecuteActivity(BuildNetworkActivity, input)
	if err == nil {
		t.Fatal("expected error when vectors are requested without a vector store")
	}
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) || appErr.Type() != ErrTypeNoVectors || !appErr.NonRetryable() {
		t.Errorf("err = %v, want non-retryable %s", err, ErrTypeNoVectors)
	}
	if _, statErr := os.Stat(input.OutputDir); !os.IsNotExist(statErr) {
		t.Error("no exports should be written before the vector store check")
	}
}

func TestStoreNetworkActivity_NoStore(t *testing.T) {
	SetDependencies(&Dependencies{})

	var s testsuite.WorkflowTestSuite
	env := s.NewTestActivityEnvironment()
	env.RegisterActivity(StoreNetworkActivity)

	if _, err := env.ExecuteActivity(StoreNetworkActivity, "network.json"); err == nil {
		t.Fatal("expected error without a graph store")
	}
}
