package temporal

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/efebarandurmaz/crewnet/internal/crewindex"
	"github.com/efebarandurmaz/crewnet/internal/export"
	"github.com/efebarandurmaz/crewnet/internal/graph"
	"github.com/efebarandurmaz/crewnet/internal/pipeline"
	"github.com/efebarandurmaz/crewnet/internal/vector"
)

// Output file names written to NetworkInput.OutputDir.
const (
	GEXFFile = "network.gexf"
	JSONFile = "network.json"
	DOTFile  = "network.dot"
)

// Non-retryable failure types.
const (
	ErrTypeConfig    = "ConfigError"
	ErrTypeNoStore   = "NoGraphStore"
	ErrTypeNoVectors = "NoVectorStore"
)

// BuildResult is the serializable result of BuildNetworkActivity.
type BuildResult struct {
	JSONPath string
	Outputs  []string
	Movies   int
	Skipped  int
	Nodes    int
	Edges    int
	Vectors  int
}

// StoreResult is the serializable result of StoreNetworkActivity.
type StoreResult struct {
	Nodes int
	Edges int
}

// Dependencies holds shared resources injected into activities.
type Dependencies struct {
	Logger      *log.Logger
	GraphStore  graph.Repository  // nil when no graph store is configured
	Vectors     vector.Repository // nil when no vector store is configured
	Parallelism int
}

var deps = &Dependencies{}

// SetDependencies injects shared resources (called during worker setup).
func SetDependencies(d *Dependencies) {
	if d.Logger == nil {
		d.Logger = log.New(io.Discard)
	}
	deps = d
}

// BuildNetworkActivity runs the pipeline over the input corpus and writes
// the exports to the output directory. The JSON export is always written so
// that StoreNetworkActivity can pick the graph up.
func BuildNetworkActivity(ctx context.Context, input NetworkInput) (BuildResult, error) {
	policy, err := crewindex.NewPolicy(crewindex.PolicyParams{
		ExcludeMovieTypes: input.ExcludeMovieTypes,
		ExcludeRoles:      input.ExcludeRoles,
		FeaturesOnly:      input.FeaturesOnly,
		NonFeaturesOnly:   input.NonFeaturesOnly,
	})
	if err != nil {
		return BuildResult{}, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeConfig, err)
	}
	if input.IndexVectors && deps.Vectors == nil {
		return BuildResult{}, temporal.NewNonRetryableApplicationError("vector indexing requested but no vector store configured", ErrTypeNoVectors, nil)
	}
	if err := os.MkdirAll(input.OutputDir, 0o755); err != nil {
		return BuildResult{}, errors.Wrapf(err, "create output dir %s", input.OutputDir)
	}

	paths := export.Paths{
		GEXF: filepath.Join(input.OutputDir, GEXFFile),
		JSON: filepath.Join(input.OutputDir, JSONFile),
	}
	if input.DOT {
		paths.DOT = filepath.Join(input.OutputDir, DOTFile)
	}

	activity.RecordHeartbeat(ctx, "building")
	res, err := pipeline.Run(ctx, pipeline.Options{
		Repo:          input.Repo,
		Policy:        policy,
		Parallelism:   deps.Parallelism,
		MaxMovies:     input.MaxMovies,
		SelfLoops:     input.SelfLoops,
		DirectorsFile: input.DirectorsFile,
		Output:        paths,
	}, deps.Logger)
	if err != nil {
		return BuildResult{}, err
	}

	out := BuildResult{
		JSONPath: paths.JSON,
		Outputs:  res.Outputs,
		Movies:   res.Index.Movies,
		Skipped:  res.Index.Skipped,
		Nodes:    res.Stats.Nodes,
		Edges:    res.Stats.Edges,
	}

	if input.IndexVectors {
		ix := vector.NewIndexer(deps.Vectors, vector.Vocabulary(res.Index.Roles()), deps.Logger)
		n, err := pipeline.IndexVectors(ctx, ix, res.Profiles, res.Metrics)
		if err != nil {
			return BuildResult{}, err
		}
		out.Vectors = n
	}
	return out, nil
}

// StoreNetworkActivity reads a JSON export and writes it to the graph store.
func StoreNetworkActivity(ctx context.Context, jsonPath string) (StoreResult, error) {
	if deps.GraphStore == nil {
		return StoreResult{}, temporal.NewNonRetryableApplicationError("no graph store configured", ErrTypeNoStore, nil)
	}
	f, err := os.Open(jsonPath)
	if err != nil {
		return StoreResult{}, errors.Wrapf(err, "open %s", jsonPath)
	}
	defer f.Close()

	g, err := export.ReadJSON(f)
	if err != nil {
		return StoreResult{}, errors.Wrapf(err, "read %s", jsonPath)
	}
	if err := pipeline.Store(ctx, deps.GraphStore, g, nil); err != nil {
		return StoreResult{}, err
	}
	deps.Logger.Info("network stored", "nodes", g.NumNodes(), "edges", g.NumEdges())
	return StoreResult{Nodes: g.NumNodes(), Edges: g.NumEdges()}, nil
}
