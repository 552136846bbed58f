// Package pipeline runs the engine end to end: load the corpus, index the
// credits, build and annotate the collaboration graph, summarise and export.
// Every stage is timed and traced.
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/efebarandurmaz/crewnet/internal/config"
	"github.com/efebarandurmaz/crewnet/internal/corpus"
	"github.com/efebarandurmaz/crewnet/internal/credits"
	"github.com/efebarandurmaz/crewnet/internal/crewindex"
	"github.com/efebarandurmaz/crewnet/internal/export"
	"github.com/efebarandurmaz/crewnet/internal/graph"
	"github.com/efebarandurmaz/crewnet/internal/metrics"
	"github.com/efebarandurmaz/crewnet/internal/network"
	"github.com/efebarandurmaz/crewnet/internal/observability"
	"github.com/efebarandurmaz/crewnet/internal/report"
	"github.com/efebarandurmaz/crewnet/internal/vector"
)

// Options configure a run.
type Options struct {
	Repo          string
	Policy        crewindex.Policy
	Parallelism   int
	MaxMovies     int
	SelfLoops     bool
	DirectorsFile string
	Output        export.Paths
}

// OptionsFromConfig builds run options, rejecting conflicting filters.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Repo:          cfg.Corpus.Repo,
		Policy:        policy,
		Parallelism:   cfg.Corpus.Parallelism,
		MaxMovies:     cfg.Corpus.MaxMovies,
		SelfLoops:     cfg.Graph.SelfLoops,
		DirectorsFile: cfg.Metadata.DirectorsFile,
		Output: export.Paths{
			GEXF: cfg.Output.GEXF,
			JSON: cfg.Output.JSON,
			DOT:  cfg.Output.DOT,
		},
	}, nil
}

// Result is everything a run produced.
type Result struct {
	Index     *crewindex.Index
	Directors map[string]*credits.Director
	Graph     *network.Graph
	Profiles  []*network.Profile
	Summary   *report.Summary
	Stats     network.Stats
	Outputs   []string
	Metrics   *metrics.RunMetrics
}

// Run executes the pipeline. Malformed records never fail a run; a missing
// corpus, an unreadable directors file, cancellation or a failed export do.
func Run(ctx context.Context, opts Options, logger *log.Logger) (*Result, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.Repo == "" {
		return nil, errors.WithHint(errors.New("no corpus repository"), "set corpus.repo or pass --repo")
	}

	ctx, runSpan := observability.StartRunSpan(ctx, opts.Repo)
	defer runSpan.End()

	res := &Result{Metrics: metrics.New(opts.Repo)}
	ix := crewindex.New(opts.Policy, logger)
	var loaded corpus.LoadResult

	err := stage(ctx, res.Metrics, observability.StageLoad, func(ctx context.Context) (map[string]int, error) {
		dirs, err := corpus.LoadDirectors(opts.DirectorsFile, logger)
		if err != nil {
			return nil, err
		}
		res.Directors = dirs
		loaded, err = corpus.LoadDir(ctx, opts.Repo, ix, corpus.LoadOptions{
			Parallelism: opts.Parallelism,
			MaxMovies:   opts.MaxMovies,
		}, logger)
		if err != nil {
			return nil, err
		}
		return map[string]int{"files": loaded.Files, "directors": len(dirs)}, nil
	})
	if err != nil {
		observability.RecordError(runSpan, err)
		return nil, err
	}

	_ = stage(ctx, res.Metrics, observability.StageIndex, func(context.Context) (map[string]int, error) {
		res.Index = ix.Finish()
		return map[string]int{
			"movies":  res.Index.Movies,
			"crew":    len(res.Index.Crew),
			"skipped": res.Index.Skipped,
		}, nil
	})
	res.Metrics.CollectCorpus(loaded.Files, res.Index)

	_ = stage(ctx, res.Metrics, observability.StageBuild, func(context.Context) (map[string]int, error) {
		res.Graph = network.Build(res.Index, network.BuildOptions{IncludeSelfLoops: opts.SelfLoops})
		return map[string]int{"edges": res.Graph.NumEdges()}, nil
	})

	_ = stage(ctx, res.Metrics, observability.StageAnnotate, func(context.Context) (map[string]int, error) {
		res.Profiles = network.Annotate(res.Graph, res.Index, res.Directors, logger)
		res.Stats = network.ComputeStats(res.Graph)
		return map[string]int{"nodes": res.Stats.Nodes, "profiles": len(res.Profiles)}, nil
	})
	res.Metrics.CollectGraph(res.Stats)

	_ = stage(ctx, res.Metrics, observability.StageReport, func(context.Context) (map[string]int, error) {
		res.Summary = report.Summarize(res.Index, res.Profiles)
		return map[string]int{"ranked": len(res.Summary.Ranking)}, nil
	})

	err = stage(ctx, res.Metrics, observability.StageExport, func(context.Context) (map[string]int, error) {
		written, err := export.WriteFiles(res.Graph, res.Stats, opts.Output)
		res.Outputs = written
		return map[string]int{"files": len(written)}, err
	})
	res.Metrics.Finish(res.Outputs)
	if err != nil {
		observability.RecordError(runSpan, err)
		return res, errors.Wrap(err, "export")
	}

	logger.Info("collaboration network built",
		"nodes", res.Stats.Nodes,
		"edges", res.Stats.Edges,
		"connected", res.Stats.Connected,
		"duration", res.Metrics.Duration.Round(time.Millisecond),
	)
	return res, nil
}

// Store writes the graph to repo as a traced stage.
func Store(ctx context.Context, repo graph.Repository, g *network.Graph, m *metrics.RunMetrics) error {
	return stage(ctx, m, observability.StageStore, func(ctx context.Context) (map[string]int, error) {
		if err := repo.StoreNetwork(ctx, g); err != nil {
			return nil, errors.Wrap(err, "store network")
		}
		return map[string]int{"nodes": g.NumNodes(), "edges": g.NumEdges()}, nil
	})
}

// IndexVectors writes director profiles to the vector index as a traced
// stage and returns how many were stored.
func IndexVectors(ctx context.Context, ix *vector.Indexer, profiles []*network.Profile, m *metrics.RunMetrics) (int, error) {
	var n int
	err := stage(ctx, m, observability.StageVectors, func(ctx context.Context) (map[string]int, error) {
		var err error
		n, err = ix.IndexProfiles(ctx, profiles)
		return map[string]int{"vectors": n}, errors.Wrap(err, "index director vectors")
	})
	return n, err
}

// stage runs fn inside a span and records its duration on m, which may be
// nil.
func stage(ctx context.Context, m *metrics.RunMetrics, name string, fn func(context.Context) (map[string]int, error)) error {
	ctx, span := observability.StartStageSpan(ctx, name)
	defer span.End()

	start := time.Now()
	counts, err := fn(ctx)
	if m != nil {
		m.AddStage(name, time.Since(start), err)
	}
	if counts != nil {
		observability.RecordCounts(span, counts)
	}
	observability.RecordError(span, err)
	return err
}
