package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/efebarandurmaz/crewnet/internal/config"
	"github.com/efebarandurmaz/crewnet/internal/corpus"
	"github.com/efebarandurmaz/crewnet/internal/export"
	"github.com/efebarandurmaz/crewnet/internal/graph/neo4j"
	"github.com/efebarandurmaz/crewnet/internal/network"
	"github.com/efebarandurmaz/crewnet/internal/pipeline"
	"github.com/efebarandurmaz/crewnet/internal/source/imdb"
	temporalmod "github.com/efebarandurmaz/crewnet/internal/temporal"
	"github.com/efebarandurmaz/crewnet/internal/vector"
	"github.com/efebarandurmaz/crewnet/internal/vector/qdrant"
)

type starter func(cmd *cobra.Command) (*app, error)

func buildCmd(start starter) *cobra.Command {
	var (
		store      bool
		vectors    bool
		jsonReport bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the collaboration network and export it",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := start(cmd)
			if err != nil {
				return err
			}
			defer a.finish(cmd.Context())
			return runBuild(cmd.Context(), a, store, vectors, jsonReport)
		},
	}
	corpusFlags(cmd.Flags())
	cmd.Flags().String("gexf", "", "GEXF output path")
	cmd.Flags().String("json", "", "JSON output path")
	cmd.Flags().String("dot", "", "Graphviz DOT output path")
	cmd.Flags().BoolVar(&store, "store", false, "Store the network in the configured graph store")
	cmd.Flags().BoolVar(&vectors, "vectors", false, "Index director vectors in the configured vector store")
	cmd.Flags().BoolVar(&jsonReport, "json-report", false, "Print run metrics as JSON")
	return cmd
}

func runBuild(ctx context.Context, a *app, store, vectors, jsonReport bool) error {
	opts, err := pipeline.OptionsFromConfig(a.cfg)
	if err != nil {
		return err
	}
	res, err := pipeline.Run(ctx, opts, a.logger)
	if err != nil {
		return err
	}

	if store {
		repo, err := openGraphStore(ctx, a.cfg)
		if err != nil {
			return err
		}
		defer repo.Close(ctx)
		if err := pipeline.Store(ctx, repo, res.Graph, res.Metrics); err != nil {
			return err
		}
	}
	if vectors {
		repo, err := openVectorStore(ctx, a.cfg)
		if err != nil {
			return err
		}
		defer repo.Close()
		ix := vector.NewIndexer(repo, vector.Vocabulary(res.Index.Roles()), a.logger)
		if _, err := pipeline.IndexVectors(ctx, ix, res.Profiles, res.Metrics); err != nil {
			return err
		}
	}

	if jsonReport {
		data, err := res.Metrics.JSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Print(export.FormatStats(res.Stats))
	res.Metrics.PrintSummary(os.Stdout)
	return nil
}

func statsCmd(start starter) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print corpus statistics and the role homogeneity ranking",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := start(cmd)
			if err != nil {
				return err
			}
			defer a.finish(cmd.Context())

			opts, err := pipeline.OptionsFromConfig(a.cfg)
			if err != nil {
				return err
			}
			opts.Output = export.Paths{}
			res, err := pipeline.Run(cmd.Context(), opts, a.logger)
			if err != nil {
				return err
			}
			if asJSON {
				data, err := res.Summary.JSON()
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			res.Summary.Write(os.Stdout)
			return nil
		},
	}
	corpusFlags(cmd.Flags())
	cmd.Flags().BoolVar(&asJSON, "as-json", false, "Print the summary as JSON")
	return cmd
}

func similarCmd(start starter) *cobra.Command {
	var (
		k       int
		reindex bool
	)
	cmd := &cobra.Command{
		Use:   "similar <director_id>",
		Short: "Find directors who staff their productions alike",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := start(cmd)
			if err != nil {
				return err
			}
			defer a.finish(cmd.Context())
			ctx := cmd.Context()

			opts, err := pipeline.OptionsFromConfig(a.cfg)
			if err != nil {
				return err
			}
			opts.Output = export.Paths{}
			res, err := pipeline.Run(ctx, opts, a.logger)
			if err != nil {
				return err
			}
			profile := findProfile(res.Profiles, args[0])
			if profile == nil {
				return errors.WithHint(errors.Newf("director %s not found", args[0]), "the director must be listed in the directors file")
			}

			repo, err := openVectorStore(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer repo.Close()
			ix := vector.NewIndexer(repo, vector.Vocabulary(res.Index.Roles()), a.logger)
			if reindex {
				if _, err := pipeline.IndexVectors(ctx, ix, res.Profiles, res.Metrics); err != nil {
					return err
				}
			}

			matches, err := ix.Similar(ctx, profile, k)
			if err != nil {
				return err
			}
			fmt.Printf("Directors similar to %s (%s):\n", profile.Director.Name(), profile.Director.ID)
			for i, m := range matches {
				fmt.Printf("  %2d. %-30s %-12s %.4f\n", i+1, m.Name, m.DirectorID, m.Score)
			}
			return nil
		},
	}
	corpusFlags(cmd.Flags())
	cmd.Flags().IntVarP(&k, "top", "k", 10, "Number of matches")
	cmd.Flags().BoolVar(&reindex, "index", false, "Re-index director vectors before searching")
	return cmd
}

func findProfile(profiles []*network.Profile, directorID string) *network.Profile {
	for _, p := range profiles {
		if p.Director != nil && p.Director.ID == directorID {
			return p
		}
	}
	return nil
}

func collaboratorsCmd(start starter) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "collaborators <person_id>",
		Short: "List a person's strongest collaborators from the graph store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := start(cmd)
			if err != nil {
				return err
			}
			defer a.finish(cmd.Context())
			ctx := cmd.Context()

			repo, err := openGraphStore(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer repo.Close(ctx)

			collabs, err := repo.Collaborators(ctx, args[0], limit)
			if err != nil {
				return err
			}
			for _, c := range collabs {
				fmt.Printf("  %-12s %-30s %-10s %-28s weight=%.3f cofeat=%.3f\n",
					c.ID, c.Name, c.NodeType, c.Role, c.Weight, c.CofeatRate)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum collaborators (0 = all)")
	return cmd
}

func ingestCmd(start starter) *cobra.Command {
	var (
		out      string
		director string
		pageURL  string
	)
	cmd := &cobra.Command{
		Use:   "ingest <fullcredits.html>...",
		Short: "Convert saved IMDb full credits pages into corpus files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := start(cmd)
			if err != nil {
				return err
			}
			defer a.finish(cmd.Context())

			written, failed := 0, 0
			for _, path := range args {
				dst, err := ingestPage(path, out, director, pageURL)
				if err != nil {
					failed++
					a.logger.Warn("skipping page", "source", path, "err", err)
					continue
				}
				written++
				a.logger.Info("movie written", "source", path, "path", dst)
			}
			fmt.Printf("Ingested %d page(s), %d skipped\n", written, failed)
			if written == 0 {
				return errors.New("no pages ingested")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Corpus repository to write into")
	cmd.Flags().StringVar(&director, "director", "", "Director id for pages without a director credit")
	cmd.Flags().StringVar(&pageURL, "url", "", "Page URL when a single page lacks a canonical link")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// ingestPage parses one saved page and writes it under out. A director
// given explicitly files the movie under that director.
func ingestPage(path, out, director, pageURL string) (string, error) {
	html, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "read %s", path)
	}
	sm, err := imdb.ParseFullCredits(html, pageURL)
	if err != nil {
		return "", err
	}
	if director != "" {
		sm.DirectorID = director
	}
	return corpus.WriteMovie(out, sm)
}

func submitCmd(start starter) *cobra.Command {
	var (
		outputDir string
		store     bool
		vectors   bool
		dot       bool
		wait      bool
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Run the network workflow on a Temporal worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := start(cmd)
			if err != nil {
				return err
			}
			defer a.finish(cmd.Context())
			ctx := cmd.Context()

			if _, err := a.cfg.Policy(); err != nil {
				return err
			}
			repo, err := filepath.Abs(a.cfg.Corpus.Repo)
			if err != nil {
				return err
			}
			input := temporalmod.NetworkInput{
				Repo:              repo,
				DirectorsFile:     a.cfg.Metadata.DirectorsFile,
				OutputDir:         outputDir,
				ExcludeMovieTypes: a.cfg.Filters.ExcludeMovieTypes,
				ExcludeRoles:      a.cfg.Filters.ExcludeRoles,
				FeaturesOnly:      a.cfg.Filters.FeaturesOnly,
				NonFeaturesOnly:   a.cfg.Filters.NonFeaturesOnly,
				MaxMovies:         a.cfg.Corpus.MaxMovies,
				SelfLoops:         a.cfg.Graph.SelfLoops,
				DOT:               dot,
				Store:             store,
				IndexVectors:      vectors,
			}

			c, err := temporalclient.Dial(temporalclient.Options{
				HostPort:  a.cfg.Temporal.Host,
				Namespace: a.cfg.Temporal.Namespace,
			})
			if err != nil {
				return errors.Wrap(err, "temporal client")
			}
			defer c.Close()

			run, err := c.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
				ID:        fmt.Sprintf("crewnet-%d", time.Now().UnixNano()),
				TaskQueue: a.cfg.Temporal.TaskQueue,
			}, temporalmod.NetworkWorkflow, input)
			if err != nil {
				return errors.Wrap(err, "start workflow")
			}
			fmt.Printf("Workflow started: %s (run %s)\n", run.GetID(), run.GetRunID())
			if !wait {
				return nil
			}

			var out temporalmod.NetworkOutput
			if err := run.Get(ctx, &out); err != nil {
				return errors.Wrap(err, "workflow")
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
	corpusFlags(cmd.Flags())
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory on the worker for the exports")
	cmd.Flags().BoolVar(&store, "store", false, "Store the network in the worker's graph store")
	cmd.Flags().BoolVar(&vectors, "vectors", false, "Index director vectors in the worker's vector store")
	cmd.Flags().BoolVar(&dot, "dot", false, "Also write a Graphviz DOT export")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the workflow result")
	_ = cmd.MarkFlagRequired("output-dir")
	return cmd
}

func openGraphStore(ctx context.Context, cfg *config.Config) (*neo4j.Neo4jRepository, error) {
	gs := cfg.GraphStore
	if gs.URI == "" {
		return nil, errors.WithHint(errors.New("no graph store configured"), "set graph_store.uri or CREWNET_GRAPH_STORE_URI")
	}
	return neo4j.NewNeo4j(ctx, gs.URI, gs.Username, gs.Password, gs.Database)
}

func openVectorStore(ctx context.Context, cfg *config.Config) (*qdrant.QdrantRepository, error) {
	v := cfg.Vector
	if v.Host == "" {
		return nil, errors.WithHint(errors.New("no vector store configured"), "set vector.host or CREWNET_VECTOR_HOST")
	}
	return qdrant.NewQdrant(ctx, v.Host, v.Port, v.Collection)
}
