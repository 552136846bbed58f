package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/efebarandurmaz/crewnet/internal/config"
	"github.com/efebarandurmaz/crewnet/internal/logging"
	"github.com/efebarandurmaz/crewnet/internal/observability"
)

const version = "0.1.0"

// app is the per-invocation state shared by every command.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	tp     *observability.TracerProvider
	close  func() error
}

func main() {
	var (
		configPath string
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:           "crewnet",
		Short:         "Director and crew collaboration network builder",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: ./crewnet.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	start := func(cmd *cobra.Command) (*app, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		applyFlags(cmd.Flags(), cfg)

		logger, closeLog, err := logging.New(cfg.Log, os.Stderr)
		if err != nil {
			return nil, err
		}
		for _, w := range cfg.Validate() {
			logger.Warn(w)
		}

		tp, err := observability.InitTracing(cmd.Context(), &observability.TracingConfig{
			ServiceName:    "crewnet",
			ServiceVersion: version,
			Environment:    cfg.Tracing.Environment,
			OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
			SampleRate:     cfg.Tracing.SampleRate,
		})
		if err != nil {
			closeLog()
			return nil, err
		}
		return &app{cfg: cfg, logger: logger, tp: tp, close: closeLog}, nil
	}

	rootCmd.AddCommand(
		buildCmd(start),
		statsCmd(start),
		similarCmd(start),
		collaboratorsCmd(start),
		ingestCmd(start),
		submitCmd(start),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// finish flushes traces and closes the log file.
func (a *app) finish(ctx context.Context) {
	if err := a.tp.Shutdown(ctx); err != nil {
		a.logger.Warn("tracer shutdown", "err", err)
	}
	_ = a.close()
}

// corpusFlags registers the flags shared by commands that run the pipeline.
func corpusFlags(fs *pflag.FlagSet) {
	fs.String("repo", "", "Corpus repository (<repo>/<director_id>/movies/*.json.gz)")
	fs.String("directors", "", "Director metadata CSV")
	fs.StringSlice("exclude-type", nil, "Movie types to exclude (also feature_films, non_feature_films)")
	fs.StringSlice("exclude-role", nil, "Roles to exclude")
	fs.Bool("features-only", false, "Keep feature films only")
	fs.Bool("non-features-only", false, "Keep non-feature films only")
	fs.Bool("self-loops", false, "Keep director-to-self links")
	fs.Int("max-movies", 0, "Cap on movies per director (0 = no cap)")
	fs.Int("parallelism", 0, "Concurrent corpus decoders")
}

// applyFlags overrides configuration with the flags the user set.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config) {
	str := func(name string, dst *string) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			*dst, _ = fs.GetString(name)
		}
	}
	slice := func(name string, dst *[]string) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			*dst, _ = fs.GetStringSlice(name)
		}
	}
	boolean := func(name string, dst *bool) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			*dst, _ = fs.GetBool(name)
		}
	}
	integer := func(name string, dst *int) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			*dst, _ = fs.GetInt(name)
		}
	}

	str("repo", &cfg.Corpus.Repo)
	str("directors", &cfg.Metadata.DirectorsFile)
	slice("exclude-type", &cfg.Filters.ExcludeMovieTypes)
	slice("exclude-role", &cfg.Filters.ExcludeRoles)
	boolean("features-only", &cfg.Filters.FeaturesOnly)
	boolean("non-features-only", &cfg.Filters.NonFeaturesOnly)
	boolean("self-loops", &cfg.Graph.SelfLoops)
	integer("max-movies", &cfg.Corpus.MaxMovies)
	integer("parallelism", &cfg.Corpus.Parallelism)
	str("gexf", &cfg.Output.GEXF)
	str("json", &cfg.Output.JSON)
	str("dot", &cfg.Output.DOT)
}
