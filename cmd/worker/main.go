package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	temporalclient "go.temporal.io/sdk/client"
	temporallog "go.temporal.io/sdk/log"

	"github.com/efebarandurmaz/crewnet/internal/config"
	"github.com/efebarandurmaz/crewnet/internal/graph/neo4j"
	"github.com/efebarandurmaz/crewnet/internal/logging"
	"github.com/efebarandurmaz/crewnet/internal/observability"
	"github.com/efebarandurmaz/crewnet/internal/server"
	temporalmod "github.com/efebarandurmaz/crewnet/internal/temporal"
	"github.com/efebarandurmaz/crewnet/internal/vector/qdrant"
)

const version = "0.1.0"

func main() {
	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, closeLog, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg, logger); err != nil {
		logger.Error("worker failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx := context.Background()
	for _, w := range cfg.Validate() {
		logger.Warn(w)
	}

	health := server.NewHealthServer(version)
	shutdown := server.NewShutdown(server.DefaultShutdownTimeout, logger)
	shutdown.Add("health-server", server.PriorityHealth, health.Shutdown)

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    "crewnet-worker",
		ServiceVersion: version,
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return err
	}
	shutdown.Add("tracing", server.PriorityTracing, tp.Shutdown)

	deps := &temporalmod.Dependencies{Logger: logger, Parallelism: cfg.Corpus.Parallelism}

	if cfg.GraphStore.URI != "" {
		repo, err := neo4j.NewNeo4j(ctx, cfg.GraphStore.URI, cfg.GraphStore.Username, cfg.GraphStore.Password, cfg.GraphStore.Database)
		if err != nil {
			return errors.Wrap(err, "graph store")
		}
		deps.GraphStore = repo
		health.RegisterCheck("graph_store", server.DependencyChecker("neo4j", true, repo.Ping))
		shutdown.Add("neo4j", server.PriorityStores, repo.Close)
	}

	if cfg.Vector.Host != "" {
		vecs, err := qdrant.NewQdrant(ctx, cfg.Vector.Host, cfg.Vector.Port, cfg.Vector.Collection)
		if err != nil {
			return errors.Wrap(err, "vector store")
		}
		deps.Vectors = vecs
		health.RegisterCheck("vector_store", server.DependencyChecker("qdrant", false, vecs.Ping))
		shutdown.Add("qdrant", server.PriorityStores, func(context.Context) error { return vecs.Close() })
	}

	temporalmod.SetDependencies(deps)

	c, err := temporalclient.Dial(temporalclient.Options{
		HostPort:  cfg.Temporal.Host,
		Namespace: cfg.Temporal.Namespace,
		Logger:    temporallog.NewStructuredLogger(slog.New(logger.With("component", "temporal"))),
	})
	if err != nil {
		return errors.Wrap(err, "temporal client")
	}
	health.RegisterCheck("temporal", server.DependencyChecker("temporal", true, func(ctx context.Context) error {
		_, err := c.CheckHealth(ctx, &temporalclient.CheckHealthRequest{})
		return err
	}))
	shutdown.Add("temporal-client", server.PriorityStores, func(context.Context) error {
		c.Close()
		return nil
	})

	w, err := temporalmod.StartWorker(c, cfg.Temporal.TaskQueue)
	if err != nil {
		return err
	}
	shutdown.Add("temporal-worker", server.PriorityWorker, func(context.Context) error {
		w.Stop()
		return nil
	})

	health.Serve(cfg.Temporal.HealthAddr, func(err error) { logger.Error("health server stopped", "err", err) })
	health.SetReady(true)
	logger.Info("worker started", "task_queue", cfg.Temporal.TaskQueue, "health", cfg.Temporal.HealthAddr)

	sig := server.WaitForSignal(ctx)
	logger.Info("shutting down", "signal", sig)
	return shutdown.Run(context.Background())
}
