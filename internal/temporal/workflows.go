package temporal

import (
	"time"

	"github.com/cockroachdb/errors"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// NetworkInput holds the workflow parameters.
type NetworkInput struct {
	Repo          string
	DirectorsFile string
	OutputDir     string

	ExcludeMovieTypes []string
	ExcludeRoles      []string
	FeaturesOnly      bool
	NonFeaturesOnly   bool
	MaxMovies         int
	SelfLoops         bool
	DOT               bool

	Store        bool // write the graph to the configured graph store
	IndexVectors bool // index director vectors in the configured vector store
}

// NetworkOutput holds the workflow result.
type NetworkOutput struct {
	Outputs []string
	Movies  int
	Skipped int
	Nodes   int
	Edges   int
	Vectors int
	Stored  bool
}

// NetworkWorkflow builds the collaboration network and optionally stores it.
func NetworkWorkflow(ctx workflow.Context, input NetworkInput) (*NetworkOutput, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{ErrTypeConfig, ErrTypeNoStore, ErrTypeNoVectors},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var built BuildResult
	if err := workflow.ExecuteActivity(ctx, BuildNetworkActivity, input).Get(ctx, &built); err != nil {
		return nil, errors.Wrap(err, "build network")
	}

	output := &NetworkOutput{
		Outputs: built.Outputs,
		Movies:  built.Movies,
		Skipped: built.Skipped,
		Nodes:   built.Nodes,
		Edges:   built.Edges,
		Vectors: built.Vectors,
	}

	if input.Store {
		var stored StoreResult
		if err := workflow.ExecuteActivity(ctx, StoreNetworkActivity, built.JSONPath).Get(ctx, &stored); err != nil {
			return nil, errors.Wrap(err, "store network")
		}
		output.Stored = true
	}

	workflow.GetLogger(ctx).Info("network workflow finished", "nodes", output.Nodes, "edges", output.Edges, "stored", output.Stored)
	return output, nil
}
