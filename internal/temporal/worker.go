package temporal

import (
	"github.com/cockroachdb/errors"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

// StartWorker creates and starts a Temporal worker.
func StartWorker(c client.Client, taskQueue string) (worker.Worker, error) {
	w := worker.New(c, taskQueue, worker.Options{})

	w.RegisterWorkflow(NetworkWorkflow)
	w.RegisterActivity(BuildNetworkActivity)
	w.RegisterActivity(StoreNetworkActivity)

	if err := w.Start(); err != nil {
		return nil, errors.Wrap(err, "starting worker")
	}
	return w, nil
}
