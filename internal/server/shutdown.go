package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// Hook priorities; lower runs first.
const (
	PriorityHealth  = 5
	PriorityWorker  = 20
	PriorityStores  = 80
	PriorityTracing = 90
)

// DefaultShutdownTimeout bounds the whole shutdown sequence.
const DefaultShutdownTimeout = 30 * time.Second

// ShutdownHook is one step of the shutdown sequence.
type ShutdownHook struct {
	Name     string
	Priority int
	Fn       func(ctx context.Context) error
}

// Shutdown runs registered hooks in priority order once a stop signal
// arrives.
type Shutdown struct {
	hooks   []ShutdownHook
	timeout time.Duration
	logger  *log.Logger
}

// NewShutdown creates a shutdown sequence. A zero timeout uses
// DefaultShutdownTimeout and a nil logger discards output.
func NewShutdown(timeout time.Duration, logger *log.Logger) *Shutdown {
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Shutdown{timeout: timeout, logger: logger}
}

// Add registers a hook. Hooks of equal priority run in registration order.
func (s *Shutdown) Add(name string, priority int, fn func(ctx context.Context) error) {
	s.hooks = append(s.hooks, ShutdownHook{Name: name, Priority: priority, Fn: fn})
	sort.SliceStable(s.hooks, func(i, j int) bool { return s.hooks[i].Priority < s.hooks[j].Priority })
}

// Hooks returns the registered hooks in execution order.
func (s *Shutdown) Hooks() []ShutdownHook {
	return append([]ShutdownHook(nil), s.hooks...)
}

// Run executes every hook within the timeout. A failing hook does not stop
// later ones; all failures are combined into the returned error.
func (s *Shutdown) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var errs error
	for _, h := range s.hooks {
		start := time.Now()
		if err := h.Fn(ctx); err != nil {
			s.logger.Error("shutdown hook failed", "hook", h.Name, "err", err)
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "shutdown %s", h.Name))
			continue
		}
		s.logger.Debug("shutdown hook done", "hook", h.Name, "took", time.Since(start))
	}
	return errs
}

// WaitForSignal blocks until SIGINT or SIGTERM arrives or ctx is done.
func WaitForSignal(ctx context.Context) os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(ch)

	select {
	case sig := <-ch:
		return sig
	case <-ctx.Done():
		return nil
	}
}
