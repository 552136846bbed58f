package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/efebarandurmaz/crewnet/internal/crewindex"
	"github.com/efebarandurmaz/crewnet/internal/network"
)

// RunMetrics collects statistics for a full pipeline run.
type RunMetrics struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at,omitempty"`
	Duration   time.Duration  `json:"duration_ms,omitempty"`
	Repo       string         `json:"repo"`
	Corpus     CorpusMetrics  `json:"corpus"`
	Graph      GraphMetrics   `json:"graph"`
	Stages     []StageMetrics `json:"stages"`
	Outputs    []string       `json:"outputs,omitempty"`
	Errors     []string       `json:"errors,omitempty"`
}

type CorpusMetrics struct {
	Files     int `json:"files"`
	Movies    int `json:"movies"`
	Filtered  int `json:"filtered"`
	Skipped   int `json:"skipped"`
	Crew      int `json:"crew"`
	Roles     int `json:"roles"`
	Directors int `json:"directors"`
}

type GraphMetrics struct {
	Nodes            int `json:"nodes"`
	Edges            int `json:"edges"`
	SelfLoopsSkipped int `json:"self_loops_skipped"`
	Components       int `json:"components"`
}

type StageMetrics struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration_ms"`
	Err      string        `json:"error,omitempty"`
}

// New starts tracking a run over repo.
func New(repo string) *RunMetrics {
	return &RunMetrics{StartedAt: time.Now(), Repo: repo}
}

// CollectCorpus copies the corpus counters from the finished index.
func (m *RunMetrics) CollectCorpus(files int, idx *crewindex.Index) {
	m.Corpus.Files = files
	m.Corpus.Movies = idx.Movies
	m.Corpus.Filtered = idx.Filtered
	m.Corpus.Skipped = idx.Skipped
	m.Corpus.Crew = len(idx.Crew)
	m.Corpus.Roles = len(idx.RoleCounts)
	m.Corpus.Directors = len(idx.DirectorMovieCounts)
}

// CollectGraph copies the graph counters.
func (m *RunMetrics) CollectGraph(s network.Stats) {
	m.Graph.Nodes = s.Nodes
	m.Graph.Edges = s.Edges
	m.Graph.SelfLoopsSkipped = s.SelfLoopsSkipped
	m.Graph.Components = s.Components
}

// AddStage records a single stage's timing and error, if any.
func (m *RunMetrics) AddStage(name string, d time.Duration, err error) {
	s := StageMetrics{Name: name, Duration: d}
	if err != nil {
		s.Err = err.Error()
		m.Errors = append(m.Errors, fmt.Sprintf("%s: %v", name, err))
	}
	m.Stages = append(m.Stages, s)
}

// Finish marks the run as complete.
func (m *RunMetrics) Finish(outputs []string) {
	m.FinishedAt = time.Now()
	m.Duration = m.FinishedAt.Sub(m.StartedAt)
	m.Outputs = outputs
}

// PrintSummary writes a human-readable summary.
func (m *RunMetrics) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "\n╔══════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║          CREWNET RUN REPORT          ║\n")
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ Duration:    %-23s║\n", m.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "║ Repo:        %-23s║\n", shorten(m.Repo, 23))
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ CORPUS\n")
	fmt.Fprintf(w, "║   Files:       %d\n", m.Corpus.Files)
	fmt.Fprintf(w, "║   Movies:      %d\n", m.Corpus.Movies)
	fmt.Fprintf(w, "║   Filtered:    %d\n", m.Corpus.Filtered)
	fmt.Fprintf(w, "║   Skipped:     %d\n", m.Corpus.Skipped)
	fmt.Fprintf(w, "║   Directors:   %d\n", m.Corpus.Directors)
	fmt.Fprintf(w, "║   Crew:        %d\n", m.Corpus.Crew)
	fmt.Fprintf(w, "║   Roles:       %d\n", m.Corpus.Roles)
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ GRAPH\n")
	fmt.Fprintf(w, "║   Nodes:       %d\n", m.Graph.Nodes)
	fmt.Fprintf(w, "║   Edges:       %d\n", m.Graph.Edges)
	fmt.Fprintf(w, "║   Self loops:  %d\n", m.Graph.SelfLoopsSkipped)
	fmt.Fprintf(w, "║   Components:  %d\n", m.Graph.Components)
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ STAGES\n")
	for _, s := range m.Stages {
		status := "OK"
		if s.Err != "" {
			status = "FAILED"
		}
		fmt.Fprintf(w, "║   %-10s %10s  %s\n", s.Name, s.Duration.Round(time.Microsecond), status)
	}
	if len(m.Outputs) > 0 {
		fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
		fmt.Fprintf(w, "║ OUTPUTS\n")
		for _, o := range m.Outputs {
			fmt.Fprintf(w, "║   %s\n", o)
		}
	}
	if len(m.Errors) > 0 {
		fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
		fmt.Fprintf(w, "║ ERRORS\n")
		for _, e := range m.Errors {
			fmt.Fprintf(w, "║   • %s\n", e)
		}
	}
	fmt.Fprintf(w, "╚══════════════════════════════════════╝\n")
}

// JSON returns the metrics as formatted JSON.
func (m *RunMetrics) JSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// shorten keeps the tail of long paths.
func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "…" + string(r[len(r)-n+1:])
}
