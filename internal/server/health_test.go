package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func ok(context.Context) error { return nil }

func failing(context.Context) error { return errors.New("connection refused") }

func get(t *testing.T, s *HealthServer, path string) (int, HealthResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %s", ct)
	}
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return w.Code, resp
}

func TestHealthServer_Healthz(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]HealthChecker
		code   int
		status HealthStatus
	}{
		{"no checks", nil, http.StatusOK, HealthStatusHealthy},
		{"all ok", map[string]HealthChecker{
			"temporal":    DependencyChecker("temporal", true, ok),
			"graph_store": DependencyChecker("neo4j", true, ok),
		}, http.StatusOK, HealthStatusHealthy},
		{"optional down", map[string]HealthChecker{
			"temporal": DependencyChecker("temporal", true, ok),
			"vector":   DependencyChecker("qdrant", false, failing),
		}, http.StatusOK, HealthStatusDegraded},
		{"required down", map[string]HealthChecker{
			"temporal": DependencyChecker("temporal", true, failing),
			"vector":   DependencyChecker("qdrant", false, failing),
		}, http.StatusServiceUnavailable, HealthStatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewHealthServer("0.1.0")
			for name, c := range tt.checks {
				s.RegisterCheck(name, c)
			}
			code, resp := get(t, s, "/healthz")
			if code != tt.code || resp.Status != tt.status {
				t.Errorf("got %d %s, want %d %s", code, resp.Status, tt.code, tt.status)
			}
			if len(resp.Checks) != len(tt.checks) {
				t.Errorf("checks = %d, want %d", len(resp.Checks), len(tt.checks))
			}
			if resp.Version != "0.1.0" {
				t.Errorf("version = %q", resp.Version)
			}
		})
	}
}

func TestHealthServer_CheckOrder(t *testing.T) {
	s := NewHealthServer("")
	for _, name := range []string{"vector", "graph_store", "temporal"} {
		s.RegisterCheck(name, DependencyChecker(name, false, ok))
	}
	resp := s.Check(context.Background())
	want := []string{"graph_store", "temporal", "vector"}
	for i, c := range resp.Checks {
		if c.Name != want[i] {
			t.Fatalf("checks out of order: %+v", resp.Checks)
		}
	}
}

func TestHealthServer_ReadyAndLive(t *testing.T) {
	s := NewHealthServer("")

	if code, _ := get(t, s, "/readyz"); code != http.StatusServiceUnavailable {
		t.Errorf("readyz before SetReady = %d", code)
	}
	s.SetReady(true)
	if code, _ := get(t, s, "/readyz"); code != http.StatusOK {
		t.Errorf("readyz after SetReady = %d", code)
	}

	if code, _ := get(t, s, "/livez"); code != http.StatusOK {
		t.Errorf("livez = %d", code)
	}
	s.SetLive(false)
	if code, resp := get(t, s, "/livez"); code != http.StatusServiceUnavailable || resp.Status != HealthStatusUnhealthy {
		t.Errorf("livez after SetLive(false) = %d %s", code, resp.Status)
	}
}

func TestHealthServer_ShutdownClearsReady(t *testing.T) {
	s := NewHealthServer("")
	s.SetReady(true)
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown without Serve: %v", err)
	}
	if code, _ := get(t, s, "/readyz"); code != http.StatusServiceUnavailable {
		t.Errorf("readyz after shutdown = %d", code)
	}
}

func TestDependencyChecker_Message(t *testing.T) {
	c := DependencyChecker("neo4j", true, failing)(context.Background())
	if c.Status != HealthStatusUnhealthy || c.Message != "neo4j unreachable: connection refused" {
		t.Errorf("check = %+v", c)
	}
}
