package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lifeevo/internal/model"
)

func TestServerRoutes(t *testing.T) {
	m := NewMetrics()
	_ = m.RecordGeneration(context.Background(), model.RunRecord{RunID: "r1", Objective: "population"}, model.GenerationSummary{Generation: 1})
	srv := NewServer("127.0.0.1:0", m, func() any {
		return map[string]any{"active_runs": []string{"r1"}}
	}, nil)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "healthy") {
		t.Fatalf("healthz: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	var status map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil || len(status["active_runs"]) != 1 {
		t.Fatalf("status: %s err=%v", rec.Body.String(), err)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "lifeevo_generations_total") {
		t.Fatalf("metrics: %d %s", rec.Code, rec.Body.String())
	}
}

func TestServerLifecycle(t *testing.T) {
	srv := NewServer("127.0.0.1:0", NewMetrics(), nil, nil)
	if srv.Name() == "" {
		t.Fatal("expected module name")
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "healthy") {
		t.Fatalf("healthz over tcp: %d %s", resp.StatusCode, body)
	}

	if err := srv.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := srv.Stop(context.Background()); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}
