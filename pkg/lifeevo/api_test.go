package lifeevo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func smallRun() RunRequest {
	return RunRequest{
		Population:  6,
		Generations: 3,
		GenomeSide:  5,
		Iterations:  30,
		GridWidth:   30,
		GridHeight:  20,
		Workers:     2,
		Seed:        21,
	}
}

func newTestClient(t *testing.T, artifacts string) *Client {
	t.Helper()
	client, err := New(Options{StoreKind: "memory", ArtifactsDir: artifacts, ExportsDir: filepath.Join(t.TempDir(), "exports")})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestClientRunRunsHistoryAndExport(t *testing.T) {
	artifacts := filepath.Join(t.TempDir(), "animals")
	client := newTestClient(t, artifacts)

	summary, err := client.Run(context.Background(), smallRun())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID == "" || summary.Seed != 21 || len(summary.Generations) != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if filepath.Base(summary.RunLogPath) != "genetics_"+summary.RunID[:6]+".json" {
		t.Fatalf("unexpected run log path: %s", summary.RunLogPath)
	}

	runs, err := client.Runs(context.Background(), RunsRequest{})
	if err != nil || len(runs) != 1 || runs[0].RunID != summary.RunID {
		t.Fatalf("unexpected runs: %+v err=%v", runs, err)
	}

	history, err := client.History(context.Background(), HistoryRequest{Latest: true, Limit: 2})
	if err != nil || len(history) != 2 || history[0].Generation != 1 {
		t.Fatalf("unexpected history: %+v err=%v", history, err)
	}
	if _, err := client.History(context.Background(), HistoryRequest{RunID: "x", Latest: true}); err == nil {
		t.Fatal("expected conflicting selector error")
	}

	exported, err := client.Export(context.Background(), ExportRequest{RunID: summary.RunID})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(exported.Path); err != nil {
		t.Fatalf("exported run log missing: %v", err)
	}
}

func TestClientHistoryFallsBackToRunLog(t *testing.T) {
	artifacts := filepath.Join(t.TempDir(), "animals")
	summary, err := newTestClient(t, artifacts).Run(context.Background(), smallRun())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	fresh := newTestClient(t, artifacts)
	history, err := fresh.History(context.Background(), HistoryRequest{RunID: summary.RunID})
	if err != nil || len(history) != 3 {
		t.Fatalf("history from run log: %d err=%v", len(history), err)
	}
	if _, err := fresh.History(context.Background(), HistoryRequest{RunID: "missing"}); err == nil {
		t.Fatal("expected missing run error")
	}
}

func TestClientReplayReproducesRecordedScore(t *testing.T) {
	artifacts := filepath.Join(t.TempDir(), "animals")
	client := newTestClient(t, artifacts)
	summary, err := client.Run(context.Background(), smallRun())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	replay, err := client.Replay(context.Background(), ReplayRequest{RunID: summary.RunID})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	last := summary.Generations[len(summary.Generations)-1]
	if replay.Champion.Generation != last.Generation || replay.Champion.Best.ID != last.Best.ID {
		t.Fatalf("unexpected champion: %+v", replay.Champion)
	}
	if replay.Fitness != last.Best.Score {
		t.Fatalf("replayed fitness %v differs from recorded %v", replay.Fitness, last.Best.Score)
	}

	first, err := client.Champion(context.Background(), ReplayRequest{Latest: true, Generation: 1})
	if err != nil || first.Generation != 1 {
		t.Fatalf("generation 1 champion: %+v err=%v", first, err)
	}
	if _, err := client.Champion(context.Background(), ReplayRequest{RunID: summary.RunID, Generation: 99}); err == nil {
		t.Fatal("expected missing generation error")
	}
}

func TestClientResetAndSelectors(t *testing.T) {
	client := newTestClient(t, filepath.Join(t.TempDir(), "animals"))
	if err := client.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := client.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := client.History(context.Background(), HistoryRequest{Latest: true}); err == nil {
		t.Fatal("expected no runs error")
	}
	if _, err := client.Export(context.Background(), ExportRequest{}); err == nil {
		t.Fatal("expected selector required error")
	}
	if _, err := New(Options{StoreKind: "mongo"}); err == nil {
		t.Fatal("expected unsupported store kind")
	}
}
