package platform

import (
	"context"
	"errors"
	"os"
	"testing"

	"lifeevo/internal/evo"
	"lifeevo/internal/model"
	"lifeevo/internal/stats"
	"lifeevo/internal/storage"
)

type fakeModule struct {
	name     string
	startErr error
	log      *[]string
}

func (m *fakeModule) Name() string { return m.name }

func (m *fakeModule) Start(context.Context) error {
	*m.log = append(*m.log, "start:"+m.name)
	return m.startErr
}

func (m *fakeModule) Stop(context.Context) error {
	*m.log = append(*m.log, "stop:"+m.name)
	return nil
}

type recorderFunc func(ctx context.Context, run model.RunRecord, summary model.GenerationSummary) error

func (f recorderFunc) RecordGeneration(ctx context.Context, run model.RunRecord, summary model.GenerationSummary) error {
	return f(ctx, run, summary)
}

func smallEvolution() EvolutionConfig {
	cfg := DefaultEvolutionConfig()
	cfg.PopulationSize = 6
	cfg.Generations = 2
	cfg.GenomeSide = 4
	cfg.Iterations = 20
	cfg.GridWidth = 24
	cfg.GridHeight = 16
	cfg.Workers = 2
	cfg.Seed = 17
	return cfg
}

func startedPolis(t *testing.T, cfg Config) *Polis {
	t.Helper()
	if cfg.Store == nil {
		cfg.Store = storage.NewMemoryStore()
	}
	p := NewPolis(cfg)
	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(p.Stop)
	return p
}

func TestPolisInitStartsAndStopsModulesInOrder(t *testing.T) {
	var events []string
	p := NewPolis(Config{
		Store: storage.NewMemoryStore(),
		SupportModules: []SupportModule{
			&fakeModule{name: "a", log: &events},
			&fakeModule{name: "b", log: &events},
		},
	})
	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if got := p.ActiveSupportModules(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected modules: %v", got)
	}
	if err := p.StopWithReason(StopReasonShutdown); err != nil {
		t.Fatalf("stop: %v", err)
	}
	want := []string{"start:a", "start:b", "stop:b", "stop:a"}
	if len(events) != len(want) {
		t.Fatalf("unexpected events: %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d: got %s want %s", i, events[i], want[i])
		}
	}
	if p.Started() || p.LastStopReason() != StopReasonShutdown {
		t.Fatalf("unexpected state: started=%v reason=%s", p.Started(), p.LastStopReason())
	}
	if err := p.StopWithReason("crash"); err == nil {
		t.Fatal("expected unsupported stop reason")
	}
}

func TestPolisInitRollsBackOnModuleFailure(t *testing.T) {
	var events []string
	p := NewPolis(Config{
		Store: storage.NewMemoryStore(),
		SupportModules: []SupportModule{
			&fakeModule{name: "a", log: &events},
			&fakeModule{name: "b", log: &events, startErr: errors.New("port in use")},
		},
	})
	if err := p.Init(context.Background()); err == nil {
		t.Fatal("expected init failure")
	}
	if p.Started() || len(events) != 3 || events[2] != "stop:a" {
		t.Fatalf("unexpected rollback: started=%v events=%v", p.Started(), events)
	}

	dup := NewPolis(Config{
		Store:          storage.NewMemoryStore(),
		SupportModules: []SupportModule{&fakeModule{name: "a", log: &events}, &fakeModule{name: "a", log: &events}},
	})
	if err := dup.Init(context.Background()); err == nil {
		t.Fatal("expected duplicate module error")
	}
	if err := NewPolis(Config{}).Init(context.Background()); err == nil {
		t.Fatal("expected missing store error")
	}
}

func TestRunEvolutionRecordsEverywhere(t *testing.T) {
	artifacts := t.TempDir()
	var seen []int
	store := storage.NewMemoryStore()
	p := startedPolis(t, Config{
		Store:        store,
		ArtifactsDir: artifacts,
		Recorders: []evo.Recorder{recorderFunc(func(_ context.Context, _ model.RunRecord, s model.GenerationSummary) error {
			seen = append(seen, s.Generation)
			return nil
		})},
	})

	out, err := p.RunEvolution(context.Background(), smallEvolution())
	if err != nil {
		t.Fatalf("run evolution: %v", err)
	}
	if len(out.Run.RunID) != 32 || out.Run.Seed != 17 || out.Run.Objective != "population" {
		t.Fatalf("unexpected run record: %+v", out.Run)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("extra recorder saw %v", seen)
	}

	history, ok, err := store.GetGenerations(context.Background(), out.Run.RunID)
	if err != nil || !ok || len(history) != 2 {
		t.Fatalf("store history: ok=%v err=%v len=%d", ok, err, len(history))
	}

	if _, err := os.Stat(out.RunLogPath); err != nil {
		t.Fatalf("run log missing: %v", err)
	}
	log, err := stats.ReadRunLog(out.RunLogPath)
	if err != nil || len(log.Generations) != 2 || log.GenerationCount != 2 {
		t.Fatalf("unexpected run log: %+v err=%v", log, err)
	}

	index, err := stats.ListRunIndex(artifacts)
	if err != nil || len(index) != 1 || index[0].RunID != out.Run.RunID || index[0].Stop != string(evo.TerminalCompleted) {
		t.Fatalf("unexpected run index: %+v err=%v", index, err)
	}
	if len(p.ActiveRuns()) != 0 {
		t.Fatalf("run still registered: %v", p.ActiveRuns())
	}
}

func TestRunEvolutionIsReproducibleForSeed(t *testing.T) {
	a, err := startedPolis(t, Config{}).RunEvolution(context.Background(), smallEvolution())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := startedPolis(t, Config{}).RunEvolution(context.Background(), smallEvolution())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if a.Run.RunID != b.Run.RunID || a.Result.Best.Score != b.Result.Best.Score {
		t.Fatalf("same seed diverged: %s/%v vs %s/%v", a.Run.RunID, a.Result.Best.Score, b.Run.RunID, b.Result.Best.Score)
	}
}

func TestRunEvolutionRejectsBadConfig(t *testing.T) {
	p := startedPolis(t, Config{})
	for name, mutate := range map[string]func(*EvolutionConfig){
		"objective": func(c *EvolutionConfig) { c.Objective = "beauty" },
		"placement": func(c *EvolutionConfig) { c.Placement = "diagonal" },
		"crossover": func(c *EvolutionConfig) { c.Crossover = "uniform-x" },
		"side":      func(c *EvolutionConfig) { c.GenomeSide = 100 },
	} {
		cfg := smallEvolution()
		mutate(&cfg)
		if _, err := p.RunEvolution(context.Background(), cfg); !errors.Is(err, evo.ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}

	idle := NewPolis(Config{Store: storage.NewMemoryStore()})
	if _, err := idle.RunEvolution(context.Background(), smallEvolution()); err == nil {
		t.Fatal("expected not initialized error")
	}
}

func TestStopRunCancelsActiveRun(t *testing.T) {
	var p *Polis
	p = startedPolis(t, Config{
		Recorders: []evo.Recorder{recorderFunc(func(_ context.Context, run model.RunRecord, _ model.GenerationSummary) error {
			return p.StopRun(run.RunID)
		})},
	})
	cfg := smallEvolution()
	cfg.Generations = 5
	out, err := p.RunEvolution(context.Background(), cfg)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(out.Result.Generations) != 1 {
		t.Fatalf("expected partial result with one generation, got %d", len(out.Result.Generations))
	}
	if err := p.StopRun("missing"); err == nil {
		t.Fatal("expected error for inactive run")
	}
}

func TestResetClearsStore(t *testing.T) {
	store := storage.NewMemoryStore()
	p := startedPolis(t, Config{Store: store})
	if _, err := p.RunEvolution(context.Background(), smallEvolution()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := p.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	runs, err := store.ListRuns(context.Background())
	if err != nil || len(runs) != 0 || !p.Started() {
		t.Fatalf("after reset: runs=%d err=%v started=%v", len(runs), err, p.Started())
	}
}

func TestMultiRecorderStopsAtFirstFailure(t *testing.T) {
	var calls []string
	rec := MultiRecorder{
		recorderFunc(func(context.Context, model.RunRecord, model.GenerationSummary) error {
			calls = append(calls, "first")
			return nil
		}),
		nil,
		recorderFunc(func(context.Context, model.RunRecord, model.GenerationSummary) error {
			calls = append(calls, "second")
			return errors.New("broker down")
		}),
		recorderFunc(func(context.Context, model.RunRecord, model.GenerationSummary) error {
			calls = append(calls, "third")
			return nil
		}),
	}
	if err := rec.RecordGeneration(context.Background(), model.RunRecord{}, model.GenerationSummary{}); err == nil {
		t.Fatal("expected failure")
	}
	if len(calls) != 2 || calls[1] != "second" {
		t.Fatalf("unexpected calls: %v", calls)
	}
}
