package storage

import (
	"context"
	"errors"
	"testing"

	"lifeevo/internal/model"
)

func sampleRun(id string) model.RunRecord {
	return model.RunRecord{
		RunID:           id,
		GenerationCount: 3,
		PopulationSize:  10,
		DNALen:          4,
		Iterations:      100,
		CheckInterval:   10,
		GridWidth:       40,
		GridHeight:      30,
		Objective:       "population",
		Workers:         2,
	}
}

func sampleSummary(gen int, best float64) model.GenerationSummary {
	return model.GenerationSummary{
		Generation:     gen,
		PopulationSize: 10,
		Best:           model.IndividualDump{ID: "best", DNA: [][]int{{1, 0}, {0, 1}}, Score: best, Parents: []string{}},
		Worst:          model.IndividualDump{ID: "worst", DNA: [][]int{{0, 0}, {0, 0}}, Score: 0, Parents: []string{"a", "b"}},
	}
}

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing run: ok=%v err=%v", ok, err)
	}
	if _, ok, err := store.GetGenerations(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing generations: ok=%v err=%v", ok, err)
	}

	rec := GenerationRecorder{Store: store}
	for gen := 1; gen <= 3; gen++ {
		if err := rec.RecordGeneration(ctx, sampleRun("run-a"), sampleSummary(gen, float64(gen*10))); err != nil {
			t.Fatalf("record generation %d: %v", gen, err)
		}
	}
	if err := rec.RecordGeneration(ctx, sampleRun("run-b"), sampleSummary(1, 5)); err != nil {
		t.Fatalf("record run-b: %v", err)
	}

	run, ok, err := store.GetRun(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%v err=%v", ok, err)
	}
	if run.SchemaVersion != CurrentSchemaVersion || run.CodecVersion != CurrentCodecVersion || run.DNALen != 4 {
		t.Fatalf("unexpected run: %+v", run)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "run-a" || runs[1].RunID != "run-b" {
		t.Fatalf("unexpected run listing: %+v", runs)
	}

	history, ok, err := store.GetGenerations(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get generations: ok=%v err=%v", ok, err)
	}
	if len(history) != 3 || history[2].Generation != 3 || history[2].Best.Score != 30 {
		t.Fatalf("unexpected history: %+v", history)
	}
	if len(history[0].Worst.Parents) != 2 || history[0].Best.DNA[1][1] != 1 {
		t.Fatalf("summary fields lost: %+v", history[0])
	}

	if err := store.AppendGeneration(ctx, "run-a", sampleSummary(2, 1)); err == nil {
		t.Fatal("expected out-of-order generation to be rejected")
	}

	resetter, ok := store.(Resetter)
	if !ok {
		t.Fatal("expected store to support reset")
	}
	if err := resetter.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	runs, err = store.ListRuns(ctx)
	if err != nil || len(runs) != 0 {
		t.Fatalf("expected empty store after reset, got %d runs err=%v", len(runs), err)
	}
}

func TestMemoryStoreContract(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	exerciseStore(t, store)
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	if err := store.SaveRun(context.Background(), sampleRun("r")); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if _, err := store.ListRuns(context.Background()); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Init(ctx)
	if err := store.AppendGeneration(ctx, "r", sampleSummary(1, 1)); err != nil {
		t.Fatalf("append: %v", err)
	}
	history, _, _ := store.GetGenerations(ctx, "r")
	history[0].Best.DNA[0][0] = 9
	again, _, _ := store.GetGenerations(ctx, "r")
	if again[0].Best.DNA[0][0] != 1 {
		t.Fatal("stored summary was mutated through a returned copy")
	}
}

func TestGenerationRecorderWithoutStore(t *testing.T) {
	err := GenerationRecorder{}.RecordGeneration(context.Background(), sampleRun("r"), sampleSummary(1, 1))
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}
