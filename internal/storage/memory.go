package storage

import (
	"context"
	"fmt"
	"sync"

	"lifeevo/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	order       []string
	runs        map[string]model.RunRecord
	generations map[string][]model.GenerationSummary
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	s.initialized = true
	return nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.reset()
	return nil
}

func (s *MemoryStore) reset() {
	s.order = nil
	s.runs = make(map[string]model.RunRecord)
	s.generations = make(map[string][]model.GenerationSummary)
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	if run.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if _, ok := s.runs[run.RunID]; !ok {
		s.order = append(s.order, run.RunID)
	}
	s.runs[run.RunID] = stampVersion(run)
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, runID string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.RunRecord{}, false, ErrNotInitialized
	}
	run, ok := s.runs[runID]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	runs := make([]model.RunRecord, 0, len(s.order))
	for _, id := range s.order {
		runs = append(runs, s.runs[id])
	}
	return runs, nil
}

func (s *MemoryStore) AppendGeneration(_ context.Context, runID string, summary model.GenerationSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	history := s.generations[runID]
	if n := len(history); n > 0 && summary.Generation <= history[n-1].Generation {
		return fmt.Errorf("run %s: generation %d recorded out of order after %d", runID, summary.Generation, history[n-1].Generation)
	}
	s.generations[runID] = append(history, copySummary(summary))
	return nil
}

func (s *MemoryStore) GetGenerations(_ context.Context, runID string) ([]model.GenerationSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, false, ErrNotInitialized
	}
	history, ok := s.generations[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.GenerationSummary, 0, len(history))
	for _, summary := range history {
		copied = append(copied, copySummary(summary))
	}
	return copied, true, nil
}

func copySummary(summary model.GenerationSummary) model.GenerationSummary {
	summary.Best = copyDump(summary.Best)
	summary.Worst = copyDump(summary.Worst)
	return summary
}

func copyDump(dump model.IndividualDump) model.IndividualDump {
	dna := make([][]int, len(dump.DNA))
	for i, row := range dump.DNA {
		dna[i] = append([]int(nil), row...)
	}
	dump.DNA = dna
	dump.Parents = append([]string{}, dump.Parents...)
	return dump
}
