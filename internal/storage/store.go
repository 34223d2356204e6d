package storage

import (
	"context"
	"errors"

	"lifeevo/internal/model"
)

var ErrNotInitialized = errors.New("store is not initialized")

// Store persists run metadata and the per-generation summaries of a run.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, runID string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	AppendGeneration(ctx context.Context, runID string, summary model.GenerationSummary) error
	GetGenerations(ctx context.Context, runID string) ([]model.GenerationSummary, bool, error)
}

// Resetter is implemented by stores that can drop all persisted runs.
type Resetter interface {
	Reset(ctx context.Context) error
}

// GenerationRecorder adapts a Store to the evolution driver's recorder hook.
// The run record is upserted on every call so a run is listed as soon as its
// first generation lands.
type GenerationRecorder struct {
	Store Store
}

func (r GenerationRecorder) RecordGeneration(ctx context.Context, run model.RunRecord, summary model.GenerationSummary) error {
	if r.Store == nil {
		return ErrNotInitialized
	}
	if err := r.Store.SaveRun(ctx, run); err != nil {
		return err
	}
	return r.Store.AppendGeneration(ctx, run.RunID, summary)
}

func stampVersion(run model.RunRecord) model.RunRecord {
	if run.SchemaVersion == 0 && run.CodecVersion == 0 {
		run.VersionedRecord = model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
	}
	return run
}
