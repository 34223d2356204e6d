package platform

import (
	"context"
	"fmt"

	"lifeevo/internal/evo"
	"lifeevo/internal/model"
)

// MultiRecorder fans a generation out to every recorder in order and stops at
// the first failure.
type MultiRecorder []evo.Recorder

func (m MultiRecorder) RecordGeneration(ctx context.Context, run model.RunRecord, summary model.GenerationSummary) error {
	for i, rec := range m {
		if rec == nil {
			continue
		}
		if err := rec.RecordGeneration(ctx, run, summary); err != nil {
			return fmt.Errorf("recorder %d (%T): %w", i, rec, err)
		}
	}
	return nil
}
