package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"lifeevo/internal/model"
)

const (
	runLogPrefix   = "genetics_"
	runLogIDLength = 6
)

// RunLogFileName is the run log name for a run: genetics_ followed by the
// first six characters of the run id.
func RunLogFileName(runID string) string {
	short := runID
	if len(short) > runLogIDLength {
		short = short[:runLogIDLength]
	}
	return runLogPrefix + short + ".json"
}

// RunLogWriter keeps the accumulated run log of every run it has seen and
// rewrites the whole file after each generation.
type RunLogWriter struct {
	baseDir string

	mu   sync.Mutex
	logs map[string]*model.RunLog
}

func NewRunLogWriter(baseDir string) *RunLogWriter {
	return &RunLogWriter{baseDir: baseDir, logs: make(map[string]*model.RunLog)}
}

// Path is where the run log of runID is written.
func (w *RunLogWriter) Path(runID string) string {
	return filepath.Join(w.baseDir, RunLogFileName(runID))
}

func (w *RunLogWriter) RecordGeneration(_ context.Context, run model.RunRecord, summary model.GenerationSummary) error {
	if run.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	log, ok := w.logs[run.RunID]
	if !ok {
		log = &model.RunLog{}
		w.logs[run.RunID] = log
	}
	log.RunRecord = run
	log.Generations = append(log.Generations, summary)

	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	return writeJSON(w.Path(run.RunID), log)
}

// Snapshot returns a copy of the accumulated log for runID.
func (w *RunLogWriter) Snapshot(runID string) (model.RunLog, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	log, ok := w.logs[runID]
	if !ok {
		return model.RunLog{}, false
	}
	out := *log
	out.Generations = append([]model.GenerationSummary(nil), log.Generations...)
	return out, true
}

func ReadRunLog(path string) (model.RunLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.RunLog{}, err
	}
	var log model.RunLog
	if err := json.Unmarshal(data, &log); err != nil {
		return model.RunLog{}, fmt.Errorf("decode run log %s: %w", path, err)
	}
	return log, nil
}

// FindRunLog reads the run log of runID from baseDir.
func FindRunLog(baseDir, runID string) (model.RunLog, bool, error) {
	log, err := ReadRunLog(filepath.Join(baseDir, RunLogFileName(runID)))
	if err != nil {
		if os.IsNotExist(err) {
			return model.RunLog{}, false, nil
		}
		return model.RunLog{}, false, err
	}
	return log, true, nil
}

// ExportRunLog copies the run log of runID into outDir and returns the
// destination path.
func ExportRunLog(baseDir, runID, outDir string) (string, error) {
	src := filepath.Join(baseDir, RunLogFileName(runID))
	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("run log not found for %s: %w", runID, err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(outDir, RunLogFileName(runID))
	if err := copyFile(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
