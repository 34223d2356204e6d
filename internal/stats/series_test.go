package stats

import (
	"bytes"
	"encoding/csv"
	"testing"

	"lifeevo/internal/model"
)

func TestSeriesHelpers(t *testing.T) {
	history := []model.GenerationSummary{summaryAt(1, 2), summaryAt(2, 7), summaryAt(3, 7), summaryAt(4, 5)}

	points := BuildSeries(history)
	if len(points) != 4 || points[1].Best != 7 || points[3].Generation != 4 {
		t.Fatalf("unexpected series: %+v", points)
	}
	if got := Improvement(history); got != 3 {
		t.Fatalf("improvement=%v want 3", got)
	}
	peak, ok := PeakBest(history)
	if !ok || peak.Generation != 2 {
		t.Fatalf("unexpected peak: %+v", peak)
	}

	if Improvement(history[:1]) != 0 {
		t.Fatal("single generation should have no improvement")
	}
	if _, ok := PeakBest(nil); ok {
		t.Fatal("expected no peak for empty history")
	}
}

func TestWriteSeriesCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSeriesCSV(&buf, []model.GenerationSummary{summaryAt(1, 2), summaryAt(2, 7.5)}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 || records[0][0] != "generation" || records[0][5] != "worst_id" {
		t.Fatalf("unexpected header: %v", records)
	}
	want := []string{"2", "8", "7.5", "0", "b", "w"}
	for i, v := range want {
		if records[2][i] != v {
			t.Fatalf("row 2 column %d = %q want %q", i, records[2][i], v)
		}
	}
}
