package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"lifeevo/internal/model"
)

var seriesCSVHeader = []string{"generation", "population", "best", "worst", "best_id", "worst_id"}

// WriteSeriesCSV writes one row per recorded generation.
func WriteSeriesCSV(out io.Writer, history []model.GenerationSummary) error {
	writer := csv.NewWriter(out)
	if err := writer.Write(seriesCSVHeader); err != nil {
		return fmt.Errorf("write series header: %w", err)
	}
	for i, summary := range history {
		if err := writer.Write([]string{
			strconv.Itoa(summary.Generation),
			strconv.Itoa(summary.PopulationSize),
			strconv.FormatFloat(summary.Best.Score, 'f', -1, 64),
			strconv.FormatFloat(summary.Worst.Score, 'f', -1, 64),
			summary.Best.ID,
			summary.Worst.ID,
		}); err != nil {
			return fmt.Errorf("write series row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush series csv: %w", err)
	}
	return nil
}
