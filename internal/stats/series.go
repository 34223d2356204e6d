package stats

import "lifeevo/internal/model"

type SeriesPoint struct {
	Generation int     `json:"generation"`
	Best       float64 `json:"best"`
	Worst      float64 `json:"worst"`
}

func BuildSeries(history []model.GenerationSummary) []SeriesPoint {
	points := make([]SeriesPoint, 0, len(history))
	for _, summary := range history {
		points = append(points, SeriesPoint{
			Generation: summary.Generation,
			Best:       summary.Best.Score,
			Worst:      summary.Worst.Score,
		})
	}
	return points
}

// Improvement is the change in best score between the first and last
// recorded generation.
func Improvement(history []model.GenerationSummary) float64 {
	if len(history) < 2 {
		return 0
	}
	return history[len(history)-1].Best.Score - history[0].Best.Score
}

// PeakBest returns the generation holding the highest best score. The
// earliest generation wins ties.
func PeakBest(history []model.GenerationSummary) (model.GenerationSummary, bool) {
	if len(history) == 0 {
		return model.GenerationSummary{}, false
	}
	peak := history[0]
	for _, summary := range history[1:] {
		if summary.Best.Score > peak.Best.Score {
			peak = summary
		}
	}
	return peak, true
}
