package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"lifeevo/internal/life"
	"lifeevo/internal/model"
	"lifeevo/internal/scape"
)

const namespace = "lifeevo"

// Metrics registers its collectors on a private registry rather than the
// process-wide default.
type Metrics struct {
	Registry *prometheus.Registry

	generations *prometheus.CounterVec
	bestScore   *prometheus.GaugeVec
	worstScore  *prometheus.GaugeVec
	population  *prometheus.GaugeVec
	evaluations *prometheus.CounterVec
	stops       *prometheus.CounterVec
	evalSeconds *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generations ranked and recorded.",
		}, []string{"objective"}),
		bestScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generation_best_score",
			Help:      "Score of the best individual in the latest generation.",
		}, []string{"run_id"}),
		worstScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generation_worst_score",
			Help:      "Score of the worst individual in the latest generation.",
		}, []string{"run_id"}),
		population: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "population_size",
			Help:      "Population size of the latest generation.",
		}, []string{"run_id"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Simulations run, by scape and outcome.",
		}, []string{"scape", "outcome"}),
		stops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulation_stops_total",
			Help:      "Simulations ended, by stop reason.",
		}, []string{"scape", "reason"}),
		evalSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_seconds",
			Help:      "Wall time of one simulation.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"scape"}),
	}
	m.Registry.MustRegister(m.generations, m.bestScore, m.worstScore, m.population, m.evaluations, m.stops, m.evalSeconds)
	return m
}

func (m *Metrics) RecordGeneration(_ context.Context, run model.RunRecord, summary model.GenerationSummary) error {
	m.generations.WithLabelValues(run.Objective).Inc()
	m.bestScore.WithLabelValues(run.RunID).Set(summary.Best.Score)
	m.worstScore.WithLabelValues(run.RunID).Set(summary.Worst.Score)
	m.population.WithLabelValues(run.RunID).Set(float64(summary.PopulationSize))
	return nil
}

// InstrumentScape wraps sc so every evaluation is counted and timed.
func (m *Metrics) InstrumentScape(sc scape.Scape) scape.Scape {
	return instrumentedScape{inner: sc, metrics: m}
}

type instrumentedScape struct {
	inner   scape.Scape
	metrics *Metrics
}

func (s instrumentedScape) Name() string { return s.inner.Name() }

func (s instrumentedScape) Evaluate(ctx context.Context, grid *life.Grid) (scape.Fitness, scape.Trace, error) {
	name := s.inner.Name()
	start := time.Now()
	fitness, trace, err := s.inner.Evaluate(ctx, grid)
	s.metrics.evalSeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.evaluations.WithLabelValues(name, "error").Inc()
		return fitness, trace, err
	}
	s.metrics.evaluations.WithLabelValues(name, "ok").Inc()
	s.metrics.stops.WithLabelValues(name, string(trace.Stop)).Inc()
	return fitness, trace, nil
}
