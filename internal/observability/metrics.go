package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the risk pipeline.
type Metrics struct {
	ReadingsConsumed    prometheus.Counter
	AssessmentsProduced prometheus.Counter
	TransformErrors     prometheus.Counter
	NoRuleFired         prometheus.Counter
	PipelineRunning     prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Inference metrics.
	InferenceDuration     prometheus.Histogram
	AssessmentsByCategory *prometheus.CounterVec // labels: category={baixo,moderado,alto,critico}

	// Station registry metrics.
	StationLookups     *prometheus.CounterVec // labels: outcome={success,error,not_found}
	StationCache       *prometheus.CounterVec // labels: result={hit,miss}
	StationAPIDuration prometheus.Histogram
	RegistryEnabled    prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ReadingsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_risk",
			Name:      "readings_consumed_total",
			Help:      "Total field readings read from the source topic.",
		}),
		AssessmentsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_risk",
			Name:      "assessments_produced_total",
			Help:      "Total assessments written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_risk",
			Name:      "transform_errors_total",
			Help:      "Total transformation failures.",
		}),
		NoRuleFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_risk",
			Name:      "no_rule_fired_total",
			Help:      "Readings skipped because no fuzzy rule fired.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crop_risk",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crop_risk",
			Name:      "batch_size",
			Help:      "Number of readings per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crop_risk",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		InferenceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crop_risk",
			Name:      "inference_duration_seconds",
			Help:      "Duration of one fuzzy inference run.",
			Buckets:   []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
		}),
		AssessmentsByCategory: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_risk",
			Name:      "assessments_by_category_total",
			Help:      "Assessments produced, by risk category.",
		}, []string{"category"}),
		StationLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_risk",
			Name:      "station_lookups_total",
			Help:      "Station registry lookups by outcome.",
		}, []string{"outcome"}),
		StationCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_risk",
			Name:      "station_cache_total",
			Help:      "Station registry cache lookups by result.",
		}, []string{"result"}),
		StationAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crop_risk",
			Name:      "station_api_duration_seconds",
			Help:      "Station registry request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		RegistryEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crop_risk",
			Name:      "registry_enabled",
			Help:      "1 when station registry enrichment is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.ReadingsConsumed,
		m.AssessmentsProduced,
		m.TransformErrors,
		m.NoRuleFired,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.InferenceDuration,
		m.AssessmentsByCategory,
		m.StationLookups,
		m.StationCache,
		m.StationAPIDuration,
		m.RegistryEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ReadingsConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crop_risk", Name: "readings_consumed_total"}),
		AssessmentsProduced:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crop_risk", Name: "assessments_produced_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crop_risk", Name: "transform_errors_total"}),
		NoRuleFired:             prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crop_risk", Name: "no_rule_fired_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "crop_risk", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "crop_risk", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "crop_risk", Name: "batch_processing_duration_seconds"}),
		InferenceDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "crop_risk", Name: "inference_duration_seconds"}),
		AssessmentsByCategory:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "crop_risk", Name: "assessments_by_category_total"}, []string{"category"}),
		StationLookups:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "crop_risk", Name: "station_lookups_total"}, []string{"outcome"}),
		StationCache:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "crop_risk", Name: "station_cache_total"}, []string{"result"}),
		StationAPIDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "crop_risk", Name: "station_api_duration_seconds"}),
		RegistryEnabled:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "crop_risk", Name: "registry_enabled"}),
	}
}
