package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "emergency_severity"

// Metrics holds the Prometheus counters, histograms, and gauges for training,
// scoring and escalation.
type Metrics struct {
	// Training metrics.
	TrainingRuns     *prometheus.CounterVec // labels: outcome={success,error}
	TrainingDuration prometheus.Histogram
	ModelAccuracy    prometheus.Gauge
	DatasetRows      prometheus.Gauge

	// Prediction metrics.
	Predictions       *prometheus.CounterVec // labels: severity
	PredictionErrors  *prometheus.CounterVec // labels: reason={domain,unknown_category,untrained}
	UnknownCategories *prometheus.CounterVec // labels: field

	// Escalation metrics.
	Escalations *prometheus.CounterVec // labels: outcome={delivered,partial,failed,no_recipients}
	VoiceAlerts *prometheus.CounterVec // labels: outcome={success,error,disabled}
	TTSCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Pipeline metrics.
	MessagesConsumed        prometheus.Counter
	MessagesProduced        prometheus.Counter
	ScoringErrors           prometheus.Counter
	PipelineRunning         prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Map rendering metrics.
	MapRequests    *prometheus.CounterVec // labels: outcome={success,error}
	MapAPIDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		TrainingRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "training_runs_total",
			Help:      help("Model training runs by outcome."),
		}, []string{"outcome"}),
		TrainingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "training_duration_seconds",
			Help:      help("Duration of a complete split, fit and evaluate run."),
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		ModelAccuracy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_accuracy",
			Help:      help("Held-out accuracy of the model currently serving."),
		}),
		DatasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      help("Rows in the training table."),
		}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      help("Successful predictions by severity label."),
		}, []string{"severity"}),
		PredictionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_errors_total",
			Help:      help("Rejected predictions by reason."),
		}, []string{"reason"}),
		UnknownCategories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_categories_total",
			Help:      help("Categorical values outside their domain, by field."),
		}, []string{"field"}),
		Escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalations_total",
			Help:      help("High and Critical escalations by notification outcome."),
		}, []string{"outcome"}),
		VoiceAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_alerts_total",
			Help:      help("Voice synthesis requests by outcome."),
		}, []string{"outcome"}),
		TTSCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tts_cache_total",
			Help:      help("Voice synthesis cache lookups by result."),
		}, []string{"result"}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      help("Total messages read from the source topic."),
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      help("Total messages written to the sink topic."),
		}),
		ScoringErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_errors_total",
			Help:      help("Messages skipped because they could not be scored."),
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      help("1 when the pipeline is active, 0 when shut down."),
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      help("Number of messages per batch extracted from Kafka."),
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      help("Duration of a complete batch extract-score-load cycle."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		MapRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "map_requests_total",
			Help:      help("Static map render requests by outcome."),
		}, []string{"outcome"}),
		MapAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "map_api_duration_seconds",
			Help:      help("Mapbox Static Images API request duration in seconds."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.TrainingRuns,
		m.TrainingDuration,
		m.ModelAccuracy,
		m.DatasetRows,
		m.Predictions,
		m.PredictionErrors,
		m.UnknownCategories,
		m.Escalations,
		m.VoiceAlerts,
		m.TTSCache,
		m.MessagesConsumed,
		m.MessagesProduced,
		m.ScoringErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.MapRequests,
		m.MapAPIDuration,
	}
}
