package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	forecastsServed  *prometheus.CounterVec
	trainingRuns     *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	modelRMSE        *prometheus.GaugeVec
	activeModel      *prometheus.GaugeVec
	trainingDuration prometheus.Histogram
	latency          *prometheus.HistogramVec
	cacheOps         *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		forecastsServed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demandcast_forecasts_served_total",
				Help: "Total number of forecasts served",
			},
			[]string{"granularity", "model"},
		),
		trainingRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demandcast_training_runs_total",
				Help: "Total number of training runs",
			},
			[]string{"result"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demandcast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		modelRMSE: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "demandcast_model_holdout_rmse",
				Help: "Held-out RMSE of the latest trained model variant",
			},
			[]string{"model"},
		),
		activeModel: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "demandcast_active_model",
				Help: "Set to 1 for the currently active model variant",
			},
			[]string{"model"},
		),
		trainingDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "demandcast_training_duration_seconds",
				Help:    "Duration of full training runs in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "demandcast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		cacheOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demandcast_forecast_cache_total",
				Help: "Forecast cache lookups by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordForecastServed records a forecast response.
func (r *Recorder) RecordForecastServed(granularity, model string) {
	r.forecastsServed.WithLabelValues(granularity, model).Inc()
}

// RecordTrainingRun records a completed training run.
func (r *Recorder) RecordTrainingRun(result string, seconds float64) {
	r.trainingRuns.WithLabelValues(result).Inc()
	r.trainingDuration.Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordModelRMSE records the holdout RMSE for a model variant.
func (r *Recorder) RecordModelRMSE(model string, rmse float64) {
	r.modelRMSE.WithLabelValues(model).Set(rmse)
}

// RecordActiveModel marks the given variant as active and clears the others.
func (r *Recorder) RecordActiveModel(model string, variants []string) {
	for _, v := range variants {
		val := 0.0
		if v == model {
			val = 1.0
		}
		r.activeModel.WithLabelValues(v).Set(val)
	}
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordCacheLookup records a forecast cache hit or miss.
func (r *Recorder) RecordCacheLookup(outcome string) {
	r.cacheOps.WithLabelValues(outcome).Inc()
}
