// Package metrics defines the Prometheus instruments of the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PipelineMetrics holds the pipeline instruments.
type PipelineMetrics struct {
	StageDuration   *prometheus.HistogramVec
	StageFailures   *prometheus.CounterVec
	StageRetries    *prometheus.CounterVec
	RunsTotal       *prometheus.CounterVec
	RunsRejected    *prometheus.CounterVec
	RowsAppended    prometheus.Counter
	RowsDropped     *prometheus.CounterVec
	QueueDepth      prometheus.Gauge
	ProviderLatency prometheus.Histogram
}

// NewPipelineMetrics registers the instruments with reg.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	factory := promauto.With(reg)
	return &PipelineMetrics{
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fx_pipeline_stage_duration_seconds",
				Help:    "Duration of pipeline stages including retries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage", "status"},
		),
		StageFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fx_pipeline_stage_failures_total",
				Help: "Pipeline stages that failed after all attempts",
			},
			[]string{"stage", "kind"},
		),
		StageRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fx_pipeline_stage_retries_total",
				Help: "Retried stage attempts",
			},
			[]string{"stage"},
		),
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fx_pipeline_runs_total",
				Help: "Finished pipeline runs by status",
			},
			[]string{"status"},
		),
		RunsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fx_pipeline_runs_rejected_total",
				Help: "Pipeline triggers that were not accepted",
			},
			[]string{"reason"},
		),
		RowsAppended: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "fx_pipeline_rows_appended_total",
				Help: "Rows appended to the historical rate log",
			},
		),
		RowsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fx_pipeline_rows_dropped_total",
				Help: "Rows dropped during transform or load",
			},
			[]string{"stage"},
		),
		QueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "fx_pipeline_queue_depth",
				Help: "Runs waiting for a worker",
			},
		),
		ProviderLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fx_rate_provider_request_duration_seconds",
				Help:    "Latency of rate provider requests",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// NewNopMetrics returns instruments bound to a private registry.
func NewNopMetrics() *PipelineMetrics {
	return NewPipelineMetrics(prometheus.NewRegistry())
}
