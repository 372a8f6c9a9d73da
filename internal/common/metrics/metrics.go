// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotation_pipeline_runs_total",
			Help: "Total number of pipeline runs by output kind and outcome code",
		},
		[]string{"kind", "outcome"},
	)

	PipelineRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quotation_pipeline_run_duration_seconds",
			Help:    "Duration of a pipeline run up to artifact delivery",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	ConversionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quotation_conversion_duration_seconds",
			Help:    "Duration of external conversion tool invocations",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"tool", "result"},
	)

	ConverterProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotation_converter_probes_total",
			Help: "Conversion tool availability probes",
		},
		[]string{"tool", "available"},
	)

	SinkWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotation_sink_writes_total",
			Help: "Record sink appends by backend and result",
		},
		[]string{"sink", "result"},
	)

	SinkInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quotation_sink_in_flight",
			Help: "Sink appends currently running",
		},
	)

	TempDirsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quotation_temp_dirs_active",
			Help: "Temporary directories created and not yet released",
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotation_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)
)
