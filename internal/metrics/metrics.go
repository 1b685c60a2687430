package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ComparisonDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "comparison_duration_seconds",
			Help:    "Timeline comparison computation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)

	ComparisonCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comparison_count",
			Help: "Total number of timeline comparisons run",
		},
		[]string{"format"}, // format: json, csv, report
	)

	ExportCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "export_count",
			Help: "Total number of bulk exports",
		},
		[]string{"kind"}, // kind: projects, documents
	)

	ImportJobCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_job_count",
			Help: "Total number of import jobs completed",
		},
		[]string{"kind", "status"}, // status: done, failed, permanent_fail
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)
)

// RecordComparison records one comparison run and its duration
func RecordComparison(format string, duration time.Duration) {
	ComparisonCount.WithLabelValues(format).Inc()
	ComparisonDuration.Observe(duration.Seconds())
}

// IncrementExport increments the export counter for a kind
func IncrementExport(kind string) {
	ExportCount.WithLabelValues(kind).Inc()
}

// IncrementImportJob increments the import job counter
func IncrementImportJob(kind, status string) {
	ImportJobCount.WithLabelValues(kind, status).Inc()
}

// RecordHTTPRequestDuration records one HTTP request
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
