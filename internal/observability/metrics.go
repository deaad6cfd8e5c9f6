// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Import metrics
	ImportsTotal        *prometheus.CounterVec
	ExecutionsImported  prometheus.Counter
	ExecutionsDuplicate *prometheus.CounterVec
	ExecutionsMalformed prometheus.Counter
	ImportDuration      prometheus.Histogram

	// Reconstruction metrics
	ReconstructionRuns     *prometheus.CounterVec
	ReconstructionDuration prometheus.Histogram
	TradesRebuilt          prometheus.Counter
	TradeDaysRebuilt       prometheus.Counter
	ReconstructionWarnings prometheus.Counter

	// Reporting metrics
	ReportsGenerated prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulImport         prometheus.Gauge
	LastSuccessfulReconstruction prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "tradejournal"
	}

	return &Metrics{
		// Import metrics
		ImportsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "runs_total",
			Help:      "Total number of import runs by status",
		}, []string{"status"}),
		ExecutionsImported: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "executions_imported_total",
			Help:      "Total number of executions stored",
		}),
		ExecutionsDuplicate: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "executions_duplicate_total",
			Help:      "Total number of duplicate executions skipped by kind",
		}, []string{"kind"}),
		ExecutionsMalformed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "executions_malformed_total",
			Help:      "Total number of malformed execution records skipped",
		}),
		ImportDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "duration_seconds",
			Help:      "Import run duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Reconstruction metrics
		ReconstructionRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconstruct",
			Name:      "runs_total",
			Help:      "Total number of reconstruction runs by status",
		}, []string{"status"}),
		ReconstructionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reconstruct",
			Name:      "duration_seconds",
			Help:      "Reconstruction run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),
		TradesRebuilt: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconstruct",
			Name:      "trades_rebuilt_total",
			Help:      "Total number of trades produced by reconstruction runs",
		}),
		TradeDaysRebuilt: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconstruct",
			Name:      "trade_days_rebuilt_total",
			Help:      "Total number of trade day rows produced by reconstruction runs",
		}),
		ReconstructionWarnings: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconstruct",
			Name:      "warnings_total",
			Help:      "Total number of data-quality warnings during reconstruction",
		}),

		// Reporting metrics
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporting",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulImport: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_import_timestamp",
			Help:      "Unix timestamp of last successful import",
		}),
		LastSuccessfulReconstruction: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_reconstruction_timestamp",
			Help:      "Unix timestamp of last successful reconstruction run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordImport records one import run.
func RecordImport(status string, imported, duplicateInFile, duplicateInStore, malformed int, durationSeconds float64) {
	DefaultMetrics.ImportsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.ExecutionsImported.Add(float64(imported))
	DefaultMetrics.ExecutionsDuplicate.WithLabelValues("in_file").Add(float64(duplicateInFile))
	DefaultMetrics.ExecutionsDuplicate.WithLabelValues("in_store").Add(float64(duplicateInStore))
	DefaultMetrics.ExecutionsMalformed.Add(float64(malformed))
	DefaultMetrics.ImportDuration.Observe(durationSeconds)
	if status == "success" {
		DefaultMetrics.LastSuccessfulImport.SetToCurrentTime()
	}
}

// RecordReconstruction records one reconstruction run.
func RecordReconstruction(status string, trades, tradeDays, warnings int, durationSeconds float64) {
	DefaultMetrics.ReconstructionRuns.WithLabelValues(status).Inc()
	DefaultMetrics.TradesRebuilt.Add(float64(trades))
	DefaultMetrics.TradeDaysRebuilt.Add(float64(tradeDays))
	DefaultMetrics.ReconstructionWarnings.Add(float64(warnings))
	DefaultMetrics.ReconstructionDuration.Observe(durationSeconds)
	if status == "success" {
		DefaultMetrics.LastSuccessfulReconstruction.SetToCurrentTime()
	}
}

// RecordReportGenerated increments the report counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
