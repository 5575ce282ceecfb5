package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

type StoreMetrics struct {
	OperationDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	ImportRowsTotal    *prometheus.CounterVec
	RolloverTotal      *prometheus.CounterVec
	ReportRefreshTotal prometheus.Counter
	IndexFallbackTotal prometheus.Counter
}

var (
	HTTP = HTTPMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loanshop_http_requests_total",
				Help: "Total number of HTTP requests received.",
			},
			[]string{"method", "path", "code"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loanshop_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "code"},
		),
	}

	Store = StoreMetrics{
		OperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loanshop_docstore_operation_duration_seconds",
				Help:    "Histogram of document store operation latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "status"},
		),
	}

	Business = BusinessMetrics{
		ImportRowsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loanshop_import_rows_total",
				Help: "Import pipeline rows by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		RolloverTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loanshop_loan_rollover_total",
				Help: "Successor loans generated by interest-only transitions.",
			},
			[]string{"outcome"},
		),
		ReportRefreshTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "loanshop_monthly_report_refresh_total",
				Help: "Monthly report aggregate upserts.",
			},
		),
		IndexFallbackTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "loanshop_missing_index_fallback_total",
				Help: "Queries served by the full-fetch fallback after a missing-index precondition.",
			},
		),
	}
)

func RecordHTTPRequest(method, path, code string, duration time.Duration) {
	HTTP.RequestsTotal.WithLabelValues(method, path, code).Inc()
	HTTP.RequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

func RecordStoreOperation(operation, status string, duration time.Duration) {
	Store.OperationDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

func RecordImportRow(kind, outcome string) {
	Business.ImportRowsTotal.WithLabelValues(kind, outcome).Inc()
}

func RecordRollover(outcome string) {
	Business.RolloverTotal.WithLabelValues(outcome).Inc()
}

func RecordReportRefresh() {
	Business.ReportRefreshTotal.Inc()
}

func RecordIndexFallback() {
	Business.IndexFallbackTotal.Inc()
}
