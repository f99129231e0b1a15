package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ingestion pipeline.
type Metrics struct {
	// Archive fetching.
	IndexRequests      prometheus.Counter
	ArchivesDownloaded prometheus.Counter
	DownloadedBytes    prometheus.Counter

	// Region parsing.
	RowsParsed    *prometheus.CounterVec   // labels: region
	ParseDuration *prometheus.HistogramVec // labels: region

	// Region cache.
	CacheLookups *prometheus.CounterVec // labels: result={hit,miss,corrupt}
	CacheWrites  prometheus.Counter

	// Dataset and export.
	DatasetRows     prometheus.Gauge
	PipelineRunning prometheus.Gauge
	RecordsExported prometheus.Counter
	ExportErrors    prometheus.Counter
	BatchSize       prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewMetricsForTesting()

	prometheus.MustRegister(
		m.IndexRequests,
		m.ArchivesDownloaded,
		m.DownloadedBytes,
		m.RowsParsed,
		m.ParseDuration,
		m.CacheLookups,
		m.CacheWrites,
		m.DatasetRows,
		m.PipelineRunning,
		m.RecordsExported,
		m.ExportErrors,
		m.BatchSize,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		IndexRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "accidents_etl",
			Name:      "index_requests_total",
			Help:      "Total requests for the archive index page.",
		}),
		ArchivesDownloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "accidents_etl",
			Name:      "archives_downloaded_total",
			Help:      "Total archives written to the data folder.",
		}),
		DownloadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "accidents_etl",
			Name:      "downloaded_bytes_total",
			Help:      "Total archive bytes downloaded.",
		}),
		RowsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accidents_etl",
			Name:      "rows_parsed_total",
			Help:      "Rows parsed from region CSVs by region.",
		}, []string{"region"}),
		ParseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "accidents_etl",
			Name:      "parse_duration_seconds",
			Help:      "Duration of parsing one region across all archives.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"region"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accidents_etl",
			Name:      "cache_lookups_total",
			Help:      "Region cache lookups by result.",
		}, []string{"result"}),
		CacheWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "accidents_etl",
			Name:      "cache_writes_total",
			Help:      "Total region cache entries written.",
		}),
		DatasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "accidents_etl",
			Name:      "dataset_rows",
			Help:      "Rows in the assembled dataset.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "accidents_etl",
			Name:      "pipeline_running",
			Help:      "1 while a dataset is being assembled, 0 otherwise.",
		}),
		RecordsExported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "accidents_etl",
			Name:      "records_exported_total",
			Help:      "Total accident records published to the export topic.",
		}),
		ExportErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "accidents_etl",
			Name:      "export_errors_total",
			Help:      "Total failed export batches.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "accidents_etl",
			Name:      "export_batch_size",
			Help:      "Number of records per export batch.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
	}
}
