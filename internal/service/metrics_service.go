package service

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/noah-isme/engagement-funnel/internal/models"
)

// Run outcome labels.
const (
	runStatusSuccess = "success"
	runStatusFailure = "failure"
)

// MetricsService encapsulates Prometheus instrumentation for batch funnel runs. A nil
// *MetricsService is valid and records nothing.
type MetricsService struct {
	registry        *prometheus.Registry
	stageDuration   *prometheus.HistogramVec
	stageFailures   *prometheus.CounterVec
	datasetRows     *prometheus.GaugeVec
	runsTotal       *prometheus.CounterVec
	lastSuccess     prometheus.Gauge
	dbQueryDuration *prometheus.HistogramVec
	cacheWrite      prometheus.Histogram
}

// NewMetricsService registers the funnel collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	stageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "funnel_stage_duration_seconds",
		Help:    "Duration of each funnel stage in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	stageFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "funnel_stage_failures_total",
		Help: "Number of funnel stages that returned an error",
	}, []string{"stage"})

	datasetRows := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "funnel_rows",
		Help: "Rows of each dataset after a funnel stage",
	}, []string{"dataset", "stage"})

	runsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "funnel_runs_total",
		Help: "Completed funnel runs by outcome",
	}, []string{"status"})

	lastSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "funnel_last_success_timestamp_seconds",
		Help: "Unix time of the last successful funnel run",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "funnel_db_query_duration_seconds",
		Help:    "Duration of row source queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "funnel_publish_seconds",
		Help:    "Latency of publishing a report to the cache",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "funnel_goroutines",
		Help: "Number of goroutines when metrics were gathered",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(stageDuration, stageFailures, datasetRows, runsTotal, lastSuccess, dbQueryDuration, cacheWrite, goroutines)

	return &MetricsService{
		registry:        registry,
		stageDuration:   stageDuration,
		stageFailures:   stageFailures,
		datasetRows:     datasetRows,
		runsTotal:       runsTotal,
		lastSuccess:     lastSuccess,
		dbQueryDuration: dbQueryDuration,
		cacheWrite:      cacheWrite,
	}
}

// Gatherer exposes the registry for tests and exporters.
func (m *MetricsService) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// ObserveStage records how long a stage took and whether it failed.
func (m *MetricsService) ObserveStage(stage string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if err != nil {
		m.stageFailures.WithLabelValues(stage).Inc()
	}
}

// SetRows records the size of a dataset after a stage.
func (m *MetricsService) SetRows(dataset models.Dataset, stage string, rows int) {
	if m == nil {
		return
	}
	m.datasetRows.WithLabelValues(string(dataset), stage).Set(float64(rows))
}

// RecordRun counts a finished run.
func (m *MetricsService) RecordRun(success bool) {
	if m == nil {
		return
	}
	if !success {
		m.runsTotal.WithLabelValues(runStatusFailure).Inc()
		return
	}
	m.runsTotal.WithLabelValues(runStatusSuccess).Inc()
	m.lastSuccess.SetToCurrentTime()
}

// ObserveDBQuery records row source query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveCacheWrite tracks the duration of report publishing.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// WriteTextfile dumps every collector in the node-exporter textfile format. The file is
// written to a temporary name and renamed so scrapers never see a partial file.
func (m *MetricsService) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
