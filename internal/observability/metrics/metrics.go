package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	metricPrefix = "energy_compare_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	normalizeTotal   *prometheus.CounterVec
	normalizeLatency *prometheus.HistogramVec
	clampedTotal     prometheus.Counter
	defaultedTotal   prometheus.Counter

	compareTotal     *prometheus.CounterVec
	compareLatency   *prometheus.HistogramVec
	contractsCounted prometheus.Counter

	priceCoverage       prometheus.Gauge
	priceRefreshTotal   *prometheus.CounterVec
	priceRefreshLatency *prometheus.HistogramVec
	priceSnapshotHours  prometheus.Gauge

	reportExportTotal   *prometheus.CounterVec
	reportExportLatency *prometheus.HistogramVec
)

// Init registers engine metrics. When db is set its pool stats are exported too.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		normalizeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "normalize_total",
				Help: "Total meter export normalizations by source format and result",
			},
			[]string{"format", "result"},
		)
		normalizeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "normalize_latency_seconds",
				Help:    "Normalization latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		clampedTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "clamped_intervals_total",
				Help: "Negative interval values clamped to zero",
			},
		)
		defaultedTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "defaulted_bands_total",
				Help: "Missing tariff bands defaulted to zero",
			},
		)

		compareTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "compare_total",
				Help: "Total contract comparisons by result",
			},
			[]string{"result"},
		)
		compareLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "compare_latency_seconds",
				Help:    "Contract comparison latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		contractsCounted = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "contracts_evaluated_total",
				Help: "Total contract evaluations",
			},
		)

		priceCoverage = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "price_coverage_ratio",
				Help: "Joined hours over consumption hours of the last dynamic evaluation",
			},
		)
		priceRefreshTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "price_refresh_total",
				Help: "Total price snapshot refreshes by result",
			},
			[]string{"result"},
		)
		priceRefreshLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "price_refresh_latency_seconds",
				Help:    "Price snapshot refresh latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		priceSnapshotHours = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "price_snapshot_hours",
				Help: "Number of hourly quotes in the active price snapshot",
			},
		)

		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total comparison report exports by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Comparison report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			normalizeTotal,
			normalizeLatency,
			clampedTotal,
			defaultedTotal,
			compareTotal,
			compareLatency,
			contractsCounted,
			priceCoverage,
			priceRefreshTotal,
			priceRefreshLatency,
			priceSnapshotHours,
			reportExportTotal,
			reportExportLatency,
		)

		if db != nil {
			if err := prometheus.Register(collectors.NewDBStatsCollector(db, "prices")); err != nil && logger != nil {
				logger.Printf("metrics: db stats collector: %v", err)
			}
		}
	})
}

// ObserveNormalize records a normalization and its silent corrections.
func ObserveNormalize(format, result string, duration time.Duration, clamped, defaulted int) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if normalizeTotal != nil {
		normalizeTotal.WithLabelValues(format, result).Inc()
	}
	if normalizeLatency != nil {
		normalizeLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
	AddClampedIntervals(clamped)
	if defaulted > 0 && defaultedTotal != nil {
		defaultedTotal.Add(float64(defaulted))
	}
}

// AddClampedIntervals increments the clamp counter by count.
func AddClampedIntervals(count int) {
	if count <= 0 {
		return
	}
	if clampedTotal != nil {
		clampedTotal.Add(float64(count))
	}
}

// ObserveCompare records comparison latency, result and contract count.
func ObserveCompare(result string, duration time.Duration, contracts int) {
	if result == "" {
		result = resultSuccess
	}
	if compareTotal != nil {
		compareTotal.WithLabelValues(result).Inc()
	}
	if compareLatency != nil {
		compareLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
	if contracts > 0 && contractsCounted != nil {
		contractsCounted.Add(float64(contracts))
	}
}

// SetPriceCoverage sets the latest coverage fraction.
func SetPriceCoverage(coverage float64) {
	if priceCoverage != nil {
		priceCoverage.Set(coverage)
	}
}

// ObservePriceRefresh records a snapshot refresh.
func ObservePriceRefresh(result string, duration time.Duration, hours int) {
	if result == "" {
		result = resultSuccess
	}
	if priceRefreshTotal != nil {
		priceRefreshTotal.WithLabelValues(result).Inc()
	}
	if priceRefreshLatency != nil {
		priceRefreshLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
	if result == resultSuccess && priceSnapshotHours != nil {
		priceSnapshotHours.Set(float64(hours))
	}
}

// ObserveReportExport records export latency and result.
func ObserveReportExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportExportTotal != nil {
		reportExportTotal.WithLabelValues(format, result).Inc()
	}
	if reportExportLatency != nil {
		reportExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
