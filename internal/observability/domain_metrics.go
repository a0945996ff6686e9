package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	translationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerlens_translations_total",
			Help: "Total number of natural-language-to-SQL translations by provider.",
		},
		[]string{"provider"},
	)
	translationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgerlens_translation_failures_total",
			Help: "Total number of failed translation attempts before fallback.",
		},
	)
	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledgerlens_query_duration_seconds",
			Help:    "SQL execution latency against the bank store.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
	queryRowsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledgerlens_query_rows_returned",
			Help:    "Row counts returned by executed queries.",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000, 10000},
		},
	)
	cacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgerlens_query_cache_hits_total",
			Help: "Total number of query cache hits.",
		},
	)
	cacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgerlens_query_cache_misses_total",
			Help: "Total number of query cache misses.",
		},
	)
	rateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgerlens_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter.",
		},
	)
	reportsGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerlens_reports_generated_total",
			Help: "Total number of generated reports by format.",
		},
		[]string{"format"},
	)
	reportsDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgerlens_reports_deleted_total",
			Help: "Total number of reports removed by retention cleanup.",
		},
	)
	seedRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerlens_seed_rows_total",
			Help: "Total number of mock rows inserted by the seeder, by table.",
		},
		[]string{"table"},
	)
)

func init() {
	prometheus.MustRegister(
		translationsTotal,
		translationFailuresTotal,
		queryDurationSeconds,
		queryRowsReturned,
		cacheHitsTotal,
		cacheMissesTotal,
		rateLimitedTotal,
		reportsGeneratedTotal,
		reportsDeletedTotal,
		seedRowsTotal,
	)
}

func ObserveTranslation(provider string) {
	translationsTotal.WithLabelValues(provider).Inc()
}

func IncrementTranslationFailure() {
	translationFailuresTotal.Inc()
}

func ObserveQuery(rows int, elapsed time.Duration) {
	queryDurationSeconds.Observe(elapsed.Seconds())
	queryRowsReturned.Observe(float64(rows))
}

func ObserveCacheLookup(hit bool) {
	if hit {
		cacheHitsTotal.Inc()
		return
	}
	cacheMissesTotal.Inc()
}

func IncrementRateLimited() {
	rateLimitedTotal.Inc()
}

func ObserveReportGenerated(format string) {
	reportsGeneratedTotal.WithLabelValues(format).Inc()
}

func AddReportsDeleted(count int) {
	if count > 0 {
		reportsDeletedTotal.Add(float64(count))
	}
}

func AddSeedRows(table string, count int) {
	if count > 0 {
		seedRowsTotal.WithLabelValues(table).Add(float64(count))
	}
}
