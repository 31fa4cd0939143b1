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
	// Data source metrics
	APIFetchesTotal  *prometheus.CounterVec
	APIFetchErrors   *prometheus.CounterVec
	APIFetchDuration *prometheus.HistogramVec
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter

	// Engine metrics
	ProjectionsComputed prometheus.Counter
	HorizonsComputed    prometheus.Counter
	TransfersAnalyzed   prometheus.Counter
	ScenariosPlanned    *prometheus.CounterVec
	AdviceGenerated     prometheus.Counter

	// Storage metrics
	StoreWrites        *prometheus.CounterVec
	StoreWriteErrors   *prometheus.CounterVec
	StoreQueryDuration *prometheus.HistogramVec

	// Server metrics
	HTTPRequests       *prometheus.CounterVec
	HTTPRequestLatency *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "fpl_toolkit"
	}

	return &Metrics{
		APIFetchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fpl",
			Name:      "api_fetches_total",
			Help:      "Total number of upstream API fetches by resource",
		}, []string{"resource"}),
		APIFetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fpl",
			Name:      "api_fetch_errors_total",
			Help:      "Total number of failed upstream API fetches by resource",
		}, []string{"resource"}),
		APIFetchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fpl",
			Name:      "api_fetch_duration_seconds",
			Help:      "Upstream API fetch duration by resource",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fpl",
			Name:      "cache_hits_total",
			Help:      "Total number of data source cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fpl",
			Name:      "cache_misses_total",
			Help:      "Total number of data source cache misses",
		}),

		ProjectionsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "projections_computed_total",
			Help:      "Total number of single-gameweek projections computed",
		}),
		HorizonsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "horizons_computed_total",
			Help:      "Total number of horizon projections computed",
		}),
		TransfersAnalyzed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "transfers_analyzed_total",
			Help:      "Total number of transfer scenarios analyzed",
		}),
		ScenariosPlanned: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "scenarios_planned_total",
			Help:      "Total number of planner scenarios built by name",
		}, []string{"scenario"}),
		AdviceGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "advice_generated_total",
			Help:      "Total number of advisor reports generated",
		}),

		StoreWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "writes_total",
			Help:      "Total number of store writes by store",
		}, []string{"store"}),
		StoreWriteErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "write_errors_total",
			Help:      "Total number of failed store writes by store",
		}, []string{"store"}),
		StoreQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "query_duration_seconds",
			Help:      "Store query duration by store and operation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"store", "operation"}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route and status",
		}, []string{"route", "status"}),
		HTTPRequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordAPIFetch records one upstream fetch with its outcome.
func RecordAPIFetch(resource string, seconds float64, err error) {
	DefaultMetrics.APIFetchesTotal.WithLabelValues(resource).Inc()
	DefaultMetrics.APIFetchDuration.WithLabelValues(resource).Observe(seconds)
	if err != nil {
		DefaultMetrics.APIFetchErrors.WithLabelValues(resource).Inc()
	}
}

// RecordCacheHit records a data source cache hit.
func RecordCacheHit() {
	DefaultMetrics.CacheHits.Inc()
}

// RecordCacheMiss records a data source cache miss.
func RecordCacheMiss() {
	DefaultMetrics.CacheMisses.Inc()
}

// RecordProjection records one computed single-gameweek projection.
func RecordProjection() {
	DefaultMetrics.ProjectionsComputed.Inc()
}

// RecordHorizon records one computed horizon projection.
func RecordHorizon() {
	DefaultMetrics.HorizonsComputed.Inc()
}

// RecordTransferAnalyzed records one analyzed transfer.
func RecordTransferAnalyzed() {
	DefaultMetrics.TransfersAnalyzed.Inc()
}

// RecordScenarioPlanned records one built scenario.
func RecordScenarioPlanned(name string) {
	DefaultMetrics.ScenariosPlanned.WithLabelValues(name).Inc()
}

// RecordAdviceGenerated records one advisor report.
func RecordAdviceGenerated() {
	DefaultMetrics.AdviceGenerated.Inc()
}

// RecordStoreWrite records one store write with its outcome.
func RecordStoreWrite(store string, err error) {
	DefaultMetrics.StoreWrites.WithLabelValues(store).Inc()
	if err != nil {
		DefaultMetrics.StoreWriteErrors.WithLabelValues(store).Inc()
	}
}

// RecordStoreQuery records one store query duration.
func RecordStoreQuery(store, operation string, seconds float64) {
	DefaultMetrics.StoreQueryDuration.WithLabelValues(store, operation).Observe(seconds)
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(route, status string, seconds float64) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, status).Inc()
	DefaultMetrics.HTTPRequestLatency.WithLabelValues(route).Observe(seconds)
}
