// Package metrics exposes Prometheus collectors for the crawl pipeline.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsreduce_fetch_total",
			Help: "Fetch Unit completions, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	fetchBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsreduce_fetch_bytes_total",
			Help: "Decoded body bytes fetched, labeled by site.",
		},
		[]string{"site"},
	)

	fetchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsreduce_fetch_duration_seconds",
			Help:    "Histogram of Fetch Unit latency including parsing, labeled by outcome.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"outcome"},
	)

	fetchInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsreduce_fetch_in_flight",
			Help: "Limiter slots currently held by Fetch Units.",
		},
	)

	parseBusyWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsreduce_parse_workers_busy",
			Help: "Offload pool workers currently running a parser.",
		},
	)

	dedupBucketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsreduce_dedup_buckets_total",
			Help: "Day-buckets scanned, labeled by how the scan stopped.",
		},
		[]string{"stop"},
	)

	dedupURLsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsreduce_dedup_urls_total",
			Help: "Listing URLs seen by the deduplicator, labeled kept or dropped.",
		},
		[]string{"result"},
	)

	sinkItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsreduce_sink_items_total",
			Help: "Results handled by reduction sinks, labeled by sink and result.",
		},
		[]string{"sink", "result"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsreduce_http_requests_total",
			Help: "Requests served by the status listener, labeled by method, route and code.",
		},
		[]string{"method", "route", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsreduce_http_request_duration_seconds",
			Help:    "Status listener request latency, labeled by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsreduce_runs_total",
			Help: "Crawl runs finished, labeled by output mode and status.",
		},
		[]string{"mode", "status"},
	)
)

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one finished Fetch Unit.
func ObserveFetch(rawURL string, outcome string, bytesFetched int, duration time.Duration) {
	fetchTotal.WithLabelValues(outcome).Inc()
	fetchDurationSeconds.WithLabelValues(outcome).Observe(duration.Seconds())
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(SanitizeSite(rawURL)).Add(float64(bytesFetched))
	}
}

// IncInFlight marks one limiter slot as held. Every limiter in the process
// adds to the same gauge.
func IncInFlight() {
	fetchInFlight.Inc()
}

// DecInFlight marks one limiter slot as released.
func DecInFlight() {
	fetchInFlight.Dec()
}

// FetchInFlight exposes the in-flight gauge for tests.
func FetchInFlight() prometheus.Gauge {
	return fetchInFlight
}

// IncParseBusy marks one offload worker as busy.
func IncParseBusy() {
	parseBusyWorkers.Inc()
}

// DecParseBusy marks one offload worker as idle again.
func DecParseBusy() {
	parseBusyWorkers.Dec()
}

// ObserveDedupBucket records how one bucket scan ended and how many URLs it kept.
func ObserveDedupBucket(stop string, kept, total int) {
	dedupBucketsTotal.WithLabelValues(stop).Inc()
	dedupURLsTotal.WithLabelValues("kept").Add(float64(kept))
	if dropped := total - kept; dropped > 0 {
		dedupURLsTotal.WithLabelValues("dropped").Add(float64(dropped))
	}
}

// ObserveSinkItem counts one result handled by a sink.
func ObserveSinkItem(sink, result string) {
	sinkItemsTotal.WithLabelValues(sink, result).Inc()
}

// ObserveRun counts one finished run.
func ObserveRun(mode, status string) {
	runsTotal.WithLabelValues(mode, status).Inc()
}

// ObserveHTTPRequest records one request served by the status listener.
func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// HTTPRequests exposes the request counter for tests.
func HTTPRequests() *prometheus.CounterVec {
	return httpRequestsTotal
}
