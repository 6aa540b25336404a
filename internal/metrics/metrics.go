// Package metrics exposes Prometheus collectors for the symbol crawler.
package metrics

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Task outcomes recorded on symbols_tasks_total.
const (
	OutcomeExtracted = "extracted"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
	OutcomeCanceled  = "canceled"
)

var (
	candidatesTotal        *prometheus.CounterVec
	tasksTotal             *prometheus.CounterVec
	checkpointsTotal       *prometheus.CounterVec
	fetchTotal             *prometheus.CounterVec
	fetchBytesTotal        *prometheus.CounterVec
	rateLimitDelaysSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		candidatesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "symbols_candidates_total",
				Help: "Candidate tasks produced by discovery, labeled by source kind.",
			},
			[]string{"source_kind"},
		)

		tasksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "symbols_tasks_total",
				Help: "Tasks handled by the orchestrator, labeled by source kind and outcome.",
			},
			[]string{"source_kind", "outcome"},
		)

		checkpointsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "symbols_checkpoints_total",
				Help: "Snapshot writes, labeled by result.",
			},
			[]string{"result"},
		)

		fetchTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "symbols_fetch_total",
				Help: "HTTP fetches, labeled by site and status class.",
			},
			[]string{"site", "status"},
		)

		fetchBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "symbols_fetch_bytes_total",
				Help: "Bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "symbols_rate_limit_delays_seconds",
				Help:    "Histogram of per-host rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"host"},
		)
	})
}

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

// StatusClass groups an HTTP status code; zero means no response was received.
func StatusClass(code int) string {
	switch {
	case code == 0:
		return "error"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "other"
	}
}

// ObserveCandidates adds n discovered candidates for kind.
func ObserveCandidates(kind string, n int) {
	Init()
	if n > 0 {
		candidatesTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// ObserveTask increments the task counter for kind and outcome.
func ObserveTask(kind, outcome string) {
	Init()
	tasksTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveCheckpoint records a snapshot attempt.
func ObserveCheckpoint(err error) {
	Init()
	result := "ok"
	if err != nil {
		result = "error"
	}
	checkpointsTotal.WithLabelValues(result).Inc()
}

// ObserveFetch records a fetch against rawURL's site.
func ObserveFetch(rawURL string, statusCode int, bytesFetched int) {
	Init()
	site := SanitizeSite(rawURL)
	fetchTotal.WithLabelValues(site, StatusClass(statusCode)).Inc()
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(site).Add(float64(bytesFetched))
	}
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(host string, duration time.Duration) {
	Init()
	rateLimitDelaysSeconds.WithLabelValues(host).Observe(duration.Seconds())
}

// WriteTextfile dumps the default registry in the node-exporter textfile
// format so batch runs can be scraped after they exit.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
