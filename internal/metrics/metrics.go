// Package metrics exposes Prometheus instrumentation for the fetch loop,
// the enrichment client, and the HTTP API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FetchRuns counts background fetch-all passes.
	FetchRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tweetwatch_fetch_runs_total",
		Help: "Number of fetch-all passes started.",
	})

	// FetchErrors counts per-account fetch failures.
	FetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tweetwatch_fetch_errors_total",
		Help: "Number of failed account refetches.",
	})

	// TweetsUpserted counts tweets written to the store.
	TweetsUpserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tweetwatch_tweets_upserted_total",
		Help: "Number of tweets inserted or refreshed.",
	})

	// LLMCalls counts enrichment requests by kind and outcome.
	LLMCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetwatch_llm_calls_total",
		Help: "Number of enrichment calls by kind and status.",
	}, []string{"kind", "status"})

	// HTTPRequests counts API requests by route and code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetwatch_http_requests_total",
		Help: "Number of API requests by path and status code.",
	}, []string{"path", "code"})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tweetwatch_fetch_duration_seconds",
		Help:    "Duration of a single account refetch.",
		Buckets: prometheus.DefBuckets,
	})
)

// ObserveFetchDuration records the time elapsed since start.
func ObserveFetchDuration(start time.Time) {
	fetchDuration.Observe(time.Since(start).Seconds())
}

// ObserveLLMCall records one enrichment call outcome.
func ObserveLLMCall(kind string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	LLMCalls.WithLabelValues(kind, status).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartServer serves /metrics on addr in a background goroutine. Errors
// are returned through the channel so the caller can log them.
func StartServer(addr string) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		errCh <- http.ListenAndServe(addr, mux)
	}()
	return errCh
}
