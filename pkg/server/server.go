// Package server provides the HTTP API: account tracking, tweet listing
// and ranking, stats, exports, enrichment, trending search, and a change
// feed for live-updating clients.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tweetwatch/tweetwatch/internal/fetcher"
	"github.com/tweetwatch/tweetwatch/internal/metrics"
	"github.com/tweetwatch/tweetwatch/internal/store"
	"github.com/tweetwatch/tweetwatch/pkg/llm"
	"github.com/tweetwatch/tweetwatch/pkg/trending"
)

// Server provides the HTTP API.
type Server struct {
	store    store.Store
	fetcher  *fetcher.Fetcher
	llm      *llm.Client
	trending *trending.Client
	port     int
}

// New creates a new HTTP server. llm and trending may be nil when the
// corresponding API keys are not configured; their routes then answer 503.
func New(s store.Store, f *fetcher.Fetcher, l *llm.Client, tr *trending.Client, port int) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{
		store:    s,
		fetcher:  f,
		llm:      l,
		trending: tr,
		port:     port,
	}
}

// Router builds the route tree. Exposed for handler tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(countRequests)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/accounts", s.handleListAccounts)
		r.Post("/accounts", s.handleAddAccount)
		r.Delete("/accounts/{id}", s.handleRemoveAccount)
		r.Post("/accounts/{id}/fetch", s.handleFetchAccount)
		r.Get("/accounts/{id}/tags", s.handleListAccountTags)
		r.Put("/accounts/{id}/tags/{tagID}", s.handleAssignTag)
		r.Delete("/accounts/{id}/tags/{tagID}", s.handleUnassignTag)

		r.Get("/tweets", s.handleListTweets)
		r.Get("/tweets/{id}", s.handleGetTweet)
		r.Post("/tweets/{id}/summarize", s.handleSummarize)
		r.Post("/tweets/{id}/translate", s.handleTranslate)
		r.Post("/tweets/{id}/sentiment", s.handleSentiment)

		r.Get("/stats", s.handleStats)
		r.Get("/export", s.handleExport)
		r.Post("/fetch", s.handleFetchAll)
		r.Get("/trending", s.handleTrending)

		r.Get("/tags", s.handleListTags)
		r.Post("/tags", s.handleCreateTag)
		r.Delete("/tags/{id}", s.handleDeleteTag)

		r.Get("/saved", s.handleListSaved)
		r.Post("/saved", s.handleSaveTweet)
		r.Delete("/saved/{id}", s.handleUnsaveTweet)

		r.Get("/events", s.handleEvents)
	})

	r.Handle("/metrics", metrics.Handler())

	return r
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("tweetwatch server listening on %s\n", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// countRequests records request counts per route pattern and status code.
func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = r.URL.Path
		}
		metrics.HTTPRequests.WithLabelValues(pattern, strconv.Itoa(ww.Status())).Inc()
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeList(w http.ResponseWriter, data any, count int) {
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  data,
		"count": count,
	})
}
