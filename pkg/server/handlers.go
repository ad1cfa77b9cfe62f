package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tweetwatch/tweetwatch/internal/fetcher"
	"github.com/tweetwatch/tweetwatch/internal/metrics"
	"github.com/tweetwatch/tweetwatch/internal/store"
	"github.com/tweetwatch/tweetwatch/pkg/export"
	"github.com/tweetwatch/tweetwatch/pkg/trending"
	"github.com/tweetwatch/tweetwatch/pkg/tweet"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- accounts ---

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeList(w, accounts, len(accounts))
}

func (s *Server) handleAddAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Handle      string `json:"handle"`
		DisplayName string `json:"display_name"`
		AddedBy     string `json:"added_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	handle := strings.TrimPrefix(strings.TrimSpace(req.Handle), "@")
	if handle == "" {
		writeError(w, http.StatusBadRequest, "handle is required")
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = handle
	}

	a := &tweet.Account{
		Handle:      handle,
		DisplayName: req.DisplayName,
		AddedBy:     req.AddedBy,
	}
	if err := s.store.AddAccount(r.Context(), a); errors.Is(err, store.ErrExists) {
		writeError(w, http.StatusConflict, err.Error())
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": a})
}

func (s *Server) handleRemoveAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.RemoveAccount(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// --- fetching ---

func (s *Server) handleFetchAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	count, err := s.fetcher.RequestFetch(r.Context(), id)

	var rl *fetcher.RateLimitedError
	switch {
	case errors.As(err, &rl):
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":               rl.Error(),
			"retry_after_seconds": int(rl.RetryAfter.Round(time.Second).Seconds()),
		})
		return
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "account not found")
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]int{"count": count}})
}

func (s *Server) handleFetchAll(w http.ResponseWriter, r *http.Request) {
	results, err := s.fetcher.RequestFetchAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeList(w, results, len(results))
}

// --- tweets ---

// tweetQuery parses the shared list/stats/export parameters.
func tweetQuery(r *http.Request) (store.ListOpts, string, tweet.SortMode, tweet.SortOrder, error) {
	q := r.URL.Query()

	opts := store.ListOpts{AccountID: q.Get("account_id")}
	if since := q.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return opts, "", "", "", fmt.Errorf("invalid since: %s", since)
		}
		opts.Since = t
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return opts, "", "", "", fmt.Errorf("invalid limit: %s", limit)
		}
		opts.Limit = n
	}

	mode := tweet.SortNewest
	if raw := q.Get("sort"); raw != "" {
		mode = tweet.SortMode(raw)
		switch mode {
		case tweet.SortNewest, tweet.SortPopular, tweet.SortEngagement:
		default:
			return opts, "", "", "", fmt.Errorf("invalid sort: %s", raw)
		}
	}

	order := tweet.OrderDesc
	if raw := q.Get("order"); raw != "" {
		order = tweet.SortOrder(raw)
		switch order {
		case tweet.OrderAsc, tweet.OrderDesc:
		default:
			return opts, "", "", "", fmt.Errorf("invalid order: %s", raw)
		}
	}

	return opts, q.Get("q"), mode, order, nil
}

func (s *Server) handleListTweets(w http.ResponseWriter, r *http.Request) {
	opts, query, mode, order, err := tweetQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tweets, err := s.store.ListTweets(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	tweets = tweet.FilterAndSort(tweets, query, mode, order)

	if v := r.URL.Query().Get("threads"); v == "1" || v == "true" {
		writeJSON(w, http.StatusOK, map[string]any{
			"data":  tweet.AssembleThreads(tweets),
			"count": len(tweets),
		})
		return
	}
	writeList(w, tweets, len(tweets))
}

func (s *Server) handleGetTweet(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetTweet(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "tweet not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": t})
}

// --- enrichment ---

// loadTweetForEnrichment fetches the tweet and checks the LLM client is
// configured; it writes the error response itself when either fails.
func (s *Server) loadTweetForEnrichment(w http.ResponseWriter, r *http.Request) (*tweet.Tweet, bool) {
	if s.llm == nil {
		writeError(w, http.StatusServiceUnavailable, "enrichment not configured")
		return nil, false
	}
	t, err := s.store.GetTweet(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "tweet not found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return t, true
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTweetForEnrichment(w, r)
	if !ok {
		return
	}

	summary, err := s.llm.Summarize(r.Context(), t.Content)
	metrics.ObserveLLMCall("summarize", err)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if err := s.store.SetSummary(r.Context(), t.ID, summary); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"id": t.ID, "summary": summary}})
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTweetForEnrichment(w, r)
	if !ok {
		return
	}

	translation, err := s.llm.Translate(r.Context(), t.Content)
	metrics.ObserveLLMCall("translate", err)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if err := s.store.SetTranslation(r.Context(), t.ID, translation); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"id": t.ID, "translation": translation}})
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTweetForEnrichment(w, r)
	if !ok {
		return
	}

	sent, err := s.llm.AnalyzeSentiment(r.Context(), t.Content)
	metrics.ObserveLLMCall("sentiment", err)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if err := s.store.SetSentiment(r.Context(), t.ID, sent); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": t.ID, "sentiment": sent}})
}

// --- stats and export ---

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	opts, query, mode, order, err := tweetQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tweets, err := s.store.ListTweets(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stats := tweet.Aggregate(tweet.FilterAndSort(tweets, query, mode, order))
	writeJSON(w, http.StatusOK, map[string]any{"data": stats})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "json" {
		writeError(w, http.StatusBadRequest, "format must be csv or json")
		return
	}

	opts, query, mode, order, err := tweetQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tweets, err := s.store.ListTweets(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	tweets = tweet.FilterAndSort(tweets, query, mode, order)

	var body, contentType string
	switch format {
	case "csv":
		body = export.ToCSV(tweets)
		contentType = "text/csv; charset=utf-8"
	case "json":
		body, err = export.ToJSON(tweets)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		contentType = "application/json"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(format, time.Now().UTC())))
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, body)
}

// --- trending ---

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	if s.trending == nil {
		writeError(w, http.StatusServiceUnavailable, "trending search not configured")
		return
	}

	q := r.URL.Query()
	opts := trending.Options{
		Category: q.Get("category"),
		Country:  q.Get("country"),
	}
	if raw := q.Get("min_engagement"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid min_engagement")
			return
		}
		opts.MinEngagement = n
	}

	tweets, err := s.trending.Search(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeList(w, tweets, len(tweets))
}

// --- tags ---

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.ListTags(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeList(w, tags, len(tags))
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var t store.Tag
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := s.store.CreateTag(r.Context(), &t); errors.Is(err, store.ErrExists) {
		writeError(w, http.StatusConflict, err.Error())
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": t})
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTag(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleListAccountTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.ListAccountTags(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeList(w, tags, len(tags))
}

func (s *Server) handleAssignTag(w http.ResponseWriter, r *http.Request) {
	if err := s.store.AssignTag(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "tagID")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}

func (s *Server) handleUnassignTag(w http.ResponseWriter, r *http.Request) {
	if err := s.store.UnassignTag(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "tagID")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unassigned"})
}

// --- saved tweets ---

func (s *Server) handleListSaved(w http.ResponseWriter, r *http.Request) {
	tweets, err := s.store.ListSaved(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeList(w, tweets, len(tweets))
}

func (s *Server) handleSaveTweet(w http.ResponseWriter, r *http.Request) {
	var sv store.SavedTweet
	if err := json.NewDecoder(r.Body).Decode(&sv); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if sv.TweetID == "" {
		writeError(w, http.StatusBadRequest, "tweet_id is required")
		return
	}

	if _, err := s.store.GetTweet(r.Context(), sv.TweetID); errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "tweet not found")
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := s.store.SaveTweet(r.Context(), &sv); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": sv})
}

func (s *Server) handleUnsaveTweet(w http.ResponseWriter, r *http.Request) {
	if err := s.store.UnsaveTweet(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// --- change feed ---

// handleEvents streams store change signals as server-sent events. Clients
// reload on signal; the event carries only the changed table group.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case change, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: change\ndata: {\"changed\":%q}\n\n", string(change))
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
