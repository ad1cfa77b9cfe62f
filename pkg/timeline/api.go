package timeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/tweetwatch/tweetwatch/pkg/tweet"
)

// API fetches timelines from a twitterapi.io-style scraping service.
// Outgoing calls are paced by a rate limiter on top of the retrying client,
// since the upstream meters per API key.
type API struct {
	client  *retryablehttp.Client
	limiter *rate.Limiter
	baseURL string
	apiKey  string
}

// NewAPI creates the API timeline provider.
func NewAPI(baseURL, apiKey string, rps float64, burst int) *API {
	if baseURL == "" {
		baseURL = "https://api.twitterapi.io"
	}
	if rps <= 0 {
		rps = 2
	}
	if burst <= 0 {
		burst = 5
	}
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.HTTPClient.Timeout = 30 * time.Second

	return &API{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

func (a *API) Name() string { return "api" }

// apiEnvelope tolerates the two envelope shapes the upstream has shipped:
// tweets either nested under data or at the top level.
type apiEnvelope struct {
	Status  string `json:"status"`
	Msg     string `json:"msg"`
	Message string `json:"message"`
	Data    struct {
		Tweets []rawTweet `json:"tweets"`
	} `json:"data"`
	Tweets []rawTweet `json:"tweets"`
}

// FetchTimeline returns the handle's recent tweets, normalized.
func (a *API) FetchTimeline(ctx context.Context, handle string) ([]tweet.Tweet, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/twitter/user/last_tweets?userName=%s", a.baseURL, url.QueryEscape(handle))
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create timeline request @%s: %w", handle, err)
	}
	req.Header.Set("X-API-Key", a.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch timeline @%s: %w", handle, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("timeline @%s status %d", handle, resp.StatusCode)
	}

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode timeline @%s: %w", handle, err)
	}
	if env.Status == "error" {
		msg := env.Msg
		if msg == "" {
			msg = env.Message
		}
		return nil, fmt.Errorf("timeline @%s: upstream error: %s", handle, msg)
	}

	raws := env.Data.Tweets
	if len(raws) == 0 {
		raws = env.Tweets
	}

	return NormalizeBatch(raws, time.Now().UTC()), nil
}
