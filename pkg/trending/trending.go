// Package trending proxies a RapidAPI Twitter search endpoint to surface
// high-engagement tweets by category and country.
package trending

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/tweetwatch/tweetwatch/pkg/tweet"
)

const maxResults = 50

// Options select what to search for.
type Options struct {
	Category      string // technology, politics, sports, entertainment, business
	Country       string // "turkey" or "global"
	MinEngagement int    // unweighted sum threshold; default 1000
}

// Client calls the search endpoint.
type Client struct {
	client *retryablehttp.Client
	apiKey string
	host   string
}

// NewClient creates a trending search client.
func NewClient(apiKey, host string) *Client {
	if host == "" {
		host = "twitter-api45.p.rapidapi.com"
	}
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.HTTPClient.Timeout = 30 * time.Second
	return &Client{client: client, apiKey: apiKey, host: host}
}

// searchItem is the upstream search result shape; note the count field
// names differ from the timeline endpoint (favorites, not likeCount).
type searchItem struct {
	TweetID   string `json:"tweet_id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
	Favorites int    `json:"favorites"`
	Retweets  int    `json:"retweets"`
	Replies   int    `json:"replies"`
	Views     int    `json:"views"`
	MediaURL  string `json:"media_url"`
	Author    struct {
		ScreenName string `json:"screen_name"`
		Name       string `json:"name"`
		Avatar     string `json:"avatar"`
	} `json:"author"`
}

// Search returns trending tweets matching opts, filtered to those at or
// above the engagement threshold and capped at 50.
func (c *Client) Search(ctx context.Context, opts Options) ([]tweet.Tweet, error) {
	minEngagement := opts.MinEngagement
	if minEngagement <= 0 {
		minEngagement = 1000
	}

	query := CategoryQuery(opts.Category, opts.Country)
	base := c.host
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	u := fmt.Sprintf("%s/search.php?query=%s&search_type=Top", base, url.QueryEscape(query))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create trending request: %w", err)
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", hostOnly(c.host))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch trending: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trending status %d", resp.StatusCode)
	}

	var env struct {
		Timeline []searchItem `json:"timeline"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode trending: %w", err)
	}

	now := time.Now().UTC()
	var out []tweet.Tweet
	for _, item := range env.Timeline {
		if item.Favorites+item.Retweets+item.Replies < minEngagement {
			continue
		}

		t := tweet.Tweet{
			ExternalID:         item.TweetID,
			Content:            item.Text,
			CreatedAt:          parseCreatedAt(item.CreatedAt, now),
			FetchedAt:          now,
			LikeCount:          item.Favorites,
			RetweetCount:       item.Retweets,
			ReplyCount:         item.Replies,
			ViewCount:          item.Views,
			AccountHandle:      item.Author.ScreenName,
			AccountDisplayName: item.Author.Name,
		}
		if item.MediaURL != "" {
			t.Media = []tweet.Media{{Type: "photo", URL: item.MediaURL}}
		}

		out = append(out, t)
		if len(out) >= maxResults {
			break
		}
	}

	return out, nil
}

var turkishQueries = map[string]string{
	"technology":    "teknoloji OR yapay zeka OR AI OR tech lang:tr",
	"politics":      "siyaset OR seçim OR politika lang:tr",
	"sports":        "spor OR futbol OR basketbol lang:tr",
	"entertainment": "eğlence OR müzik OR film lang:tr",
	"business":      "ekonomi OR iş dünyası OR borsa lang:tr",
}

var globalQueries = map[string]string{
	"technology":    "technology OR AI OR artificial intelligence",
	"politics":      "politics OR election OR government",
	"sports":        "sports OR football OR basketball",
	"entertainment": "entertainment OR music OR movie",
	"business":      "business OR economy OR stock market",
}

// CategoryQuery maps a category/country pair onto the upstream search query.
func CategoryQuery(category, country string) string {
	if country == "turkey" {
		if category == "" || category == "all" {
			return "Turkey OR Türkiye lang:tr"
		}
		if q, ok := turkishQueries[category]; ok {
			return q
		}
		return "lang:tr"
	}

	if q, ok := globalQueries[category]; ok {
		return q
	}
	return ""
}

func hostOnly(host string) string {
	if u, err := url.Parse(host); err == nil && u.Host != "" {
		return u.Host
	}
	return host
}

func parseCreatedAt(s string, fallback time.Time) time.Time {
	for _, layout := range []string{time.RFC3339, "Mon Jan 02 15:04:05 -0700 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return fallback
}
