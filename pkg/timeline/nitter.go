package timeline

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/tweetwatch/tweetwatch/pkg/tweet"
)

// Nitter fetches timelines from a Nitter instance's RSS feed. It needs no
// API key but carries no engagement counts, so it only serves as a fallback
// when the scraping API is not configured.
type Nitter struct {
	client  *http.Client
	parser  *gofeed.Parser
	baseURL string
}

// NewNitter creates the RSS fallback timeline provider.
func NewNitter(baseURL string) *Nitter {
	if baseURL == "" {
		baseURL = "https://nitter.net"
	}
	return &Nitter{
		client:  &http.Client{Timeout: 30 * time.Second},
		parser:  gofeed.NewParser(),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (n *Nitter) Name() string { return "nitter" }

func (n *Nitter) FetchTimeline(ctx context.Context, handle string) ([]tweet.Tweet, error) {
	feedURL := fmt.Sprintf("%s/%s/rss", n.baseURL, handle)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create nitter request @%s: %w", handle, err)
	}
	req.Header.Set("User-Agent", "tweetwatch/1.0")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch nitter @%s: %w", handle, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nitter @%s status %d", handle, resp.StatusCode)
	}

	feed, err := n.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse nitter @%s: %w", handle, err)
	}

	now := time.Now().UTC()
	cutoff := now.Add(-24 * time.Hour)

	var tweets []tweet.Tweet
	for _, entry := range feed.Items {
		published := now
		if entry.PublishedParsed != nil {
			published = entry.PublishedParsed.UTC()
		}
		if published.Before(cutoff) {
			continue
		}

		// Point links back at the canonical site.
		link := strings.Replace(entry.Link, n.baseURL, "https://x.com", 1)

		tweets = append(tweets, tweet.Tweet{
			ExternalID: entry.GUID,
			Content:    entry.Title,
			URL:        link,
			CreatedAt:  published,
			FetchedAt:  now,
		})
	}

	return tweets, nil
}
