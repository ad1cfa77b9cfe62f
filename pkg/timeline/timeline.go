// Package timeline fetches a tracked account's recent tweets from upstream
// scraping services and normalizes the various response shapes into the
// canonical tweet model.
package timeline

import (
	"context"

	"github.com/tweetwatch/tweetwatch/pkg/tweet"
)

// Provider fetches the recent timeline for one handle.
type Provider interface {
	Name() string
	FetchTimeline(ctx context.Context, handle string) ([]tweet.Tweet, error)
}
