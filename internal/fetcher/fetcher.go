// Package fetcher gates and sequences timeline refetches for tracked
// accounts. Each account is either eligible for a refetch or cooling down;
// the cooldown exists to rate-limit the upstream scraping API, not to
// guarantee delivery.
package fetcher

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tweetwatch/tweetwatch/internal/metrics"
	"github.com/tweetwatch/tweetwatch/pkg/alert"
	"github.com/tweetwatch/tweetwatch/pkg/timeline"
	"github.com/tweetwatch/tweetwatch/pkg/tweet"
)

// Storage is the slice of the store the fetcher needs.
type Storage interface {
	ListAccounts(ctx context.Context) ([]tweet.Account, error)
	GetAccount(ctx context.Context, id string) (*tweet.Account, error)
	TouchAccountFetched(ctx context.Context, id string, at time.Time) error
	UpsertTweets(ctx context.Context, ts []tweet.Tweet) error
}

// RateLimitedError reports that an account is still cooling down.
type RateLimitedError struct {
	Handle     string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: @%s eligible again in %s", e.Handle, e.RetryAfter.Round(time.Second))
}

// Result is the outcome of one account's refetch within a bulk request.
type Result struct {
	AccountID string `json:"account_id"`
	Handle    string `json:"handle"`
	Count     int    `json:"count"`
	Skipped   bool   `json:"skipped,omitempty"`
	Err       string `json:"error,omitempty"`
}

// Fetcher drives refetches through the cooldown gate.
type Fetcher struct {
	storage  Storage
	provider timeline.Provider
	alerts   *alert.Manager

	cooldown  time.Duration
	interval  time.Duration
	pageLimit int
	viralMin  int

	now func() time.Time
}

// Option tweaks a Fetcher.
type Option func(*Fetcher)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// WithAlerts broadcasts tweets whose unweighted engagement reaches min.
func WithAlerts(m *alert.Manager, min int) Option {
	return func(f *Fetcher) { f.alerts = m; f.viralMin = min }
}

// New creates a Fetcher. cooldown defaults to one hour, interval to five
// minutes, pageLimit to 100.
func New(storage Storage, provider timeline.Provider, cooldown, interval time.Duration, pageLimit int, opts ...Option) *Fetcher {
	if cooldown <= 0 {
		cooldown = time.Hour
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if pageLimit <= 0 || pageLimit > 100 {
		pageLimit = 100
	}
	f := &Fetcher{
		storage:   storage,
		provider:  provider,
		cooldown:  cooldown,
		interval:  interval,
		pageLimit: pageLimit,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// remaining returns how long the account must still cool down; zero or
// negative means eligible. A never-fetched account is always eligible.
func (f *Fetcher) remaining(a *tweet.Account) time.Duration {
	if a.LastFetchedAt == nil {
		return 0
	}
	return f.cooldown - f.now().Sub(*a.LastFetchedAt)
}

// RequestFetch refetches one account. If it is cooling down the call fails
// fast with a *RateLimitedError carrying the remaining wait and no remote
// call is made.
func (f *Fetcher) RequestFetch(ctx context.Context, accountID string) (int, error) {
	a, err := f.storage.GetAccount(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("load account %s: %w", accountID, err)
	}

	if wait := f.remaining(a); wait > 0 {
		return 0, &RateLimitedError{Handle: a.Handle, RetryAfter: wait}
	}

	return f.fetchAccount(ctx, a)
}

// RequestFetchAll refetches every tracked account, strictly one after
// another to respect the upstream API's per-call rate limits. Cooling-down
// accounts are skipped; one account's failure never aborts the rest, so a
// partially successful run is the normal outcome.
func (f *Fetcher) RequestFetchAll(ctx context.Context) ([]Result, error) {
	accounts, err := f.storage.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	results := make([]Result, 0, len(accounts))
	for i := range accounts {
		a := accounts[i]
		res := Result{AccountID: a.ID, Handle: a.Handle}

		if f.remaining(&a) > 0 {
			res.Skipped = true
			results = append(results, res)
			continue
		}

		count, err := f.fetchAccount(ctx, &a)
		res.Count = count
		if err != nil {
			res.Err = err.Error()
			metrics.FetchErrors.Inc()
		}
		results = append(results, res)
	}
	return results, nil
}

// fetchAccount performs one refetch. The cooldown stamp follows a
// successful dispatch of the remote call; a partially failing upsert batch
// still stamps, since the gate protects the upstream API rather than the
// local write.
func (f *Fetcher) fetchAccount(ctx context.Context, a *tweet.Account) (int, error) {
	start := f.now()

	tweets, err := f.provider.FetchTimeline(ctx, a.Handle)
	if err != nil {
		return 0, fmt.Errorf("fetch @%s: %w", a.Handle, err)
	}
	if len(tweets) > f.pageLimit {
		tweets = tweets[:f.pageLimit]
	}
	for i := range tweets {
		tweets[i].AccountID = a.ID
		tweets[i].AccountHandle = a.Handle
		tweets[i].AccountDisplayName = a.DisplayName
	}

	upsertErr := f.storage.UpsertTweets(ctx, tweets)
	if upsertErr == nil {
		metrics.TweetsUpserted.Add(float64(len(tweets)))
	}

	if err := f.storage.TouchAccountFetched(ctx, a.ID, f.now()); err != nil {
		fmt.Fprintf(os.Stderr, "fetcher: stamp @%s: %v\n", a.Handle, err)
	}

	f.alertViral(ctx, tweets)

	metrics.ObserveFetchDuration(start)
	if upsertErr != nil {
		return len(tweets), fmt.Errorf("store @%s: %w", a.Handle, upsertErr)
	}
	return len(tweets), nil
}

func (f *Fetcher) alertViral(ctx context.Context, tweets []tweet.Tweet) {
	if f.alerts == nil || !f.alerts.HasNotifiers() || f.viralMin <= 0 {
		return
	}
	for i := range tweets {
		t := tweets[i]
		if t.EngagementScore() < f.viralMin {
			continue
		}
		n := &alert.Notification{
			Title: fmt.Sprintf("@%s is going viral", t.AccountHandle),
			Body:  fmt.Sprintf("%s likes, %s retweets, %s replies", tweet.FormatNumber(t.LikeCount), tweet.FormatNumber(t.RetweetCount), tweet.FormatNumber(t.ReplyCount)),
			URL:   t.URL,
			Score: t.EngagementScore(),
			Tweet: &t,
		}
		if err := f.alerts.Broadcast(ctx, n); err != nil {
			fmt.Fprintf(os.Stderr, "fetcher: alert %s: %v\n", t.ExternalID, err)
		}
	}
}

// Run drives the background fetch-all loop. It fires immediately, then on
// every interval tick, and blocks until ctx is cancelled.
func (f *Fetcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	fmt.Fprintf(os.Stderr, "fetcher: running (every %s, cooldown %s)\n", f.interval, f.cooldown)
	f.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "fetcher: stopped")
			return ctx.Err()
		case <-ticker.C:
			f.runOnce(ctx)
		}
	}
}

func (f *Fetcher) runOnce(ctx context.Context) {
	metrics.FetchRuns.Inc()
	results, err := f.RequestFetchAll(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetcher: %v\n", err)
		metrics.FetchErrors.Inc()
		return
	}
	for _, r := range results {
		switch {
		case r.Skipped:
			fmt.Fprintf(os.Stderr, "  @%s: cooling down\n", r.Handle)
		case r.Err != "":
			fmt.Fprintf(os.Stderr, "  @%s error: %s\n", r.Handle, r.Err)
		default:
			fmt.Fprintf(os.Stderr, "  @%s: %d tweets\n", r.Handle, r.Count)
		}
	}
}
