package fetcher

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tweetwatch/tweetwatch/internal/store"
	"github.com/tweetwatch/tweetwatch/pkg/tweet"
)

type fakeStorage struct {
	accounts []tweet.Account
	stamped  map[string]time.Time
	upserted []tweet.Tweet
}

func newFakeStorage(accounts ...tweet.Account) *fakeStorage {
	return &fakeStorage{accounts: accounts, stamped: make(map[string]time.Time)}
}

func (s *fakeStorage) ListAccounts(ctx context.Context) ([]tweet.Account, error) {
	return s.accounts, nil
}

func (s *fakeStorage) GetAccount(ctx context.Context, id string) (*tweet.Account, error) {
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			a := s.accounts[i]
			return &a, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeStorage) TouchAccountFetched(ctx context.Context, id string, at time.Time) error {
	s.stamped[id] = at
	return nil
}

func (s *fakeStorage) UpsertTweets(ctx context.Context, ts []tweet.Tweet) error {
	s.upserted = append(s.upserted, ts...)
	return nil
}

// fakeProvider returns canned tweets or errors per handle and records the
// order of calls.
type fakeProvider struct {
	tweets map[string][]tweet.Tweet
	errs   map[string]error
	calls  []string
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) FetchTimeline(ctx context.Context, handle string) ([]tweet.Tweet, error) {
	p.calls = append(p.calls, handle)
	if err := p.errs[handle]; err != nil {
		return nil, err
	}
	return p.tweets[handle], nil
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestFetcher(s *fakeStorage, p *fakeProvider) *Fetcher {
	return New(s, p, time.Hour, 5*time.Minute, 100, WithClock(func() time.Time { return testNow }))
}

func fetchedAgo(d time.Duration) *time.Time {
	t := testNow.Add(-d)
	return &t
}

func TestRequestFetchNeverFetchedIsEligible(t *testing.T) {
	s := newFakeStorage(tweet.Account{ID: "acct:gopher", Handle: "gopher"})
	p := &fakeProvider{tweets: map[string][]tweet.Tweet{
		"gopher": {{ExternalID: "1"}, {ExternalID: "2"}},
	}}

	count, err := newTestFetcher(s, p).RequestFetch(context.Background(), "acct:gopher")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 tweets, got %d", count)
	}
	if _, ok := s.stamped["acct:gopher"]; !ok {
		t.Fatal("expected last_fetched_at to be stamped")
	}
	if len(s.upserted) != 2 {
		t.Fatalf("expected 2 upserts, got %d", len(s.upserted))
	}
	if s.upserted[0].AccountID != "acct:gopher" {
		t.Fatalf("expected account id to be attached, got %q", s.upserted[0].AccountID)
	}
}

func TestRequestFetchDuringCooldownFailsFast(t *testing.T) {
	s := newFakeStorage(tweet.Account{
		ID: "acct:gopher", Handle: "gopher", LastFetchedAt: fetchedAgo(30 * time.Minute),
	})
	p := &fakeProvider{}

	_, err := newTestFetcher(s, p).RequestFetch(context.Background(), "acct:gopher")

	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if rl.RetryAfter != 30*time.Minute {
		t.Fatalf("expected 30m remaining, got %s", rl.RetryAfter)
	}
	if rl.Handle != "gopher" {
		t.Fatalf("expected handle gopher, got %q", rl.Handle)
	}
	if len(p.calls) != 0 {
		t.Fatalf("no remote call expected while cooling down, got %v", p.calls)
	}
	if len(s.stamped) != 0 {
		t.Fatal("cooling-down account must not be restamped")
	}
}

func TestRequestFetchAfterCooldownSucceeds(t *testing.T) {
	s := newFakeStorage(tweet.Account{
		ID: "acct:gopher", Handle: "gopher", LastFetchedAt: fetchedAgo(61 * time.Minute),
	})
	p := &fakeProvider{tweets: map[string][]tweet.Tweet{"gopher": {{ExternalID: "1"}}}}

	if _, err := newTestFetcher(s, p).RequestFetch(context.Background(), "acct:gopher"); err != nil {
		t.Fatalf("expected success after cooldown, got %v", err)
	}
	if got := s.stamped["acct:gopher"]; !got.Equal(testNow) {
		t.Fatalf("expected stamp at %s, got %s", testNow, got)
	}
}

func TestRequestFetchUnknownAccount(t *testing.T) {
	f := newTestFetcher(newFakeStorage(), &fakeProvider{})
	_, err := f.RequestFetch(context.Background(), "acct:missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRequestFetchAllIsSequentialAndIndependent(t *testing.T) {
	s := newFakeStorage(
		tweet.Account{ID: "acct:first", Handle: "first"},
		tweet.Account{ID: "acct:second", Handle: "second"},
		tweet.Account{ID: "acct:third", Handle: "third"},
	)
	p := &fakeProvider{
		tweets: map[string][]tweet.Tweet{
			"first": {{ExternalID: "f1"}},
			"third": {{ExternalID: "t1"}, {ExternalID: "t2"}},
		},
		errs: map[string]error{"second": fmt.Errorf("upstream exploded")},
	}

	results, err := newTestFetcher(s, p).RequestFetchAll(context.Background())
	if err != nil {
		t.Fatalf("bulk fetch should not fail as a whole: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if results[0].Err != "" || results[0].Count != 1 {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
	if results[1].Err == "" {
		t.Fatalf("expected second account to fail, got %+v", results[1])
	}
	if results[2].Err != "" || results[2].Count != 2 {
		t.Fatalf("unexpected third result: %+v", results[2])
	}

	// Strictly sequential, in listing order.
	if len(p.calls) != 3 || p.calls[0] != "first" || p.calls[1] != "second" || p.calls[2] != "third" {
		t.Fatalf("expected ordered calls, got %v", p.calls)
	}

	// Successful accounts are stamped; the failed one is not.
	if _, ok := s.stamped["acct:first"]; !ok {
		t.Fatal("first account should be stamped")
	}
	if _, ok := s.stamped["acct:third"]; !ok {
		t.Fatal("third account should be stamped")
	}
	if _, ok := s.stamped["acct:second"]; ok {
		t.Fatal("failed account should not be stamped")
	}
}

func TestRequestFetchAllSkipsCoolingAccounts(t *testing.T) {
	s := newFakeStorage(
		tweet.Account{ID: "acct:hot", Handle: "hot", LastFetchedAt: fetchedAgo(10 * time.Minute)},
		tweet.Account{ID: "acct:cold", Handle: "cold"},
	)
	p := &fakeProvider{tweets: map[string][]tweet.Tweet{"cold": {{ExternalID: "c1"}}}}

	results, err := newTestFetcher(s, p).RequestFetchAll(context.Background())
	if err != nil {
		t.Fatalf("RequestFetchAll: %v", err)
	}

	if !results[0].Skipped {
		t.Fatalf("expected cooling account to be skipped, got %+v", results[0])
	}
	if results[1].Skipped || results[1].Count != 1 {
		t.Fatalf("expected eligible account to be fetched, got %+v", results[1])
	}
	if len(p.calls) != 1 || p.calls[0] != "cold" {
		t.Fatalf("expected only the eligible account to be called, got %v", p.calls)
	}
}

func TestFetchCapsAtPageLimit(t *testing.T) {
	var many []tweet.Tweet
	for i := 0; i < 150; i++ {
		many = append(many, tweet.Tweet{ExternalID: fmt.Sprintf("%d", i)})
	}

	s := newFakeStorage(tweet.Account{ID: "acct:busy", Handle: "busy"})
	p := &fakeProvider{tweets: map[string][]tweet.Tweet{"busy": many}}

	count, err := newTestFetcher(s, p).RequestFetch(context.Background(), "acct:busy")
	if err != nil {
		t.Fatalf("RequestFetch: %v", err)
	}
	if count != 100 {
		t.Fatalf("expected page limit of 100, got %d", count)
	}
}

func TestRateLimitedErrorMessage(t *testing.T) {
	err := &RateLimitedError{Handle: "gopher", RetryAfter: 90 * time.Second}
	want := "rate limited: @gopher eligible again in 1m30s"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}
