package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/tweetwatch/tweetwatch/internal/config"
	"github.com/tweetwatch/tweetwatch/internal/fetcher"
	"github.com/tweetwatch/tweetwatch/internal/metrics"
	"github.com/tweetwatch/tweetwatch/internal/store"
	"github.com/tweetwatch/tweetwatch/pkg/alert"
	"github.com/tweetwatch/tweetwatch/pkg/export"
	"github.com/tweetwatch/tweetwatch/pkg/llm"
	"github.com/tweetwatch/tweetwatch/pkg/server"
	"github.com/tweetwatch/tweetwatch/pkg/timeline"
	"github.com/tweetwatch/tweetwatch/pkg/trending"
	"github.com/tweetwatch/tweetwatch/pkg/tweet"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func buildProvider(cfg *config.Config) (timeline.Provider, error) {
	if cfg.Timeline.APIKey != "" {
		return timeline.NewAPI(cfg.Timeline.BaseURL, cfg.Timeline.APIKey, cfg.Timeline.RPS, cfg.Timeline.Burst), nil
	}
	if cfg.Timeline.Nitter.Enabled {
		fmt.Fprintln(os.Stderr, "timeline: no API key, falling back to nitter RSS (no engagement counts)")
		return timeline.NewNitter(cfg.Timeline.Nitter.URL), nil
	}
	return nil, fmt.Errorf("no timeline provider configured: set TWITTER_API_KEY or enable nitter")
}

func buildLLM(cfg *config.Config) *llm.Client {
	if cfg.LLM.APIKey == "" {
		return nil
	}
	return llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model)
}

func buildTrending(cfg *config.Config) *trending.Client {
	if cfg.Trending.APIKey == "" {
		return nil
	}
	return trending.NewClient(cfg.Trending.APIKey, cfg.Trending.Host)
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func buildFetcher(cfg *config.Config, db store.Store) (*fetcher.Fetcher, error) {
	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}
	return fetcher.New(db, provider,
		cfg.Fetch.ParseCooldown(),
		cfg.Fetch.ParseAutoInterval(),
		cfg.Fetch.PageLimit,
		fetcher.WithAlerts(buildAlertManager(cfg), cfg.Alerts.ViralMinEngagement),
	), nil
}

// truncate shortens s to at most n runes for table output. Counting runes,
// not bytes, keeps multibyte characters (Turkish content) intact.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// accountID maps a CLI handle argument onto the deterministic account id.
func accountID(arg string) string {
	handle := strings.TrimPrefix(strings.TrimSpace(arg), "@")
	if strings.HasPrefix(handle, "acct:") {
		return handle
	}
	return "acct:" + handle
}

func runAccountAdd(handle, displayName, addedBy string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return fmt.Errorf("handle is required")
	}
	if displayName == "" {
		displayName = handle
	}

	a := &tweet.Account{Handle: handle, DisplayName: displayName, AddedBy: addedBy}
	if err := db.AddAccount(context.Background(), a); err != nil {
		return err
	}

	fmt.Printf("tracking @%s\n", handle)
	return nil
}

func runAccountRemove(handle string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	if err := db.RemoveAccount(context.Background(), accountID(handle)); err != nil {
		return err
	}

	fmt.Printf("removed @%s\n", strings.TrimPrefix(handle, "@"))
	return nil
}

func runAccountList() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	accounts, err := db.ListAccounts(context.Background())
	if err != nil {
		return err
	}

	if len(accounts) == 0 {
		fmt.Println("no accounts tracked (add one: tweetwatch accounts add <handle>)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HANDLE\tDISPLAY NAME\tLAST FETCHED\tADDED")
	for _, a := range accounts {
		lastFetched := "never"
		if a.LastFetchedAt != nil {
			lastFetched = a.LastFetchedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "@%s\t%s\t%s\t%s\n",
			a.Handle, a.DisplayName, lastFetched, a.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func runFetch(account string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	f, err := buildFetcher(cfg, db)
	if err != nil {
		return err
	}

	ctx := context.Background()

	if account != "" {
		count, err := f.RequestFetch(ctx, accountID(account))
		var rl *fetcher.RateLimitedError
		if errors.As(err, &rl) {
			return fmt.Errorf("@%s is cooling down, try again in %s", rl.Handle, rl.RetryAfter.Round(time.Second))
		}
		if err != nil {
			return err
		}
		fmt.Printf("fetched %d tweets for @%s\n", count, strings.TrimPrefix(account, "@"))
		return nil
	}

	results, err := f.RequestFetchAll(ctx)
	if err != nil {
		return err
	}

	total := 0
	for _, r := range results {
		switch {
		case r.Skipped:
			fmt.Fprintf(os.Stderr, "@%s: cooling down\n", r.Handle)
		case r.Err != "":
			fmt.Fprintf(os.Stderr, "@%s: %s\n", r.Handle, r.Err)
		default:
			fmt.Fprintf(os.Stderr, "@%s: %d tweets\n", r.Handle, r.Count)
			total += r.Count
		}
	}
	fmt.Fprintf(os.Stderr, "\ntotal: %d tweets from %d accounts\n", total, len(results))
	return nil
}

func runTweets(jsonOutput bool, query, sortMode, order string, limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	tweets, err := db.ListTweets(context.Background(), store.ListOpts{Limit: limit})
	if err != nil {
		return err
	}

	tweets = tweet.FilterAndSort(tweets, query, tweet.SortMode(sortMode), tweet.SortOrder(order))

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tweets)
	}

	if len(tweets) == 0 {
		fmt.Println("no tweets stored (try fetching first: tweetwatch fetch)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LIKES\tRTS\tREPLIES\tDATE\tACCOUNT\tCONTENT")
	for _, t := range tweets {
		content := truncate(strings.ReplaceAll(t.Content, "\n", " "), 80)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t@%s\t%s\n",
			tweet.FormatNumber(t.LikeCount),
			tweet.FormatNumber(t.RetweetCount),
			tweet.FormatNumber(t.ReplyCount),
			t.CreatedAt.Format("2006-01-02"),
			t.AccountHandle, content)
	}
	return w.Flush()
}

func runStats(query string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	tweets, err := db.ListTweets(context.Background(), store.ListOpts{})
	if err != nil {
		return err
	}

	tweets = tweet.FilterAndSort(tweets, query, tweet.SortNewest, tweet.OrderDesc)
	stats := tweet.Aggregate(tweets)

	fmt.Printf("tweets:        %d\n", stats.TotalTweets)
	fmt.Printf("total likes:   %s\n", tweet.FormatNumber(stats.TotalLikes))
	fmt.Printf("total rts:     %s\n", tweet.FormatNumber(stats.TotalRetweets))
	fmt.Printf("total replies: %s\n", tweet.FormatNumber(stats.TotalReplies))
	fmt.Printf("avg likes:     %d\n", stats.AvgLikes)
	fmt.Printf("avg rts:       %d\n", stats.AvgRetweets)
	fmt.Printf("avg replies:   %d\n", stats.AvgReplies)
	if stats.MostEngaged != nil {
		content := truncate(strings.ReplaceAll(stats.MostEngaged.Content, "\n", " "), 80)
		fmt.Printf("most engaged:  @%s: %s\n", stats.MostEngaged.AccountHandle, content)
	}
	return nil
}

func runExport(format, out, query string) error {
	if format != "csv" && format != "json" {
		return fmt.Errorf("format must be csv or json, got %q", format)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	tweets, err := db.ListTweets(context.Background(), store.ListOpts{})
	if err != nil {
		return err
	}
	tweets = tweet.FilterAndSort(tweets, query, tweet.SortNewest, tweet.OrderDesc)

	var body string
	switch format {
	case "csv":
		body = export.ToCSV(tweets)
	case "json":
		body, err = export.ToJSON(tweets)
		if err != nil {
			return err
		}
	}

	if out == "-" {
		fmt.Print(body)
		return nil
	}
	if out == "" {
		out = export.FileName(format, time.Now().UTC())
	}
	if err := os.WriteFile(out, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Fprintf(os.Stderr, "exported %d tweets to %s\n", len(tweets), out)
	return nil
}

func runTrending(category, country string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	client := buildTrending(cfg)
	if client == nil {
		return fmt.Errorf("trending search not configured: set RAPIDAPI_KEY")
	}

	if country == "" {
		country = cfg.Trending.Country
	}

	tweets, err := client.Search(context.Background(), trending.Options{
		Category:      category,
		Country:       country,
		MinEngagement: cfg.Trending.MinEngagement,
	})
	if err != nil {
		return err
	}

	if len(tweets) == 0 {
		fmt.Println("no trending tweets found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ENGAGEMENT\tACCOUNT\tCONTENT")
	for _, t := range tweets {
		content := truncate(strings.ReplaceAll(t.Content, "\n", " "), 80)
		fmt.Fprintf(w, "%s\t@%s\t%s\n", tweet.FormatNumber(t.EngagementScore()), t.AccountHandle, content)
	}
	return w.Flush()
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	f, err := buildFetcher(cfg, db)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := server.New(db, f, buildLLM(cfg), buildTrending(cfg), port)
	return srv.Run(ctx)
}

func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	f, err := buildFetcher(cfg, db)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Background auto-fetch loop.
	go func() {
		if err := f.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "fetch loop error: %v\n", err)
		}
	}()

	if cfg.Metrics.Addr != "" {
		errCh := metrics.StartServer(cfg.Metrics.Addr)
		go func() {
			if err := <-errCh; err != nil && ctx.Err() == nil {
				fmt.Fprintf(os.Stderr, "metrics server error: %v\n", err)
			}
		}()
		fmt.Fprintf(os.Stderr, "metrics listening on %s\n", cfg.Metrics.Addr)
	}

	srv := server.New(db, f, buildLLM(cfg), buildTrending(cfg), port)
	return srv.Run(ctx)
}
