package tweet

import "testing"

func TestAggregateEmpty(t *testing.T) {
	stats := Aggregate(nil)
	if stats.TotalTweets != 0 || stats.TotalEngagement != 0 || stats.AvgLikes != 0 {
		t.Fatalf("expected zeroed stats, got %+v", stats)
	}
	if stats.MostEngaged != nil {
		t.Fatalf("expected nil MostEngaged, got %+v", stats.MostEngaged)
	}
}

func TestAggregateTotalsAndAverages(t *testing.T) {
	tweets := []Tweet{
		{ID: "a", LikeCount: 10, RetweetCount: 2, ReplyCount: 1},
		{ID: "b", LikeCount: 5, RetweetCount: 5, ReplyCount: 5},
		{ID: "c", LikeCount: 0, RetweetCount: 0, ReplyCount: 20},
	}

	stats := Aggregate(tweets)

	if stats.TotalTweets != 3 {
		t.Fatalf("expected 3 tweets, got %d", stats.TotalTweets)
	}
	if stats.TotalLikes != 15 || stats.TotalRetweets != 7 || stats.TotalReplies != 26 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if stats.TotalEngagement != 48 {
		t.Fatalf("expected total engagement 48, got %d", stats.TotalEngagement)
	}
	if stats.AvgLikes != 5 {
		t.Fatalf("expected avg likes 5, got %d", stats.AvgLikes)
	}
	// 7/3 = 2.33 rounds to 2; 26/3 = 8.67 rounds to 9.
	if stats.AvgRetweets != 2 || stats.AvgReplies != 9 {
		t.Fatalf("unexpected averages: %+v", stats)
	}
	// Unweighted sums are 13, 15, 20.
	if stats.MostEngaged == nil || stats.MostEngaged.ID != "c" {
		t.Fatalf("expected most engaged c, got %+v", stats.MostEngaged)
	}
}

func TestAggregateMostEngagedTieGoesToFirst(t *testing.T) {
	tweets := []Tweet{
		{ID: "early", LikeCount: 10},
		{ID: "late", LikeCount: 10},
	}

	stats := Aggregate(tweets)
	if stats.MostEngaged.ID != "early" {
		t.Fatalf("expected tie to go to first tweet, got %s", stats.MostEngaged.ID)
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.0K"},
		{1500, "1.5K"},
		{999999, "1000.0K"},
		{1000000, "1.0M"},
		{2500000, "2.5M"},
	}

	for _, c := range cases {
		if got := FormatNumber(c.in); got != c.want {
			t.Fatalf("FormatNumber(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestEngagementScores(t *testing.T) {
	tw := Tweet{LikeCount: 10, RetweetCount: 2, ReplyCount: 1}
	if got := tw.EngagementScore(); got != 13 {
		t.Fatalf("expected unweighted score 13, got %d", got)
	}
	if got := tw.WeightedEngagement(); got != 17 {
		t.Fatalf("expected weighted score 17, got %d", got)
	}
}
