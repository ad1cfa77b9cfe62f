package tweet

import (
	"fmt"
	"math"
)

// Stats summarizes engagement over a working set of tweets. The aggregator
// is filter-agnostic: callers decide whether to pass the full load or an
// already filtered view.
type Stats struct {
	TotalTweets     int    `json:"total_tweets"`
	TotalLikes      int    `json:"total_likes"`
	TotalRetweets   int    `json:"total_retweets"`
	TotalReplies    int    `json:"total_replies"`
	TotalEngagement int    `json:"total_engagement"`
	AvgLikes        int    `json:"avg_likes"`
	AvgRetweets     int    `json:"avg_retweets"`
	AvgReplies      int    `json:"avg_replies"`
	MostEngaged     *Tweet `json:"most_engaged"`
}

// Aggregate computes summary metrics over tweets. An empty input yields
// all-zero fields and a nil MostEngaged. MostEngaged is the tweet with the
// highest unweighted engagement sum; ties go to the first one in input
// order.
func Aggregate(tweets []Tweet) Stats {
	if len(tweets) == 0 {
		return Stats{}
	}

	var likes, retweets, replies int
	best := 0
	for i, t := range tweets {
		likes += t.LikeCount
		retweets += t.RetweetCount
		replies += t.ReplyCount
		if t.EngagementScore() > tweets[best].EngagementScore() {
			best = i
		}
	}

	most := tweets[best]
	n := float64(len(tweets))
	return Stats{
		TotalTweets:     len(tweets),
		TotalLikes:      likes,
		TotalRetweets:   retweets,
		TotalReplies:    replies,
		TotalEngagement: likes + retweets + replies,
		AvgLikes:        int(math.Round(float64(likes) / n)),
		AvgRetweets:     int(math.Round(float64(retweets) / n)),
		AvgReplies:      int(math.Round(float64(replies) / n)),
		MostEngaged:     &most,
	}
}

// FormatNumber abbreviates large counts for display: 1500 -> "1.5K",
// 2500000 -> "2.5M", anything below 1000 renders as a plain integer.
func FormatNumber(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
