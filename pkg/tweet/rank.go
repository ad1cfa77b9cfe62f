package tweet

import (
	"sort"
	"strings"
)

// FilterAndSort returns the tweets matching query, ordered by the requested
// sort mode. Filtering always happens before sorting. The query matches
// case-insensitively against the content, the owning account's handle, and
// its display name; a blank or whitespace-only query passes everything
// through. Sorting is stable: tweets with equal keys keep their relative
// input order. The input slice is not modified.
func FilterAndSort(tweets []Tweet, query string, mode SortMode, order SortOrder) []Tweet {
	filtered := filterByQuery(tweets, query)

	sorted := make([]Tweet, len(filtered))
	copy(sorted, filtered)

	desc := order != OrderAsc

	var key func(Tweet) int64
	switch mode {
	case SortPopular:
		key = func(t Tweet) int64 { return int64(t.EngagementScore()) }
	case SortEngagement:
		key = func(t Tweet) int64 { return int64(t.WeightedEngagement()) }
	default: // SortNewest
		key = func(t Tweet) int64 { return t.CreatedAt.UnixMilli() }
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := key(sorted[i]), key(sorted[j])
		if desc {
			return a > b
		}
		return a < b
	})

	return sorted
}

func filterByQuery(tweets []Tweet, query string) []Tweet {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return tweets
	}

	var out []Tweet
	for _, t := range tweets {
		if strings.Contains(strings.ToLower(t.Content), q) ||
			strings.Contains(strings.ToLower(t.AccountHandle), q) ||
			(t.AccountDisplayName != "" && strings.Contains(strings.ToLower(t.AccountDisplayName), q)) {
			out = append(out, t)
		}
	}
	return out
}
