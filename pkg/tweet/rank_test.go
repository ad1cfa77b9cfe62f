package tweet

import (
	"testing"
	"time"
)

func rankFixture() []Tweet {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []Tweet{
		{ID: "a", Content: "Go generics deep dive", AccountHandle: "gopher", AccountDisplayName: "Go Blog",
			CreatedAt: base, LikeCount: 10, RetweetCount: 2, ReplyCount: 1},
		{ID: "b", Content: "lunch thoughts", AccountHandle: "rustacean", AccountDisplayName: "Ferris",
			CreatedAt: base.Add(time.Hour), LikeCount: 5, RetweetCount: 5, ReplyCount: 5},
		{ID: "c", Content: "GO TEAM", AccountHandle: "coach", AccountDisplayName: "Coach Dave",
			CreatedAt: base.Add(2 * time.Hour), LikeCount: 0, RetweetCount: 0, ReplyCount: 20},
	}
}

func ids(tweets []Tweet) []string {
	out := make([]string, len(tweets))
	for i, t := range tweets {
		out[i] = t.ID
	}
	return out
}

func assertOrder(t *testing.T, got []Tweet, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d tweets, got %v", len(want), ids(got))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("expected order %v, got %v", want, ids(got))
		}
	}
}

func TestFilterMatchesContentHandleAndDisplayName(t *testing.T) {
	tweets := rankFixture()

	// "go" matches content of a and c (case-insensitive), handle of none.
	got := FilterAndSort(tweets, "go", SortNewest, OrderAsc)
	assertOrder(t, got, "a", "c")

	got = FilterAndSort(tweets, "RUSTACEAN", SortNewest, OrderAsc)
	assertOrder(t, got, "b")

	got = FilterAndSort(tweets, "coach dave", SortNewest, OrderAsc)
	assertOrder(t, got, "c")
}

func TestFilterBlankQueryPassesThrough(t *testing.T) {
	tweets := rankFixture()
	for _, q := range []string{"", "   ", "\t"} {
		got := FilterAndSort(tweets, q, SortNewest, OrderAsc)
		if len(got) != len(tweets) {
			t.Fatalf("query %q: expected %d tweets, got %d", q, len(tweets), len(got))
		}
	}
}

func TestFilterNoMatches(t *testing.T) {
	got := FilterAndSort(rankFixture(), "quantum", SortNewest, OrderDesc)
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %v", ids(got))
	}
}

func TestSortNewest(t *testing.T) {
	tweets := rankFixture()
	assertOrder(t, FilterAndSort(tweets, "", SortNewest, OrderDesc), "c", "b", "a")
	assertOrder(t, FilterAndSort(tweets, "", SortNewest, OrderAsc), "a", "b", "c")
}

func TestSortPopularUsesUnweightedSum(t *testing.T) {
	// a: 13, b: 15, c: 20
	tweets := rankFixture()
	assertOrder(t, FilterAndSort(tweets, "", SortPopular, OrderDesc), "c", "b", "a")
	assertOrder(t, FilterAndSort(tweets, "", SortPopular, OrderAsc), "a", "b", "c")
}

func TestSortEngagementUsesWeightedSum(t *testing.T) {
	// a: 10*1+2*2+1*3 = 17, b: 5*1+5*2+5*3 = 30, c: 0+0+20*3 = 60
	tweets := rankFixture()
	assertOrder(t, FilterAndSort(tweets, "", SortEngagement, OrderDesc), "c", "b", "a")
	assertOrder(t, FilterAndSort(tweets, "", SortEngagement, OrderAsc), "a", "b", "c")
}

func TestSortIsStableOnTies(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tweets := []Tweet{
		{ID: "first", CreatedAt: base, LikeCount: 7},
		{ID: "second", CreatedAt: base, LikeCount: 7},
		{ID: "third", CreatedAt: base, LikeCount: 7},
	}

	for _, mode := range []SortMode{SortNewest, SortPopular, SortEngagement} {
		for _, order := range []SortOrder{OrderAsc, OrderDesc} {
			got := FilterAndSort(tweets, "", mode, order)
			assertOrder(t, got, "first", "second", "third")
		}
	}
}

func TestFilterAndSortDoesNotModifyInput(t *testing.T) {
	tweets := rankFixture()
	FilterAndSort(tweets, "", SortPopular, OrderDesc)
	assertOrder(t, tweets, "a", "b", "c")
}

func TestUnknownOrderDefaultsToDescending(t *testing.T) {
	tweets := rankFixture()
	got := FilterAndSort(tweets, "", SortNewest, SortOrder("sideways"))
	assertOrder(t, got, "c", "b", "a")
}
