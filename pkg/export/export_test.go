package export

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/tweetwatch/tweetwatch/pkg/tweet"
)

func exportFixture() []tweet.Tweet {
	return []tweet.Tweet{
		{
			AccountHandle:      "gopher",
			AccountDisplayName: "Go Blog",
			Content:            `He said "hi" and left`,
			LikeCount:          1500,
			RetweetCount:       20,
			ReplyCount:         3,
			CreatedAt:          time.Date(2026, 3, 1, 14, 30, 5, 0, time.UTC),
			URL:                "https://x.com/gopher/status/1",
			Sentiment:          &tweet.Sentiment{Label: tweet.SentimentPositive, Score: 0.9},
			Media:              []tweet.Media{{Type: "photo", URL: "https://img.example/p.jpg"}},
		},
		{
			AccountHandle: "minimal",
			Content:       "no extras here",
			CreatedAt:     time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		},
	}
}

func TestToCSVRoundTripsThroughReader(t *testing.T) {
	out := ToCSV(exportFixture())

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("output is not parseable CSV: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}

	wantHeader := "Username,Display Name,Content,Likes,Retweets,Replies,Date,URL"
	if got := strings.Join(records[0], ","); got != wantHeader {
		t.Fatalf("header = %q, want %q", got, wantHeader)
	}

	row := records[1]
	if row[0] != "gopher" || row[1] != "Go Blog" {
		t.Fatalf("unexpected account columns: %v", row)
	}
	if row[2] != `He said "hi" and left` {
		t.Fatalf("embedded quotes did not survive the round trip: %q", row[2])
	}
	if row[3] != "1500" || row[4] != "20" || row[5] != "3" {
		t.Fatalf("unexpected count columns: %v", row)
	}
	if row[6] != "3/1/2026, 2:30:05 PM" {
		t.Fatalf("unexpected date column: %q", row[6])
	}
}

func TestToCSVQuotesEveryTextField(t *testing.T) {
	out := ToCSV(exportFixture()[1:])

	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[1], `"minimal",`) {
		t.Fatalf("text fields should be quoted, got %q", lines[1])
	}
	// Missing URL still renders as an (empty, quoted) column.
	if !strings.HasSuffix(lines[1], `,""`) {
		t.Fatalf("missing URL should be an empty quoted field, got %q", lines[1])
	}
}

func TestToJSONRoundTrip(t *testing.T) {
	out, err := ToJSON(exportFixture())
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	var rows []Row
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("output is not parseable JSON: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	first := rows[0]
	if first.Username != "gopher" || first.Likes != 1500 {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if first.Date != "2026-03-01T14:30:05Z" {
		t.Fatalf("unexpected date: %q", first.Date)
	}
	if first.URL == nil || *first.URL != "https://x.com/gopher/status/1" {
		t.Fatalf("unexpected url: %v", first.URL)
	}
	if first.Sentiment == nil || *first.Sentiment != "positive" {
		t.Fatalf("unexpected sentiment: %v", first.Sentiment)
	}
	if first.MediaType == nil || *first.MediaType != "photo" {
		t.Fatalf("unexpected media type: %v", first.MediaType)
	}

	second := rows[1]
	if second.URL != nil || second.Sentiment != nil || second.MediaType != nil {
		t.Fatalf("absent optionals should be null, got %+v", second)
	}
}

func TestToJSONNullsAreExplicit(t *testing.T) {
	out, err := ToJSON(exportFixture()[1:])
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	// Keys must be present with null values, not omitted.
	for _, key := range []string{`"url": null`, `"sentiment": null`, `"mediaType": null`} {
		if !strings.Contains(out, key) {
			t.Fatalf("expected %s in output:\n%s", key, out)
		}
	}
}

func TestToJSONEmptyList(t *testing.T) {
	out, err := ToJSON(nil)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if out != "[]" {
		t.Fatalf("expected empty array, got %q", out)
	}
}

func TestFileName(t *testing.T) {
	now := time.Date(2026, 8, 29, 23, 59, 0, 0, time.UTC)
	if got := FileName("csv", now); got != "tweets_2026-08-29.csv" {
		t.Fatalf("unexpected csv name: %q", got)
	}
	if got := FileName(".json", now); got != "tweets_2026-08-29.json" {
		t.Fatalf("unexpected json name: %q", got)
	}
}
