// Package export serializes tweet lists for file download. Encoders work on
// whatever filtered/sorted list the caller supplies and never re-filter or
// re-sort.
package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tweetwatch/tweetwatch/pkg/tweet"
)

// csvHeader matches the dashboard's historical export column order.
var csvHeader = []string{"Username", "Display Name", "Content", "Likes", "Retweets", "Replies", "Date", "URL"}

// dateLayout is the human-readable timestamp used in CSV rows.
const dateLayout = "1/2/2006, 3:04:05 PM"

// Row is the stable JSON export shape. Absent optional values serialize as
// null rather than being omitted, so consumers see a fixed key set.
type Row struct {
	Username    string  `json:"username"`
	DisplayName string  `json:"displayName"`
	Content     string  `json:"content"`
	Likes       int     `json:"likes"`
	Retweets    int     `json:"retweets"`
	Replies     int     `json:"replies"`
	Date        string  `json:"date"`
	URL         *string `json:"url"`
	Sentiment   *string `json:"sentiment"`
	MediaType   *string `json:"mediaType"`
}

// ToCSV encodes tweets as CSV with a header row. Every field is quoted and
// embedded double-quotes are escaped by doubling, per standard CSV quoting.
// Missing optional fields render as empty strings.
func ToCSV(tweets []tweet.Tweet) string {
	var b strings.Builder
	b.WriteString(strings.Join(csvHeader, ","))

	for _, t := range tweets {
		b.WriteByte('\n')
		fields := []string{
			quote(t.AccountHandle),
			quote(t.AccountDisplayName),
			quote(t.Content),
			fmt.Sprintf("%d", t.LikeCount),
			fmt.Sprintf("%d", t.RetweetCount),
			fmt.Sprintf("%d", t.ReplyCount),
			quote(t.CreatedAt.Format(dateLayout)),
			quote(t.URL),
		}
		b.WriteString(strings.Join(fields, ","))
	}

	return b.String()
}

// ToJSON encodes tweets as a pretty-printed JSON array with stable keys.
// Decoding the output recovers every listed field losslessly.
func ToJSON(tweets []tweet.Tweet) (string, error) {
	rows := make([]Row, 0, len(tweets))
	for _, t := range tweets {
		row := Row{
			Username:    t.AccountHandle,
			DisplayName: t.AccountDisplayName,
			Content:     t.Content,
			Likes:       t.LikeCount,
			Retweets:    t.RetweetCount,
			Replies:     t.ReplyCount,
			Date:        t.CreatedAt.UTC().Format(time.RFC3339),
		}
		if t.URL != "" {
			row.URL = ptr(t.URL)
		}
		if t.Sentiment != nil {
			row.Sentiment = ptr(string(t.Sentiment.Label))
		}
		if len(t.Media) > 0 {
			row.MediaType = ptr(t.Media[0].Type)
		}
		rows = append(rows, row)
	}

	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode export json: %w", err)
	}
	return string(b), nil
}

// FileName returns the dated download name, e.g. "tweets_2026-08-29.csv".
func FileName(ext string, now time.Time) string {
	return fmt.Sprintf("tweets_%s.%s", now.UTC().Format("2006-01-02"), strings.TrimPrefix(ext, "."))
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func ptr(s string) *string { return &s }
