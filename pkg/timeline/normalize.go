package timeline

import (
	"sort"
	"time"

	"github.com/tweetwatch/tweetwatch/pkg/tweet"
)

// rawTweet carries every field-name variant observed across the upstream
// endpoints (favorite_count vs favorites vs likes and friends). All lookup
// of optional/alternate fields stays here; nothing past this file sees them.
type rawTweet struct {
	ID      string `json:"id"`
	TweetID string `json:"tweet_id"`

	Text     string `json:"text"`
	FullText string `json:"full_text"`

	CreatedAt  string `json:"createdAt"`
	CreatedAt2 string `json:"created_at"`

	LikeCount     int `json:"likeCount"`
	FavoriteCount int `json:"favorite_count"`
	Favorites     int `json:"favorites"`
	Likes         int `json:"likes"`

	RetweetCount  int `json:"retweetCount"`
	RetweetCount2 int `json:"retweet_count"`
	Retweets      int `json:"retweets"`

	ReplyCount  int `json:"replyCount"`
	ReplyCount2 int `json:"reply_count"`
	Replies     int `json:"replies"`

	ViewCount int `json:"viewCount"`
	Views     int `json:"views"`

	URL        string `json:"url"`
	TwitterURL string `json:"twitterUrl"`

	ConversationID string `json:"conversationId"`
	InReplyToID    string `json:"inReplyToId"`

	Author struct {
		UserName   string `json:"userName"`
		ScreenName string `json:"screen_name"`
		Name       string `json:"name"`
		Avatar     string `json:"avatar"`
	} `json:"author"`

	ExtendedEntities struct {
		Media []rawMedia `json:"media"`
	} `json:"extendedEntities"`
	MediaURL string `json:"media_url"`
}

type rawMedia struct {
	Type          string `json:"type"`
	MediaURLHTTPS string `json:"media_url_https"`
	VideoInfo     struct {
		Variants []struct {
			ContentType string `json:"content_type"`
			Bitrate     int    `json:"bitrate"`
			URL         string `json:"url"`
		} `json:"variants"`
	} `json:"video_info"`
}

// createdAtLayouts covers RFC3339 plus Twitter's legacy timestamp format.
var createdAtLayouts = []string{
	time.RFC3339,
	"Mon Jan 02 15:04:05 -0700 2006",
}

// Normalize maps one upstream tweet into the canonical shape.
func Normalize(r rawTweet, fetchedAt time.Time) tweet.Tweet {
	t := tweet.Tweet{
		ExternalID:   firstNonEmpty(r.ID, r.TweetID),
		Content:      firstNonEmpty(r.Text, r.FullText),
		URL:          firstNonEmpty(r.URL, r.TwitterURL),
		CreatedAt:    parseCreatedAt(firstNonEmpty(r.CreatedAt, r.CreatedAt2), fetchedAt),
		FetchedAt:    fetchedAt,
		LikeCount:    firstNonZero(r.LikeCount, r.FavoriteCount, r.Favorites, r.Likes),
		RetweetCount: firstNonZero(r.RetweetCount, r.RetweetCount2, r.Retweets),
		ReplyCount:   firstNonZero(r.ReplyCount, r.ReplyCount2, r.Replies),
		ViewCount:    firstNonZero(r.ViewCount, r.Views),
		Media:        normalizeMedia(r),
	}

	// A tweet in a conversation other than its own is part of a thread.
	if r.ConversationID != "" && (r.InReplyToID != "" || r.ConversationID != t.ExternalID) {
		t.IsThread = true
		t.ThreadID = r.ConversationID
	}

	return t
}

// NormalizeBatch maps a fetched page and assigns thread positions: within
// each conversation, tweets are numbered by creation time ascending. A
// conversation root carries its own id as the conversation id, so Normalize
// alone cannot tell it from a lone tweet; once the page is grouped, any tweet
// whose id other tweets name as their thread is pulled into that thread.
func NormalizeBatch(raws []rawTweet, fetchedAt time.Time) []tweet.Tweet {
	out := make([]tweet.Tweet, 0, len(raws))
	for _, r := range raws {
		t := Normalize(r, fetchedAt)
		if t.ExternalID == "" {
			continue
		}
		out = append(out, t)
	}

	referenced := make(map[string]bool)
	for _, t := range out {
		if t.IsThread {
			referenced[t.ThreadID] = true
		}
	}
	for i := range out {
		if !out[i].IsThread && referenced[out[i].ExternalID] {
			out[i].IsThread = true
			out[i].ThreadID = out[i].ExternalID
		}
	}

	byThread := make(map[string][]int)
	for i, t := range out {
		if t.IsThread {
			byThread[t.ThreadID] = append(byThread[t.ThreadID], i)
		}
	}
	for _, idxs := range byThread {
		sort.SliceStable(idxs, func(a, b int) bool {
			return out[idxs[a]].CreatedAt.Before(out[idxs[b]].CreatedAt)
		})
		for pos, i := range idxs {
			out[i].ThreadPosition = pos
		}
	}

	return out
}

// normalizeMedia picks the usable URL per attachment: the best-bitrate mp4
// for videos and gifs, the https still for photos.
func normalizeMedia(r rawTweet) []tweet.Media {
	var out []tweet.Media

	for _, m := range r.ExtendedEntities.Media {
		typ := m.Type
		if typ == "" {
			typ = "photo"
		}
		media := tweet.Media{Type: typ}

		if typ == "video" || typ == "animated_gif" {
			media.ThumbnailURL = m.MediaURLHTTPS
			best := 0
			for _, v := range m.VideoInfo.Variants {
				if v.ContentType == "video/mp4" && (media.URL == "" || v.Bitrate > best) {
					media.URL = v.URL
					best = v.Bitrate
				}
			}
		} else {
			media.URL = m.MediaURLHTTPS
		}

		if media.URL != "" || media.ThumbnailURL != "" {
			out = append(out, media)
		}
	}

	if out == nil && r.MediaURL != "" {
		out = append(out, tweet.Media{Type: "photo", URL: r.MediaURL})
	}

	return out
}

func parseCreatedAt(s string, fallback time.Time) time.Time {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return fallback
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
