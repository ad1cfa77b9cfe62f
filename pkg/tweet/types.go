package tweet

import "time"

// SentimentLabel classifies the tone of a tweet.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// SortMode selects the ranking key for tweet lists.
type SortMode string

const (
	SortNewest     SortMode = "newest"
	SortPopular    SortMode = "popular"
	SortEngagement SortMode = "engagement"
)

// SortOrder flips the comparator direction. Descending is the common case.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// Account is a tracked Twitter/X handle.
type Account struct {
	ID              string     `json:"id" db:"id"`
	Handle          string     `json:"handle" db:"handle"`
	DisplayName     string     `json:"display_name" db:"display_name"`
	ProfileImageURL string     `json:"profile_image_url" db:"profile_image_url"`
	AddedBy         string     `json:"added_by" db:"added_by"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	LastFetchedAt   *time.Time `json:"last_fetched_at" db:"last_fetched_at"`
}

// Media is one attachment on a tweet.
type Media struct {
	Type         string `json:"type"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Sentiment is the cached result of a sentiment analysis call.
type Sentiment struct {
	Label  SentimentLabel `json:"label"`
	Score  float64        `json:"score"`
	Reason string         `json:"reason,omitempty"`
}

// Tweet is the canonical post model. Upstream API variants are mapped into
// this shape at the timeline/trending boundary; everything past that point
// works with Tweet only.
type Tweet struct {
	ID         string `json:"id" db:"id"`
	ExternalID string `json:"external_id" db:"external_id"`
	AccountID  string `json:"account_id" db:"account_id"`

	Content           string `json:"content" db:"content"`
	TranslatedContent string `json:"translated_content,omitempty" db:"translated_content"`
	Summary           string `json:"summary,omitempty" db:"summary"`
	URL               string `json:"url" db:"url"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	FetchedAt time.Time `json:"fetched_at" db:"fetched_at"`

	LikeCount    int `json:"like_count" db:"like_count"`
	RetweetCount int `json:"retweet_count" db:"retweet_count"`
	ReplyCount   int `json:"reply_count" db:"reply_count"`
	ViewCount    int `json:"view_count" db:"view_count"`

	Media []Media `json:"media,omitempty" db:"-"`

	// ThreadPosition is meaningful only when IsThread is true and
	// ThreadID is non-empty. Threads are totally ordered by it.
	IsThread       bool   `json:"is_thread" db:"is_thread"`
	ThreadID       string `json:"thread_id,omitempty" db:"thread_id"`
	ThreadPosition int    `json:"thread_position" db:"thread_position"`

	Sentiment *Sentiment `json:"sentiment,omitempty" db:"-"`

	// Denormalized owner fields, filled on load so that search and export
	// do not need a second lookup.
	AccountHandle      string `json:"account_handle,omitempty" db:"account_handle"`
	AccountDisplayName string `json:"account_display_name,omitempty" db:"account_display_name"`

	MediaJSON     string `json:"-" db:"media"`
	SentimentJSON string `json:"-" db:"sentiment"`
}

// EngagementScore is the unweighted engagement sum used for the "popular"
// sort and for picking the most engaged tweet.
func (t Tweet) EngagementScore() int {
	return t.LikeCount + t.RetweetCount + t.ReplyCount
}

// WeightedEngagement weighs replies highest, then retweets, then likes.
// The 1/2/3 weights are a product decision and must not be changed.
func (t Tweet) WeightedEngagement() int {
	return t.LikeCount*1 + t.RetweetCount*2 + t.ReplyCount*3
}
