package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/tweetwatch/tweetwatch/pkg/tweet"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrExists is returned when an insert collides with an existing row.
var ErrExists = errors.New("already exists")

// isUniqueViolation reports whether err is a sqlite UNIQUE constraint
// failure. The driver exposes no typed error, so the message is matched.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}

// maxListLimit caps a single tweet listing, matching the gateway contract.
const maxListLimit = 100

// ListOpts controls tweet listing.
type ListOpts struct {
	AccountID string
	Since     time.Time
	Limit     int
}

// Tag is a user-defined label that can be assigned to tracked accounts.
type Tag struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Color       string    `db:"color" json:"color"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SavedTweet bookmarks a tweet with optional notes.
type SavedTweet struct {
	TweetID     string    `db:"tweet_id" json:"tweet_id"`
	Category    string    `db:"category" json:"category"`
	Notes       string    `db:"notes" json:"notes"`
	IsReadLater bool      `db:"is_read_later" json:"is_read_later"`
	SavedAt     time.Time `db:"saved_at" json:"saved_at"`
}

// Store is the persistence interface.
type Store interface {
	AddAccount(ctx context.Context, a *tweet.Account) error
	GetAccount(ctx context.Context, id string) (*tweet.Account, error)
	ListAccounts(ctx context.Context) ([]tweet.Account, error)
	RemoveAccount(ctx context.Context, id string) error
	TouchAccountFetched(ctx context.Context, id string, at time.Time) error

	UpsertTweet(ctx context.Context, t *tweet.Tweet) error
	UpsertTweets(ctx context.Context, ts []tweet.Tweet) error
	GetTweet(ctx context.Context, id string) (*tweet.Tweet, error)
	ListTweets(ctx context.Context, opts ListOpts) ([]tweet.Tweet, error)

	SetSummary(ctx context.Context, tweetID, summary string) error
	SetTranslation(ctx context.Context, tweetID, translation string) error
	SetSentiment(ctx context.Context, tweetID string, s tweet.Sentiment) error

	CreateTag(ctx context.Context, t *Tag) error
	ListTags(ctx context.Context) ([]Tag, error)
	DeleteTag(ctx context.Context, id string) error
	AssignTag(ctx context.Context, accountID, tagID string) error
	UnassignTag(ctx context.Context, accountID, tagID string) error
	ListAccountTags(ctx context.Context, accountID string) ([]Tag, error)

	SaveTweet(ctx context.Context, s *SavedTweet) error
	UnsaveTweet(ctx context.Context, tweetID string) error
	ListSaved(ctx context.Context) ([]tweet.Tweet, error)

	Subscribe() <-chan Change
	Unsubscribe(ch <-chan Change)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sqlx.DB
	hub *changeHub
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, hub: newChangeHub()}, nil
}

func (s *SQLiteStore) Close() error {
	s.hub.close()
	return s.db.Close()
}

// Subscribe returns a channel signalling that tweets or accounts changed.
// Consumers reload in full on signal; no payload diff is carried.
func (s *SQLiteStore) Subscribe() <-chan Change {
	return s.hub.subscribe()
}

// Unsubscribe releases a subscription channel.
func (s *SQLiteStore) Unsubscribe(ch <-chan Change) {
	s.hub.unsubscribe(ch)
}

func (s *SQLiteStore) AddAccount(ctx context.Context, a *tweet.Account) error {
	if a.ID == "" {
		a.ID = "acct:" + a.Handle
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, handle, display_name, profile_image_url, added_by, created_at, last_fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Handle, a.DisplayName, a.ProfileImageURL, a.AddedBy, a.CreatedAt, a.LastFetchedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("add account @%s: %w", a.Handle, ErrExists)
	}
	if err != nil {
		return fmt.Errorf("add account @%s: %w", a.Handle, err)
	}
	s.hub.notify(ChangeAccounts)
	return nil
}

func (s *SQLiteStore) GetAccount(ctx context.Context, id string) (*tweet.Account, error) {
	var a tweet.Account
	err := s.db.GetContext(ctx, &a, "SELECT * FROM accounts WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", id, err)
	}
	return &a, nil
}

func (s *SQLiteStore) ListAccounts(ctx context.Context) ([]tweet.Account, error) {
	var accounts []tweet.Account
	err := s.db.SelectContext(ctx, &accounts, "SELECT * FROM accounts ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// RemoveAccount deletes the account and its tag assignments. Its tweets are
// kept; they simply stop joining to an owner.
func (s *SQLiteStore) RemoveAccount(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM account_tags WHERE account_id = ?", id); err != nil {
		return fmt.Errorf("remove account tags %s: %w", id, err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id); err != nil {
		return fmt.Errorf("remove account %s: %w", id, err)
	}
	s.hub.notify(ChangeAccounts)
	return nil
}

func (s *SQLiteStore) TouchAccountFetched(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, "UPDATE accounts SET last_fetched_at = ? WHERE id = ?", at, id)
	if err != nil {
		return fmt.Errorf("touch account %s: %w", id, err)
	}
	s.hub.notify(ChangeAccounts)
	return nil
}

// UpsertTweet inserts or updates a tweet keyed on external_id. Re-fetching
// the same remote tweet refreshes its counts instead of duplicating it.
// Enrichment columns (summary, translation, sentiment) are left untouched.
func (s *SQLiteStore) UpsertTweet(ctx context.Context, t *tweet.Tweet) error {
	if t.ID == "" {
		t.ID = "tweet:" + t.ExternalID
	}
	mediaJSON, _ := json.Marshal(t.Media)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tweets (id, external_id, account_id, content, url, created_at, fetched_at,
			like_count, retweet_count, reply_count, view_count, media,
			is_thread, thread_id, thread_position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_id) DO UPDATE SET
			content = excluded.content,
			like_count = excluded.like_count,
			retweet_count = excluded.retweet_count,
			reply_count = excluded.reply_count,
			view_count = excluded.view_count,
			fetched_at = excluded.fetched_at,
			media = excluded.media,
			is_thread = excluded.is_thread,
			thread_id = excluded.thread_id,
			thread_position = excluded.thread_position
	`, t.ID, t.ExternalID, t.AccountID, t.Content, t.URL, t.CreatedAt, t.FetchedAt,
		t.LikeCount, t.RetweetCount, t.ReplyCount, t.ViewCount, string(mediaJSON),
		t.IsThread, t.ThreadID, t.ThreadPosition)
	if err != nil {
		return fmt.Errorf("upsert tweet %s: %w", t.ExternalID, err)
	}
	s.hub.notify(ChangeTweets)
	return nil
}

// UpsertTweets upserts tweets one by one. A batch is not atomic: earlier
// tweets stay written when a later one fails.
func (s *SQLiteStore) UpsertTweets(ctx context.Context, ts []tweet.Tweet) error {
	for i := range ts {
		if err := s.UpsertTweet(ctx, &ts[i]); err != nil {
			return err
		}
	}
	return nil
}

const tweetSelect = `
	SELECT t.*,
		IFNULL(a.handle, '') AS account_handle,
		IFNULL(a.display_name, '') AS account_display_name
	FROM tweets t
	LEFT JOIN accounts a ON a.id = t.account_id`

func (s *SQLiteStore) GetTweet(ctx context.Context, id string) (*tweet.Tweet, error) {
	var t tweet.Tweet
	err := s.db.GetContext(ctx, &t, tweetSelect+" WHERE t.id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tweet %s: %w", id, err)
	}
	decodeTweetJSON(&t)
	return &t, nil
}

func (s *SQLiteStore) ListTweets(ctx context.Context, opts ListOpts) ([]tweet.Tweet, error) {
	query := tweetSelect + " WHERE 1=1"
	var args []any

	if opts.AccountID != "" {
		query += " AND t.account_id = ?"
		args = append(args, opts.AccountID)
	}
	if !opts.Since.IsZero() {
		query += " AND t.created_at >= ?"
		args = append(args, opts.Since)
	}

	query += " ORDER BY t.created_at DESC LIMIT ?"

	limit := opts.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	args = append(args, limit)

	var tweets []tweet.Tweet
	if err := s.db.SelectContext(ctx, &tweets, query, args...); err != nil {
		return nil, fmt.Errorf("list tweets: %w", err)
	}

	for i := range tweets {
		decodeTweetJSON(&tweets[i])
	}
	return tweets, nil
}

func (s *SQLiteStore) SetSummary(ctx context.Context, tweetID, summary string) error {
	return s.setEnrichment(ctx, tweetID, "summary", summary)
}

func (s *SQLiteStore) SetTranslation(ctx context.Context, tweetID, translation string) error {
	return s.setEnrichment(ctx, tweetID, "translated_content", translation)
}

func (s *SQLiteStore) SetSentiment(ctx context.Context, tweetID string, sent tweet.Sentiment) error {
	b, _ := json.Marshal(sent)
	return s.setEnrichment(ctx, tweetID, "sentiment", string(b))
}

func (s *SQLiteStore) setEnrichment(ctx context.Context, tweetID, column, value string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE tweets SET "+column+" = ? WHERE id = ?", value, tweetID)
	if err != nil {
		return fmt.Errorf("set %s for %s: %w", column, tweetID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	s.hub.notify(ChangeTweets)
	return nil
}

func (s *SQLiteStore) CreateTag(ctx context.Context, t *Tag) error {
	if t.ID == "" {
		t.ID = "tag:" + t.Name
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (id, name, color, description, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, t.ID, t.Name, t.Color, t.Description, t.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("create tag %s: %w", t.Name, ErrExists)
	}
	if err != nil {
		return fmt.Errorf("create tag %s: %w", t.Name, err)
	}
	return nil
}

func (s *SQLiteStore) ListTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := s.db.SelectContext(ctx, &tags, "SELECT * FROM tags ORDER BY name"); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (s *SQLiteStore) DeleteTag(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM account_tags WHERE tag_id = ?", id); err != nil {
		return fmt.Errorf("delete tag assignments %s: %w", id, err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete tag %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) AssignTag(ctx context.Context, accountID, tagID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO account_tags (account_id, tag_id, assigned_at)
		VALUES (?, ?, ?)
		ON CONFLICT(account_id, tag_id) DO NOTHING
	`, accountID, tagID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("assign tag %s to %s: %w", tagID, accountID, err)
	}
	return nil
}

func (s *SQLiteStore) UnassignTag(ctx context.Context, accountID, tagID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM account_tags WHERE account_id = ? AND tag_id = ?", accountID, tagID)
	if err != nil {
		return fmt.Errorf("unassign tag %s from %s: %w", tagID, accountID, err)
	}
	return nil
}

func (s *SQLiteStore) ListAccountTags(ctx context.Context, accountID string) ([]Tag, error) {
	var tags []Tag
	err := s.db.SelectContext(ctx, &tags, `
		SELECT tg.* FROM tags tg
		JOIN account_tags at ON at.tag_id = tg.id
		WHERE at.account_id = ?
		ORDER BY tg.name
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list account tags %s: %w", accountID, err)
	}
	return tags, nil
}

func (s *SQLiteStore) SaveTweet(ctx context.Context, sv *SavedTweet) error {
	if sv.SavedAt.IsZero() {
		sv.SavedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saved_tweets (tweet_id, category, notes, is_read_later, saved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(tweet_id) DO UPDATE SET
			category = excluded.category,
			notes = excluded.notes,
			is_read_later = excluded.is_read_later
	`, sv.TweetID, sv.Category, sv.Notes, sv.IsReadLater, sv.SavedAt)
	if err != nil {
		return fmt.Errorf("save tweet %s: %w", sv.TweetID, err)
	}
	return nil
}

func (s *SQLiteStore) UnsaveTweet(ctx context.Context, tweetID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM saved_tweets WHERE tweet_id = ?", tweetID)
	if err != nil {
		return fmt.Errorf("unsave tweet %s: %w", tweetID, err)
	}
	return nil
}

func (s *SQLiteStore) ListSaved(ctx context.Context) ([]tweet.Tweet, error) {
	var tweets []tweet.Tweet
	err := s.db.SelectContext(ctx, &tweets, tweetSelect+`
		JOIN saved_tweets sv ON sv.tweet_id = t.id
		ORDER BY sv.saved_at DESC LIMIT ?`, maxListLimit)
	if err != nil {
		return nil, fmt.Errorf("list saved tweets: %w", err)
	}
	for i := range tweets {
		decodeTweetJSON(&tweets[i])
	}
	return tweets, nil
}

func decodeTweetJSON(t *tweet.Tweet) {
	if t.MediaJSON != "" {
		json.Unmarshal([]byte(t.MediaJSON), &t.Media)
	}
	if t.SentimentJSON != "" {
		var sent tweet.Sentiment
		if json.Unmarshal([]byte(t.SentimentJSON), &sent) == nil {
			t.Sentiment = &sent
		}
	}
}
