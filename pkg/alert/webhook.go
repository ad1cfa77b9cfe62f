package alert

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Webhook posts viral-tweet events to a generic HTTP endpoint, for wiring
// into automations that are not Slack or Discord.
type Webhook struct {
	client *http.Client
	url    string
	secret string
}

// webhookPayload is the JSON body of a webhook delivery. The triggering
// tweet is flattened to the fields a receiver typically keys on.
type webhookPayload struct {
	Event      string    `json:"event"`
	Title      string    `json:"title"`
	Body       string    `json:"body,omitempty"`
	URL        string    `json:"url,omitempty"`
	Engagement int       `json:"engagement"`
	Handle     string    `json:"handle,omitempty"`
	TweetURL   string    `json:"tweet_url,omitempty"`
	SentAt     time.Time `json:"sent_at"`
}

// NewWebhook creates a webhook notifier. With a non-empty secret every
// delivery carries an HMAC-SHA256 signature over the body in
// X-Signature-256, GitHub-webhook style, so receivers can verify origin.
func NewWebhook(url, secret string) *Webhook {
	return &Webhook{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
		secret: secret,
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Send(ctx context.Context, n *Notification) error {
	p := webhookPayload{
		Event:      "viral_tweet",
		Title:      n.Title,
		Body:       n.Body,
		URL:        n.URL,
		Engagement: n.Score,
		SentAt:     time.Now().UTC(),
	}
	if n.Tweet != nil {
		p.Handle = n.Tweet.AccountHandle
		p.TweetURL = n.Tweet.URL
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "tweetwatch/1.0")

	if w.secret != "" {
		mac := hmac.New(sha256.New, []byte(w.secret))
		mac.Write(body)
		req.Header.Set("X-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}

	return nil
}
