// Package llm proxies the OpenRouter-compatible chat endpoint for tweet
// enrichment: summaries, translations, and sentiment scoring.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tweetwatch/tweetwatch/pkg/tweet"
)

// ErrEmptyText is returned when a caller submits blank input.
var ErrEmptyText = errors.New("empty text")

const (
	summarizePrompt = "Sen bir tweet analiz uzmanısın. Tweet'i Türkçe olarak özetle. Basit ve anlaşılır dil kullan. 2-3 cümle ile özetle."

	translateToEnglishPrompt = "You are a translator. Translate the given Turkish text to English. Only provide the translation, nothing else. Do not add any explanations or notes."
	translateToTurkishPrompt = "You are a translator. Translate the given text to Turkish. Only provide the translation, nothing else. Do not add any explanations or notes."

	sentimentPrompt = `You are a sentiment analysis expert. Analyze the sentiment of the given text and respond with ONLY a JSON object in this exact format: {"sentiment": "positive" or "negative" or "neutral", "score": 0.85, "reason": "brief explanation in Turkish"}. The score should be between 0 and 1 indicating confidence.`
)

// Client calls an OpenRouter-style chat completions API.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// NewClient creates an enrichment client.
func NewClient(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api"
	}
	if model == "" {
		model = "meta-llama/llama-3.1-8b-instruct:free"
	}
	return &Client{
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
	}
}

// Summarize produces a short Turkish summary of the tweet text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	user := fmt.Sprintf("Bu tweet'i Türkçe özetle:\n\n%q", text)
	out, err := c.chat(ctx, summarizePrompt, user, 0.7, 300)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Translate converts Turkish text to English and anything else to Turkish.
// The direction is decided from the text itself; callers never pass one.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	system := translateToTurkishPrompt
	if IsTurkish(text) {
		system = translateToEnglishPrompt
	}
	out, err := c.chat(ctx, system, text, 0.3, 1000)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// AnalyzeSentiment scores the tweet's tone. A response the model mangles
// (non-JSON, missing fields) degrades to a neutral default rather than an
// error; only transport and HTTP failures propagate.
func (c *Client) AnalyzeSentiment(ctx context.Context, text string) (tweet.Sentiment, error) {
	neutral := tweet.Sentiment{Label: tweet.SentimentNeutral, Score: 0.5}

	if strings.TrimSpace(text) == "" {
		return neutral, ErrEmptyText
	}

	user := fmt.Sprintf("Analyze the sentiment of this tweet:\n\n%s", text)
	out, err := c.chat(ctx, sentimentPrompt, user, 0.3, 150)
	if err != nil {
		return neutral, fmt.Errorf("sentiment: %w", err)
	}

	var parsed struct {
		Sentiment string  `json:"sentiment"`
		Score     float64 `json:"score"`
		Reason    string  `json:"reason"`
	}
	raw := extractJSONObject(out)
	if raw == "" || json.Unmarshal([]byte(raw), &parsed) != nil {
		return neutral, nil
	}

	label := tweet.SentimentLabel(parsed.Sentiment)
	switch label {
	case tweet.SentimentPositive, tweet.SentimentNegative, tweet.SentimentNeutral:
	default:
		return neutral, nil
	}

	return tweet.Sentiment{Label: label, Score: parsed.Score, Reason: parsed.Reason}, nil
}

func (c *Client) chat(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": temperature,
		"max_tokens":  maxTokens,
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Title", "tweetwatch")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call chat endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]any
		json.NewDecoder(resp.Body).Decode(&errResp)
		return "", fmt.Errorf("chat endpoint status %d: %v", resp.StatusCode, errResp)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("chat endpoint: no choices returned")
	}
	return result.Choices[0].Message.Content, nil
}

// extractJSONObject pulls the first {...} span out of a model reply,
// tolerating markdown fences and surrounding prose.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
