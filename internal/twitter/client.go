package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/Conceptual-Machines/stagepost-api/internal/apperrors"
	"github.com/mrjones/oauth"
)

const (
	// DefaultEndpoint is the X API v2 create-tweet endpoint
	DefaultEndpoint = "https://api.twitter.com/2/tweets"

	// MaxPostLength is the longest post X accepts, in characters
	MaxPostLength = 280

	maxErrorBodyChars = 300
)

// Credentials are the user's OAuth1 access token pair
type Credentials struct {
	AccessToken  string
	AccessSecret string
}

// Publisher posts content to the social network
type Publisher interface {
	Publish(ctx context.Context, content string, creds Credentials) (string, error)
}

// Client publishes posts through the X API v2, signing requests with OAuth1
type Client struct {
	consumer *oauth.Consumer
	endpoint string
}

// NewClient creates a publisher for the app's consumer key pair
func NewClient(apiKey, apiSecret string) *Client {
	return &Client{
		consumer: oauth.NewConsumer(apiKey, apiSecret, oauth.ServiceProvider{}),
		endpoint: DefaultEndpoint,
	}
}

// WithEndpoint points the client at another create-tweet URL
func (c *Client) WithEndpoint(endpoint string) *Client {
	c.endpoint = endpoint
	return c
}

type createTweetRequest struct {
	Text string `json:"text"`
}

type createTweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// ValidateContent checks a post is non-empty and within MaxPostLength
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperrors.Validation("content is required")
	}
	if n := utf8.RuneCountInString(content); n > MaxPostLength {
		return apperrors.Validation("content is %d characters, the limit is %d", n, MaxPostLength)
	}
	return nil
}

// Publish posts content and returns the new post id.
// Missing or rejected credentials yield apperrors.ErrPublishUnauthorized; any
// other failure is an apperrors.ErrPublish carrying the upstream message.
func (c *Client) Publish(ctx context.Context, content string, creds Credentials) (string, error) {
	if err := ValidateContent(content); err != nil {
		return "", err
	}
	if creds.AccessToken == "" || creds.AccessSecret == "" {
		return "", fmt.Errorf("%w: twitter account not connected", apperrors.ErrPublishUnauthorized)
	}

	httpClient, err := c.consumer.MakeHttpClient(&oauth.AccessToken{
		Token:  creds.AccessToken,
		Secret: creds.AccessSecret,
	})
	if err != nil {
		return "", apperrors.Publish(fmt.Errorf("oauth client: %w", err))
	}

	body, err := json.Marshal(createTweetRequest{Text: content})
	if err != nil {
		return "", apperrors.Publish(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.Publish(err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Printf("🐦 PUBLISHING POST (%d chars)", utf8.RuneCountInString(content))
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", apperrors.Publish(fmt.Errorf("post tweet: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.Publish(fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%w: %s", apperrors.ErrPublishUnauthorized, upstreamMessage(resp.StatusCode, raw))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", apperrors.Publish(fmt.Errorf("%s", upstreamMessage(resp.StatusCode, raw)))
	}

	var out createTweetResponse
	if err := json.Unmarshal(raw, &out); err != nil || out.Data.ID == "" {
		return "", apperrors.Publish(fmt.Errorf("unexpected response: %s", truncate(string(raw), maxErrorBodyChars)))
	}

	log.Printf("✅ POST PUBLISHED: id=%s", out.Data.ID)
	return out.Data.ID, nil
}

// upstreamMessage prefers the API's own detail/title over the raw body
func upstreamMessage(status int, raw []byte) string {
	var apiErr struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &apiErr); err == nil && (apiErr.Detail != "" || apiErr.Title != "") {
		if apiErr.Detail != "" {
			return fmt.Sprintf("status %d: %s", status, apiErr.Detail)
		}
		return fmt.Sprintf("status %d: %s", status, apiErr.Title)
	}
	return fmt.Sprintf("status %d: %s", status, truncate(string(raw), maxErrorBodyChars))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
