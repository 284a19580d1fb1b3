// Package wordpress publishes articles to a WordPress site through its REST
// API using an application password.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client publishes posts to arbitrary WordPress sites. One client serves all
// sites; credentials travel per request.
type Client struct {
	httpClient *http.Client
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{httpClient: httpClient}
}

// Post is the input for publishing one article.
type Post struct {
	SiteURL             string
	Username            string
	ApplicationPassword string
	Title               string
	Content             string
	Status              string // "draft" or "publish"
}

// Published describes the created WordPress post.
type Published struct {
	PostID  int64
	PostURL string
	EditURL string
}

// PublishError carries the WordPress HTTP status and error body.
type PublishError struct {
	StatusCode int
	Message    string
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("wordpress: HTTP %d: %s", e.StatusCode, e.Message)
}

type wpPostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Status  string `json:"status"`
}

type wpPostResponse struct {
	ID   int64  `json:"id"`
	Link string `json:"link"`
	// WordPress error shape
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Publish creates a post via POST {site}/wp-json/wp/v2/posts with Basic auth.
func (c *Client) Publish(ctx context.Context, post Post) (*Published, error) {
	site := strings.TrimRight(post.SiteURL, "/")
	endpoint := site + "/wp-json/wp/v2/posts"

	payload, err := json.Marshal(wpPostRequest{
		Title:   post.Title,
		Content: post.Content,
		Status:  post.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(post.Username, post.ApplicationPassword)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wordpress request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading wordpress response: %w", err)
	}

	var parsed wpPostResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &PublishError{StatusCode: resp.StatusCode, Message: string(raw)}
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		message := parsed.Message
		if message == "" {
			message = string(raw)
		}
		return nil, &PublishError{StatusCode: resp.StatusCode, Message: message}
	}

	return &Published{
		PostID:  parsed.ID,
		PostURL: parsed.Link,
		EditURL: fmt.Sprintf("%s/wp-admin/post.php?post=%d&action=edit", site, parsed.ID),
	}, nil
}

// CheckCredentials verifies the site URL and application password by fetching
// the authenticated user via GET {site}/wp-json/wp/v2/users/me.
func (c *Client) CheckCredentials(ctx context.Context, siteURL, username, applicationPassword string) error {
	site := strings.TrimRight(siteURL, "/")
	endpoint := site + "/wp-json/wp/v2/users/me"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.SetBasicAuth(username, applicationPassword)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wordpress request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		var parsed wpPostResponse
		message := string(raw)
		if json.Unmarshal(raw, &parsed) == nil && parsed.Message != "" {
			message = parsed.Message
		}
		return &PublishError{StatusCode: resp.StatusCode, Message: message}
	}
	return nil
}
