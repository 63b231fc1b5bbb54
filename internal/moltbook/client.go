// Package moltbook is a thin client for the Moltbook REST API. It is
// invoked only after content has cleared the PII guard; no checking
// happens here.
package moltbook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/TheSethRose/Moltbook-Wrapper/internal/cache"
	"github.com/TheSethRose/Moltbook-Wrapper/internal/config"
	"github.com/TheSethRose/Moltbook-Wrapper/internal/logger"
	"golang.org/x/time/rate"
)

// Client calls the Moltbook API with bearer authentication and
// client-side rate limiting.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache.ResponseCache
	logger     *logger.Logger
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}

// New creates a Moltbook client. The API key is required; it comes from
// the MOLTBOOK_API_KEY environment variable, never from the config file.
func New(cfg config.MoltbookConfig, apiKey string, log *logger.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key required: set MOLTBOOK_API_KEY")
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMin)/60.0), cfg.RequestsPerMin),
		logger:  log,
	}, nil
}

// SetCache attaches an optional response cache for GET endpoints.
func (c *Client) SetCache(rc *cache.ResponseCache) {
	c.cache = rc
}

// do executes a request against the API. The request body is marshaled
// from payload when non-nil; the raw response body is returned as-is so
// callers can print it without reshaping.
func (c *Client) do(ctx context.Context, method, endpoint string, payload any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.LogAPICall(method, endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	return data, nil
}

// get executes a GET request, consulting the response cache when one is
// attached.
func (c *Client) get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	if c.cache != nil {
		if cached, ok := c.cache.Get(ctx, endpoint); ok {
			return cached, nil
		}
	}

	data, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		// Best effort: a cache failure never fails the call.
		_ = c.cache.Store(ctx, endpoint, data)
	}
	return data, nil
}

// AgentStatus returns the agent claim status.
func (c *Client) AgentStatus(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "agents/status")
}

// AgentProfile returns the authenticated agent's profile.
func (c *Client) AgentProfile(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "agents/me")
}

// CreatePost creates a post. Callers are expected to go through the
// policy guard first.
func (c *Client) CreatePost(ctx context.Context, submolt, title, content, postURL string) (json.RawMessage, error) {
	payload := map[string]string{
		"submolt": submolt,
		"title":   title,
		"content": content,
	}
	if postURL != "" {
		payload["url"] = postURL
	}
	return c.do(ctx, http.MethodPost, "posts", payload)
}

// ListPosts lists posts, optionally filtered by submolt.
func (c *Client) ListPosts(ctx context.Context, submolt, sort string, limit int) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("sort", sort)
	query.Set("limit", strconv.Itoa(limit))
	if submolt != "" {
		query.Set("submolt", submolt)
	}
	return c.get(ctx, "posts?"+query.Encode())
}

// GetPost returns a single post with comments.
func (c *Client) GetPost(ctx context.Context, postID string) (json.RawMessage, error) {
	return c.get(ctx, "posts/"+url.PathEscape(postID))
}

// DeletePost deletes one of the agent's own posts.
func (c *Client) DeletePost(ctx context.Context, postID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, "posts/"+url.PathEscape(postID), nil)
}

// VotePost toggles an upvote on a post.
func (c *Client) VotePost(ctx context.Context, postID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "posts/"+url.PathEscape(postID)+"/upvote", nil)
}

// CreateComment adds a comment to a post, optionally as a reply.
func (c *Client) CreateComment(ctx context.Context, postID, content, parentID string) (json.RawMessage, error) {
	payload := map[string]string{"content": content}
	if parentID != "" {
		payload["parent_id"] = parentID
	}
	return c.do(ctx, http.MethodPost, "posts/"+url.PathEscape(postID)+"/comments", payload)
}

// ListSubmolts lists all submolts.
func (c *Client) ListSubmolts(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "submolts")
}

// Subscribe subscribes the agent to a submolt.
func (c *Client) Subscribe(ctx context.Context, name string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "submolts/"+url.PathEscape(name)+"/subscribe", nil)
}

// Search searches posts.
func (c *Client) Search(ctx context.Context, queryText string, limit int) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("q", queryText)
	query.Set("limit", strconv.Itoa(limit))
	return c.get(ctx, "search?"+query.Encode())
}
