package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/RainInQAQ/new-api-admin/internal/config"
	"github.com/RainInQAQ/new-api-admin/internal/constants"
	"github.com/RainInQAQ/new-api-admin/internal/http"
	"github.com/RainInQAQ/new-api-admin/internal/models"
	"github.com/RainInQAQ/new-api-admin/internal/version"
)

// retryLogger bridges the retryablehttp.LeveledLogger interface to zerolog.
// Info and Debug are suppressed: retry chatter is only interesting when
// something is going wrong.
type retryLogger struct{}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	log.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	log.Warn().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{})  {}
func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {}

// envelope is the response wrapper every new-api endpoint uses.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client talks to the admin endpoints of a new-api deployment.
type Client struct {
	httpClient *nethttp.Client
	baseURL    string
	token      string
}

// NewClient creates an API client from cfg. The underlying transport
// retries transient failures with backoff; backend rejections
// (success=false) are never retried.
func NewClient(cfg *config.Config) (*Client, error) {
	httpClient, err := http.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = constants.APIRetryMax
	retryClient.RetryWaitMin = constants.APIRetryWaitMin
	retryClient.RetryWaitMax = constants.APIRetryWaitMax
	retryClient.Logger = &retryLogger{}

	return &Client{
		httpClient: retryClient.StandardClient(),
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		token:      cfg.AccessToken,
	}, nil
}

// doRequest performs an HTTP request with authentication and decodes the
// response envelope, returning the raw data payload. A success=false
// envelope comes back as *APIError carrying the backend message verbatim.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "newapi-admin/"+version.Version)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Not an envelope at all: auth proxies and load balancers answer
		// with plain text or HTML on their own failures.
		return nil, fmt.Errorf("%s %s: status %d: unexpected response body", method, path, resp.StatusCode)
	}

	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("request rejected with status %d", resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	return env.Data, nil
}

// FetchPage retrieves one page of the user collection at the 0-based fetch
// index. A short or empty result signals the end of the collection.
func (c *Client) FetchPage(ctx context.Context, fetchIndex int) ([]models.User, error) {
	data, err := c.doRequest(ctx, nethttp.MethodGet, fmt.Sprintf("/api/user/?p=%d", fetchIndex), nil)
	if err != nil {
		return nil, err
	}

	var users []models.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to decode user page: %w", err)
	}
	return users, nil
}

// Search returns the full, unpaginated result set matching the keyword and
// group filters.
func (c *Client) Search(ctx context.Context, keyword, group string) ([]models.User, error) {
	q := url.Values{}
	q.Set("keyword", keyword)
	q.Set("group", group)

	data, err := c.doRequest(ctx, nethttp.MethodGet, "/api/user/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var users []models.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}
	return users, nil
}

// Groups returns the group labels available as a search filter.
func (c *Client) Groups(ctx context.Context) ([]string, error) {
	data, err := c.doRequest(ctx, nethttp.MethodGet, "/api/group/", nil)
	if err != nil {
		return nil, err
	}

	var groups []string
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode group list: %w", err)
	}
	return groups, nil
}

// Manage applies a state transition to a user server-side and returns the
// resulting record. For delete the backend returns no record and the result
// is nil.
func (c *Client) Manage(ctx context.Context, username string, action models.UserAction) (*models.User, error) {
	if !models.ValidAction(action) {
		return nil, fmt.Errorf("invalid user action: %q", action)
	}

	body := map[string]string{
		"username": username,
		"action":   string(action),
	}
	data, err := c.doRequest(ctx, nethttp.MethodPost, "/api/user/manage", body)
	if err != nil {
		return nil, err
	}

	if action == models.ActionDelete || len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to decode managed user: %w", err)
	}
	return &user, nil
}
