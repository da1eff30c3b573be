package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"eectl/internal/domain"
	"eectl/internal/logger"
)

// Client registration for the token-refresh strategy. These values are
// issued once per client application and are not per-user secrets.
const (
	tokenEndpoint = "https://accounts.google.com/o/oauth2/token"
	oauthClientID = "517222506229.apps.googleusercontent.com"
	oauthSecret   = "F5kWJIl6pZm9Qc0ZC1nVXhkW"
)

var (
	ErrAuth        = errors.New("session initialization rejected")
	ErrStatusFetch = errors.New("task status fetch failed")
)

// Client talks to the remote geospatial-analysis service. It must be
// initialized with credentials before any status query.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	logger       *logger.Logger
	sessionToken string
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Logger  *logger.Logger
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log,
	}
}

type sessionRequest struct {
	Credentials  domain.CredentialKind `json:"credentials"`
	Account      string                `json:"account,omitempty"`
	PrivateKey   string                `json:"private_key,omitempty"`
	RefreshToken string                `json:"refresh_token,omitempty"`
	TokenURL     string                `json:"token_url,omitempty"`
	ClientID     string                `json:"client_id,omitempty"`
	ClientSecret string                `json:"client_secret,omitempty"`
}

type sessionResponse struct {
	Token string `json:"token"`
}

// Initialize establishes a session using the selected credential
// strategy. On success the session token is kept for later calls.
func (c *Client) Initialize(ctx context.Context, creds domain.Credentials) error {
	req := sessionRequest{Credentials: creds.Kind}
	switch creds.Kind {
	case domain.CredentialServiceAccount:
		req.Account = creds.Account
		req.PrivateKey = creds.PrivateKey
	case domain.CredentialRefreshToken:
		req.RefreshToken = creds.RefreshToken
		req.TokenURL = tokenEndpoint
		req.ClientID = oauthClientID
		req.ClientSecret = oauthSecret
	}

	url := fmt.Sprintf("%s/v1/sessions", c.baseURL)
	respBody, status, err := c.post(ctx, url, req, false)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}
	if status != http.StatusOK {
		c.logger.Warnw("session rejected", "status", status, "strategy", creds.Kind)
		return fmt.Errorf("%w: server returned status %d: %s", ErrAuth, status, respBody)
	}

	var session sessionResponse
	if err := json.Unmarshal(respBody, &session); err != nil {
		return fmt.Errorf("%w: failed to parse response: %v", ErrAuth, err)
	}
	c.sessionToken = session.Token

	c.logger.Debugw("session established", "strategy", creds.Kind)
	return nil
}

type statusRequest struct {
	IDs []string `json:"ids"`
}

type statusResponse struct {
	Statuses []domain.TaskStatus `json:"statuses"`
}

// GetTaskStatus fetches the current status of one or more tasks in a
// single call. Transient failures are not retried.
func (c *Client) GetTaskStatus(ctx context.Context, ids []string) ([]domain.TaskStatus, error) {
	url := fmt.Sprintf("%s/v1/tasks/status", c.baseURL)
	respBody, status, err := c.post(ctx, url, statusRequest{IDs: ids}, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStatusFetch, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: server returned status %d: %s", ErrStatusFetch, status, respBody)
	}

	var parsed statusResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", ErrStatusFetch, err)
	}
	if len(parsed.Statuses) != len(ids) {
		return nil, fmt.Errorf("%w: requested %d tasks, got %d statuses", ErrStatusFetch, len(ids), len(parsed.Statuses))
	}
	return parsed.Statuses, nil
}

func (c *Client) post(ctx context.Context, url string, payload any, authed bool) ([]byte, int, error) {
	start := time.Now()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.New().String()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", requestID)
	if authed && c.sessionToken != "" {
		httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.sessionToken))
	}

	c.logger.Debugw("api request",
		"url", url,
		"request_id", requestID,
		"payload_bytes", len(body),
	)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warnw("api network error", "url", url, "request_id", requestID, "error", err)
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debugw("api response",
		"url", url,
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return respBody, resp.StatusCode, nil
}
