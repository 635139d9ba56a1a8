// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

// Package api is the outbound REST client for the Zoom API. It carries two
// OAuth identities: the service's own Server-to-Server app (account
// credentials grant) for bot-account operations, and the user-level app's
// client credentials for refresh-token exchanges on behalf of hosts.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/meetscribe/meeting-recorder-service/internal/logging"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// BaseURL is the base URL for the Zoom API
	BaseURL = "https://api.zoom.us/v2"
	// AuthURL is the OAuth token endpoint
	AuthURL = "https://zoom.us/oauth/token"
	// DefaultClientTimeout is the default HTTP client timeout for API requests
	DefaultClientTimeout = 30 * time.Second
	// Default retry configuration
	DefaultMaxRetries        = 3
	DefaultInitialBackoff    = 1 * time.Second
	DefaultMaxBackoff        = 30 * time.Second
	DefaultBackoffMultiplier = 2.0
)

// Config holds the configuration for the Zoom client.
type Config struct {
	// Server-to-Server OAuth app used for the bot account's own API calls.
	AccountID    string
	ClientID     string
	ClientSecret string
	// User-level OAuth app whose client credentials authenticate
	// refresh-token exchanges for hosts.
	UserClientID     string
	UserClientSecret string
	// Optional overrides for testing.
	BaseURL string
	AuthURL string
	Timeout time.Duration
	// Optional retry configuration.
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// Client is a Zoom API client.
type Client struct {
	httpClient  *http.Client
	config      Config
	oauthConfig *clientcredentials.Config
}

// NewClient creates a new Zoom API client.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = BaseURL
	}
	if config.AuthURL == "" {
		config.AuthURL = AuthURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultClientTimeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.InitialBackoff == 0 {
		config.InitialBackoff = DefaultInitialBackoff
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = DefaultMaxBackoff
	}
	if config.BackoffMultiplier == 0 {
		config.BackoffMultiplier = DefaultBackoffMultiplier
	}

	// Zoom Server-to-Server OAuth requires the account_credentials grant
	// with the account ID passed as a form parameter.
	oauthConfig := &clientcredentials.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenURL:     config.AuthURL,
		EndpointParams: url.Values{
			"grant_type": []string{"account_credentials"},
			"account_id": []string{config.AccountID},
		},
		AuthStyle: oauth2.AuthStyleInParams,
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config:      config,
		oauthConfig: oauthConfig,
	}
}

// serviceClient returns an HTTP client that authenticates with the
// Server-to-Server OAuth token, refreshing it transparently.
func (c *Client) serviceClient(ctx context.Context) *http.Client {
	return &http.Client{
		Timeout: c.config.Timeout,
		Transport: &oauth2.Transport{
			Base:   http.DefaultTransport,
			Source: c.oauthConfig.TokenSource(ctx),
		},
	}
}

// shouldRetry determines if an error or HTTP status code should be retried.
func shouldRetry(statusCode int, err error) bool {
	if err != nil {
		if ctxErr, ok := err.(interface{ Err() error }); ok {
			if ctxErr.Err() == context.Canceled || ctxErr.Err() == context.DeadlineExceeded {
				return false
			}
		}
		// Retry on network/connection errors.
		return true
	}
	if statusCode >= 500 && statusCode < 600 {
		return true
	}
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	return false
}

// calculateBackoff computes the backoff for a retry attempt with jitter.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return c.config.InitialBackoff
	}

	backoff := float64(c.config.InitialBackoff) * math.Pow(c.config.BackoffMultiplier, float64(attempt))
	if time.Duration(backoff) > c.config.MaxBackoff {
		backoff = float64(c.config.MaxBackoff)
	}

	// ±25% jitter to prevent thundering herd.
	jitter := backoff * 0.25 * (rand.Float64()*2 - 1)
	backoffWithJitter := time.Duration(backoff + jitter)
	if backoffWithJitter < c.config.InitialBackoff {
		backoffWithJitter = c.config.InitialBackoff
	}

	return backoffWithJitter
}

// doRequest performs an HTTP request against the Zoom API with retries.
// When accessToken is non-empty the call is made with that bearer token
// (acting on behalf of a host); otherwise it uses the service account.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, accessToken string) (*http.Response, error) {
	jsonBody, err := marshalRequestBody(body)
	if err != nil {
		return nil, err
	}

	reqURL := c.config.BaseURL + path
	var lastErr error
	var lastResp *http.Response

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.calculateBackoff(attempt - 1)
			slog.DebugContext(ctx, "retrying Zoom API request",
				"attempt", attempt, "backoff", backoff.String(), "path", path)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		var reqBody io.Reader
		if jsonBody != nil {
			reqBody = bytes.NewReader(jsonBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if jsonBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		httpClient := c.httpClient
		if accessToken != "" {
			req.Header.Set("Authorization", "Bearer "+accessToken)
		} else {
			httpClient = c.serviceClient(ctx)
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			if !shouldRetry(0, err) {
				return nil, err
			}
			continue
		}

		if !shouldRetry(resp.StatusCode, nil) {
			return resp, nil
		}

		// Drain the retryable response so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		lastResp = resp
		lastErr = fmt.Errorf("zoom API returned status %d", resp.StatusCode)
	}

	if lastResp != nil {
		slog.WarnContext(ctx, "Zoom API request exhausted retries",
			logging.ErrKey, lastErr, "status", lastResp.StatusCode, "path", path)
	}
	return nil, fmt.Errorf("zoom API request failed after %d retries: %w", c.config.MaxRetries, lastErr)
}

func marshalRequestBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return jsonBody, nil
}

// zoomAPIError is Zoom's error envelope.
type zoomAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// parseErrorResponse extracts an error from a Zoom API error body.
func parseErrorResponse(body []byte) error {
	var apiErr zoomAPIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("zoom API error %d: %s", apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("zoom API error: %s", string(body))
}
