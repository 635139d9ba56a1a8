// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

// Package ai implements the transcription and summarization capabilities on
// top of the OpenAI REST API.
package ai

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 5 * time.Minute

	// DefaultTranscriptionModel is the speech-to-text model used for
	// recorded meeting audio.
	DefaultTranscriptionModel = "whisper-1"
	// DefaultSummaryModel is the chat model used to summarize transcripts.
	DefaultSummaryModel = "gpt-4o"
)

// Config configures the OpenAI-backed capabilities.
type Config struct {
	APIKey             string
	BaseURL            string
	TranscriptionModel string
	SummaryModel       string
	Timeout            time.Duration
}

// Client is the shared HTTP client for the OpenAI API.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a client, filling config defaults.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.TranscriptionModel == "" {
		config.TranscriptionModel = DefaultTranscriptionModel
	}
	if config.SummaryModel == "" {
		config.SummaryModel = DefaultSummaryModel
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// do sends the request with auth and reads the full response body, turning
// non-2xx statuses into errors carrying the API's message.
func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling OpenAI API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading OpenAI response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("OpenAI API error (HTTP %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}
