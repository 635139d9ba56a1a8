// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/meetscribe/meeting-recorder-service/internal/domain"
)

const summarySystemPrompt = "You are an assistant that summarizes meeting transcripts. " +
	"Respond with a JSON object containing a \"summary\" string with a concise prose " +
	"summary of the meeting and an \"actionItems\" array of strings, one per concrete " +
	"action item with its owner when mentioned. Use an empty array when the meeting " +
	"produced no action items."

// Summarizer condenses transcripts into a summary and action items via the
// chat completions endpoint, using a JSON response format so the result is
// machine-parseable.
type Summarizer struct {
	client *Client
}

var _ domain.Summarizer = (*Summarizer)(nil)

// NewSummarizer creates a summarizer over the shared client.
func NewSummarizer(client *Client) *Summarizer {
	return &Summarizer{client: client}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Temperature float32 `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// summaryPayload is the JSON object the model is instructed to return.
type summaryPayload struct {
	Summary     string   `json:"summary"`
	ActionItems []string `json:"actionItems"`
}

// Summarize asks the chat model for a structured summary of the transcript.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (*domain.SummaryResult, error) {
	if s.client.config.APIKey == "" {
		return nil, domain.NewUnavailableError("summarization API key not configured")
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, domain.NewValidationError("transcript is empty")
	}

	reqBody := chatRequest{
		Model: s.client.config.SummaryModel,
		Messages: []chatMessage{
			{Role: "system", Content: summarySystemPrompt},
			{Role: "user", Content: transcript},
		},
		Temperature: 0.2,
	}
	reqBody.ResponseFormat.Type = "json_object"

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling summary request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.client.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, err := s.client.do(req)
	if err != nil {
		return nil, err
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("parsing summary response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("summary response contained no choices")
	}

	var payload summaryPayload
	if err := json.Unmarshal([]byte(apiResp.Choices[0].Message.Content), &payload); err != nil {
		return nil, fmt.Errorf("parsing summary content: %w", err)
	}

	return &domain.SummaryResult{
		Summary:     payload.Summary,
		ActionItems: payload.ActionItems,
	}, nil
}
