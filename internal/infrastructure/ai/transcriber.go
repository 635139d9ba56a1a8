// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/meetscribe/meeting-recorder-service/internal/domain"
)

// Transcriber converts meeting audio into text via the audio transcriptions
// endpoint.
type Transcriber struct {
	client *Client
}

var _ domain.Transcriber = (*Transcriber)(nil)

// NewTranscriber creates a transcriber over the shared client.
func NewTranscriber(client *Client) *Transcriber {
	return &Transcriber{client: client}
}

// transcriptionResponse is the verbose_json transcription response; the
// duration field is only present in that format.
type transcriptionResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
}

// Transcribe uploads the audio file and returns the transcript text with the
// audio duration.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) (*domain.TranscriptResult, error) {
	if t.client.config.APIKey == "" {
		return nil, domain.NewUnavailableError("transcription API key not configured")
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("opening audio file: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("model", t.client.config.TranscriptionModel); err != nil {
		return nil, err
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return nil, err
	}
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copying audio file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.client.config.BaseURL+"/audio/transcriptions", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	respBody, err := t.client.do(req)
	if err != nil {
		return nil, err
	}

	var apiResp transcriptionResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("parsing transcription response: %w", err)
	}

	return &domain.TranscriptResult{
		Text:            apiResp.Text,
		DurationSeconds: int(apiResp.Duration),
	}, nil
}
