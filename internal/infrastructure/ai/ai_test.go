// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetscribe/meeting-recorder-service/internal/domain"
)

func writeAudioFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meeting.m4a")
	require.NoError(t, os.WriteFile(path, []byte("fake audio"), 0o600))
	return path
}

func TestTranscribeSendsMultipartAndParsesVerboseJSON(t *testing.T) {
	var gotAuth, gotModel, gotFormat, gotFilename string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/audio/transcriptions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotModel = r.FormValue("model")
		gotFormat = r.FormValue("response_format")
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		gotFilename = header.Filename

		json.NewEncoder(w).Encode(map[string]any{
			"text":     "hello from the meeting",
			"duration": 182.4,
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "sk-test", BaseURL: server.URL})
	transcriber := NewTranscriber(client)

	result, err := transcriber.Transcribe(context.Background(), writeAudioFixture(t))
	require.NoError(t, err)

	assert.Equal(t, "hello from the meeting", result.Text)
	assert.Equal(t, 182, result.DurationSeconds)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, DefaultTranscriptionModel, gotModel)
	assert.Equal(t, "verbose_json", gotFormat)
	assert.Equal(t, "meeting.m4a", gotFilename)
}

func TestTranscribeWithoutAPIKey(t *testing.T) {
	transcriber := NewTranscriber(NewClient(Config{}))

	_, err := transcriber.Transcribe(context.Background(), "meeting.m4a")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeUnavailable, domain.GetErrorType(err))
}

func TestTranscribeSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"file too large"}}`, http.StatusRequestEntityTooLarge)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "sk-test", BaseURL: server.URL})
	transcriber := NewTranscriber(client)

	_, err := transcriber.Transcribe(context.Background(), writeAudioFixture(t))
	assert.ErrorContains(t, err, "HTTP 413")
}

func TestSummarizeParsesStructuredContent(t *testing.T) {
	var gotRequest chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		content, _ := json.Marshal(map[string]any{
			"summary":     "The team agreed to ship on Friday.",
			"actionItems": []string{"Alex: prepare release notes"},
		})
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": string(content)}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "sk-test", BaseURL: server.URL})
	summarizer := NewSummarizer(client)

	result, err := summarizer.Summarize(context.Background(), "transcript text")
	require.NoError(t, err)

	assert.Equal(t, "The team agreed to ship on Friday.", result.Summary)
	assert.Equal(t, []string{"Alex: prepare release notes"}, result.ActionItems)

	require.Len(t, gotRequest.Messages, 2)
	assert.Equal(t, "system", gotRequest.Messages[0].Role)
	assert.Equal(t, "transcript text", gotRequest.Messages[1].Content)
	assert.Equal(t, DefaultSummaryModel, gotRequest.Model)
	assert.Equal(t, "json_object", gotRequest.ResponseFormat.Type)
}

func TestSummarizeEmptyTranscript(t *testing.T) {
	summarizer := NewSummarizer(NewClient(Config{APIKey: "sk-test"}))

	_, err := summarizer.Summarize(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
}

func TestSummarizeRejectsEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "sk-test", BaseURL: server.URL})
	summarizer := NewSummarizer(client)

	_, err := summarizer.Summarize(context.Background(), "transcript")
	assert.ErrorContains(t, err, "no choices")
}
