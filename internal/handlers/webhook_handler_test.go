// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/meetscribe/meeting-recorder-service/internal/domain"
	"github.com/meetscribe/meeting-recorder-service/internal/domain/mocks"
	"github.com/meetscribe/meeting-recorder-service/internal/domain/models"
	"github.com/meetscribe/meeting-recorder-service/internal/infrastructure/zoom/webhook"
	"github.com/meetscribe/meeting-recorder-service/internal/service"
)

const testSecret = "test-webhook-secret"

// handlerFixture wires real services over mocked infrastructure.
type handlerFixture struct {
	mux      http.Handler
	sessions *mocks.MockSessionRepository
	platform *mocks.MockPlatformClient
	creds    *mocks.MockCredentialRepository
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		sessions: &mocks.MockSessionRepository{},
		platform: &mocks.MockPlatformClient{},
		creds:    &mocks.MockCredentialRepository{},
	}
	bots := &mocks.MockBotManager{}
	registry := service.NewSessionRegistry(time.Minute)
	cache := service.NewCredentialCache(f.creds, f.platform, time.Minute)
	cascade := service.NewRecordingCascade(f.platform, bots)
	pipeline := service.NewProcessingPipeline(f.sessions, &mocks.MockMediaFetcher{}, &mocks.MockTranscriber{}, &mocks.MockSummarizer{})
	orchestrator := service.NewOrchestrator(f.sessions, registry, cache, cascade, pipeline, bots, time.Hour)
	webhookService := service.NewWebhookService(webhook.NewValidator(testSecret), orchestrator)
	f.mux = NewHandlers(webhookService, orchestrator, nil).NewMux()
	return f
}

func signedWebhookRequest(t *testing.T, body []byte) *http.Request {
	t.Helper()
	timestamp := "1700000000"
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(fmt.Sprintf("v0:%s:%s", timestamp, body)))

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("x-zm-request-timestamp", timestamp)
	req.Header.Set("x-zm-signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
	return req
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	f := newHandlerFixture()
	body := []byte(`{"event":"meeting.started","payload":{"object":{"id":"123","host_id":"h1"}}}`)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("x-zm-request-timestamp", "1700000000")
	req.Header.Set("x-zm-signature", "v0=deadbeef")
	rec := httptest.NewRecorder()

	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	// Zero state mutation on rejection.
	f.sessions.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	f.sessions.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestWebhookAnswersURLValidationChallenge(t *testing.T) {
	f := newHandlerFixture()
	body := []byte(`{"event":"endpoint.url_validation","payload":{"plainToken":"abc123"}}`)

	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, signedWebhookRequest(t, body))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp service.URLValidationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "abc123", resp.PlainToken)

	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte("abc123"))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), resp.EncryptedToken)
}

func TestWebhookAcksThenProcessesMeetingStarted(t *testing.T) {
	f := newHandlerFixture()

	f.sessions.On("Get", mock.Anything, "123").
		Return(nil, domain.NewNotFoundError("session not found"))
	f.sessions.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.creds.On("Get", mock.Anything, "h1").Return(&models.Credential{
		UserID:      "h1",
		AccessToken: "token",
		ExpiresAt:   time.Now().UTC().Add(time.Hour),
	}, nil)
	recordingStarted := make(chan struct{})
	f.platform.On("SetAutoRecording", mock.Anything, "token", "123", "cloud").
		Run(func(mock.Arguments) { close(recordingStarted) }).
		Return(nil)

	body := []byte(`{"event":"meeting.started","payload":{"object":{"id":"123","host_id":"h1","topic":"Sync"}}}`)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, signedWebhookRequest(t, body))

	assert.Equal(t, http.StatusOK, rec.Code, "the webhook is acked immediately")

	// Processing happens asynchronously after the ack.
	select {
	case <-recordingStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("recording was not started after webhook ack")
	}
}

func TestWebhookIgnoresUnrecognizedEvent(t *testing.T) {
	f := newHandlerFixture()
	body := []byte(`{"event":"meeting.participant_joined","payload":{"object":{"id":"123"}}}`)

	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, signedWebhookRequest(t, body))

	assert.Equal(t, http.StatusOK, rec.Code)
	f.sessions.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestSessionGetNotFound(t *testing.T) {
	f := newHandlerFixture()
	f.sessions.On("Get", mock.Anything, "missing").
		Return(nil, domain.NewNotFoundError("session with key 'missing' not found"))

	req := httptest.NewRequest(http.MethodGet, "/sessions/missing", nil)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionGetReturnsSession(t *testing.T) {
	f := newHandlerFixture()
	f.sessions.On("Get", mock.Anything, "123").Return(&models.Session{
		UID:       "uid-1",
		MeetingID: "123",
		Status:    models.SessionStatusRecording,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/sessions/123", nil)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var session models.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, "uid-1", session.UID)
	assert.Equal(t, models.SessionStatusRecording, session.Status)
}

func TestHealthz(t *testing.T) {
	f := newHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
