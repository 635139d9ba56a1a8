// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

// Package mocks provides testify mocks of the domain interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/meetscribe/meeting-recorder-service/internal/domain"
	"github.com/meetscribe/meeting-recorder-service/internal/domain/models"
)

// MockSessionRepository is a mock implementation of domain.SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

// Get is a mock method
func (m *MockSessionRepository) Get(ctx context.Context, meetingID string) (*models.Session, error) {
	args := m.Called(ctx, meetingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

// Save is a mock method
func (m *MockSessionRepository) Save(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

// ListAll is a mock method
func (m *MockSessionRepository) ListAll(ctx context.Context) ([]*models.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Session), args.Error(1)
}

// ListActive is a mock method
func (m *MockSessionRepository) ListActive(ctx context.Context) ([]*models.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Session), args.Error(1)
}

// MockCredentialRepository is a mock implementation of domain.CredentialRepository
type MockCredentialRepository struct {
	mock.Mock
}

// Get is a mock method
func (m *MockCredentialRepository) Get(ctx context.Context, userID string) (*models.Credential, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Credential), args.Error(1)
}

// Save is a mock method
func (m *MockCredentialRepository) Save(ctx context.Context, credential *models.Credential) error {
	args := m.Called(ctx, credential)
	return args.Error(0)
}

// MockPlatformClient is a mock implementation of domain.PlatformClient
type MockPlatformClient struct {
	mock.Mock
}

// SetAutoRecording is a mock method
func (m *MockPlatformClient) SetAutoRecording(ctx context.Context, accessToken, meetingID, mode string) error {
	args := m.Called(ctx, accessToken, meetingID, mode)
	return args.Error(0)
}

// StopCloudRecording is a mock method
func (m *MockPlatformClient) StopCloudRecording(ctx context.Context, accessToken, meetingID string) error {
	args := m.Called(ctx, accessToken, meetingID)
	return args.Error(0)
}

// RefreshUserToken is a mock method
func (m *MockPlatformClient) RefreshUserToken(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenPair), args.Error(1)
}

// MockBotManager is a mock implementation of domain.BotManager
type MockBotManager struct {
	mock.Mock
}

// Launch is a mock method
func (m *MockBotManager) Launch(ctx context.Context, meetingID, password, userID string) (*models.BotHandle, error) {
	args := m.Called(ctx, meetingID, password, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BotHandle), args.Error(1)
}

// Stop is a mock method
func (m *MockBotManager) Stop(ctx context.Context, meetingID string) error {
	args := m.Called(ctx, meetingID)
	return args.Error(0)
}

// Active is a mock method
func (m *MockBotManager) Active(meetingID string) bool {
	args := m.Called(meetingID)
	return args.Bool(0)
}

// MockTranscriber is a mock implementation of domain.Transcriber
type MockTranscriber struct {
	mock.Mock
}

// Transcribe is a mock method
func (m *MockTranscriber) Transcribe(ctx context.Context, audioPath string) (*domain.TranscriptResult, error) {
	args := m.Called(ctx, audioPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TranscriptResult), args.Error(1)
}

// MockSummarizer is a mock implementation of domain.Summarizer
type MockSummarizer struct {
	mock.Mock
}

// Summarize is a mock method
func (m *MockSummarizer) Summarize(ctx context.Context, transcript string) (*domain.SummaryResult, error) {
	args := m.Called(ctx, transcript)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SummaryResult), args.Error(1)
}

// MockMediaFetcher is a mock implementation of domain.MediaFetcher
type MockMediaFetcher struct {
	mock.Mock
}

// Fetch is a mock method
func (m *MockMediaFetcher) Fetch(ctx context.Context, locator string) (string, func(), error) {
	args := m.Called(ctx, locator)
	cleanup := func() {}
	if fn, ok := args.Get(1).(func()); ok && fn != nil {
		cleanup = fn
	}
	return args.String(0), cleanup, args.Error(2)
}

// MockWebhookValidator is a mock implementation of domain.WebhookValidator
type MockWebhookValidator struct {
	mock.Mock
}

// ValidateSignature is a mock method
func (m *MockWebhookValidator) ValidateSignature(body []byte, signature, timestamp string) error {
	args := m.Called(body, signature, timestamp)
	return args.Error(0)
}

// ChallengeResponse is a mock method
func (m *MockWebhookValidator) ChallengeResponse(plainToken string) string {
	args := m.Called(plainToken)
	return args.String(0)
}
