// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/meetscribe/meeting-recorder-service/internal/domain"
	"github.com/meetscribe/meeting-recorder-service/internal/domain/models"
	"github.com/meetscribe/meeting-recorder-service/internal/domain/mocks"
)

func TestGetValidTokenFromStoredCredential(t *testing.T) {
	repo := &mocks.MockCredentialRepository{}
	client := &mocks.MockPlatformClient{}
	cache := NewCredentialCache(repo, client, time.Minute)

	repo.On("Get", mock.Anything, "host-1").Return(&models.Credential{
		UserID:      "host-1",
		AccessToken: "stored-token",
		ExpiresAt:   time.Now().UTC().Add(time.Hour),
	}, nil).Once()

	token, err := cache.GetValidToken(context.Background(), "host-1")
	require.NoError(t, err)
	assert.Equal(t, "stored-token", token)

	// Second call is served from the in-memory cache without touching the store.
	token, err = cache.GetValidToken(context.Background(), "host-1")
	require.NoError(t, err)
	assert.Equal(t, "stored-token", token)

	repo.AssertExpectations(t)
	client.AssertNotCalled(t, "RefreshUserToken", mock.Anything, mock.Anything)
}

func TestGetValidTokenRefreshesExpired(t *testing.T) {
	repo := &mocks.MockCredentialRepository{}
	client := &mocks.MockPlatformClient{}
	cache := NewCredentialCache(repo, client, time.Minute)

	repo.On("Get", mock.Anything, "host-1").Return(&models.Credential{
		UserID:       "host-1",
		AccessToken:  "expired-token",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().UTC().Add(-time.Minute),
	}, nil).Once()
	client.On("RefreshUserToken", mock.Anything, "refresh-1").Return(&models.TokenPair{
		AccessToken:  "new-token",
		RefreshToken: "refresh-2",
		ExpiresIn:    3600,
	}, nil).Once()
	repo.On("Save", mock.Anything, mock.MatchedBy(func(c *models.Credential) bool {
		// rotation: the new refresh token must be the one persisted
		return c.RefreshToken == "refresh-2" && c.AccessToken == "new-token"
	})).Return(nil).Once()

	token, err := cache.GetValidToken(context.Background(), "host-1")
	require.NoError(t, err)
	assert.Equal(t, "new-token", token)

	repo.AssertExpectations(t)
	client.AssertExpectations(t)
}

func TestGetValidTokenMissingCredential(t *testing.T) {
	repo := &mocks.MockCredentialRepository{}
	client := &mocks.MockPlatformClient{}
	cache := NewCredentialCache(repo, client, time.Minute)

	repo.On("Get", mock.Anything, "stranger").
		Return(nil, domain.NewNotFoundError("credential with key 'stranger' not found")).Once()

	_, err := cache.GetValidToken(context.Background(), "stranger")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCredentialMissing))
	assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))
}

func TestGetValidTokenRefreshRejected(t *testing.T) {
	repo := &mocks.MockCredentialRepository{}
	client := &mocks.MockPlatformClient{}
	cache := NewCredentialCache(repo, client, time.Minute)

	repo.On("Get", mock.Anything, "host-1").Return(&models.Credential{
		UserID:       "host-1",
		RefreshToken: "revoked",
		ExpiresAt:    time.Now().UTC().Add(-time.Hour),
	}, nil).Once()
	client.On("RefreshUserToken", mock.Anything, "revoked").
		Return(nil, errors.New("invalid_grant")).Once()

	_, err := cache.GetValidToken(context.Background(), "host-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCredentialRefreshFailed))
	assert.Equal(t, domain.ErrorTypeUnauthorized, domain.GetErrorType(err))
}

func TestGetValidTokenCoalescesConcurrentRefreshes(t *testing.T) {
	repo := &mocks.MockCredentialRepository{}
	client := &mocks.MockPlatformClient{}
	cache := NewCredentialCache(repo, client, time.Minute)

	release := make(chan struct{})

	repo.On("Get", mock.Anything, "host-1").Return(&models.Credential{
		UserID:       "host-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().UTC().Add(-time.Minute),
	}, nil).Once()
	client.On("RefreshUserToken", mock.Anything, "refresh-1").
		Run(func(mock.Arguments) { <-release }).
		Return(&models.TokenPair{
			AccessToken:  "coalesced-token",
			RefreshToken: "refresh-2",
			ExpiresIn:    3600,
		}, nil).Once()
	repo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

	const burst = 10
	var wg sync.WaitGroup
	tokens := make([]string, burst)
	errs := make([]error, burst)
	for i := range burst {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens[i], errs[i] = cache.GetValidToken(context.Background(), "host-1")
		}()
	}

	// Let the burst queue up on the in-flight exchange before it completes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range burst {
		require.NoError(t, errs[i])
		assert.Equal(t, "coalesced-token", tokens[i])
	}

	// The refresh endpoint was hit exactly once for the whole burst.
	client.AssertNumberOfCalls(t, "RefreshUserToken", 1)
}

func TestInvalidateDropsCachedToken(t *testing.T) {
	repo := &mocks.MockCredentialRepository{}
	client := &mocks.MockPlatformClient{}
	cache := NewCredentialCache(repo, client, time.Minute)

	repo.On("Get", mock.Anything, "host-1").Return(&models.Credential{
		UserID:      "host-1",
		AccessToken: "stored-token",
		ExpiresAt:   time.Now().UTC().Add(time.Hour),
	}, nil).Twice()

	_, err := cache.GetValidToken(context.Background(), "host-1")
	require.NoError(t, err)

	cache.Invalidate("host-1")

	_, err = cache.GetValidToken(context.Background(), "host-1")
	require.NoError(t, err)

	repo.AssertExpectations(t)
}
