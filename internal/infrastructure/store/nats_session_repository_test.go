// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetscribe/meeting-recorder-service/internal/domain"
	"github.com/meetscribe/meeting-recorder-service/internal/domain/models"
)

func TestSessionRepositoryRoundTrip(t *testing.T) {
	repo := NewNatsSessionRepository(newMockNatsKeyValue())
	ctx := context.Background()

	session := &models.Session{
		UID:             "uid-1",
		MeetingID:       "meeting-1",
		HostID:          "host-1",
		Topic:           "Weekly Sync",
		Status:          models.SessionStatusRecording,
		RecordingMethod: models.RecordingMethodCloud,
	}
	require.NoError(t, repo.Save(ctx, session))

	got, err := repo.Get(ctx, "meeting-1")
	require.NoError(t, err)
	assert.Equal(t, session.UID, got.UID)
	assert.Equal(t, models.SessionStatusRecording, got.Status)
	assert.Equal(t, models.RecordingMethodCloud, got.RecordingMethod)
}

func TestSessionRepositorySaveIsUpsert(t *testing.T) {
	repo := NewNatsSessionRepository(newMockNatsKeyValue())
	ctx := context.Background()

	session := &models.Session{UID: "uid-1", MeetingID: "meeting-1", Status: models.SessionStatusDetected}
	require.NoError(t, repo.Save(ctx, session))

	session.Status = models.SessionStatusCompleted
	require.NoError(t, repo.Save(ctx, session))

	got, err := repo.Get(ctx, "meeting-1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, got.Status)
}

func TestSessionRepositoryGetMissing(t *testing.T) {
	repo := NewNatsSessionRepository(newMockNatsKeyValue())

	_, err := repo.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))
}

func TestSessionRepositorySaveRequiresMeetingID(t *testing.T) {
	repo := NewNatsSessionRepository(newMockNatsKeyValue())

	err := repo.Save(context.Background(), &models.Session{UID: "uid-1"})
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
}

func TestSessionRepositoryListActive(t *testing.T) {
	repo := NewNatsSessionRepository(newMockNatsKeyValue())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Session{MeetingID: "m1", Status: models.SessionStatusRecording}))
	require.NoError(t, repo.Save(ctx, &models.Session{MeetingID: "m2", Status: models.SessionStatusCompleted}))
	require.NoError(t, repo.Save(ctx, &models.Session{MeetingID: "m3", Status: models.SessionStatusJoining}))
	require.NoError(t, repo.Save(ctx, &models.Session{MeetingID: "m4", Status: models.SessionStatusFailed}))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, session := range active {
		assert.True(t, session.Active())
	}
}

func TestSessionRepositoryUnavailableWithoutStore(t *testing.T) {
	repo := NewNatsSessionRepository(nil)
	ctx := context.Background()

	_, err := repo.Get(ctx, "meeting-1")
	assert.Equal(t, domain.ErrorTypeUnavailable, domain.GetErrorType(err))

	err = repo.Save(ctx, &models.Session{MeetingID: "meeting-1"})
	assert.Equal(t, domain.ErrorTypeUnavailable, domain.GetErrorType(err))
}

func TestSessionRepositoryStoreFailure(t *testing.T) {
	kv := newMockNatsKeyValue()
	kv.putError = errors.New("nats: connection closed")
	repo := NewNatsSessionRepository(kv)

	err := repo.Save(context.Background(), &models.Session{MeetingID: "meeting-1"})
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeInternal, domain.GetErrorType(err))
}

func TestCredentialRepositoryRoundTrip(t *testing.T) {
	repo := NewNatsCredentialRepository(newMockNatsKeyValue())
	ctx := context.Background()

	credential := &models.Credential{
		UserID:       "host-1",
		AccessToken:  "access",
		RefreshToken: "refresh",
	}
	require.NoError(t, repo.Save(ctx, credential))

	got, err := repo.Get(ctx, "host-1")
	require.NoError(t, err)
	assert.Equal(t, "access", got.AccessToken)
	assert.Equal(t, "refresh", got.RefreshToken)
}

func TestCredentialRepositorySaveRequiresUserID(t *testing.T) {
	repo := NewNatsCredentialRepository(newMockNatsKeyValue())

	err := repo.Save(context.Background(), &models.Credential{AccessToken: "access"})
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
}

func TestCredentialRepositoryGetMissing(t *testing.T) {
	repo := NewNatsCredentialRepository(newMockNatsKeyValue())

	_, err := repo.Get(context.Background(), "unknown-host")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))
}
