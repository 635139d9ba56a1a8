// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/meetscribe/meeting-recorder-service/internal/domain/models"
)

// SessionRepository is the persistent store for meeting sessions, keyed by
// meeting ID. Save has upsert semantics so out-of-order event delivery
// cannot fail on a missing row.
type SessionRepository interface {
	Get(ctx context.Context, meetingID string) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	ListAll(ctx context.Context) ([]*models.Session, error)
	ListActive(ctx context.Context) ([]*models.Session, error)
}

// CredentialRepository is the persistent store for per-user OAuth credentials.
type CredentialRepository interface {
	Get(ctx context.Context, userID string) (*models.Credential, error)
	Save(ctx context.Context, credential *models.Credential) error
}
