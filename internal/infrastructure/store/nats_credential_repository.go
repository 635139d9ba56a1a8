// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/meetscribe/meeting-recorder-service/internal/domain"
	"github.com/meetscribe/meeting-recorder-service/internal/domain/models"
)

// NatsCredentialRepository persists per-user OAuth credentials in a NATS KV
// bucket keyed by the platform user ID.
type NatsCredentialRepository struct {
	*NatsBaseRepository[models.Credential]
}

// NewNatsCredentialRepository creates a credential repository backed by NATS KV.
func NewNatsCredentialRepository(kvStore INatsKeyValue) *NatsCredentialRepository {
	return &NatsCredentialRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.Credential](kvStore, "credential"),
	}
}

var _ domain.CredentialRepository = (*NatsCredentialRepository)(nil)

// Get retrieves a credential by user ID.
func (r *NatsCredentialRepository) Get(ctx context.Context, userID string) (*models.Credential, error) {
	return r.NatsBaseRepository.Get(ctx, userID)
}

// Save upserts a credential record.
func (r *NatsCredentialRepository) Save(ctx context.Context, credential *models.Credential) error {
	if credential.UserID == "" {
		return domain.NewValidationError("credential is missing a user ID")
	}
	return r.Put(ctx, credential.UserID, credential)
}
