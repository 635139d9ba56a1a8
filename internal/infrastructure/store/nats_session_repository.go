// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/meetscribe/meeting-recorder-service/internal/domain"
	"github.com/meetscribe/meeting-recorder-service/internal/domain/models"
)

// NatsSessionRepository persists meeting sessions in a NATS KV bucket keyed
// by the platform meeting ID. Platform meeting IDs are unique per occurrence,
// which gives the one-session-per-(host, meeting) invariant for free.
type NatsSessionRepository struct {
	*NatsBaseRepository[models.Session]
}

// NewNatsSessionRepository creates a session repository backed by NATS KV.
func NewNatsSessionRepository(kvStore INatsKeyValue) *NatsSessionRepository {
	return &NatsSessionRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.Session](kvStore, "session"),
	}
}

var _ domain.SessionRepository = (*NatsSessionRepository)(nil)

// Get retrieves a session by meeting ID.
func (r *NatsSessionRepository) Get(ctx context.Context, meetingID string) (*models.Session, error) {
	return r.NatsBaseRepository.Get(ctx, meetingID)
}

// Save upserts a session record.
func (r *NatsSessionRepository) Save(ctx context.Context, session *models.Session) error {
	if session.MeetingID == "" {
		return domain.NewValidationError("session is missing a meeting ID")
	}
	return r.Put(ctx, session.MeetingID, session)
}

// ListAll returns every stored session.
func (r *NatsSessionRepository) ListAll(ctx context.Context) ([]*models.Session, error) {
	return r.NatsBaseRepository.ListAll(ctx)
}

// ListActive returns sessions that have not reached a terminal state.
func (r *NatsSessionRepository) ListActive(ctx context.Context) ([]*models.Session, error) {
	sessions, err := r.NatsBaseRepository.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var active []*models.Session
	for _, session := range sessions {
		if session.Active() {
			active = append(active, session)
		}
	}
	return active, nil
}
