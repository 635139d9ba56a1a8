// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/meetscribe/meeting-recorder-service/internal/domain"
	"github.com/meetscribe/meeting-recorder-service/internal/domain/models"
)

// DefaultClaimTTL bounds how long an in-flight claim suppresses duplicate
// notifications for the same meeting.
const DefaultClaimTTL = 5 * time.Minute

// SessionRegistry is the in-memory index of tracked sessions plus the
// short-lived claim markers that deduplicate concurrent notifications for
// one meeting ID. The persistent store remains the source of truth; the
// registry can be rebuilt from it after a restart.
type SessionRegistry struct {
	claimTTL time.Duration

	mu       sync.Mutex
	claims   map[string]time.Time
	sessions map[string]*models.Session
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry(claimTTL time.Duration) *SessionRegistry {
	if claimTTL <= 0 {
		claimTTL = DefaultClaimTTL
	}
	return &SessionRegistry{
		claimTTL: claimTTL,
		claims:   make(map[string]time.Time),
		sessions: make(map[string]*models.Session),
	}
}

// TryClaim attempts to claim processing of a meeting ID. It returns false
// while an unexpired claim is held by another in-flight notification.
func (r *SessionRegistry) TryClaim(meetingID string) bool {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if claimedAt, ok := r.claims[meetingID]; ok && now.Sub(claimedAt) < r.claimTTL {
		return false
	}
	r.claims[meetingID] = now
	return true
}

// Release drops the claim for a meeting ID.
func (r *SessionRegistry) Release(meetingID string) {
	r.mu.Lock()
	delete(r.claims, meetingID)
	r.mu.Unlock()
}

// Track indexes a session by its meeting ID.
func (r *SessionRegistry) Track(session *models.Session) {
	r.mu.Lock()
	r.sessions[session.MeetingID] = session
	r.mu.Unlock()
}

// Untrack removes a session from the index.
func (r *SessionRegistry) Untrack(meetingID string) {
	r.mu.Lock()
	delete(r.sessions, meetingID)
	r.mu.Unlock()
}

// Get returns the tracked session for a meeting ID, if any.
func (r *SessionRegistry) Get(meetingID string) (*models.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[meetingID]
	return session, ok
}

// ActiveSessions returns a snapshot of the tracked sessions.
func (r *SessionRegistry) ActiveSessions() []*models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := make([]*models.Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// Rebuild reloads the active-session index from the persistent store.
// Bot handles cannot survive a restart; the staleness sweep reconciles
// sessions whose bots were lost.
func (r *SessionRegistry) Rebuild(ctx context.Context, repository domain.SessionRepository) error {
	sessions, err := repository.ListActive(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.sessions = make(map[string]*models.Session, len(sessions))
	for _, session := range sessions {
		r.sessions[session.MeetingID] = session
	}
	count := len(r.sessions)
	r.mu.Unlock()

	slog.InfoContext(ctx, "session registry rebuilt from store", "active_sessions", count)
	return nil
}
