// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/meetscribe/meeting-recorder-service/internal/domain"
	"github.com/meetscribe/meeting-recorder-service/internal/logging"
)

// DefaultTokenSafetyMargin is subtracted from the token endpoint's expires_in
// when estimating local expiry, so a token is refreshed before the platform
// would actually reject it.
const DefaultTokenSafetyMargin = 5 * time.Minute

// CredentialCache hands out valid platform access tokens for hosts,
// refreshing expired ones against the token endpoint. Concurrent refreshes
// for the same user are coalesced into a single in-flight exchange: Zoom
// rotates the refresh token on every exchange, so two racing refreshes would
// invalidate each other.
type CredentialCache struct {
	credentialRepository domain.CredentialRepository
	platformClient       domain.PlatformClient
	safetyMargin         time.Duration

	mu      sync.Mutex
	entries map[string]cachedToken
	group   singleflight.Group
}

type cachedToken struct {
	accessToken string
	expiresAt   time.Time
}

// NewCredentialCache creates a credential cache over the given repository and
// platform client.
func NewCredentialCache(
	credentialRepository domain.CredentialRepository,
	platformClient domain.PlatformClient,
	safetyMargin time.Duration,
) *CredentialCache {
	if safetyMargin <= 0 {
		safetyMargin = DefaultTokenSafetyMargin
	}
	return &CredentialCache{
		credentialRepository: credentialRepository,
		platformClient:       platformClient,
		safetyMargin:         safetyMargin,
		entries:              make(map[string]cachedToken),
	}
}

// ServiceReady checks if the cache has its dependencies.
func (c *CredentialCache) ServiceReady() bool {
	return c.credentialRepository != nil && c.platformClient != nil
}

// GetValidToken returns a valid access token for the user, refreshing the
// stored credential if the cached token has expired. A missing credential or
// a rejected refresh token is surfaced as a distinct error so callers can
// prompt the user to reauthorize instead of retrying.
func (c *CredentialCache) GetValidToken(ctx context.Context, userID string) (string, error) {
	now := time.Now().UTC()

	c.mu.Lock()
	if entry, ok := c.entries[userID]; ok && now.Before(entry.expiresAt) {
		token := entry.accessToken
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	// Coalesce concurrent refreshes per user: one exchange in flight,
	// everyone else waits on its result.
	result, err, _ := c.group.Do(userID, func() (any, error) {
		return c.refresh(ctx, userID)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Invalidate drops the cached token for a user, forcing the next call to
// consult the store. Used when the platform rejects a token mid-flight.
func (c *CredentialCache) Invalidate(userID string) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}

func (c *CredentialCache) refresh(ctx context.Context, userID string) (string, error) {
	ctx = logging.AppendCtx(ctx, slog.String("user_id", userID))
	now := time.Now().UTC()

	// Another waiter may have refreshed while this call queued on the group.
	c.mu.Lock()
	if entry, ok := c.entries[userID]; ok && now.Before(entry.expiresAt) {
		token := entry.accessToken
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	credential, err := c.credentialRepository.Get(ctx, userID)
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return "", domain.NewNotFoundError("user has not authorized the recorder", domain.ErrCredentialMissing)
		}
		return "", err
	}

	// A stored token persisted by another instance may still be fresh.
	if !credential.Expired(now) && credential.AccessToken != "" {
		c.storeEntry(userID, credential.AccessToken, credential.ExpiresAt)
		return credential.AccessToken, nil
	}

	slog.InfoContext(ctx, "refreshing platform access token")
	pair, err := c.platformClient.RefreshUserToken(ctx, credential.RefreshToken)
	if err != nil {
		slog.WarnContext(ctx, "token refresh rejected, user must reauthorize", logging.ErrKey, err)
		return "", domain.NewUnauthorizedError("token refresh rejected", domain.ErrCredentialRefreshFailed, err)
	}

	expiresAt := now.Add(time.Duration(pair.ExpiresIn)*time.Second - c.safetyMargin)
	credential.AccessToken = pair.AccessToken
	credential.RefreshToken = pair.RefreshToken
	credential.ExpiresAt = expiresAt
	credential.UpdatedAt = now

	if err := c.credentialRepository.Save(ctx, credential); err != nil {
		// The rotated pair must not be lost: the old refresh token is dead.
		slog.ErrorContext(ctx, "failed to persist rotated credential", logging.ErrKey, err)
		return "", err
	}

	c.storeEntry(userID, pair.AccessToken, expiresAt)
	slog.InfoContext(ctx, "platform access token refreshed")
	return pair.AccessToken, nil
}

func (c *CredentialCache) storeEntry(userID, accessToken string, expiresAt time.Time) {
	c.mu.Lock()
	c.entries[userID] = cachedToken{accessToken: accessToken, expiresAt: expiresAt}
	c.mu.Unlock()
}
