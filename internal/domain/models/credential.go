// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package models

import "time"

// Credential holds one user's OAuth token pair for the conferencing platform.
// It is owned by the credential cache and never crosses the orchestrator
// boundary. ExpiresAt is a conservative local estimate derived from the
// token endpoint's expires_in minus a safety margin.
type Credential struct {
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Expired reports whether the access token should no longer be used.
// A zero ExpiresAt is treated as expired so legacy records refresh on first use.
func (c *Credential) Expired(now time.Time) bool {
	return c.ExpiresAt.IsZero() || !now.Before(c.ExpiresAt)
}

// TokenPair is the result of a token grant against the platform's OAuth endpoint.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int // seconds, as reported by the token endpoint
}
