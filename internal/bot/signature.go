// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package bot

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/meetscribe/meeting-recorder-service/internal/domain"
)

// Meeting SDK roles.
const (
	RoleParticipant = 0
	RoleHost        = 1
)

// DefaultJoinTokenTTL bounds how long a signed join credential stays valid.
const DefaultJoinTokenTTL = 2 * time.Hour

// SignJoinToken creates the time-boxed HS256 credential the automated
// participant presents to the Meeting SDK. Binding the meeting number and
// role into a short-lived signed token means the bot page never holds the
// long-lived SDK secret.
func SignJoinToken(sdkKey, sdkSecret, meetingID string, role int, ttl time.Duration) (string, error) {
	if sdkKey == "" || sdkSecret == "" {
		return "", domain.NewInternalError("meeting SDK key and secret are not configured")
	}
	if ttl <= 0 {
		ttl = DefaultJoinTokenTTL
	}

	// Issued 30s in the past to tolerate clock skew between us and the platform.
	iat := time.Now().Add(-30 * time.Second)
	exp := iat.Add(ttl)

	claims := jwt.MapClaims{
		"appKey":   sdkKey,
		"sdkKey":   sdkKey,
		"mn":       meetingID,
		"role":     role,
		"iat":      iat.Unix(),
		"exp":      exp.Unix(),
		"tokenExp": exp.Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(sdkSecret))
	if err != nil {
		return "", domain.NewInternalError("failed to sign join token", err)
	}
	return token, nil
}
