// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

// Package webhook validates that inbound event notifications genuinely
// originated from Zoom. Validation operates on the raw, unparsed request
// bytes; JSON decoding happens only after the signature checks out.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/meetscribe/meeting-recorder-service/internal/domain"
)

// Validator checks Zoom webhook signatures with the shared secret token.
type Validator struct {
	secretToken string
}

// NewValidator creates a webhook validator for the given secret token.
func NewValidator(secretToken string) *Validator {
	return &Validator{secretToken: secretToken}
}

var _ domain.WebhookValidator = (*Validator)(nil)

// ValidateSignature verifies the v0 HMAC-SHA256 signature over the raw body.
// It fails closed: a missing secret, signature or timestamp is a verification
// failure, never a pass.
func (v *Validator) ValidateSignature(body []byte, signature, timestamp string) error {
	if v.secretToken == "" {
		return domain.NewInternalError("webhook secret token not configured")
	}
	if signature == "" {
		return domain.NewUnauthorizedError("missing webhook signature")
	}
	if timestamp == "" {
		return domain.NewUnauthorizedError("missing webhook timestamp")
	}

	// Message to sign: v0:{timestamp}:{raw body}
	message := fmt.Sprintf("v0:%s:%s", timestamp, body)

	h := hmac.New(sha256.New, []byte(v.secretToken))
	h.Write([]byte(message))
	expected := "v0=" + hex.EncodeToString(h.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return domain.NewUnauthorizedError("webhook signature does not match expected signature")
	}

	return nil
}

// ChallengeResponse hashes the plainToken of an endpoint.url_validation
// challenge with the shared secret, as Zoom expects it echoed back.
func (v *Validator) ChallengeResponse(plainToken string) string {
	h := hmac.New(sha256.New, []byte(v.secretToken))
	h.Write([]byte(plainToken))
	return hex.EncodeToString(h.Sum(nil))
}
