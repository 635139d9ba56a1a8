// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meetscribe/meeting-recorder-service/internal/domain"
)

func signBody(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("v0:%s:%s", timestamp, body)))
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func TestValidateSignature(t *testing.T) {
	secret := "test-secret-token"
	body := []byte(`{"event":"meeting.started","payload":{"object":{"id":"123"}}}`)
	timestamp := "1700000000"

	tests := []struct {
		name      string
		validator *Validator
		signature string
		timestamp string
		wantErr   bool
		errType   domain.ErrorType
	}{
		{
			name:      "valid signature",
			validator: NewValidator(secret),
			signature: signBody(secret, timestamp, body),
			timestamp: timestamp,
			wantErr:   false,
		},
		{
			name:      "wrong secret",
			validator: NewValidator(secret),
			signature: signBody("other-secret", timestamp, body),
			timestamp: timestamp,
			wantErr:   true,
			errType:   domain.ErrorTypeUnauthorized,
		},
		{
			name:      "timestamp mismatch",
			validator: NewValidator(secret),
			signature: signBody(secret, "1700000001", body),
			timestamp: timestamp,
			wantErr:   true,
			errType:   domain.ErrorTypeUnauthorized,
		},
		{
			name:      "missing signature",
			validator: NewValidator(secret),
			signature: "",
			timestamp: timestamp,
			wantErr:   true,
			errType:   domain.ErrorTypeUnauthorized,
		},
		{
			name:      "missing timestamp",
			validator: NewValidator(secret),
			signature: signBody(secret, timestamp, body),
			timestamp: "",
			wantErr:   true,
			errType:   domain.ErrorTypeUnauthorized,
		},
		{
			name:      "no secret configured fails closed",
			validator: NewValidator(""),
			signature: signBody(secret, timestamp, body),
			timestamp: timestamp,
			wantErr:   true,
			errType:   domain.ErrorTypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validator.ValidateSignature(body, tt.signature, tt.timestamp)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.errType, domain.GetErrorType(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSignatureTamperedBody(t *testing.T) {
	secret := "test-secret-token"
	timestamp := "1700000000"
	body := []byte(`{"event":"meeting.started"}`)
	signature := signBody(secret, timestamp, body)

	tampered := []byte(`{"event":"meeting.ended"}`)
	err := NewValidator(secret).ValidateSignature(tampered, signature, timestamp)
	assert.Error(t, err)
	assert.Equal(t, domain.ErrorTypeUnauthorized, domain.GetErrorType(err))
}

func TestChallengeResponse(t *testing.T) {
	secret := "test-secret-token"
	plainToken := "qgg8vlvZRS6UYooatFL8Aw"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(plainToken))
	want := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, NewValidator(secret).ChallengeResponse(plainToken))
}
