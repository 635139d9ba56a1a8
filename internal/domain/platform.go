// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/meetscribe/meeting-recorder-service/internal/domain/models"
)

// PlatformClient is the outbound surface of the conferencing platform's REST
// API that the recording strategies and credential cache depend on. Calls
// that act on behalf of a host take that host's bearer token explicitly.
type PlatformClient interface {
	// SetAutoRecording patches a meeting's auto_recording setting
	// ("cloud", "local" or "none"). The platform rejects modes the host's
	// account tier does not support.
	SetAutoRecording(ctx context.Context, accessToken, meetingID, mode string) error

	// StopCloudRecording issues a stop action for an in-progress cloud recording.
	StopCloudRecording(ctx context.Context, accessToken, meetingID string) error

	// RefreshUserToken exchanges a refresh token for a new token pair using
	// the app's client credentials.
	RefreshUserToken(ctx context.Context, refreshToken string) (*models.TokenPair, error)
}

// WebhookValidator authenticates inbound webhook notifications.
type WebhookValidator interface {
	// ValidateSignature verifies the HMAC signature over the raw request body.
	ValidateSignature(body []byte, signature, timestamp string) error
	// ChallengeResponse computes the encrypted token echoed back for
	// endpoint.url_validation events.
	ChallengeResponse(plainToken string) string
}

// BotManager launches and tears down automated meeting participants.
type BotManager interface {
	Launch(ctx context.Context, meetingID, password, userID string) (*models.BotHandle, error)
	// Stop is idempotent; stopping an untracked meeting is a no-op.
	Stop(ctx context.Context, meetingID string) error
	Active(meetingID string) bool
}

// TranscriptResult is the output of the transcription capability.
type TranscriptResult struct {
	Text            string
	DurationSeconds int
}

// Transcriber converts a captured audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*TranscriptResult, error)
}

// SummaryResult is the structured output of the summarization capability.
type SummaryResult struct {
	Summary     string
	ActionItems []string
}

// Summarizer condenses a transcript into a prose summary and action items.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (*SummaryResult, error)
}

// MediaFetcher resolves a session's media locator into a local file path.
// The returned cleanup removes any scratch copy and is safe to call always.
type MediaFetcher interface {
	Fetch(ctx context.Context, locator string) (path string, cleanup func(), err error)
}
