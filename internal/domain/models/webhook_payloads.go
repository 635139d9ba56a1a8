// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Recognized Zoom webhook event types.
const (
	EventEndpointURLValidation = "endpoint.url_validation"
	EventMeetingStarted        = "meeting.started"
	EventMeetingEnded          = "meeting.ended"
	EventRecordingCompleted    = "recording.completed"
)

// WebhookEvent is the envelope of an inbound Zoom webhook notification.
// The payload stays raw until the event type selects a typed view; the
// envelope is only decoded after the signature over the raw body verified.
type WebhookEvent struct {
	Event   string          `json:"event"`
	EventTS int64           `json:"event_ts"`
	Payload json.RawMessage `json:"payload"`
}

// URLValidationPayload is the challenge sent for endpoint.url_validation events.
type URLValidationPayload struct {
	PlainToken string `json:"plainToken"`
}

// MeetingStartedPayload is the payload of meeting.started webhook events.
type MeetingStartedPayload struct {
	Object struct {
		UUID      string    `json:"uuid"`
		ID        string    `json:"id"` // Zoom sends as string in webhook events
		HostID    string    `json:"host_id"`
		Topic     string    `json:"topic"`
		Type      int       `json:"type"`
		Password  string    `json:"password"`
		StartTime time.Time `json:"start_time"`
		Timezone  string    `json:"timezone"`
	} `json:"object"`
}

// MeetingEndedPayload is the payload of meeting.ended webhook events.
type MeetingEndedPayload struct {
	Object struct {
		UUID      string    `json:"uuid"`
		ID        string    `json:"id"` // Zoom sends as string in webhook events
		HostID    string    `json:"host_id"`
		Topic     string    `json:"topic"`
		Type      int       `json:"type"`
		StartTime time.Time `json:"start_time"`
		EndTime   time.Time `json:"end_time"`
		Timezone  string    `json:"timezone"`
	} `json:"object"`
}

// RecordingFile is one captured asset within a recording.completed payload.
type RecordingFile struct {
	ID             string    `json:"id"`
	FileType       string    `json:"file_type"` // "MP4", "M4A", "TRANSCRIPT", ...
	FileSize       int64     `json:"file_size"`
	DownloadURL    string    `json:"download_url"`
	RecordingStart time.Time `json:"recording_start"`
	RecordingEnd   time.Time `json:"recording_end"`
	Status         string    `json:"status"`
}

// RecordingCompletedPayload is the payload of recording.completed webhook events.
type RecordingCompletedPayload struct {
	Object struct {
		UUID           string          `json:"uuid"`
		ID             json.Number     `json:"id"` // numeric for recording events
		HostID         string          `json:"host_id"`
		Topic          string          `json:"topic"`
		StartTime      time.Time       `json:"start_time"`
		Duration       int             `json:"duration"`
		TotalSize      int64           `json:"total_size"`
		RecordingCount int             `json:"recording_count"`
		RecordingFiles []RecordingFile `json:"recording_files"`
	} `json:"object"`
}

// ToURLValidationPayload decodes the payload as a URL-validation challenge.
func (e *WebhookEvent) ToURLValidationPayload() (*URLValidationPayload, error) {
	var payload URLValidationPayload
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse %s payload: %w", e.Event, err)
	}
	return &payload, nil
}

// ToMeetingStartedPayload decodes the payload as a meeting.started object.
func (e *WebhookEvent) ToMeetingStartedPayload() (*MeetingStartedPayload, error) {
	var payload MeetingStartedPayload
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse %s payload: %w", e.Event, err)
	}
	return &payload, nil
}

// ToMeetingEndedPayload decodes the payload as a meeting.ended object.
func (e *WebhookEvent) ToMeetingEndedPayload() (*MeetingEndedPayload, error) {
	var payload MeetingEndedPayload
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse %s payload: %w", e.Event, err)
	}
	return &payload, nil
}

// ToRecordingCompletedPayload decodes the payload as a recording.completed object.
func (e *WebhookEvent) ToRecordingCompletedPayload() (*RecordingCompletedPayload, error) {
	var payload RecordingCompletedPayload
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse %s payload: %w", e.Event, err)
	}
	return &payload, nil
}

// AudioFile returns the first audio-only asset of the recording, if any.
func (p *RecordingCompletedPayload) AudioFile() *RecordingFile {
	for i := range p.Object.RecordingFiles {
		if p.Object.RecordingFiles[i].FileType == "M4A" {
			return &p.Object.RecordingFiles[i]
		}
	}
	return nil
}

// BotHandle is the ephemeral record of a launched automated participant.
// It is never persisted; a process restart loses all handles and the
// staleness sweep reconciles the sessions they were serving.
type BotHandle struct {
	MeetingID  string
	LaunchedAt time.Time
}
