// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package models

import (
	"time"
)

// SessionStatus is the lifecycle state of a tracked meeting occurrence.
type SessionStatus string

const (
	SessionStatusDetected   SessionStatus = "detected"
	SessionStatusJoining    SessionStatus = "joining"
	SessionStatusRecording  SessionStatus = "recording"
	SessionStatusEnded      SessionStatus = "ended"
	SessionStatusProcessing SessionStatus = "processing"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusFailed     SessionStatus = "failed"
)

// RecordingMethod identifies how a session's media is (or is not) captured.
type RecordingMethod string

const (
	RecordingMethodCloud    RecordingMethod = "cloud"
	RecordingMethodLocal    RecordingMethod = "local"
	RecordingMethodBrowser  RecordingMethod = "browser"
	RecordingMethodBot      RecordingMethod = "bot"
	RecordingMethodTracking RecordingMethod = "tracking"
	RecordingMethodNone     RecordingMethod = "none"
	RecordingMethodAuto     RecordingMethod = "auto"
)

// Session represents one tracked occurrence of a conference call.
// The persistent store is the source of truth; the in-memory registry
// holds an index of active sessions rebuilt from it on restart.
type Session struct {
	UID             string          `json:"uid"`
	MeetingID       string          `json:"meeting_id"`
	Topic           string          `json:"topic"`
	HostID          string          `json:"host_id"`
	Password        string          `json:"password,omitempty"`
	Status          SessionStatus   `json:"status"`
	RecordingMethod RecordingMethod `json:"recording_method"`
	StatusMessage   string          `json:"status_message,omitempty"`
	StartTime       *time.Time      `json:"start_time,omitempty"`
	EndTime         *time.Time      `json:"end_time,omitempty"`
	DurationSeconds int             `json:"duration_seconds"`
	MediaLocator    string          `json:"media_locator,omitempty"`
	Transcript      string          `json:"transcript,omitempty"`
	Summary         string          `json:"summary,omitempty"`
	ActionItems     []string        `json:"action_items,omitempty"`
	ProcessingError string          `json:"processing_error,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// sessionTransitions is the forward edge set of the lifecycle state machine.
// Failed is reachable from every non-terminal state and is handled in
// CanTransitionTo rather than listed per state. A completed session may
// re-enter processing when its cloud recording arrives after the fact.
var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionStatusDetected:   {SessionStatusJoining, SessionStatusEnded, SessionStatusCompleted},
	SessionStatusJoining:    {SessionStatusRecording, SessionStatusEnded, SessionStatusCompleted},
	SessionStatusRecording:  {SessionStatusEnded, SessionStatusCompleted},
	SessionStatusEnded:      {SessionStatusProcessing, SessionStatusCompleted},
	SessionStatusProcessing: {SessionStatusCompleted},
	SessionStatusCompleted:  {SessionStatusProcessing},
	SessionStatusFailed:     {},
}

// Terminal reports whether the session has reached a terminal state.
func (s *Session) Terminal() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusFailed
}

// Active reports whether the session still awaits a terminating event.
func (s *Session) Active() bool {
	return !s.Terminal()
}

// CanTransitionTo reports whether moving to next is a valid lifecycle edge.
func (s *Session) CanTransitionTo(next SessionStatus) bool {
	if next == SessionStatusFailed {
		return s.Status != SessionStatusCompleted && s.Status != SessionStatusFailed
	}
	for _, allowed := range sessionTransitions[s.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// MarkEnded records the end of the occurrence and computes the duration when
// both ends are known. The status moves to ended only along a valid lifecycle
// edge; a session already past capture (processing, completed, failed) keeps
// its status but still gets the end time so a late ended notification is not
// lost.
func (s *Session) MarkEnded(endTime time.Time) {
	if s.EndTime == nil {
		t := endTime.UTC()
		s.EndTime = &t
	}
	if s.StartTime != nil {
		s.DurationSeconds = int(s.EndTime.Sub(*s.StartTime) / time.Second)
	}
	if s.CanTransitionTo(SessionStatusEnded) {
		s.Status = SessionStatusEnded
	}
	s.Touch()
}

// MarkFailed records an unrecoverable error on the session.
func (s *Session) MarkFailed(cause string) {
	s.Status = SessionStatusFailed
	s.ProcessingError = cause
	s.Touch()
}

// Touch updates the modification timestamp.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now().UTC()
}
