// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from SessionStatus
		to   SessionStatus
		want bool
	}{
		{SessionStatusDetected, SessionStatusJoining, true},
		{SessionStatusDetected, SessionStatusEnded, true},
		{SessionStatusDetected, SessionStatusRecording, false},
		{SessionStatusJoining, SessionStatusRecording, true},
		{SessionStatusJoining, SessionStatusEnded, true},
		{SessionStatusRecording, SessionStatusEnded, true},
		{SessionStatusRecording, SessionStatusProcessing, false},
		{SessionStatusEnded, SessionStatusProcessing, true},
		{SessionStatusEnded, SessionStatusCompleted, true},
		{SessionStatusProcessing, SessionStatusCompleted, true},
		{SessionStatusProcessing, SessionStatusEnded, false},
		// late cloud recording re-enters processing
		{SessionStatusCompleted, SessionStatusProcessing, true},
		{SessionStatusCompleted, SessionStatusEnded, false},
		// failed is reachable from every non-terminal state
		{SessionStatusDetected, SessionStatusFailed, true},
		{SessionStatusJoining, SessionStatusFailed, true},
		{SessionStatusRecording, SessionStatusFailed, true},
		{SessionStatusEnded, SessionStatusFailed, true},
		{SessionStatusProcessing, SessionStatusFailed, true},
		{SessionStatusCompleted, SessionStatusFailed, false},
		{SessionStatusFailed, SessionStatusFailed, false},
		{SessionStatusFailed, SessionStatusProcessing, false},
		// stale sweep force-completes from any non-terminal state
		{SessionStatusDetected, SessionStatusCompleted, true},
		{SessionStatusJoining, SessionStatusCompleted, true},
		{SessionStatusRecording, SessionStatusCompleted, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			s := &Session{Status: tt.from}
			assert.Equal(t, tt.want, s.CanTransitionTo(tt.to))
		})
	}
}

func TestTerminalAndActive(t *testing.T) {
	for _, status := range []SessionStatus{
		SessionStatusDetected, SessionStatusJoining, SessionStatusRecording,
		SessionStatusEnded, SessionStatusProcessing,
	} {
		s := &Session{Status: status}
		assert.True(t, s.Active(), "status %s should be active", status)
		assert.False(t, s.Terminal())
	}
	for _, status := range []SessionStatus{SessionStatusCompleted, SessionStatusFailed} {
		s := &Session{Status: status}
		assert.True(t, s.Terminal(), "status %s should be terminal", status)
	}
}

func TestMarkEnded(t *testing.T) {
	start := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)

	t.Run("computes duration from both ends", func(t *testing.T) {
		s := &Session{Status: SessionStatusRecording, StartTime: &start}
		s.MarkEnded(end)

		assert.Equal(t, SessionStatusEnded, s.Status)
		assert.Equal(t, 45*60, s.DurationSeconds)
		assert.Equal(t, end, *s.EndTime)
	})

	t.Run("no start time leaves duration zero", func(t *testing.T) {
		s := &Session{Status: SessionStatusDetected}
		s.MarkEnded(end)

		assert.Equal(t, SessionStatusEnded, s.Status)
		assert.Zero(t, s.DurationSeconds)
	})

	t.Run("processing session keeps processing status but records end", func(t *testing.T) {
		s := &Session{Status: SessionStatusProcessing, StartTime: &start}
		s.MarkEnded(end)

		assert.Equal(t, SessionStatusProcessing, s.Status)
		assert.NotNil(t, s.EndTime)
		assert.Equal(t, 45*60, s.DurationSeconds)
	})

	t.Run("failed session keeps failed status but records end", func(t *testing.T) {
		s := &Session{Status: SessionStatusFailed, StartTime: &start}
		s.MarkEnded(end)

		assert.Equal(t, SessionStatusFailed, s.Status)
		assert.NotNil(t, s.EndTime)
		assert.Equal(t, 45*60, s.DurationSeconds)
	})

	t.Run("existing end time is not overwritten", func(t *testing.T) {
		s := &Session{Status: SessionStatusEnded, StartTime: &start, EndTime: &end}
		s.MarkEnded(end.Add(time.Hour))

		assert.Equal(t, end, *s.EndTime)
	})
}

func TestMarkFailed(t *testing.T) {
	s := &Session{Status: SessionStatusJoining}
	s.MarkFailed("credential resolution failed")

	assert.Equal(t, SessionStatusFailed, s.Status)
	assert.Equal(t, "credential resolution failed", s.ProcessingError)
	assert.False(t, s.UpdatedAt.IsZero())
}
