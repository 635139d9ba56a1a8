// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meetscribe/meeting-recorder-service/internal/domain"
	"github.com/meetscribe/meeting-recorder-service/internal/domain/models"
	"github.com/meetscribe/meeting-recorder-service/internal/logging"
	"github.com/meetscribe/meeting-recorder-service/internal/telemetry"
	"github.com/meetscribe/meeting-recorder-service/pkg/concurrent"
)

// DefaultStaleSessionTimeout is how long a session may go without activity
// before the sweep force-completes it.
const DefaultStaleSessionTimeout = 4 * time.Hour

// staleTimeoutNote is recorded on sessions the sweep force-completes.
const staleTimeoutNote = "Meeting ended due to timeout (no end webhook received)"

// Orchestrator drives the meeting session lifecycle from verified platform
// events. It owns the transitions between lifecycle states; the registry,
// credential cache, cascade and pipeline do the actual work of each step.
type Orchestrator struct {
	sessionRepository domain.SessionRepository
	registry          *SessionRegistry
	credentials       *CredentialCache
	cascade           *RecordingCascade
	pipeline          *ProcessingPipeline
	botManager        domain.BotManager
	sweepPool         *concurrent.WorkerPool
	staleAfter        time.Duration
}

// NewOrchestrator wires the orchestrator. A non-positive staleAfter falls
// back to DefaultStaleSessionTimeout.
func NewOrchestrator(
	sessionRepository domain.SessionRepository,
	registry *SessionRegistry,
	credentials *CredentialCache,
	cascade *RecordingCascade,
	pipeline *ProcessingPipeline,
	botManager domain.BotManager,
	staleAfter time.Duration,
) *Orchestrator {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleSessionTimeout
	}
	return &Orchestrator{
		sessionRepository: sessionRepository,
		registry:          registry,
		credentials:       credentials,
		cascade:           cascade,
		pipeline:          pipeline,
		botManager:        botManager,
		sweepPool:         concurrent.NewWorkerPool(10),
		staleAfter:        staleAfter,
	}
}

// HandleMeetingStarted reacts to a meeting.started notification: it creates
// the session, resolves the host's credential and runs the recording cascade.
// A duplicate notification for a meeting already claimed or already active is
// silently ignored.
func (o *Orchestrator) HandleMeetingStarted(ctx context.Context, payload *models.MeetingStartedPayload) (*models.Session, error) {
	meetingID := payload.Object.ID
	if meetingID == "" {
		return nil, domain.NewValidationError("meeting.started payload missing meeting id")
	}
	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", meetingID))

	if !o.registry.TryClaim(meetingID) {
		slog.InfoContext(ctx, "duplicate meeting.started notification ignored")
		return nil, nil
	}

	if existing, err := o.sessionRepository.Get(ctx, meetingID); err == nil && existing.Active() {
		slog.InfoContext(ctx, "meeting already has an active session",
			"status", existing.Status)
		return existing, nil
	}

	now := time.Now().UTC()
	startTime := payload.Object.StartTime
	if startTime.IsZero() {
		startTime = now
	}
	session := &models.Session{
		UID:             uuid.NewString(),
		MeetingID:       meetingID,
		Topic:           payload.Object.Topic,
		HostID:          payload.Object.HostID,
		Password:        payload.Object.Password,
		Status:          models.SessionStatusDetected,
		RecordingMethod: models.RecordingMethodNone,
		StartTime:       &startTime,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := o.sessionRepository.Save(ctx, session); err != nil {
		o.registry.Release(meetingID)
		return nil, err
	}
	o.registry.Track(session)
	o.updateActiveGauge()

	session.Status = models.SessionStatusJoining
	session.Touch()
	if err := o.sessionRepository.Save(ctx, session); err != nil {
		// The joining record is a durable trace, not a gate on the join.
		slog.WarnContext(ctx, "persisting joining status failed", logging.ErrKey, err)
	}

	accessToken, err := o.credentials.GetValidToken(ctx, session.HostID)
	if err != nil {
		slog.ErrorContext(ctx, "resolving host credential failed", logging.ErrKey, err)
		return session, o.failSession(ctx, session, fmt.Sprintf("credential resolution failed: %v", err))
	}

	target := &StrategyTarget{
		MeetingID:   meetingID,
		HostID:      session.HostID,
		Password:    session.Password,
		AccessToken: accessToken,
	}
	result, err := o.cascade.StartRecording(ctx, target, models.RecordingMethodAuto)
	if err != nil {
		slog.ErrorContext(ctx, "recording cascade failed", logging.ErrKey, err)
		return session, o.failSession(ctx, session, fmt.Sprintf("recording start failed: %v", err))
	}

	session.Status = models.SessionStatusRecording
	session.RecordingMethod = result.Method
	session.StatusMessage = result.Message
	session.Touch()
	if err := o.sessionRepository.Save(ctx, session); err != nil {
		return session, err
	}
	o.registry.Track(session)

	slog.InfoContext(ctx, "session recording started",
		"method", result.Method, "session_uid", session.UID)
	return session, nil
}

// HandleMeetingEnded reacts to a meeting.ended notification: it stops media
// capture, marks the session ended and either starts post-processing (media
// already present) or completes the session (no media expected). An unknown
// meeting id is logged and ignored.
func (o *Orchestrator) HandleMeetingEnded(ctx context.Context, payload *models.MeetingEndedPayload) error {
	meetingID := payload.Object.ID
	if meetingID == "" {
		return domain.NewValidationError("meeting.ended payload missing meeting id")
	}
	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", meetingID))

	session, err := o.sessionRepository.Get(ctx, meetingID)
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			slog.InfoContext(ctx, "meeting.ended for untracked meeting ignored")
			return nil
		}
		return err
	}
	if session.Status == models.SessionStatusCompleted {
		slog.InfoContext(ctx, "meeting.ended for completed session ignored")
		return nil
	}

	endTime := payload.Object.EndTime
	if endTime.IsZero() {
		endTime = time.Now().UTC()
	}

	// A recording.completed notification may have already moved the session
	// into processing. The pipeline is in flight; record the end time only.
	if session.Status == models.SessionStatusProcessing {
		slog.InfoContext(ctx, "meeting.ended after processing started, recording end time only")
		session.MarkEnded(endTime)
		return o.sessionRepository.Save(ctx, session)
	}

	o.stopCapture(ctx, session)

	session.MarkEnded(endTime)
	if err := o.sessionRepository.Save(ctx, session); err != nil {
		return err
	}
	o.registry.Release(meetingID)

	return o.finalize(ctx, session)
}

// HandleRecordingCompleted reacts to a recording.completed notification. The
// session is upserted so a recording whose start notification was missed (or
// whose session already completed without media) is still processed.
func (o *Orchestrator) HandleRecordingCompleted(ctx context.Context, payload *models.RecordingCompletedPayload) error {
	meetingID := payload.Object.ID.String()
	if meetingID == "" {
		return domain.NewValidationError("recording.completed payload missing meeting id")
	}
	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", meetingID))

	session, err := o.sessionRepository.Get(ctx, meetingID)
	if err != nil {
		if domain.GetErrorType(err) != domain.ErrorTypeNotFound {
			return err
		}
		now := time.Now().UTC()
		startTime := payload.Object.StartTime
		session = &models.Session{
			UID:             uuid.NewString(),
			MeetingID:       meetingID,
			Topic:           payload.Object.Topic,
			HostID:          payload.Object.HostID,
			Status:          models.SessionStatusEnded,
			RecordingMethod: models.RecordingMethodCloud,
			DurationSeconds: payload.Object.Duration * 60,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if !startTime.IsZero() {
			session.StartTime = &startTime
		}
		slog.InfoContext(ctx, "recording.completed for untracked meeting, session created")
	}

	audio := payload.AudioFile()
	if audio == nil {
		slog.WarnContext(ctx, "recording contains no audio asset",
			"recording_count", payload.Object.RecordingCount)
		if session.Active() {
			return o.finalize(ctx, session)
		}
		return nil
	}

	if !session.CanTransitionTo(models.SessionStatusProcessing) {
		slog.WarnContext(ctx, "session cannot enter processing",
			"status", session.Status)
		return nil
	}

	session.MediaLocator = audio.DownloadURL
	session.Status = models.SessionStatusProcessing
	session.Touch()
	if err := o.sessionRepository.Save(ctx, session); err != nil {
		return err
	}
	o.registry.Release(meetingID)
	o.registry.Untrack(meetingID)
	o.updateActiveGauge()

	return o.pipeline.Process(ctx, session)
}

// StopRecording stops media capture for a session on explicit request and
// moves it out of the recording state, the same path a meeting.ended
// notification takes.
func (o *Orchestrator) StopRecording(ctx context.Context, meetingID string) (*models.Session, error) {
	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", meetingID))

	session, err := o.sessionRepository.Get(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if session.Terminal() {
		return nil, domain.NewConflictError(
			fmt.Sprintf("session for meeting %s is already %s", meetingID, session.Status))
	}

	o.stopCapture(ctx, session)

	session.MarkEnded(time.Now().UTC())
	if err := o.sessionRepository.Save(ctx, session); err != nil {
		return nil, err
	}
	o.registry.Release(meetingID)

	if err := o.finalize(ctx, session); err != nil {
		return session, err
	}
	return session, nil
}

// GetSession returns the session for a meeting id.
func (o *Orchestrator) GetSession(ctx context.Context, meetingID string) (*models.Session, error) {
	return o.sessionRepository.Get(ctx, meetingID)
}

// ListSessions returns all persisted sessions.
func (o *Orchestrator) ListSessions(ctx context.Context) ([]*models.Session, error) {
	return o.sessionRepository.ListAll(ctx)
}

// HandleBotFinished tears down the automated participant for a meeting after
// the bot page signals natural completion.
func (o *Orchestrator) HandleBotFinished(ctx context.Context, meetingID string) error {
	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", meetingID))
	slog.InfoContext(ctx, "bot signaled completion")
	return o.botManager.Stop(ctx, meetingID)
}

// SweepStaleSessions force-completes sessions with no activity inside the
// staleness window. It is the safety net for meetings whose ended
// notification never arrives and for bots orphaned by a process restart.
func (o *Orchestrator) SweepStaleSessions(ctx context.Context) int {
	sessions, err := o.sessionRepository.ListActive(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "listing active sessions for sweep failed", logging.ErrKey, err)
		return 0
	}

	cutoff := time.Now().UTC().Add(-o.staleAfter)
	var jobs []func() error
	for _, session := range sessions {
		if !session.UpdatedAt.Before(cutoff) {
			continue
		}
		jobs = append(jobs, func() error {
			return o.sweepOne(ctx, session)
		})
	}
	if len(jobs) == 0 {
		return 0
	}

	swept := len(jobs)
	for _, err := range o.sweepPool.RunAll(ctx, jobs...) {
		slog.ErrorContext(ctx, "sweeping stale session failed", logging.ErrKey, err)
		swept--
	}
	o.updateActiveGauge()
	return swept
}

func (o *Orchestrator) sweepOne(ctx context.Context, session *models.Session) error {
	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", session.MeetingID))

	o.stopCapture(ctx, session)

	if session.EndTime == nil {
		now := time.Now().UTC()
		session.EndTime = &now
		if session.StartTime != nil {
			session.DurationSeconds = int(now.Sub(*session.StartTime) / time.Second)
		}
	}
	session.Status = models.SessionStatusCompleted
	session.ProcessingError = staleTimeoutNote
	session.Touch()
	if err := o.sessionRepository.Save(ctx, session); err != nil {
		return err
	}

	o.registry.Release(session.MeetingID)
	o.registry.Untrack(session.MeetingID)
	telemetry.CountSessionSweptStale()
	slog.InfoContext(ctx, "stale session force-completed",
		"last_update", session.UpdatedAt)
	return nil
}

// stopCapture ends media capture for the session's method. Failures are
// logged but never block the lifecycle transition.
func (o *Orchestrator) stopCapture(ctx context.Context, session *models.Session) {
	var accessToken string
	if session.RecordingMethod == models.RecordingMethodCloud {
		token, err := o.credentials.GetValidToken(ctx, session.HostID)
		if err != nil {
			slog.WarnContext(ctx, "no valid token to stop cloud recording", logging.ErrKey, err)
		}
		accessToken = token
	}
	if err := o.cascade.StopRecording(ctx, session, accessToken); err != nil {
		slog.WarnContext(ctx, "stopping recording failed", logging.ErrKey, err,
			"method", session.RecordingMethod)
	}
}

// finalize moves an ended session forward: media present starts the
// processing pipeline, no media completes the session directly. Cloud
// recordings without a locator stay ended until recording.completed arrives.
func (o *Orchestrator) finalize(ctx context.Context, session *models.Session) error {
	if session.MediaLocator != "" {
		if !session.CanTransitionTo(models.SessionStatusProcessing) {
			return nil
		}
		session.Status = models.SessionStatusProcessing
		session.Touch()
		if err := o.sessionRepository.Save(ctx, session); err != nil {
			return err
		}
		o.registry.Untrack(session.MeetingID)
		o.updateActiveGauge()
		return o.pipeline.Process(ctx, session)
	}

	if session.RecordingMethod == models.RecordingMethodCloud && session.Status == models.SessionStatusEnded {
		// The platform uploads cloud recordings asynchronously; the
		// recording.completed notification finishes this session.
		slog.InfoContext(ctx, "awaiting cloud recording upload")
		return nil
	}

	if session.CanTransitionTo(models.SessionStatusCompleted) {
		session.Status = models.SessionStatusCompleted
		if session.StatusMessage == "" {
			session.StatusMessage = "no recording available to process"
		}
		session.Touch()
		if err := o.sessionRepository.Save(ctx, session); err != nil {
			return err
		}
		telemetry.CountSessionCompleted()
	}
	o.registry.Untrack(session.MeetingID)
	o.updateActiveGauge()
	return nil
}

// failSession records an unrecoverable error on the session and persists it.
func (o *Orchestrator) failSession(ctx context.Context, session *models.Session, cause string) error {
	session.MarkFailed(cause)
	if err := o.sessionRepository.Save(ctx, session); err != nil {
		slog.ErrorContext(ctx, "persisting failed session", logging.ErrKey, err)
		return err
	}
	// Give back the claim so a retried started notification is not blocked
	// until the claim TTL lapses.
	o.registry.Release(session.MeetingID)
	o.registry.Untrack(session.MeetingID)
	telemetry.CountSessionFailed()
	o.updateActiveGauge()
	return nil
}

func (o *Orchestrator) updateActiveGauge() {
	telemetry.SetActiveSessions(len(o.registry.ActiveSessions()))
}
