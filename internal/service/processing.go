// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meetscribe/meeting-recorder-service/internal/domain"
	"github.com/meetscribe/meeting-recorder-service/internal/domain/models"
	"github.com/meetscribe/meeting-recorder-service/internal/logging"
	"github.com/meetscribe/meeting-recorder-service/internal/telemetry"
)

// ProcessingPipeline turns a session's captured media into a transcript,
// summary and action items. Each stage persists its output before the next
// stage runs, so a later failure never discards earlier results.
type ProcessingPipeline struct {
	sessionRepository domain.SessionRepository
	mediaFetcher      domain.MediaFetcher
	transcriber       domain.Transcriber
	summarizer        domain.Summarizer
}

// NewProcessingPipeline creates a pipeline over the given capabilities.
func NewProcessingPipeline(
	sessionRepository domain.SessionRepository,
	mediaFetcher domain.MediaFetcher,
	transcriber domain.Transcriber,
	summarizer domain.Summarizer,
) *ProcessingPipeline {
	return &ProcessingPipeline{
		sessionRepository: sessionRepository,
		mediaFetcher:      mediaFetcher,
		transcriber:       transcriber,
		summarizer:        summarizer,
	}
}

// Process runs the full pipeline for the session. The session must already be
// in the processing state with a media locator set. On stage failure the
// session is marked failed with the stage's error while keeping any partial
// results already persisted.
func (p *ProcessingPipeline) Process(ctx context.Context, session *models.Session) error {
	defer telemetry.StartTimer(telemetry.ProcessingDuration)()

	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", session.MeetingID))
	ctx = logging.AppendCtx(ctx, slog.String("session_uid", session.UID))

	if session.MediaLocator == "" {
		return p.fail(ctx, session, "no media available for processing")
	}

	mediaPath, cleanup, err := p.mediaFetcher.Fetch(ctx, session.MediaLocator)
	if err != nil {
		slog.ErrorContext(ctx, "fetching session media failed", logging.ErrKey, err)
		return p.fail(ctx, session, fmt.Sprintf("media fetch failed: %v", err))
	}
	defer cleanup()

	transcript, err := p.transcriber.Transcribe(ctx, mediaPath)
	if err != nil {
		slog.ErrorContext(ctx, "transcription failed", logging.ErrKey, err)
		return p.fail(ctx, session, fmt.Sprintf("transcription failed: %v", err))
	}

	session.Transcript = transcript.Text
	if transcript.DurationSeconds > 0 && session.DurationSeconds == 0 {
		session.DurationSeconds = transcript.DurationSeconds
	}
	session.Touch()
	if err := p.sessionRepository.Save(ctx, session); err != nil {
		slog.ErrorContext(ctx, "persisting transcript failed", logging.ErrKey, err)
		return err
	}
	slog.DebugContext(ctx, "transcript persisted",
		slog.Int("transcript_length", len(transcript.Text)))

	summary, err := p.summarizer.Summarize(ctx, transcript.Text)
	if err != nil {
		slog.ErrorContext(ctx, "summarization failed", logging.ErrKey, err)
		return p.fail(ctx, session, fmt.Sprintf("summarization failed: %v", err))
	}

	session.Summary = summary.Summary
	session.ActionItems = summary.ActionItems
	session.Status = models.SessionStatusCompleted
	session.StatusMessage = "processing complete"
	session.Touch()
	if err := p.sessionRepository.Save(ctx, session); err != nil {
		slog.ErrorContext(ctx, "persisting summary failed", logging.ErrKey, err)
		return err
	}

	telemetry.CountSessionCompleted()
	slog.InfoContext(ctx, "session processing complete",
		slog.Int("action_items", len(summary.ActionItems)))

	return nil
}

// fail marks the session failed with the cause and persists it. Partial
// results written by earlier stages stay on the session.
func (p *ProcessingPipeline) fail(ctx context.Context, session *models.Session, cause string) error {
	session.MarkFailed(cause)
	if err := p.sessionRepository.Save(ctx, session); err != nil {
		slog.ErrorContext(ctx, "persisting failed session state", logging.ErrKey, err)
		return err
	}
	telemetry.CountSessionFailed()
	return domain.NewInternalError(cause)
}
