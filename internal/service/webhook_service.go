// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/meetscribe/meeting-recorder-service/internal/domain"
	"github.com/meetscribe/meeting-recorder-service/internal/domain/models"
	"github.com/meetscribe/meeting-recorder-service/internal/logging"
	"github.com/meetscribe/meeting-recorder-service/internal/telemetry"
)

// URLValidationResponse is echoed back for endpoint.url_validation events.
type URLValidationResponse struct {
	PlainToken     string `json:"plainToken"`
	EncryptedToken string `json:"encryptedToken"`
}

// WebhookService verifies inbound platform notifications and dispatches them
// to the orchestrator. Verification happens over the raw body before any
// payload is decoded, so a rejected request never mutates state.
type WebhookService struct {
	validator    domain.WebhookValidator
	orchestrator *Orchestrator
}

// NewWebhookService creates the webhook service.
func NewWebhookService(validator domain.WebhookValidator, orchestrator *Orchestrator) *WebhookService {
	return &WebhookService{
		validator:    validator,
		orchestrator: orchestrator,
	}
}

// VerifyAndParse checks the HMAC signature over the raw body and decodes the
// event envelope. Signature failure is an unauthorized error with no state
// change.
func (s *WebhookService) VerifyAndParse(body []byte, signature, timestamp string) (*models.WebhookEvent, error) {
	if err := s.validator.ValidateSignature(body, signature, timestamp); err != nil {
		if telemetry.WebhookEventsRejected != nil {
			telemetry.WebhookEventsRejected.Inc()
		}
		return nil, err
	}

	var event models.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, domain.NewValidationError("failed to parse webhook event", err)
	}
	if event.Event == "" {
		return nil, domain.NewValidationError("webhook event missing event type")
	}
	return &event, nil
}

// Challenge answers an endpoint.url_validation event.
func (s *WebhookService) Challenge(event *models.WebhookEvent) (*URLValidationResponse, error) {
	payload, err := event.ToURLValidationPayload()
	if err != nil {
		return nil, domain.NewValidationError("invalid url_validation payload", err)
	}
	return &URLValidationResponse{
		PlainToken:     payload.PlainToken,
		EncryptedToken: s.validator.ChallengeResponse(payload.PlainToken),
	}, nil
}

// Dispatch routes a verified event to its lifecycle handler. Unrecognized
// events are logged and ignored.
func (s *WebhookService) Dispatch(ctx context.Context, event *models.WebhookEvent) error {
	ctx = logging.AppendCtx(ctx, slog.String("event", event.Event))
	if telemetry.WebhookEventsReceived != nil {
		telemetry.WebhookEventsReceived.WithLabelValues(event.Event).Inc()
	}

	switch event.Event {
	case models.EventMeetingStarted:
		payload, err := event.ToMeetingStartedPayload()
		if err != nil {
			return domain.NewValidationError("invalid meeting.started payload", err)
		}
		_, err = s.orchestrator.HandleMeetingStarted(ctx, payload)
		return err

	case models.EventMeetingEnded:
		payload, err := event.ToMeetingEndedPayload()
		if err != nil {
			return domain.NewValidationError("invalid meeting.ended payload", err)
		}
		return s.orchestrator.HandleMeetingEnded(ctx, payload)

	case models.EventRecordingCompleted:
		payload, err := event.ToRecordingCompletedPayload()
		if err != nil {
			return domain.NewValidationError("invalid recording.completed payload", err)
		}
		return s.orchestrator.HandleRecordingCompleted(ctx, payload)

	default:
		slog.InfoContext(ctx, "unrecognized webhook event ignored")
		return nil
	}
}
