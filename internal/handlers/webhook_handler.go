// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/meetscribe/meeting-recorder-service/internal/domain/models"
	"github.com/meetscribe/meeting-recorder-service/internal/logging"
)

// Zoom webhook headers carrying the signature scheme inputs.
const (
	headerSignature        = "x-zm-signature"
	headerRequestTimestamp = "x-zm-request-timestamp"
)

// maxWebhookBodyBytes bounds the raw body read for signature verification.
const maxWebhookBodyBytes = 1 << 20

// HandleWebhook receives platform event notifications. The signature is
// verified over the raw body before anything is decoded; a failed
// verification is rejected with no state change. URL-validation challenges
// are answered synchronously; all other events are acknowledged with 200
// immediately and processed asynchronously.
func (h *Handlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
		return
	}

	event, err := h.webhookService.VerifyAndParse(body,
		r.Header.Get(headerSignature), r.Header.Get(headerRequestTimestamp))
	if err != nil {
		slog.WarnContext(r.Context(), "webhook request rejected", logging.ErrKey, err)
		writeError(w, err)
		return
	}

	if event.Event == models.EventEndpointURLValidation {
		challenge, err := h.webhookService.Challenge(event)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, challenge)
		return
	}

	// Ack before processing; the platform retries slow endpoints.
	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})

	ctx := context.WithoutCancel(r.Context())
	go func() {
		if err := h.webhookService.Dispatch(ctx, event); err != nil {
			slog.ErrorContext(ctx, "webhook event processing failed",
				logging.ErrKey, err, slog.String("event", event.Event))
		}
	}()
}
