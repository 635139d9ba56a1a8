// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

// Package handlers exposes the HTTP API: the platform webhook endpoint,
// session queries, the bot completion callback, health and metrics.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/meetscribe/meeting-recorder-service/internal/domain"
	"github.com/meetscribe/meeting-recorder-service/internal/logging"
	"github.com/meetscribe/meeting-recorder-service/internal/service"
)

// Handlers holds the dependencies of all HTTP handlers.
type Handlers struct {
	webhookService *service.WebhookService
	orchestrator   *service.Orchestrator
	readiness      func() bool
}

// NewHandlers creates the handler set. readiness reports whether downstream
// dependencies (the NATS connection) are usable; nil means always ready.
func NewHandlers(webhookService *service.WebhookService, orchestrator *service.Orchestrator, readiness func() bool) *Handlers {
	return &Handlers{
		webhookService: webhookService,
		orchestrator:   orchestrator,
		readiness:      readiness,
	}
}

// NewMux returns the HTTP handler with all routes registered.
func (h *Handlers) NewMux() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /healthz", h.HandleHealthz)
	mux.HandleFunc("GET /readyz", h.HandleReadyz)

	mux.HandleFunc("POST /webhook", h.HandleWebhook)

	mux.HandleFunc("GET /sessions", h.HandleSessionsList)
	mux.HandleFunc("GET /sessions/{meetingID}", h.HandleSessionGet)
	mux.HandleFunc("POST /sessions/{meetingID}/stop", h.HandleSessionStop)

	mux.HandleFunc("POST /bot/{meetingID}/finished", h.HandleBotFinished)

	return otelhttp.NewHandler(requestLogger(mux), "recorder-api")
}

// HandleHealthz reports process liveness.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReadyz reports whether downstream dependencies are usable.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	if h.readiness != nil && !h.readiness() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response failed", logging.ErrKey, err)
	}
}

// writeError maps a domain error to its HTTP status and writes it.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch domain.GetErrorType(err) {
	case domain.ErrorTypeValidation:
		status = http.StatusBadRequest
	case domain.ErrorTypeUnauthorized:
		status = http.StatusUnauthorized
	case domain.ErrorTypeNotFound:
		status = http.StatusNotFound
	case domain.ErrorTypeConflict:
		status = http.StatusConflict
	case domain.ErrorTypeUnavailable:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
