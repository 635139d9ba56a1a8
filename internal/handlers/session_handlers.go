// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package handlers

import (
	"net/http"

	"github.com/meetscribe/meeting-recorder-service/internal/domain"
)

// HandleSessionsList returns all tracked sessions.
func (h *Handlers) HandleSessionsList(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.orchestrator.ListSessions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// HandleSessionGet returns the session for a meeting id.
func (h *Handlers) HandleSessionGet(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("meetingID")
	if meetingID == "" {
		writeError(w, domain.NewValidationError("missing meeting id"))
		return
	}
	session, err := h.orchestrator.GetSession(r.Context(), meetingID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// HandleSessionStop stops media capture for a session on explicit request.
func (h *Handlers) HandleSessionStop(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("meetingID")
	if meetingID == "" {
		writeError(w, domain.NewValidationError("missing meeting id"))
		return
	}
	session, err := h.orchestrator.StopRecording(r.Context(), meetingID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// HandleBotFinished is the callback the bot join page invokes when its
// participation naturally ends.
func (h *Handlers) HandleBotFinished(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("meetingID")
	if meetingID == "" {
		writeError(w, domain.NewValidationError("missing meeting id"))
		return
	}
	if err := h.orchestrator.HandleBotFinished(r.Context(), meetingID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}
